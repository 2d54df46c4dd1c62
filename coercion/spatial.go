package coercion

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/syssam/dbcore/dialect"
)

// SpatialValue pairs a parsed geometry with its spatial reference id. SRID
// travels out-of-band from plain WKB (PostGIS's "EWKB" extension stuffs it
// into the geometry-type word), so a coercion that round-trips it needs its
// own envelope rather than returning a bare geom.T.
type SpatialValue struct {
	Geom geom.T
	SRID int
}

const ewkbSRIDFlag = 0x20000000

var typeOfSpatialValue = reflect.TypeOf(SpatialValue{})

// registerSpatialCoercion wires WKT/WKB/GeoJSON-backed geometry columns,
// extracting SRID from an EWKB envelope for either byte order per
// spec.md §4.6.
func registerSpatialCoercion(r *Registry) {
	r.RegisterConverter(typeOfSpatialValue, Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			sv, ok := value.(SpatialValue)
			if !ok {
				return fmt.Errorf("coercion: expected SpatialValue, got %T", value)
			}
			raw, err := wkb.Marshal(sv.Geom, binary.LittleEndian)
			if err != nil {
				return fmt.Errorf("coercion: encoding WKB: %w", err)
			}
			spec.DBType = dialect.DBTypeBinary
			spec.Value = encodeEWKB(raw, sv.SRID)
			return nil
		},
		ReadValue: func(raw any) (any, error) {
			switch v := raw.(type) {
			case []byte:
				return decodeEWKB(v)
			case string:
				g, err := wkt.Unmarshal(v)
				if err != nil {
					return nil, fmt.Errorf("coercion: parsing WKT: %w", err)
				}
				return SpatialValue{Geom: g, SRID: g.SRID()}, nil
			default:
				return nil, fmt.Errorf("coercion: cannot coerce %T to SpatialValue", raw)
			}
		},
	})
}

// encodeEWKB prepends an SRID onto a plain little-endian WKB buffer,
// setting the high bit of the geometry-type word the way PostGIS does.
func encodeEWKB(wkbBytes []byte, srid int) []byte {
	if srid == 0 || len(wkbBytes) < 5 {
		return wkbBytes
	}
	geomType := binary.LittleEndian.Uint32(wkbBytes[1:5]) | ewkbSRIDFlag
	out := make([]byte, 0, len(wkbBytes)+4)
	out = append(out, wkbBytes[0])
	typeBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(typeBuf, geomType)
	out = append(out, typeBuf...)
	sridBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(sridBuf, uint32(srid))
	out = append(out, sridBuf...)
	out = append(out, wkbBytes[5:]...)
	return out
}

// decodeEWKB reads the SRID envelope (if present) for either byte order,
// then hands the remaining standard WKB body to go-geom's decoder.
func decodeEWKB(data []byte) (SpatialValue, error) {
	if len(data) < 5 {
		return SpatialValue{}, fmt.Errorf("coercion: EWKB payload too short")
	}
	var order binary.ByteOrder
	switch data[0] {
	case 0:
		order = binary.BigEndian
	case 1:
		order = binary.LittleEndian
	default:
		return SpatialValue{}, fmt.Errorf("coercion: unrecognized WKB byte order %d", data[0])
	}

	geomType := order.Uint32(data[1:5])
	srid := 0
	body := data
	if geomType&ewkbSRIDFlag != 0 {
		if len(data) < 9 {
			return SpatialValue{}, fmt.Errorf("coercion: truncated EWKB SRID envelope")
		}
		srid = int(order.Uint32(data[5:9]))

		plainType := geomType &^ ewkbSRIDFlag
		buf := new(bytes.Buffer)
		buf.WriteByte(data[0])
		typeBuf := make([]byte, 4)
		order.PutUint32(typeBuf, plainType)
		buf.Write(typeBuf)
		buf.Write(data[9:])
		body = buf.Bytes()
	}

	g, err := wkb.Unmarshal(body)
	if err != nil {
		return SpatialValue{}, fmt.Errorf("coercion: parsing WKB body: %w", err)
	}
	if srid != 0 {
		g = g.SetSRID(srid)
	}
	return SpatialValue{Geom: g, SRID: srid}, nil
}
