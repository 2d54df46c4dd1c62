package coercion

import (
	"fmt"
	"net"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/dbcore/dialect"
)

// MsgpackValue is the fallback envelope for any shape the registry has no
// dedicated coercion for: callers bind bytes they have already encoded
// (e.g. with msgpack), which are sent as a binary parameter and read back
// unchanged. The coercion itself does no encoding or decoding.
type MsgpackValue struct {
	Raw []byte
}

var typeOfMsgpackValue = reflect.TypeOf(MsgpackValue{})

func registerMsgpackFallback(r *Registry) {
	r.RegisterConverter(typeOfMsgpackValue, Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			mv, ok := value.(MsgpackValue)
			if !ok {
				return fmt.Errorf("coercion: expected MsgpackValue, got %T", value)
			}
			spec.DBType = dialect.DBTypeBinary
			spec.Value = mv.Raw
			return nil
		},
		ReadValue: func(raw any) (any, error) {
			b, ok := raw.([]byte)
			if !ok {
				return nil, fmt.Errorf("coercion: cannot coerce %T to MsgpackValue", raw)
			}
			return MsgpackValue{Raw: b}, nil
		},
	})

	registerCIDRShim(r)
}

// CIDRShim is the duck-typed fallback spec.md §4.6 calls out by example:
// any msgpack map carrying "Address" (the IP's bytes) and "Netmask" (a byte
// prefix length) deserializes as a net.IPNet without a column or caller
// ever declaring CIDRShim explicitly.
type CIDRShim struct {
	Address net.IP `msgpack:"Address"`
	Netmask byte   `msgpack:"Netmask"`
}

var typeOfIPNet = reflect.TypeOf(net.IPNet{})

func registerCIDRShim(r *Registry) {
	r.RegisterConverter(typeOfIPNet, Coercion{
		ConfigureParam: func(spec *dialect.ParamSpec, value any) error {
			ipNet, ok := value.(net.IPNet)
			if !ok {
				return fmt.Errorf("coercion: expected net.IPNet, got %T", value)
			}
			ones, _ := ipNet.Mask.Size()
			raw, err := msgpack.Marshal(CIDRShim{Address: ipNet.IP, Netmask: byte(ones)})
			if err != nil {
				return fmt.Errorf("coercion: encoding CIDR shim: %w", err)
			}
			spec.DBType = dialect.DBTypeBinary
			spec.Value = raw
			return nil
		},
		ReadValue: func(raw any) (any, error) {
			b, ok := raw.([]byte)
			if !ok {
				return nil, fmt.Errorf("coercion: cannot coerce %T to net.IPNet", raw)
			}
			var shim CIDRShim
			if err := msgpack.Unmarshal(b, &shim); err != nil {
				return nil, fmt.Errorf("coercion: decoding CIDR shim: %w", err)
			}
			bits := 32
			if shim.Address.To4() == nil {
				bits = 128
			}
			return net.IPNet{IP: shim.Address, Mask: net.CIDRMask(int(shim.Netmask), bits)}, nil
		},
	})
}
