package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// SQLStandardLevel is the SQL standard a detected engine version claims to
// implement. It downgrades to Sql92 whenever detection or parsing fails.
type SQLStandardLevel int

const (
	SQLStandardUnknown SQLStandardLevel = iota
	SQLStandard92
	SQLStandard99
	SQLStandard2003
	SQLStandard2008
	SQLStandard2011
	SQLStandard2016
)

func (l SQLStandardLevel) String() string {
	switch l {
	case SQLStandard92:
		return "SQL-92"
	case SQLStandard99:
		return "SQL-99"
	case SQLStandard2003:
		return "SQL:2003"
	case SQLStandard2008:
		return "SQL:2008"
	case SQLStandard2011:
		return "SQL:2011"
	case SQLStandard2016:
		return "SQL:2016"
	default:
		return "unknown"
	}
}

// Version is a parsed engine version. Comparisons are numeric on
// Major/Minor/Patch; Raw retains the original server-reported string for
// diagnostics.
type Version struct {
	Major, Minor, Patch int
	Raw                 string
}

// String returns Raw when it is set, otherwise the dotted
// Major.Minor.Patch form.
func (v Version) String() string {
	if v.Raw != "" {
		return v.Raw
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 as v is less than, equal to, or greater than o,
// comparing Major/Minor/Patch in that order.
func (v Version) Compare(o Version) int {
	for _, pair := range [][2]int{{v.Major, o.Major}, {v.Minor, o.Minor}, {v.Patch, o.Patch}} {
		if pair[0] != pair[1] {
			if pair[0] < pair[1] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// ParseDottedVersion parses the leading "N.N.N" run out of raw, ignoring any
// trailing suffix (build metadata, engine-specific decorations). Every
// built-in dialect variant parses with it (MySQL/MariaDB first cut the
// string at its first "-"); for a longer run such as Oracle's
// "19.0.0.0.0" only the first three numbers are kept.
func ParseDottedVersion(raw string) (*Version, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("dialect: empty version string")
	}
	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r != '.' && (r < '0' || r > '9')
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("dialect: no numeric version found in %q", raw)
	}
	parts := strings.SplitN(fields[0], ".", 4)
	v := &Version{Raw: trimmed}
	nums := make([]int, 0, 3)
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		nums = append(nums, n)
		if len(nums) == 3 {
			break
		}
	}
	if len(nums) == 0 {
		return nil, fmt.Errorf("dialect: no numeric version found in %q", raw)
	}
	if len(nums) > 0 {
		v.Major = nums[0]
	}
	if len(nums) > 1 {
		v.Minor = nums[1]
	}
	if len(nums) > 2 {
		v.Patch = nums[2]
	}
	return v, nil
}

// ProductInfo describes the detected engine. It is populated exactly once,
// by Descriptor.DetectInfo, and never mutated afterward.
type ProductInfo struct {
	ProductName      string
	RawVersion       string
	ParsedVersion    *Version
	SQLStandardLevel SQLStandardLevel
}

// unknownProductInfo is the fallback when detection fails entirely.
func unknownProductInfo() ProductInfo {
	return ProductInfo{
		ProductName:      "unknown",
		SQLStandardLevel: SQLStandard92,
	}
}

// VersionQuerier runs a single scalar query and returns the raw string
// result. connstrategy's tracked connections and *sql.DB/*sql.Tx both
// satisfy this through a small adapter, keeping dialect free of a
// database/sql import.
type VersionQuerier interface {
	QueryVersionString(query string) (string, error)
}
