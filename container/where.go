package container

import (
	"strings"
)

// BuildWhere returns a dialect-neutral predicate fragment (using {S}
// neutral parameter tokens, one per value) and the matching arg slice for
// testing column against values:
//   - an empty values list returns an always-false predicate ("1 = 0")
//     and no args, so callers can unconditionally AND/OR it in;
//   - exactly one value uses "column = {S}";
//   - more than one value uses "column IN ({S}, {S}, ...)", split across
//     multiple OR'd IN(...) groups when len(values) would otherwise
//     exceed maxParams per container (maxParams <= 0 means unbounded).
func BuildWhere(column string, values []any, maxParams int) (string, []any) {
	if len(values) == 0 {
		return "1 = 0", nil
	}
	if len(values) == 1 {
		return column + " = {S}", values
	}
	if maxParams <= 0 || len(values) <= maxParams {
		return column + " IN (" + placeholders(len(values)) + ")", values
	}

	var groups []string
	var args []any
	for start := 0; start < len(values); start += maxParams {
		end := min(start+maxParams, len(values))
		chunk := values[start:end]
		groups = append(groups, column+" IN ("+placeholders(len(chunk))+")")
		args = append(args, chunk...)
	}
	return "(" + strings.Join(groups, " OR ") + ")", args
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	var sb strings.Builder
	for i := range n {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{S}")
	}
	return sb.String()
}
