package dbcontext

import (
	"fmt"
	"strings"

	"github.com/syssam/dbcore/connstrategy"
	"github.com/syssam/dbcore/dialect"
)

// poolingKeyword and applicationNameKeyword are the ADO.NET-style
// connection-string keywords each engine's *.NET* provider recognizes for
// pool sizing and client identification. Only the dialects listed in each
// map get an entry; engines without one simply skip the corresponding
// post-processing rule.
var poolingKeyword = map[dialect.DatabaseKind]string{
	dialect.SQLServer: "Min Pool Size",
	dialect.MySQL:     "minpoolsize",
	dialect.MariaDB:   "minpoolsize",
}

var applicationNameKeyword = map[dialect.DatabaseKind]string{
	dialect.SQLServer: "Application Name",
	dialect.Postgres:  "application_name",
	dialect.MySQL:     "applicationName",
}

// hasKeyword reports whether connStr already sets key (case-insensitively,
// matching ADO.NET/libpq keyword semantics), scanning ";"-delimited
// "key=value" pairs.
func hasKeyword(connStr, key string) bool {
	for _, pair := range strings.Split(connStr, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		eq := strings.IndexByte(pair, '=')
		if eq < 0 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(pair[:eq]), key) {
			return true
		}
	}
	return false
}

func appendKeyword(connStr, key, value string) string {
	sep := ";"
	if connStr == "" || strings.HasSuffix(strings.TrimSpace(connStr), ";") {
		sep = ""
	}
	return fmt.Sprintf("%s%s%s=%s", connStr, sep, key, value)
}

// postProcessConnectionString applies spec.md §6's connection-string
// post-processing rules for connStr on channel's read/write role:
//   - Standard mode with a recognized pooling keyword gets "Min Pool Size=1"
//     (or the engine's equivalent) injected when the caller hasn't already
//     set it.
//   - A PostgreSQL read-only channel gets
//     "Options='-c default_transaction_read_only=on'" appended instead of a
//     session statement.
//   - ApplicationName is stamped in when the dialect recognizes an
//     application-name keyword.
//
// Per spec.md §6's "unknown keyword rejection retains the raw string"
// rule, every transformation here is pure string concatenation — it can
// never itself reject connStr, so there is no failure path to fall back
// from; a caller-supplied connection-string builder that validates
// keywords belongs to the provider driver, not this function.
func postProcessConnectionString(connStr string, d *dialect.Descriptor, mode connstrategy.Mode, readOnly bool, appName string) string {
	out := connStr

	if mode == connstrategy.Standard {
		if key, ok := poolingKeyword[d.Kind]; ok && !hasKeyword(out, key) {
			out = appendKeyword(out, key, "1")
		}
	}

	if d.Kind == dialect.Postgres && readOnly {
		if !hasKeyword(out, "options") {
			out = appendKeyword(out, "Options", "'-c default_transaction_read_only=on'")
		}
	}

	if appName != "" {
		if key, ok := applicationNameKeyword[d.Kind]; ok && !hasKeyword(out, key) {
			out = appendKeyword(out, key, appName)
		}
	}

	return out
}
