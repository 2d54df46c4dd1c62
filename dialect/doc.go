// Package dialect encodes every behavioral difference between the SQL
// engines dbcore talks to. Callers elsewhere consult a Descriptor's flags
// and methods; they never branch on engine identity directly.
//
// # Supported engines
//
//	dialect.SQLServer   = "sqlserver"
//	dialect.Postgres    = "postgres"
//	dialect.MySQL       = "mysql"
//	dialect.MariaDB     = "mariadb"
//	dialect.SQLite      = "sqlite"
//	dialect.Oracle      = "oracle"
//	dialect.Firebird    = "firebird"
//	dialect.CockroachDB = "cockroachdb"
//	dialect.DuckDB      = "duckdb"
//
// # Descriptor
//
// A Descriptor is immutable once its ProductInfo has been populated by
// DetectInfo. It exposes identifier quoting, parameter markers, feature
// flags, isolation resolution and session preambles:
//
//	d := dialect.New(dialect.Postgres)
//	d.WrapObjectName("Users.Id")  // `"Users"."Id"`
//	d.MakeParameterName("id")     // "$": PostgreSQL is positional, so only the bare marker
//
// # VersionQuerier
//
// DetectInfo reads the server version through the VersionQuerier
// interface, which the connstrategy package's tracked connections
// implement; dialect itself does not import database/sql, so engines
// without a driver registered in this module (SQL Server, Oracle,
// Firebird, DuckDB; see SPEC_FULL.md §13) can still be fully described
// and used through a driver the caller registers.
package dialect
