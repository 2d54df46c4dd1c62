package dbcontext

import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// These blank imports register the database/sql drivers that
// driverNames/resolveDriverName promise by name ("postgres", "mysql",
// "sqlite"), so sql.Open succeeds for the three engines this module
// ships first-class support for without every caller needing to import
// a provider driver itself. A caller targeting an engine outside this
// set (SQL Server, Oracle, Firebird, CockroachDB over its own driver,
// DuckDB) still imports and registers that driver and passes its
// ProviderName straight through resolveDriverName's fallback.
