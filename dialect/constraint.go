package dialect

import (
	"errors"
	"strings"
)

// Constraint-detection duck-typed interfaces, grounded on the teacher's
// dialect/sql/sqlgraph/errors.go: rather than importing every driver
// package just to type-assert its error type, dialects detect the
// smallest possible shape each driver actually exposes.
type errorCoder interface{ Code() string }       // pq.Error, pgx
type errorNumberer interface{ Number() uint16 }  // mysql.MySQLError
type sqlStateError interface{ SQLState() string } // pq.Error, pgx

// asError walks err's chain looking for an implementation of T.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// PostgreSQL SQLSTATE codes, class 23 (integrity constraint violation).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL/MariaDB error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451
	mysqlForeignKeyChild        = 1452
	mysqlCheckConstraintViolate = 3819
)

func postgresLikeUniqueViolation(err error) bool {
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgUniqueViolation {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == pgUniqueViolation {
		return true
	}
	return containsAny(err.Error(), "violates unique constraint")
}

func postgresLikeForeignKeyViolation(err error) bool {
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgForeignKeyViolation {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == pgForeignKeyViolation {
		return true
	}
	return containsAny(err.Error(), "violates foreign key constraint")
}

func postgresLikeCheckViolation(err error) bool {
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == pgCheckViolation {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == pgCheckViolation {
		return true
	}
	return containsAny(err.Error(), "violates check constraint")
}

func mysqlUniqueViolation(err error) bool {
	if e, ok := asError[errorNumberer](err); ok && e.Number() == mysqlDuplicateEntry {
		return true
	}
	return containsAny(err.Error(), "Error 1062")
}

func mysqlForeignKeyViolation(err error) bool {
	if e, ok := asError[errorNumberer](err); ok {
		if n := e.Number(); n == mysqlForeignKeyParent || n == mysqlForeignKeyChild {
			return true
		}
	}
	return containsAny(err.Error(), "Error 1451", "Error 1452")
}

func mysqlCheckViolation(err error) bool {
	if e, ok := asError[errorNumberer](err); ok && e.Number() == mysqlCheckConstraintViolate {
		return true
	}
	return containsAny(err.Error(), "Error 3819")
}

func sqliteUniqueViolation(err error) bool {
	return containsAny(err.Error(), "UNIQUE constraint failed")
}

func sqliteForeignKeyViolation(err error) bool {
	return containsAny(err.Error(), "FOREIGN KEY constraint failed")
}

func sqliteCheckViolation(err error) bool {
	return containsAny(err.Error(), "CHECK constraint failed")
}

func neverViolation(error) bool { return false }
