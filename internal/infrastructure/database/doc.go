// Package database manages the SQLite connection and schema migrations.
//
// The store is opened with WAL mode, a busy timeout, and foreign keys ON;
// relational cascade rules carry the ownership semantics between series,
// sensors, and measurements. Migrations are embedded .sql files applied
// in version order, each in its own transaction.
package database
