// Package database provides PostgreSQL connectivity and repositories.
//
// Uses pgx for connection pooling and tern for embedded migrations.
// Repositories accept and return domain types; pgx.ErrNoRows is mapped
// to the domain's not-found sentinels at this boundary.
package database
