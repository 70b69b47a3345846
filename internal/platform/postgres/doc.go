// Package postgres implements the store interfaces and the job queue store on
// PostgreSQL through database/sql and the pgx stdlib driver.
//
// Id lists (assignees, followers, mentions) are stored as JSONB arrays.
// The schema lives in the embedded goose migrations; see Migrate.
package postgres
