package db

import (
	"database/sql"
)

// Database is a connectable SQL database handle.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}
