package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const SalesTableSchema = `
	CREATE TABLE IF NOT EXISTS sales (
		fingerprint VARCHAR NOT NULL,
		ordinal INTEGER NOT NULL,
		order_id VARCHAR,
		order_date TIMESTAMP,
		region VARCHAR,
		category VARCHAR,
		ship_mode VARCHAR,
		product_name VARCHAR,
		sales DOUBLE NOT NULL,
		PRIMARY KEY (fingerprint, ordinal)
	);
`

const DatasetsTableSchema = `
	CREATE TABLE IF NOT EXISTS datasets (
		name VARCHAR NOT NULL PRIMARY KEY,
		fingerprint VARCHAR NOT NULL,
		row_count INTEGER NOT NULL,
		loaded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

var bootQueries = []string{
	SalesTableSchema,
	DatasetsTableSchema,
}

type Settings struct {
	DbPath  string
	Threads int
}

// NewDB opens a DuckDB database and makes sure the sales schema exists on
// every new connection. An empty path opens an in-memory database.
func NewDB(settings Settings) (*sql.DB, error) {
	path := settings.DbPath
	if path == "" {
		path = ":memory:"
	}
	threads := settings.Threads
	if threads <= 0 {
		threads = 4
	}

	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=%d", path, threads), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return fmt.Errorf("boot query: %w", err)
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
