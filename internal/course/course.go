// Package course opens and seeds the course database: the small star-schema
// marketing dataset that learners query from the sandbox and challenge tabs.
package course

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS dim_produto (
	id_produto INTEGER PRIMARY KEY,
	nome_produto TEXT,
	categoria TEXT,
	preco REAL
);

CREATE TABLE IF NOT EXISTS dim_campanha (
	id_campanha INTEGER PRIMARY KEY,
	canal TEXT,
	objetivo TEXT
);

CREATE TABLE IF NOT EXISTS fato_marketing (
	id_fato INTEGER PRIMARY KEY,
	id_produto INTEGER,
	id_campanha INTEGER,
	data TEXT,
	impressoes INTEGER,
	cliques INTEGER,
	gastos REAL,
	vendas INTEGER,
	FOREIGN KEY (id_produto) REFERENCES dim_produto(id_produto),
	FOREIGN KEY (id_campanha) REFERENCES dim_campanha(id_campanha)
);
`

const seed = `
INSERT INTO dim_produto (id_produto, nome_produto, categoria, preco) VALUES
(1, 'Refrigerante Cola', 'Refrigerante', 6.50),
(2, 'Água Mineral 500ml', 'Água', 2.50),
(3, 'Suco Tropical', 'Suco', 7.90);

INSERT INTO dim_campanha (id_campanha, canal, objetivo) VALUES
(101, 'Instagram', 'Alcance'),
(102, 'Facebook', 'Conversão'),
(103, 'Google Ads', 'Cliques');

INSERT INTO fato_marketing (
	id_fato, id_produto, id_campanha, data,
	impressoes, cliques, gastos, vendas
) VALUES
(1, 1, 101, '2025-01-10', 50000, 1200, 800.00, 150),
(2, 1, 102, '2025-01-11', 30000, 800, 600.00, 90),
(3, 2, 103, '2025-01-12', 45000, 2000, 1500.00, 300),
(4, 3, 101, '2025-01-10', 20000, 400, 300.00, 45),
(5, 3, 102, '2025-01-11', 26000, 610, 500.00, 70);
`

// Open opens the course database, creating the schema and inserting the seed
// rows on first run. Safe to call on every start: seeding only happens when
// dim_produto is empty.
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create course database directory: %w", err)
		}
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000&_fk=on"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open course database: %w", err)
	}

	// Learner queries are synchronous single statements; a small pool is
	// plenty.
	db.SetMaxOpenConns(4)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping course database: %w", err)
	}

	if err := initialize(db); err != nil {
		return nil, err
	}

	return db, nil
}

// OpenInMemory opens a seeded in-memory course database, used by tests.
func OpenInMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory course database: %w", err)
	}
	// An in-memory database exists per connection; more than one would each
	// see an empty schema.
	db.SetMaxOpenConns(1)
	if err := initialize(db); err != nil {
		return nil, err
	}
	return db, nil
}

func initialize(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create course schema: %w", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM dim_produto`).Scan(&count); err != nil {
		return fmt.Errorf("check seed state: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(seed); err != nil {
			return fmt.Errorf("insert seed data: %w", err)
		}
	}
	return nil
}

// TableInfo describes one course table for the sandbox schema endpoint.
type TableInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Tables lists the course tables and their columns.
func Tables(ctx context.Context, db *sql.DB) ([]TableInfo, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	tables := make([]TableInfo, 0, len(names))
	for _, name := range names {
		cols, err := tableColumns(ctx, db, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, TableInfo{Name: name, Columns: cols})
	}
	return tables, nil
}

func tableColumns(ctx context.Context, db *sql.DB, tableName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, tableName))
	if err != nil {
		return nil, fmt.Errorf("table info for %s: %w", tableName, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column info: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return cols, nil
}
