package compstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS comps (
	id          TEXT PRIMARY KEY,
	comp_id     TEXT NOT NULL UNIQUE,
	address     TEXT,
	building_sf REAL NOT NULL,
	attributes  TEXT NOT NULL,
	sale        TEXT NOT NULL,
	sale_date   DATETIME,
	imported_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_comps_building_sf ON comps(building_sf);
CREATE INDEX IF NOT EXISTS idx_comps_sale_date ON comps(sale_date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PutComps(ctx context.Context, comps []model.PropertyRecord) (int, error) {
	now := time.Now().UTC()
	count := 0
	for _, c := range comps {
		if c.ID == "" {
			return count, eris.New("sqlite: comp without an id")
		}
		attrsJSON, saleJSON, saleDate, err := encodeComp(&c)
		if err != nil {
			return count, err
		}

		_, err = s.db.ExecContext(ctx,
			`INSERT INTO comps (id, comp_id, address, building_sf, attributes, sale, sale_date, imported_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(comp_id) DO UPDATE SET
			   address = excluded.address, building_sf = excluded.building_sf,
			   attributes = excluded.attributes, sale = excluded.sale,
			   sale_date = excluded.sale_date, imported_at = excluded.imported_at`,
			uuid.New().String(), c.ID, c.Address, c.BuildingSF,
			string(attrsJSON), string(saleJSON), saleDate, now,
		)
		if err != nil {
			return count, eris.Wrapf(err, "sqlite: upsert comp %s", c.ID)
		}
		count++
	}
	return count, nil
}

func (s *SQLiteStore) GetComp(ctx context.Context, compID string) (*model.PropertyRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT comp_id, address, building_sf, attributes, sale FROM comps WHERE comp_id = ?`,
		compID,
	)
	return scanComp(row, compID)
}

func (s *SQLiteStore) ListComps(ctx context.Context, filter Filter) ([]model.PropertyRecord, error) {
	query := `SELECT comp_id, address, building_sf, attributes, sale FROM comps WHERE 1=1`
	var args []any

	if filter.MinBuildingSF > 0 {
		query += ` AND building_sf >= ?`
		args = append(args, filter.MinBuildingSF)
	}
	if filter.MaxBuildingSF > 0 {
		query += ` AND building_sf <= ?`
		args = append(args, filter.MaxBuildingSF)
	}
	if !filter.SoldAfter.IsZero() {
		query += ` AND sale_date > ?`
		args = append(args, filter.SoldAfter.UTC())
	}
	query += ` ORDER BY comp_id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list comps")
	}
	defer rows.Close()

	var comps []model.PropertyRecord
	for rows.Next() {
		c, err := scanComp(rows, "")
		if err != nil {
			return nil, err
		}
		comps = append(comps, *c)
	}
	return comps, eris.Wrap(rows.Err(), "sqlite: list comps iterate")
}

func (s *SQLiteStore) DeleteComp(ctx context.Context, compID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comps WHERE comp_id = ?`, compID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete comp %s", compID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("comp not found: %s", compID)
	}
	return nil
}

func (s *SQLiteStore) CountComps(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comps`).Scan(&count)
	return count, eris.Wrap(err, "sqlite: count comps")
}

// helpers

func encodeComp(c *model.PropertyRecord) (attrsJSON, saleJSON []byte, saleDate any, err error) {
	attrsJSON, err = json.Marshal(c.Attributes)
	if err != nil {
		return nil, nil, nil, eris.Wrapf(err, "compstore: marshal attributes of %s", c.ID)
	}
	sale := c.Sale
	if sale == nil {
		sale = &model.SaleRecord{}
	}
	saleJSON, err = json.Marshal(sale)
	if err != nil {
		return nil, nil, nil, eris.Wrapf(err, "compstore: marshal sale of %s", c.ID)
	}
	if !sale.Date.IsZero() {
		saleDate = sale.Date.UTC()
	}
	return attrsJSON, saleJSON, saleDate, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanComp(row scannable, compID string) (*model.PropertyRecord, error) {
	var c model.PropertyRecord
	var attrsJSON, saleJSON string

	err := row.Scan(&c.ID, &c.Address, &c.BuildingSF, &attrsJSON, &saleJSON)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("comp not found: %s", compID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan comp")
	}

	if err := json.Unmarshal([]byte(attrsJSON), &c.Attributes); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal attributes")
	}
	c.Sale = &model.SaleRecord{}
	if err := json.Unmarshal([]byte(saleJSON), c.Sale); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal sale")
	}
	return &c, nil
}
