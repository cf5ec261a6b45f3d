package compstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hot import/list path.
var preparedStatements = map[string]string{
	"upsert_comp": `INSERT INTO comps (id, comp_id, address, building_sf, attributes, sale, sale_date, imported_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	 ON CONFLICT (comp_id) DO UPDATE SET
	   address = $3, building_sf = $4, attributes = $5, sale = $6, sale_date = $7, imported_at = $8`,
	"get_comp":    `SELECT comp_id, address, building_sf, attributes, sale FROM comps WHERE comp_id = $1`,
	"delete_comp": `DELETE FROM comps WHERE comp_id = $1`,
	"count_comps": `SELECT COUNT(*) FROM comps`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS comps (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	comp_id     TEXT NOT NULL UNIQUE,
	address     TEXT,
	building_sf DOUBLE PRECISION NOT NULL,
	attributes  JSONB NOT NULL,
	sale        JSONB NOT NULL,
	sale_date   TIMESTAMPTZ,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_comps_building_sf ON comps(building_sf);
CREATE INDEX IF NOT EXISTS idx_comps_sale_date ON comps(sale_date);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) PutComps(ctx context.Context, comps []model.PropertyRecord) (int, error) {
	now := time.Now().UTC()
	count := 0
	for _, c := range comps {
		if c.ID == "" {
			return count, eris.New("postgres: comp without an id")
		}
		attrsJSON, saleJSON, saleDate, err := encodeComp(&c)
		if err != nil {
			return count, err
		}

		_, err = s.pool.Exec(ctx,
			`INSERT INTO comps (id, comp_id, address, building_sf, attributes, sale, sale_date, imported_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (comp_id) DO UPDATE SET
			   address = $3, building_sf = $4, attributes = $5, sale = $6, sale_date = $7, imported_at = $8`,
			uuid.New().String(), c.ID, c.Address, c.BuildingSF,
			attrsJSON, saleJSON, saleDate, now,
		)
		if err != nil {
			return count, eris.Wrapf(err, "postgres: upsert comp %s", c.ID)
		}
		count++
	}
	return count, nil
}

func (s *PostgresStore) GetComp(ctx context.Context, compID string) (*model.PropertyRecord, error) {
	var c model.PropertyRecord
	var attrsJSON, saleJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT comp_id, address, building_sf, attributes, sale FROM comps WHERE comp_id = $1`,
		compID,
	).Scan(&c.ID, &c.Address, &c.BuildingSF, &attrsJSON, &saleJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("comp not found: %s", compID)
		}
		return nil, eris.Wrapf(err, "postgres: get comp %s", compID)
	}

	if err := decodeComp(&c, attrsJSON, saleJSON); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) ListComps(ctx context.Context, filter Filter) ([]model.PropertyRecord, error) {
	query := `SELECT comp_id, address, building_sf, attributes, sale FROM comps WHERE true`
	args := []any{}
	argIdx := 1

	if filter.MinBuildingSF > 0 {
		query += fmt.Sprintf(` AND building_sf >= $%d`, argIdx)
		args = append(args, filter.MinBuildingSF)
		argIdx++
	}
	if filter.MaxBuildingSF > 0 {
		query += fmt.Sprintf(` AND building_sf <= $%d`, argIdx)
		args = append(args, filter.MaxBuildingSF)
		argIdx++
	}
	if !filter.SoldAfter.IsZero() {
		query += fmt.Sprintf(` AND sale_date > $%d`, argIdx)
		args = append(args, filter.SoldAfter.UTC())
		argIdx++
	}
	query += ` ORDER BY comp_id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list comps")
	}
	defer rows.Close()

	var comps []model.PropertyRecord
	for rows.Next() {
		var c model.PropertyRecord
		var attrsJSON, saleJSON []byte
		if err := rows.Scan(&c.ID, &c.Address, &c.BuildingSF, &attrsJSON, &saleJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan comp")
		}
		if err := decodeComp(&c, attrsJSON, saleJSON); err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, eris.Wrap(rows.Err(), "postgres: list comps iterate")
}

func (s *PostgresStore) DeleteComp(ctx context.Context, compID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comps WHERE comp_id = $1`, compID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete comp %s", compID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("comp not found: %s", compID)
	}
	return nil
}

func (s *PostgresStore) CountComps(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comps`).Scan(&count)
	return count, eris.Wrap(err, "postgres: count comps")
}

func decodeComp(c *model.PropertyRecord, attrsJSON, saleJSON []byte) error {
	if err := json.Unmarshal(attrsJSON, &c.Attributes); err != nil {
		return eris.Wrap(err, "postgres: unmarshal attributes")
	}
	c.Sale = &model.SaleRecord{}
	if err := json.Unmarshal(saleJSON, c.Sale); err != nil {
		return eris.Wrap(err, "postgres: unmarshal sale")
	}
	return nil
}
