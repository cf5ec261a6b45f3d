// Package compstore persists the pool of comparable-sales evidence
// that valuations draw on. Only input records are stored; analysis
// output is never persisted.
package compstore

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// Filter specifies criteria for listing comparables.
type Filter struct {
	MinBuildingSF float64   `json:"min_building_sf,omitempty"`
	MaxBuildingSF float64   `json:"max_building_sf,omitempty"`
	SoldAfter     time.Time `json:"sold_after,omitempty"`
	Limit         int       `json:"limit,omitempty"`
	Offset        int       `json:"offset,omitempty"`
}

// Store defines the persistence interface for comparable sales.
// PutComps upserts by the comp's external id, so re-importing a file is
// idempotent.
type Store interface {
	PutComps(ctx context.Context, comps []model.PropertyRecord) (int, error)
	GetComp(ctx context.Context, compID string) (*model.PropertyRecord, error)
	ListComps(ctx context.Context, filter Filter) ([]model.PropertyRecord, error)
	DeleteComp(ctx context.Context, compID string) error
	CountComps(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open selects a store driver. Supported drivers are "sqlite" and
// "postgres".
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, poolCfg)
	}
	return nil, eris.Errorf("compstore: unknown driver %q (want sqlite or postgres)", driver)
}
