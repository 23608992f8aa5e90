// Package store persists analysis results in SQLite or PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/risk-inventory/internal/model"
)

// ErrNotFound is returned by Get when no result has the requested ID.
var ErrNotFound = eris.New("store: result not found")

// Filter specifies criteria for listing results.
type Filter struct {
	Type   model.AnalysisType `json:"type,omitempty"`
	Limit  int                `json:"limit,omitempty"`
	Offset int                `json:"offset,omitempty"`
}

// ResultStore defines the persistence interface for analysis results.
// Results are stored verbatim; Save with an existing ID replaces it.
type ResultStore interface {
	Save(ctx context.Context, r *model.AnalysisResult) error
	Get(ctx context.Context, id string) (*model.AnalysisResult, error)
	List(ctx context.Context, f Filter) ([]model.AnalysisResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// Open connects to the configured backend and runs its migration.
func Open(ctx context.Context, cfg Config) (ResultStore, error) {
	var (
		s   ResultStore
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres", "postgresql":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

const defaultLimit = 100

func limitOf(f Filter) int {
	if f.Limit <= 0 {
		return defaultLimit
	}
	return f.Limit
}

// encode validates r and returns its JSON payload.
func encode(r *model.AnalysisResult) ([]byte, error) {
	if r == nil {
		return nil, eris.New("store: nil result")
	}
	if r.ID == "" {
		return nil, eris.New("store: result has no id")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal result")
	}
	return b, nil
}

func decode(payload []byte) (*model.AnalysisResult, error) {
	var r model.AnalysisResult
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal result")
	}
	return &r, nil
}

func riskLevel(r *model.AnalysisResult) *string {
	if r.RiskLevel == nil {
		return nil
	}
	s := string(*r.RiskLevel)
	return &s
}
