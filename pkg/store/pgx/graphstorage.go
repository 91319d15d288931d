package pgx

import (
	"context"

	"github.com/alchemy-game-studios/game-planner/pkg/store"
	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

const (
	defaultBatchSize = 500
	// unboundedDepth caps recursive walks when the caller sets no depth.
	unboundedDepth = 1000
)

// GraphDBStorage implements store.GraphStorage over the canon_nodes and
// canon_edges tables. Reads are plain queries; only Import opens a
// transaction.
type GraphDBStorage struct {
	conn      pgxIConn
	batchSize int
}

var (
	_ store.GraphStorage = (*GraphDBStorage)(nil)
	_ store.Importer     = (*GraphDBStorage)(nil)
)

type GraphDBStorageOption func(*GraphDBStorage)

// WithBatchSize bounds how many ids go into one ANY($1) lookup and how many
// rows one import statement batch carries.
func WithBatchSize(n int) GraphDBStorageOption {
	return func(s *GraphDBStorage) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewGraphDBStorageWithConnection creates a GraphDBStorage over an existing
// pool or connection.
func NewGraphDBStorageWithConnection(conn pgxIConn, opts ...GraphDBStorageOption) *GraphDBStorage {
	s := &GraphDBStorage{
		conn:      conn,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}
