package storage

import (
	"context"
	"errors"

	"messenger-backend/internal/storage/zapadapter"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

var (
	ErrUserNotExist    = errors.New("user does not exist")
	ErrChatNotExist    = errors.New("chat does not exist")
	ErrChatBadMembers  = errors.New("bad member list")
	ErrNotChatMember   = errors.New("user is not a chat member")
	ErrMessageNotExist = errors.New("message does not exist")
)

// Store wraps a pgx connection pool with messenger-specific queries
type Store struct {
	logger *zap.SugaredLogger
	db     *pgxpool.Pool
}

// NewStore connects a pgxpool.Pool to the configured database, routing pgx
// query logs through the provided zap logger, and returns a Store over it
func NewStore(ctx context.Context, logger *zap.SugaredLogger, cfg Config, opts ...Option) (*Store, error) {
	config, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}
	config.ConnConfig.Logger = zapadapter.NewLogger(logger.Desugar())

	for _, opt := range opts {
		opt.apply(config)
	}

	pool, err := pgxpool.ConnectConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	return &Store{
		logger: logger,
		db:     pool,
	}, nil
}

// Close releases all pool connections
func (s *Store) Close() {
	s.db.Close()
}
