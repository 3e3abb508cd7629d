package sessions

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Open constructs the Store selected by cfg.Backend.
// db is only consulted for the postgres backend.
func Open(cfg *Config, db *sql.DB, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		logger.Warn("using in-memory session store; checkpoints will not survive restart")
		return NewMemory(), nil
	case BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres session backend requires a database connection")
		}
		return NewPostgres(db), nil
	case BackendSQLite:
		return NewSQLite(cfg.SQLitePath)
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedis(client, cfg.Redis.KeyPrefix, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}
