package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/tally/pkg/lifecycle"
)

type redisStore struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// NewRedis creates a Store over a Redis client. Commits use WATCH/MULTI so the
// version check and write are atomic. Two sorted sets index checkpoints by
// update time for pruning: one for completed sessions and one for the rest.
func NewRedis(client redis.UniversalClient, prefix string, logger *slog.Logger) Store {
	return &redisStore{
		client: client,
		prefix: prefix,
		logger: logger.With("system", "sessions", "backend", "redis"),
		now:    time.Now,
	}
}

func (r *redisStore) key(id string) string { return r.prefix + "checkpoint:" + id }
func (r *redisStore) completedIndex() string { return r.prefix + "index:completed" }
func (r *redisStore) openIndex() string      { return r.prefix + "index:open" }

func (r *redisStore) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		if err := r.client.Ping(lc.Context()).Err(); err != nil {
			r.logger.Error("redis ping failed", "error", err)
			return
		}
		r.logger.Info("redis connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := r.client.Close(); err != nil {
			r.logger.Error("redis close failed", "error", err)
		}
	})
	return nil
}

func (r *redisStore) Load(ctx context.Context, id string) (*Checkpoint, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	return r.get(ctx, r.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *redisStore) get(ctx context.Context, c getter, id string) (*Checkpoint, error) {
	data, err := c.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &cp, nil
}

func (r *redisStore) Commit(ctx context.Context, cp *Checkpoint) error {
	if err := validate(cp); err != nil {
		return err
	}

	next := *cp
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.get(ctx, tx, cp.SessionID)
		switch {
		case errors.Is(err, ErrNotFound):
			if cp.Version != 0 {
				return ErrConflict
			}
		case err != nil:
			return err
		case current.Version != cp.Version:
			return ErrConflict
		}

		now := r.now().UTC()
		next.Version = cp.Version + 1
		next.UpdatedAt = now
		next.CreatedAt = now
		if current != nil {
			next.CreatedAt = current.CreatedAt
		}

		data, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("encode checkpoint: %w", err)
		}

		add, rem := r.openIndex(), r.completedIndex()
		if next.Completed() {
			add, rem = rem, add
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key(cp.SessionID), data, 0)
			pipe.ZAdd(ctx, add, redis.Z{Score: float64(now.UnixNano()), Member: cp.SessionID})
			pipe.ZRem(ctx, rem, cp.SessionID)
			return nil
		})
		return err
	}, r.key(cp.SessionID))

	if errors.Is(err, redis.TxFailedErr) {
		return ErrConflict
	}
	if err != nil {
		return err
	}

	*cp = next
	return nil
}

func (r *redisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	r.client.ZRem(ctx, r.completedIndex(), id)
	r.client.ZRem(ctx, r.openIndex(), id)
	return nil
}

func (r *redisStore) Prune(ctx context.Context, req PruneRequest) (int64, error) {
	var removed int64

	sets := []struct {
		index  string
		cutoff time.Time
	}{
		{r.completedIndex(), req.CompletedBefore},
		{r.openIndex(), req.AbandonedBefore},
	}

	for _, set := range sets {
		if set.cutoff.IsZero() {
			continue
		}

		ids, err := r.client.ZRangeByScore(ctx, set.index, &redis.ZRangeBy{
			Min: "-inf",
			Max: "(" + strconv.FormatInt(set.cutoff.UnixNano(), 10),
		}).Result()
		if err != nil {
			return removed, fmt.Errorf("scan %s: %w", set.index, err)
		}

		for _, id := range ids {
			ok, err := r.pruneOne(ctx, id, set.cutoff)
			if err != nil {
				return removed, err
			}
			if ok {
				removed++
			}
		}
	}

	return removed, nil
}

func (r *redisStore) pruneOne(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	var deleted bool
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		cp, err := r.get(ctx, tx, id)
		if errors.Is(err, ErrNotFound) {
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.ZRem(ctx, r.completedIndex(), id)
				pipe.ZRem(ctx, r.openIndex(), id)
				return nil
			})
			return err
		}
		if err != nil {
			return err
		}
		if !cp.UpdatedAt.Before(cutoff) {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, r.key(id))
			pipe.ZRem(ctx, r.completedIndex(), id)
			pipe.ZRem(ctx, r.openIndex(), id)
			return nil
		})
		deleted = err == nil
		return err
	}, r.key(id))

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return deleted, err
}
