package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/deepresearch-core-poc/server/internal/core/error"
	"github.com/deepresearch-core-poc/server/internal/researcher/model"
	logx "github.com/deepresearch-core-poc/server/pkg/logger"
)

// RedisSessionRepository persists refinement and research sessions as JSON
// values with a TTL that is refreshed on every save.
type RedisSessionRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisSessionRepository(rdb redis.Cmdable, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionRepository) hitlKey(id string) string {
	return fmt.Sprintf("session:%s:hitl", id)
}

func (r *RedisSessionRepository) researchKey(id string) string {
	return fmt.Sprintf("session:%s:research", id)
}

func (r *RedisSessionRepository) save(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to marshal session")
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// SaveHitl stores the refinement session, refreshing its TTL.
func (r *RedisSessionRepository) SaveHitl(ctx context.Context, session *model.HitlSession) error {
	return r.save(ctx, r.hitlKey(session.ID), session)
}

// LoadHitl returns the refinement session, or nil when none exists.
func (r *RedisSessionRepository) LoadHitl(ctx context.Context, id string) (*model.HitlSession, error) {
	key := r.hitlKey(id)
	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load hitl session from redis")
		return nil, errx.WrapRedis(err)
	}
	var s model.HitlSession
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("unmarshal hitl session: %w", err)
	}
	return &s, nil
}

// SaveResearch stores the research session, refreshing its TTL.
func (r *RedisSessionRepository) SaveResearch(ctx context.Context, session *model.ResearchSession) error {
	return r.save(ctx, r.researchKey(session.ID), session)
}

// LoadResearch returns the research session, or nil when none exists.
func (r *RedisSessionRepository) LoadResearch(ctx context.Context, id string) (*model.ResearchSession, error) {
	key := r.researchKey(id)
	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load research session from redis")
		return nil, errx.WrapRedis(err)
	}
	var s model.ResearchSession
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("unmarshal research session: %w", err)
	}
	return &s, nil
}

// Delete removes both session records for the id.
func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, r.hitlKey(id), r.researchKey(id)).Err(); err != nil {
		logx.Error().Err(err).Str("session_id", id).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
