// Package profile loads and stores renter profiles.
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"neighborhood-matcher/internal/common/database"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/models"
)

var ErrNotFound = errors.New("user profile not found")

const cacheKeyPrefix = "user:profile:"

// Store reads profiles from Postgres with an optional Redis read-through cache.
type Store struct {
	db     *database.PostgresClient
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

// NewStore builds a Store. redis may be nil, which disables caching.
func NewStore(db *database.PostgresClient, redis *database.RedisClient, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		db:     db,
		redis:  redis,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "profile-store"}),
	}
}

func cacheKey(id string) string { return cacheKeyPrefix + id }

func (s *Store) Get(ctx context.Context, id string) (*models.UserProfile, error) {
	if s.redis != nil {
		var cached models.UserProfile
		found, err := s.redis.GetJSON(ctx, cacheKey(id), &cached)
		if err != nil {
			s.logger.Warn("profile cache read failed", map[string]interface{}{"userId": id, "error": err})
		} else if found {
			return &cached, nil
		}
	}

	var (
		p          models.UserProfile
		lifestyle  []byte
		priorities []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, name, age, budget_min, budget_max, lifestyle, priorities
		FROM user_profiles
		WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Age, &p.Budget.Min, &p.Budget.Max, &lifestyle, &priorities)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile %s: %w", id, err)
	}

	if err := json.Unmarshal(lifestyle, &p.Lifestyle); err != nil {
		return nil, fmt.Errorf("decode lifestyle for %s: %w", id, err)
	}
	if err := json.Unmarshal(priorities, &p.Priorities); err != nil {
		return nil, fmt.Errorf("decode priorities for %s: %w", id, err)
	}

	if s.redis != nil {
		if err := s.redis.SetJSON(ctx, cacheKey(id), p, s.ttl); err != nil {
			s.logger.Warn("profile cache write failed", map[string]interface{}{"userId": id, "error": err})
		}
	}
	return &p, nil
}

// Save upserts the profile and drops any cached copy.
func (s *Store) Save(ctx context.Context, p models.UserProfile) error {
	lifestyle, err := json.Marshal(p.Lifestyle)
	if err != nil {
		return fmt.Errorf("encode lifestyle: %w", err)
	}
	priorities := p.Priorities
	if priorities == nil {
		priorities = []models.Factor{}
	}
	prioritiesJSON, err := json.Marshal(priorities)
	if err != nil {
		return fmt.Errorf("encode priorities: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO user_profiles (id, name, age, budget_min, budget_max, lifestyle, priorities, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, age = EXCLUDED.age,
			budget_min = EXCLUDED.budget_min, budget_max = EXCLUDED.budget_max,
			lifestyle = EXCLUDED.lifestyle, priorities = EXCLUDED.priorities,
			updated_at = NOW()`,
		p.ID, p.Name, p.Age, p.Budget.Min, p.Budget.Max, lifestyle, prioritiesJSON)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.ID, err)
	}

	if s.redis != nil {
		if err := s.redis.Del(ctx, cacheKey(p.ID)); err != nil {
			s.logger.Warn("profile cache invalidation failed", map[string]interface{}{"userId": p.ID, "error": err})
		}
	}
	return nil
}
