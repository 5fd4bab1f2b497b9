package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aiprotips/tipsbot/internal/pkg/models"
)

// RatesCache keeps computed team rates in Redis so repeated planning
// runs on the same day do not refetch team histories.
type RatesCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRatesCache(addr, password string, db int, ttl time.Duration) (*RatesCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl == 0 {
		ttl = 6 * time.Hour
	}
	return &RatesCache{client: client, ttl: ttl}, nil
}

func ratesKey(teamID int64) string {
	return fmt.Sprintf("rates:team:%d", teamID)
}

// GetTeamRates returns cached rates for a team; ok is false on a miss.
func (c *RatesCache) GetTeamRates(ctx context.Context, teamID int64) (models.TeamRates, bool, error) {
	data, err := c.client.Get(ctx, ratesKey(teamID)).Bytes()
	if err == redis.Nil {
		return models.TeamRates{}, false, nil
	}
	if err != nil {
		return models.TeamRates{}, false, fmt.Errorf("get rates for team %d: %w", teamID, err)
	}

	var rates models.TeamRates
	if err := json.Unmarshal(data, &rates); err != nil {
		// stale or corrupt entry, treat as a miss
		return models.TeamRates{}, false, nil
	}
	return rates, true, nil
}

// SetTeamRates caches rates for a team with the configured TTL.
func (c *RatesCache) SetTeamRates(ctx context.Context, teamID int64, rates models.TeamRates) error {
	data, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("marshal rates: %w", err)
	}
	return c.client.Set(ctx, ratesKey(teamID), data, c.ttl).Err()
}

func (c *RatesCache) Close() error {
	return c.client.Close()
}
