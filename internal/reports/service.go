package reports

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeyReceivables = "reports:aging:receivables"
	cacheKeyPayables    = "reports:aging:payables"

	// Matches the warmup job interval so dashboards read warm data.
	cacheTTL = 10 * time.Minute
)

// Repository loads the open documents behind the aging views.
type Repository interface {
	OpenReceivables(ctx context.Context) ([]AgingDocument, error)
	OpenPayables(ctx context.Context) ([]AgingDocument, error)
}

// Service serves cached aging reports. Concurrent rebuilds of the same
// report collapse into a single computation.
type Service struct {
	logger *slog.Logger
	repo   Repository
	redis  *redis.Client
	group  singleflight.Group
	now    func() time.Time
}

func NewService(logger *slog.Logger, repo Repository, redisClient *redis.Client) *Service {
	return &Service{logger: logger, repo: repo, redis: redisClient, now: time.Now}
}

// Receivables returns the customer aging report, from cache when warm.
func (s *Service) Receivables(ctx context.Context) (AgingReport, error) {
	return s.cached(ctx, cacheKeyReceivables, s.repo.OpenReceivables)
}

// Payables returns the supplier aging report, from cache when warm.
func (s *Service) Payables(ctx context.Context) (AgingReport, error) {
	return s.cached(ctx, cacheKeyPayables, s.repo.OpenPayables)
}

// Warm recomputes both reports into the cache. Run by the scheduler.
func (s *Service) Warm(ctx context.Context) error {
	if _, err := s.rebuild(ctx, cacheKeyReceivables, s.repo.OpenReceivables); err != nil {
		return err
	}
	_, err := s.rebuild(ctx, cacheKeyPayables, s.repo.OpenPayables)
	return err
}

func (s *Service) cached(ctx context.Context, key string, load func(context.Context) ([]AgingDocument, error)) (AgingReport, error) {
	if s.redis != nil {
		raw, err := s.redis.Get(ctx, key).Bytes()
		if err == nil {
			var report AgingReport
			if err := json.Unmarshal(raw, &report); err == nil {
				return report, nil
			}
			s.logger.Warn("discarding corrupt aging cache entry", "key", key)
		}
	}
	result, err, _ := s.group.Do(key, func() (any, error) {
		return s.rebuild(ctx, key, load)
	})
	if err != nil {
		return AgingReport{}, err
	}
	return result.(AgingReport), nil
}

func (s *Service) rebuild(ctx context.Context, key string, load func(context.Context) ([]AgingDocument, error)) (AgingReport, error) {
	docs, err := load(ctx)
	if err != nil {
		return AgingReport{}, err
	}
	report := BuildAging(docs, s.now().UTC())
	if s.redis != nil {
		raw, err := json.Marshal(report)
		if err == nil {
			if err := s.redis.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
				s.logger.Warn("caching aging report failed", "key", key, "error", err)
			}
		}
	}
	return report, nil
}
