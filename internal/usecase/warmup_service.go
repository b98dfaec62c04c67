package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/openwidgets/nhl-ticker/internal/platform/logging"
)

type WarmupConfig struct {
	Enabled bool
	// Interval between background refresh rounds. Zero means warm once at
	// startup and stop.
	Interval   time.Duration
	MaxWorkers int
	Team       string
	Division   string
}

type WarmupResult struct {
	TaskCount    int                `json:"task_count"`
	SuccessCount int                `json:"success_count"`
	FailedCount  int                `json:"failed_count"`
	WorkerCount  int                `json:"worker_count"`
	Tasks        []WarmupTaskResult `json:"tasks"`
}

type WarmupTaskResult struct {
	Dataset    string `json:"dataset"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

const (
	warmupStatusSuccess = "success"
	warmupStatusFailed  = "failed"

	warmupDatasetRecent    = "recent"
	warmupDatasetUpcoming  = "upcoming"
	warmupDatasetStandings = "standings"
	warmupDatasetRegistry  = "registry"
)

// WarmupService fills the cache ahead of the first widget request and keeps
// it warm on an interval, so page loads never pay the upstream round trip.
type WarmupService struct {
	games     *GamesService
	standings *StandingsService
	cfg       WarmupConfig
	logger    *logging.Logger
}

func NewWarmupService(games *GamesService, st *StandingsService, cfg WarmupConfig, logger *logging.Logger) *WarmupService {
	if logger == nil {
		logger = logging.Default()
	}
	return &WarmupService{games: games, standings: st, cfg: cfg, logger: logger}
}

// Run warms the cache once, then again every Interval until ctx is done.
func (s *WarmupService) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}

	res, err := s.WarmAll(ctx)
	s.logRound(ctx, res, err)

	if s.cfg.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := s.WarmAll(ctx)
			s.logRound(ctx, res, err)
		}
	}
}

// WarmAll refreshes every dataset through the regular cached paths, so a
// concurrent request rides the same flight instead of doubling the load.
func (s *WarmupService) WarmAll(ctx context.Context) (WarmupResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WarmupService.WarmAll")
	defer span.End()

	tasks := map[string]func(context.Context) error{
		warmupDatasetRecent: func(ctx context.Context) error {
			_, _, err := s.games.Recent(ctx, s.cfg.Team)
			return err
		},
		warmupDatasetUpcoming: func(ctx context.Context) error {
			_, _, err := s.games.Upcoming(ctx, s.cfg.Team)
			return err
		},
		warmupDatasetStandings: func(ctx context.Context) error {
			_, _, err := s.standings.Division(ctx, s.cfg.Division)
			return err
		},
		warmupDatasetRegistry: func(ctx context.Context) error {
			_, err := s.standings.Registry(ctx)
			return err
		},
	}

	workerCount := s.cfg.MaxWorkers
	if workerCount <= 0 || workerCount > len(tasks) {
		workerCount = len(tasks)
	}
	result := WarmupResult{
		TaskCount:   len(tasks),
		WorkerCount: workerCount,
		Tasks:       make([]WarmupTaskResult, 0, len(tasks)),
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return WarmupResult{}, fmt.Errorf("create warmup pool: %w", err)
	}
	defer pool.Release()

	results := make(chan WarmupTaskResult, len(tasks))

	var successCount atomic.Int32
	var failedCount atomic.Int32

	var workers sync.WaitGroup
	for dataset, warm := range tasks {
		dataset, warm := dataset, warm
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := WarmupTaskResult{Dataset: dataset}
			if err := warm(ctx); err != nil {
				row.Status = warmupStatusFailed
				row.Message = err.Error()
				failedCount.Add(1)
			} else {
				row.Status = warmupStatusSuccess
				successCount.Add(1)
			}
			row.DurationMs = time.Since(start).Milliseconds()
			results <- row
		}); err != nil {
			workers.Done()
			return WarmupResult{}, fmt.Errorf("submit warmup task: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].Dataset < result.Tasks[j].Dataset
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	return result, nil
}

func (s *WarmupService) logRound(ctx context.Context, res WarmupResult, err error) {
	if err != nil {
		s.logger.ErrorContext(ctx, "cache warmup round failed", "error", err)
		return
	}
	if res.FailedCount > 0 {
		s.logger.WarnContext(ctx, "cache warmup round finished with failures",
			"success", res.SuccessCount, "failed", res.FailedCount)
		return
	}
	s.logger.InfoContext(ctx, "cache warmup round finished", "success", res.SuccessCount)
}
