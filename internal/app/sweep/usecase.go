package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fiefdom/internal/app/action"
	"fiefdom/internal/app/ports"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize   = 200
	DefaultConcurrency = 8
)

// Advancer settles every due repetition of one player's active queue.
type Advancer interface {
	AdvanceQueue(ctx context.Context, playerID string) (int, error)
}

type Report struct {
	Scanned     int `json:"scanned"`
	Players     int `json:"players"`
	Repetitions int `json:"repetitions"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
}

// UseCase advances active queues nobody has polled for a while, so finished queues
// settle even when their owner is offline.
type UseCase struct {
	Queues      ports.ActionQueueRepository
	Advancer    Advancer
	BatchSize   int
	Concurrency int
	Logger      *slog.Logger
	Now         func() time.Time
}

func (u UseCase) Run(ctx context.Context) (Report, error) {
	now := time.Now().UTC()
	if u.Now != nil {
		now = u.Now()
	}
	due, err := u.Queues.ListDue(ctx, now, u.batchSize())
	if err != nil {
		return Report{}, fmt.Errorf("list due queues: %w", err)
	}

	report := Report{Scanned: len(due)}
	players := make([]string, 0, len(due))
	seen := make(map[string]bool, len(due))
	for _, q := range due {
		if !seen[q.PlayerID] {
			seen[q.PlayerID] = true
			players = append(players, q.PlayerID)
		}
	}
	report.Players = len(players)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency())
	for _, playerID := range players {
		g.Go(func() error {
			n, err := u.Advancer.AdvanceQueue(gctx, playerID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Repetitions += n
			case action.IsExpected(err):
				report.Skipped++
			default:
				report.Failed++
				u.logger().Error("sweep advance failed", "player_id", playerID, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return report, err
	}

	if report.Scanned > 0 {
		u.logger().Info("sweep finished",
			"scanned", report.Scanned,
			"players", report.Players,
			"repetitions", report.Repetitions,
			"skipped", report.Skipped,
			"failed", report.Failed,
		)
	}
	return report, nil
}

func (u UseCase) batchSize() int {
	if u.BatchSize > 0 {
		return u.BatchSize
	}
	return DefaultBatchSize
}

func (u UseCase) concurrency() int {
	if u.Concurrency > 0 {
		return u.Concurrency
	}
	return DefaultConcurrency
}

func (u UseCase) logger() *slog.Logger {
	if u.Logger != nil {
		return u.Logger
	}
	return slog.Default()
}
