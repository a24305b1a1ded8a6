package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cn-data/internal/source"
)

const heartbeatInterval = 30 * time.Second

// ItemFunc executes one work item on a worker's session, returning the number
// of rows it persisted. Item failures are reported through the error; the
// pool logs them and moves on.
type ItemFunc[T any] func(ctx context.Context, sess source.Session, item T) (rows int, err error)

// Summary aggregates one pool pass.
type Summary struct {
	Success int
	Failed  int
	Rows    int
}

// runPool executes items across a fixed number of workers. Each worker opens
// its own source session on start and closes it when the pass ends; a session
// that cannot be opened aborts the whole pass. Items are distributed
// at-most-once with no ordering guarantee. Dispatch stops as soon as ctx is
// cancelled, but an item already in flight finishes and its writes stand.
//
// Items must be partitioned so no two of them touch the same partition file;
// the store does no locking of its own. Every enumerator in this package
// emits at most one item per symbol per pass, which guarantees that.
func runPool[T any](ctx context.Context, conn source.Connector, workers int, phase string, items []T, describe func(T) string, fn ItemFunc[T]) (Summary, error) {
	var sum Summary
	if len(items) == 0 {
		return sum, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	pending := make(chan T, len(items))
	for _, it := range items {
		pending <- it
	}
	close(pending)

	var mu sync.Mutex
	hbCtx, hbCancel := context.WithCancel(ctx)
	defer hbCancel()
	go func() {
		tick := time.NewTicker(heartbeatInterval)
		defer tick.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-tick.C:
				mu.Lock()
				s := sum
				mu.Unlock()
				slog.Info("heartbeat", "phase", phase,
					"done", s.Success+s.Failed, "total", len(items),
					"success", s.Success, "failed", s.Failed, "rows", s.Rows)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			sess, err := conn.Open(gctx)
			if err != nil {
				return fmt.Errorf("opening worker session: %w", err)
			}
			defer sess.Close()

			for {
				select {
				case <-gctx.Done():
					return nil
				case item, ok := <-pending:
					if !ok {
						return nil
					}
					rows, err := fn(gctx, sess, item)
					mu.Lock()
					if err != nil {
						sum.Failed++
						mu.Unlock()
						slog.Error("item failed", "phase", phase, "item", describe(item), "error", err)
					} else {
						sum.Success++
						sum.Rows += rows
						mu.Unlock()
						slog.Debug("item done", "phase", phase, "item", describe(item), "rows", rows)
					}
				}
			}
		})
	}

	err := g.Wait()
	mu.Lock()
	final := sum
	mu.Unlock()
	slog.Info("pass done", "phase", phase, "items", len(items),
		"success", final.Success, "failed", final.Failed, "rows", final.Rows)
	return final, err
}
