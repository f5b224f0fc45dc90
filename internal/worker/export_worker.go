package worker

import (
	"context"
	"encoding/json"
	"time"

	"tableside/internal/domain"
	"tableside/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	redisQueueKey = "export:queue"
	deadLetterKey = "export:deadletter"
)

// ExportWorker mirrors submitted orders into the configured spreadsheet off
// the request path. Tasks queue through redis when available so they survive
// a restart, with an in-memory channel as fallback.
type ExportWorker struct {
	sheets       domain.SheetsWriter
	store        domain.OrderStore
	redis        *redis.Client
	retryPolicy  RetryPolicy
	queue        chan models.Order
	reconcile    chan struct{}
	pollInterval time.Duration
	logger       *zerolog.Logger
}

// NewExportWorker builds a worker with sane defaults.
func NewExportWorker(sheets domain.SheetsWriter, store domain.OrderStore, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *ExportWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &ExportWorker{
		sheets:       sheets,
		store:        store,
		redis:        redisClient,
		retryPolicy:  retry,
		queue:        make(chan models.Order, models.WorkerQueueSize),
		reconcile:    make(chan struct{}, 1),
		pollInterval: 2 * time.Second,
		logger:       logger,
	}
}

// RequestReconcile schedules a full-sheet rewrite from the live order store,
// collapsing the sheet back to the orders still pending. Requests coalesce
// while one is outstanding.
func (w *ExportWorker) RequestReconcile() {
	select {
	case w.reconcile <- struct{}{}:
	default:
	}
}

// Enqueue schedules one submitted order for export. Redis first for
// durability, in-memory channel when redis is missing or failing.
func (w *ExportWorker) Enqueue(ctx context.Context, order models.Order) {
	if w.redis != nil {
		payload, err := json.Marshal(order)
		if err == nil {
			if err := w.redis.RPush(ctx, redisQueueKey, payload).Err(); err == nil {
				return
			} else {
				w.logger.Warn().Err(err).Msg("redis push failed, falling back to memory queue")
			}
		}
	}

	select {
	case w.queue <- order:
	default:
		w.logger.Error().Str("reservation", order.ID).Msg("export queue full, order export dropped")
	}
}

// Run consumes tasks until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case order := <-w.queue:
			w.process(ctx, order)
		case <-w.reconcile:
			w.runReconcile(ctx)
		case <-ticker.C:
			w.drainRedis(ctx)
		}
	}
}

func (w *ExportWorker) runReconcile(ctx context.Context) {
	if w.store == nil {
		return
	}

	orders, err := w.store.LoadAll(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("load orders for sheet reconcile")
		return
	}

	err = w.retryPolicy.Run(ctx, func() error {
		return w.sheets.ReplaceOrdersSheet(ctx, orders)
	})
	if err != nil {
		w.logger.Error().Err(err).Msg("sheet reconcile failed after retries")
		return
	}
	w.logger.Debug().Int("orders", len(orders)).Msg("orders sheet reconciled")
}

func (w *ExportWorker) drainRedis(ctx context.Context) {
	if w.redis == nil {
		return
	}

	for {
		payload, err := w.redis.LPop(ctx, redisQueueKey).Result()
		if err == redis.Nil {
			return
		}
		if err != nil {
			w.logger.Warn().Err(err).Msg("redis pop failed")
			return
		}

		var order models.Order
		if err := json.Unmarshal([]byte(payload), &order); err != nil {
			w.logger.Warn().Err(err).Msg("corrupt export task, sending to dead letter")
			w.redis.RPush(ctx, deadLetterKey, payload)
			continue
		}
		w.process(ctx, order)
	}
}

func (w *ExportWorker) process(ctx context.Context, order models.Order) {
	err := w.retryPolicy.Run(ctx, func() error {
		return w.sheets.AppendOrder(ctx, order)
	})
	if err == nil {
		w.logger.Debug().Str("reservation", order.ID).Msg("order exported")
		return
	}

	w.logger.Error().Err(err).Str("reservation", order.ID).Msg("order export failed after retries")
	if w.redis != nil {
		if payload, mErr := json.Marshal(order); mErr == nil {
			w.redis.RPush(ctx, deadLetterKey, payload)
		}
	}
}
