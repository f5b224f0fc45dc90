package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tableside/internal/models"
	"tableside/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	assert.Equal(t, 8*time.Second, policy.NextDelay(4))
	assert.Equal(t, 10*time.Second, policy.NextDelay(5), "clamped at max delay")
	assert.Equal(t, time.Second, policy.NextDelay(0), "attempt below 1 treated as 1")
}

func TestRetryPolicyNextDelayDefaults(t *testing.T) {
	var policy RetryPolicy
	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
}

func TestRetryPolicyRunSucceedsAfterFailures(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond}

	calls := 0
	err := policy.Run(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyRunExhaustsRetries(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond}

	wantErr := errors.New("permanent")
	calls := 0
	err := policy.Run(context.Background(), func() error {
		calls++
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicyRunHonorsContext(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 10, InitialDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := policy.Run(ctx, func() error { return errors.New("never succeeds") })
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeSheets struct {
	mu       sync.Mutex
	orders   []models.Order
	replaced [][]models.Order
	failFor  int
}

func (f *fakeSheets) AppendOrder(ctx context.Context, order models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor > 0 {
		f.failFor--
		return errors.New("sheets unavailable")
	}
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeSheets) ReplaceOrdersSheet(ctx context.Context, orders []models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor > 0 {
		f.failFor--
		return errors.New("sheets unavailable")
	}
	f.replaced = append(f.replaced, orders)
	return nil
}

func (f *fakeSheets) appended() []models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Order(nil), f.orders...)
}

func TestExportWorkerEnqueueToRedis(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	logger := zerolog.Nop()
	w := NewExportWorker(&fakeSheets{}, nil, client, RetryPolicy{}, &logger)

	o := models.NewOrder("R1")
	o.AddItem("Burger", "dishes")
	w.Enqueue(context.Background(), *o)

	n, err := client.LLen(context.Background(), redisQueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, w.queue)
}

func TestExportWorkerEnqueueFallsBackToMemory(t *testing.T) {
	logger := zerolog.Nop()
	w := NewExportWorker(&fakeSheets{}, nil, nil, RetryPolicy{}, &logger)

	w.Enqueue(context.Background(), *models.NewOrder("R1"))
	assert.Len(t, w.queue, 1)
}

func TestExportWorkerProcessRetriesThenSucceeds(t *testing.T) {
	sheets := &fakeSheets{failFor: 2}
	logger := zerolog.Nop()
	w := NewExportWorker(sheets, nil, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond}, &logger)

	w.process(context.Background(), *models.NewOrder("R1"))

	appended := sheets.appended()
	require.Len(t, appended, 1)
	assert.Equal(t, "R1", appended[0].ID)
}

func TestExportWorkerDeadLettersAfterRetries(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	sheets := &fakeSheets{failFor: 100}
	logger := zerolog.Nop()
	w := NewExportWorker(sheets, nil, client, RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond}, &logger)

	w.process(context.Background(), *models.NewOrder("R1"))

	n, err := client.LLen(context.Background(), deadLetterKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestExportWorkerDrainRedis(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	sheets := &fakeSheets{}
	logger := zerolog.Nop()
	w := NewExportWorker(sheets, nil, client, RetryPolicy{InitialDelay: time.Millisecond}, &logger)

	o := models.NewOrder("R1")
	o.AddItem("Pizza", "dishes")
	w.Enqueue(context.Background(), *o)

	w.drainRedis(context.Background())

	appended := sheets.appended()
	require.Len(t, appended, 1)
	assert.Equal(t, "R1", appended[0].ID)

	n, err := client.LLen(context.Background(), redisQueueKey).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExportWorkerReconcileReplacesSheet(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryOrderStore()

	o1 := models.NewOrder("R1")
	o1.AddItem("Burger", "dishes")
	o2 := models.NewOrder("R2")
	o2.AddItem("Pizza", "dishes")
	require.NoError(t, store.SaveAll(ctx, []models.Order{*o1, *o2}))

	sheets := &fakeSheets{}
	logger := zerolog.Nop()
	w := NewExportWorker(sheets, store, nil, RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond}, &logger)

	w.runReconcile(ctx)

	sheets.mu.Lock()
	defer sheets.mu.Unlock()
	require.Len(t, sheets.replaced, 1)
	require.Len(t, sheets.replaced[0], 2)
	assert.Equal(t, "R1", sheets.replaced[0][0].ID)
	assert.Equal(t, "R2", sheets.replaced[0][1].ID)
}

func TestExportWorkerReconcileRequestsCoalesce(t *testing.T) {
	sheets := &fakeSheets{}
	logger := zerolog.Nop()
	w := NewExportWorker(sheets, repository.NewMemoryOrderStore(), nil, RetryPolicy{}, &logger)

	w.RequestReconcile()
	w.RequestReconcile()
	w.RequestReconcile()

	assert.Len(t, w.reconcile, 1)
}

func TestExportWorkerCorruptTaskDeadLettered(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	require.NoError(t, client.RPush(context.Background(), redisQueueKey, "{broken").Err())

	sheets := &fakeSheets{}
	logger := zerolog.Nop()
	w := NewExportWorker(sheets, nil, client, RetryPolicy{}, &logger)

	w.drainRedis(context.Background())

	assert.Empty(t, sheets.appended())
	n, err := client.LLen(context.Background(), deadLetterKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
