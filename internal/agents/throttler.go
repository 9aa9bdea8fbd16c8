package agents

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/aegis/internal/domain"
)

// OrderThrottler gates outbound orders through a token bucket refilled
// uniformly at max_orders_per_minute; when empty, orders queue until a
// token becomes available (spec §4.5).
type OrderThrottler struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second

	in   <-chan domain.Order
	out  chan<- domain.Order
	log  zerolog.Logger
	depthGauge func(depth int)
}

// NewOrderThrottler builds a throttler with maxPerMinute tokens
// refilled uniformly across each minute.
func NewOrderThrottler(maxPerMinute int, in <-chan domain.Order, out chan<- domain.Order, log zerolog.Logger) *OrderThrottler {
	max := float64(maxPerMinute)
	return &OrderThrottler{
		tokens:     max,
		maxTokens:  max,
		refillRate: max / 60.0,
		in:         in,
		out:        out,
		log:        log.With().Str("component", "order_throttler").Logger(),
		depthGauge: func(depth int) {},
	}
}

// OnQueueDepth installs a callback invoked with the internal queue
// depth on every enqueue and every release (spec §4.5: "Emits a metric
// for queue depth").
func (t *OrderThrottler) OnQueueDepth(fn func(depth int)) {
	t.depthGauge = fn
}

// Run drains in, releasing one order per available token, until ctx is
// canceled or in closes.
func (t *OrderThrottler) Run(ctx context.Context) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var queue []domain.Order
	for {
		select {
		case <-ctx.Done():
			return
		case o, ok := <-t.in:
			if !ok {
				return
			}
			queue = append(queue, o)
			t.depthGauge(len(queue))
		case <-ticker.C:
			t.refill(200 * time.Millisecond)
		}

		for len(queue) > 0 && t.takeToken() {
			select {
			case t.out <- queue[0]:
				queue = queue[1:]
				t.depthGauge(len(queue))
			case <-ctx.Done():
				return
			}
		}
	}
}

func (t *OrderThrottler) refill(elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens += t.refillRate * elapsed.Seconds()
	if t.tokens > t.maxTokens {
		t.tokens = t.maxTokens
	}
}

func (t *OrderThrottler) takeToken() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tokens >= 1 {
		t.tokens--
		return true
	}
	return false
}
