package agents

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/aegis/internal/domain"
)

func TestThrottlerReleasesUpToMaxTokensImmediately(t *testing.T) {
	in := make(chan domain.Order, 10)
	out := make(chan domain.Order, 10)
	th := NewOrderThrottler(60, in, out, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go th.Run(ctx)

	for i := 0; i < 3; i++ {
		in <- domain.Order{ID: string(rune('a' + i))}
	}

	released := 0
	deadline := time.After(2 * time.Second)
	for released < 3 {
		select {
		case <-out:
			released++
		case <-deadline:
			t.Fatalf("only released %d of 3 orders in time", released)
		}
	}
	assert.Equal(t, 3, released)
}

func TestThrottlerReportsQueueDepth(t *testing.T) {
	in := make(chan domain.Order, 10)
	out := make(chan domain.Order, 10)
	th := NewOrderThrottler(1, in, out, zerolog.Nop())

	depths := make(chan int, 10)
	th.OnQueueDepth(func(d int) { depths <- d })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go th.Run(ctx)

	in <- domain.Order{ID: "a"}
	in <- domain.Order{ID: "b"}
	in <- domain.Order{ID: "c"}

	select {
	case <-depths:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a queue-depth report")
	}
}
