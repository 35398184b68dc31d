package jobs

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gunpashgun/SalesBestFriend/internal/broadcast"
	"github.com/gunpashgun/SalesBestFriend/internal/callplan"
	"github.com/gunpashgun/SalesBestFriend/internal/llm"
	"github.com/gunpashgun/SalesBestFriend/internal/session"
)

type staticLive struct{ s *session.Session }

func (l staticLive) Live() *session.Session { return l.s }

type countingListener struct {
	mu sync.Mutex
	n  int
}

func (c *countingListener) Send(context.Context, []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

func (c *countingListener) Close() error { return nil }

func (c *countingListener) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestProgressTickerRefreshesLiveSession(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	hub := broadcast.NewHub(logger, time.Second)
	l := &countingListener{}
	hub.Register(l)

	oracle := llm.ClassifierFunc(func(context.Context, llm.Prompt) (string, error) { return "{}", nil })
	s := session.New(session.DefaultConfig(), session.Deps{Oracle: oracle, Hub: hub, Logger: logger},
		callplan.DefaultStructure(), callplan.DefaultFields())
	defer s.Close()

	job := NewProgressTicker(staticLive{s}, logger, 10*time.Millisecond)
	job.Start()
	require.Eventually(t, func() bool { return l.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	job.Stop()
}

func TestProgressTickerWithoutLiveSession(t *testing.T) {
	job := NewProgressTicker(staticLive{}, log.New(io.Discard, "", 0), 5*time.Millisecond)
	job.Start()
	time.Sleep(20 * time.Millisecond)
	job.Stop()
}

func TestNewProgressTickerDefaultInterval(t *testing.T) {
	job := NewProgressTicker(staticLive{}, log.New(io.Discard, "", 0), 0)
	require.Equal(t, 15*time.Second, job.interval)
}

func TestProgressTickerSkipsBusySession(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	entered := make(chan struct{})
	var once sync.Once
	oracle := llm.ClassifierFunc(func(ctx context.Context, _ llm.Prompt) (string, error) {
		once.Do(func() { close(entered) })
		<-ctx.Done()
		return "", ctx.Err()
	})
	cfg := session.DefaultConfig()
	cfg.QueueSize = 1
	s := session.New(cfg, session.Deps{Oracle: oracle, Logger: logger},
		callplan.DefaultStructure(), callplan.DefaultFields())
	defer s.Close()

	_, err := s.SubmitText("Selamat pagi Mama, anaknya umur berapa sekarang?")
	require.NoError(t, err)
	<-entered
	_, err = s.SubmitText("queued behind the first pass")
	require.NoError(t, err)
	require.Equal(t, 1, s.Pending())

	job := NewProgressTicker(staticLive{s}, logger, time.Hour)
	job.tick()

	// the refresh slot is still free, so the tick queued nothing
	_, err = s.Refresh()
	require.NoError(t, err)
}
