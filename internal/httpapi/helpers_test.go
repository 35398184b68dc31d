package httpapi

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gunpashgun/SalesBestFriend/internal/llm"
	"github.com/gunpashgun/SalesBestFriend/internal/session"
	"github.com/gunpashgun/SalesBestFriend/internal/stt"
)

// taskOracle answers every prompt of a task with the same reply.
type taskOracle map[llm.Task]string

func (o taskOracle) Classify(_ context.Context, p llm.Prompt) (string, error) {
	if r, ok := o[p.Task]; ok {
		return r, nil
	}
	return "{}", nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestRouter(t *testing.T, oracle llm.Classifier, tr stt.Transcriber) *Router {
	t.Helper()
	if oracle == nil {
		oracle = taskOracle{}
	}
	cfg := RouterConfig{
		AudioWindow:  2 * time.Second,
		WriteTimeout: time.Second,
		STTProvider:  "deepgram",
		Session:      session.DefaultConfig(),
	}
	return newRouter(cfg, quietLogger(), Deps{
		Session: session.Deps{Oracle: oracle, Transcriber: tr},
	})
}

func newTestSession(r *Router) *session.Session {
	return r.newSession()
}

func startServer(t *testing.T, r *Router) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(r.handler())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readSnapshot reads frames until one of the wanted type arrives.
func readSnapshot(t *testing.T, conn *websocket.Conn, kind string) *session.Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var snap session.Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			t.Fatalf("read snapshot: %v", err)
		}
		if snap.Type == kind {
			return &snap
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
