package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gunpashgun/SalesBestFriend/internal/session"
)

// wsListener adapts an observer socket to broadcast.Listener.
type wsListener struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
	closeOnce    sync.Once
}

func newWSListener(conn *websocket.Conn, writeTimeout time.Duration) *wsListener {
	return &wsListener{conn: conn, writeTimeout: writeTimeout}
}

func (l *wsListener) Send(ctx context.Context, msg []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	deadline := time.Now().Add(l.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := l.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return l.conn.WriteMessage(websocket.TextMessage, msg)
}

func (l *wsListener) Close() error {
	var err error
	l.closeOnce.Do(func() { err = l.conn.Close() })
	return err
}

// handleCoachWS streams snapshots to an observer. The observer first gets
// the current picture, then every update the live session publishes.
func (r *Router) handleCoachWS(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("coach_ws: upgrade failed: %v", err)
		captureError(req, err, "coach_ws: upgrade failed")
		return
	}
	l := newWSListener(conn, r.cfg.WriteTimeout)
	defer l.Close()

	initial, err := json.Marshal(r.initialSnapshot())
	if err != nil {
		r.logger.Printf("coach_ws: marshal initial snapshot: %v", err)
		return
	}
	if err := l.Send(req.Context(), initial); err != nil {
		r.logger.Printf("coach_ws: send initial snapshot: %v", err)
		return
	}

	unregister := r.hub.Register(l)
	defer unregister()
	r.logger.Printf("coach_ws: observer connected (total: %d)", r.hub.Count())

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Printf("coach_ws: read error: %v", err)
			}
			r.logger.Printf("coach_ws: observer disconnected (remaining: %d)", r.hub.Count()-1)
			return
		}

		var cm controlMessage
		if err := json.Unmarshal(msg, &cm); err != nil {
			r.logger.Printf("coach_ws: failed to parse message: %v", err)
			continue
		}
		r.handleObserverMessage(cm)
	}
}

// initialSnapshot is the live session's latest picture, or an empty one
// built from the active configuration when no call is running.
func (r *Router) initialSnapshot() *session.Snapshot {
	if live := r.sessions.Live(); live != nil {
		if snap := live.Latest(); snap != nil {
			return snap.WithType(session.SnapshotInitial)
		}
	}
	return session.InitialSnapshot(r.plan.Structure(), r.plan.Fields())
}

func (r *Router) handleObserverMessage(cm controlMessage) {
	live := r.sessions.Live()

	var (
		ch  <-chan session.Result
		err error
	)
	switch cm.Type {
	case "set_language":
		r.setLanguage(cm.Language)
		r.logger.Printf("coach_ws: language set to %s", cm.Language)
		return
	case "manual_complete_item", "manual_toggle_item":
		if live == nil {
			r.logger.Printf("coach_ws: %s ignored, no live session", cm.Type)
			return
		}
		ch, err = live.CompleteItem(cm.ItemID)
	case "update_client_card":
		if live == nil {
			r.logger.Printf("coach_ws: %s ignored, no live session", cm.Type)
			return
		}
		ch, err = live.FillField(cm.FieldID, cm.Value)
	default:
		r.logger.Printf("coach_ws: unknown message type %q", cm.Type)
		return
	}
	if err != nil {
		r.logger.Printf("coach_ws: %s: %v", cm.Type, err)
		return
	}
	go func() {
		if res := <-ch; res.Err != nil {
			r.logger.Printf("coach_ws: %s: %v", cm.Type, res.Err)
		}
	}()
}
