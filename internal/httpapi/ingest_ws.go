package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/gunpashgun/SalesBestFriend/internal/audio"
	"github.com/gunpashgun/SalesBestFriend/internal/eventlog"
	"github.com/gunpashgun/SalesBestFriend/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// controlMessage is a JSON text frame on either socket.
type controlMessage struct {
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
	ItemID   string `json:"item_id,omitempty"`
	FieldID  string `json:"field_id,omitempty"`
	Value    string `json:"value,omitempty"`
}

// handleIngestWS receives PCM16LE audio as binary frames and control
// messages as text frames. The read loop only buffers audio; transcription
// and analysis run on the session worker.
func (r *Router) handleIngestWS(w http.ResponseWriter, req *http.Request) {
	if r.sessions.IsDraining() {
		http.Error(w, "draining", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("ingest_ws: upgrade failed: %v", err)
		captureError(req, err, "ingest_ws: upgrade failed")
		return
	}
	defer conn.Close()

	sess := r.newSession()
	if !r.sessions.Attach(sess) {
		sess.Close()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "draining"))
		return
	}
	r.logger.Printf("ingest_ws: session %s connected", sess.ID())

	pending := make(chan (<-chan session.Result), r.cfg.Session.QueueSize+1)
	awaited := make(chan struct{})
	go r.awaitResults(sess, pending, awaited)

	defer func() {
		sess.Close()
		close(pending)
		<-awaited
		r.sessions.Detach(sess)
		r.logger.Printf("ingest_ws: session %s disconnected", sess.ID())
	}()

	buf := audio.NewBuffer(r.cfg.Session.Audio, r.cfg.AudioWindow)
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Printf("ingest_ws: connection closed for session %s", sess.ID())
			} else {
				r.logger.Printf("ingest_ws: read error for session %s: %v", sess.ID(), err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if !buf.Add(msg) {
				continue
			}
			ch, err := sess.SubmitAudio(buf.Drain())
			switch {
			case errors.Is(err, session.ErrClosed):
				r.logger.Printf("ingest_ws: session %s superseded, closing", sess.ID())
				return
			case errors.Is(err, session.ErrBusy):
				r.logger.Printf("ingest_ws: session %s queue full, dropping window", sess.ID())
				r.trail.Record(sess.ID(), eventlog.EventWindowDiscarded, map[string]any{"reason": "queue_full"})
				r.metrics.RecordWindowDropped("queue_full")
			case err != nil:
				r.logger.Printf("ingest_ws: submit failed: %v", err)
			default:
				pending <- ch
			}

		case websocket.TextMessage:
			var cm controlMessage
			if err := json.Unmarshal(msg, &cm); err != nil {
				r.logger.Printf("ingest_ws: failed to parse message: %v", err)
				continue
			}
			if cm.Type == "set_language" {
				r.setLanguage(cm.Language)
			}
		}
	}
}

// awaitResults resolves submitted windows in submission order.
func (r *Router) awaitResults(sess *session.Session, pending <-chan (<-chan session.Result), done chan<- struct{}) {
	defer close(done)
	for ch := range pending {
		res := <-ch
		switch {
		case res.Err == nil:
			if res.Transcript != "" {
				r.logger.Printf("ingest_ws: session %s transcribed %d chars", sess.ID(), len(res.Transcript))
			}
		case errors.Is(res.Err, session.ErrClosed):
		default:
			r.logger.Printf("ingest_ws: session %s window failed: %v", sess.ID(), res.Err)
		}
	}
}
