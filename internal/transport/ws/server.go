// Package ws streams a completed run's timeseries over a websocket, one frame
// per tick.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"polydros.ai/internal/protocol"
	"polydros.ai/internal/session"
)

// maxInterval caps the per-frame delay a client may request.
const maxInterval = 5 * time.Second

type Server struct {
	store *session.Store
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(store *session.Store, logger *log.Logger) *Server {
	return &Server{
		store: store,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Handler serves GET /v1/ws?run=<id>[&interval_ms=<n>]. An unknown run gets
// an ERROR frame and a policy-violation close.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		interval := time.Duration(0)
		if v := r.URL.Query().Get("interval_ms"); v != "" {
			ms, err := strconv.Atoi(v)
			if err != nil || ms < 0 {
				http.Error(rw, "bad interval_ms", http.StatusBadRequest)
				return
			}
			interval = min(time.Duration(ms)*time.Millisecond, maxInterval)
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		runID := r.URL.Query().Get("run")
		sess, ok := s.store.Get(runID)
		if !ok {
			_ = writeJSON(conn, protocol.NewError(protocol.ErrRunNotFound, "run not found: "+runID))
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "run not found"), time.Now().Add(time.Second))
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader goroutine: the client never sends anything we act on, but reading
		// is how a close from the peer is noticed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					cancel()
					return
				}
			}
		}()

		if err := s.replay(ctx, conn, sess, interval); err != nil {
			s.log.Printf("ws replay %s: %v", sess.ID, err)
			return
		}
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), time.Now().Add(time.Second))
	}
}

func (s *Server) replay(ctx context.Context, conn *websocket.Conn, sess *session.Session, interval time.Duration) error {
	res := sess.Result
	for _, ts := range res.Timeseries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeJSON(conn, protocol.NewTick(sess.ID, ts)); err != nil {
			return err
		}
		if interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
	}
	return writeJSON(conn, protocol.NewDone(sess.ID, res))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
