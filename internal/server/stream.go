package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/user/vida-loka-sim/internal/types"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// handleStream pushes session and audio events to the browser over a websocket
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancelEvents := session.Subscribe()
	defer cancelEvents()
	sounds, cancelSounds := s.audio.Subscribe(session.ID())
	defer cancelSounds()

	logger := s.logger.With(zap.String("session_id", session.ID()))
	logger.Info("Stream opened", zap.String("remote_addr", r.RemoteAddr))

	// The client sends nothing but control frames; reading runs the pong
	// handler and notices the close
	done := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(ev types.Event) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(ev)
	}

	snap := session.Snapshot()
	if err := write(types.Event{Kind: types.EventState, Snapshot: &snap}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Session ended
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				logger.Info("Stream closed, session ended")
				return
			}
			if err := write(ev); err != nil {
				logger.Debug("Stream write failed", zap.Error(err))
				return
			}
		case ev, ok := <-sounds:
			if !ok {
				return
			}
			if err := write(ev); err != nil {
				logger.Debug("Stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			logger.Info("Stream closed by client")
			return
		}
	}
}
