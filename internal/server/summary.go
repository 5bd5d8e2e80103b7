package server

import (
	"fmt"
	"net/http"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 256

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	summary, over := session.Summary()
	if !over {
		http.Error(w, "game is not over", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// handleSummaryQR renders the final score as a QR code PNG to share
func (s *Server) handleSummaryQR(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	summary, over := session.Summary()
	if !over {
		http.Error(w, "game is not over", http.StatusNotFound)
		return
	}

	snap := session.Snapshot()
	card := fmt.Sprintf("Vida Loka | %s | level %d | score %.0f | %s",
		snap.PlayerName, snap.Stats.Level, summary.FinalScore, summary.Expression)

	png, err := qrcode.Encode(card, qrcode.Medium, qrSize)
	if err != nil {
		s.logger.Error("Failed to generate QR code",
			zap.String("session_id", session.ID()),
			zap.Error(err))
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
