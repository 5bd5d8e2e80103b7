package server

import (
	"sync"

	"github.com/user/vida-loka-sim/internal/interfaces"
	"github.com/user/vida-loka-sim/internal/types"
	"go.uber.org/zap"
)

const audioBuffer = 32

// AudioHub turns the sound cues of every session into events for the
// browser, which does the actual playback
type AudioHub struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan types.Event
	nextID int
	logger *zap.Logger
}

// NewAudioHub creates an empty hub
func NewAudioHub(logger *zap.Logger) *AudioHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AudioHub{
		subs:   make(map[string]map[int]chan types.Event),
		logger: logger,
	}
}

// Port returns the audio port of one session
func (h *AudioHub) Port(sessionID string) interfaces.AudioPort {
	return &hubPort{hub: h, sessionID: sessionID}
}

// Subscribe returns the sound events of a session and a cancel function
func (h *AudioHub) Subscribe(sessionID string) (<-chan types.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan types.Event, audioBuffer)
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[int]chan types.Event)
	}
	h.subs[sessionID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[sessionID], id)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
			close(ch)
		})
	}
}

// publish never blocks; it runs while the session holds its lock
func (h *AudioHub) publish(sessionID string, ev types.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs[sessionID] {
		select {
		case ch <- ev:
		default:
			h.logger.Debug("Audio subscriber is behind, event dropped",
				zap.String("session_id", sessionID),
				zap.Int("subscriber", id),
				zap.String("sound", ev.Sound))
		}
	}
}

type hubPort struct {
	hub       *AudioHub
	sessionID string
}

func (p *hubPort) PlaySound(name string) {
	p.hub.publish(p.sessionID, types.Event{Kind: types.EventSound, Sound: name})
}

func (p *hubPort) StartAmbientLoop() {
	p.hub.publish(p.sessionID, types.Event{Kind: types.EventAmbient, Playing: true})
}

func (p *hubPort) StopAmbientLoop() {
	p.hub.publish(p.sessionID, types.Event{Kind: types.EventAmbient, Playing: false})
}
