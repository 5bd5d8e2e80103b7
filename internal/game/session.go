package game

import (
	"context"
	"sync"
	"time"

	"github.com/user/vida-loka-sim/config"
	"github.com/user/vida-loka-sim/internal/clock"
	"github.com/user/vida-loka-sim/internal/interfaces"
	"github.com/user/vida-loka-sim/internal/types"
	"go.uber.org/zap"
)

// Sound cues
const (
	SoundActivity = "activity"
	SoundCollect  = "collect"
	SoundUseItem  = "use_item"
	SoundLevelUp  = "levelup"
	SoundGameOver = "gameover"
)

const subscriberBuffer = 64

// VisitedKey is the store key of a session's visited locations
func VisitedKey(sessionID string) string {
	return "visitedLocations:" + sessionID
}

// SessionOptions configures a new session
type SessionOptions struct {
	ID            string
	PlayerName    string
	CharacterName string
	Catalog       *Catalog
	Config        config.GameConfig
	Clock         clock.Clock
	Speed         *SpeedMode
	Audio         interfaces.AudioPort
	Visited       interfaces.VisitedStore
	Logger        *zap.Logger

	// Called outside the session lock with a snapshot whenever the session
	// reaches a point worth saving.
	OnPersist func(types.SessionSnapshot)
}

// Session is one player's run of the game. Every change to its stat record
// goes through one mutex, including the decay and activity timer callbacks.
type Session struct {
	mu sync.Mutex

	id            string
	playerName    string
	characterName string

	catalog   *Catalog
	cfg       config.GameConfig
	clock     clock.Clock
	speed     *SpeedMode
	audio     interfaces.AudioPort
	store     interfaces.VisitedStore
	logger    *zap.Logger
	onPersist func(types.SessionSnapshot)

	stats     types.StatRecord
	location  string
	visited   []string
	usedItems []string
	prompt    *types.Prompt
	gameOver  bool
	summary   *types.GameOverSummary
	closed    bool
	dirty     bool
	updatedAt time.Time

	decay    *DecayEngine
	activity *ActivityEngine

	subscribers map[int]chan types.Event
	nextSub     int
}

// Ensure Session satisfies the interfaces.GameSession interface
var _ interfaces.GameSession = (*Session)(nil)

// NewSession creates a session with fresh default stats, outside any location
func NewSession(opts SessionOptions) *Session {
	s := &Session{
		id:            opts.ID,
		playerName:    opts.PlayerName,
		characterName: opts.CharacterName,
		catalog:       opts.Catalog,
		cfg:           opts.Config,
		clock:         opts.Clock,
		speed:         opts.Speed,
		audio:         opts.Audio,
		store:         opts.Visited,
		logger:        opts.Logger,
		onPersist:     opts.OnPersist,
		subscribers:   make(map[int]chan types.Event),
	}

	if s.catalog == nil {
		s.catalog = DefaultCatalog()
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.speed == nil {
		s.speed = NewSpeedMode(false)
	}
	if s.audio == nil {
		s.audio = NopAudio{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(zap.String("session_id", s.id), zap.String("player", s.playerName))

	s.stats = DefaultStats(s.cfg.Defaults)
	s.updatedAt = s.clock.Now()
	s.decay = NewDecayEngine(s.clock, s.speed, s.cfg.Decay, s.dispatch, s.logger)
	s.activity = NewActivityEngine(s.clock, s.speed, s.cfg.Activity, s.dispatch, s.collectItem, s.logger)

	return s
}

// NopAudio discards every sound cue
type NopAudio struct{}

func (NopAudio) PlaySound(string)  {}
func (NopAudio) StartAmbientLoop() {}
func (NopAudio) StopAmbientLoop()  {}

// restore loads a persisted snapshot into a session that has not started
func (s *Session) restore(snap *types.SessionSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats = SanitizeStats(DefaultStats(s.cfg.Defaults), snap.Stats)
	s.visited = append([]string(nil), snap.Visited...)
	s.usedItems = append([]string(nil), snap.UsedItems...)
	s.gameOver = snap.GameOver
	if snap.Summary != nil {
		summary := *snap.Summary
		s.summary = &summary
	}
}

// unlock releases the session lock and runs the persistence hook when the
// update asked for it
func (s *Session) unlock() {
	var snap *types.SessionSnapshot
	if s.dirty && s.onPersist != nil {
		sn := s.snapshotLocked()
		snap = &sn
	}
	s.dirty = false
	s.mu.Unlock()

	if snap != nil {
		s.onPersist(*snap)
	}
}

// dispatch is the serialized update path used by timer callbacks
func (s *Session) dispatch(fn func(rec *types.StatRecord)) {
	s.mu.Lock()
	if s.gameOver || s.closed {
		s.mu.Unlock()
		return
	}
	fn(&s.stats)
	s.afterUpdate()
	s.unlock()
}

// afterUpdate re-derives the level, observes the game-over condition and
// notifies subscribers. Caller holds mu.
func (s *Session) afterUpdate() {
	s.updatedAt = s.clock.Now()

	if up, ok := ReevaluateLevel(&s.stats); ok {
		s.logger.Info("Level up",
			zap.Int("old_level", up.OldLevel),
			zap.Int("new_level", up.NewLevel))
		s.audio.PlaySound(SoundLevelUp)
		s.emit(types.Event{Kind: types.EventLevelUp, OldLevel: up.OldLevel, NewLevel: up.NewLevel})
	}

	if !s.gameOver && IsGameOver(s.stats) {
		s.enterGameOver()
	}

	snap := s.snapshotLocked()
	s.emit(types.Event{Kind: types.EventState, Snapshot: &snap})
}

func (s *Session) enterGameOver() {
	s.gameOver = true
	s.decay.Stop()
	s.activity.Cancel()
	s.prompt = nil
	s.audio.StopAmbientLoop()
	s.audio.PlaySound(SoundGameOver)

	summary := ComputeSummary(s.stats, s.visited, s.usedItems, s.catalog)
	s.summary = &summary
	s.dirty = true

	s.logger.Info("Game over",
		zap.Float64("health", s.stats.Health),
		zap.Float64("sleep", s.stats.Sleep),
		zap.Float64("final_score", summary.FinalScore),
		zap.String("expression", summary.Expression))

	s.emit(types.Event{Kind: types.EventGameOver})
}

// emit delivers an event to every subscriber without blocking. Caller holds mu.
func (s *Session) emit(ev types.Event) {
	for id, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			s.logger.Debug("Subscriber is behind, event dropped",
				zap.Int("subscriber", id),
				zap.String("kind", ev.Kind))
		}
	}
}

func (s *Session) collectItem(rec *types.StatRecord, item types.CollectItem) {
	entry := AddItem(rec, item)
	s.audio.PlaySound(SoundCollect)
	s.logger.Info("Item collected",
		zap.String("item", entry.Name),
		zap.Int("quantity", entry.Quantity))
}

// acceptInput rejects input once the session is over or closed. Caller holds mu.
func (s *Session) acceptInput() error {
	if s.closed {
		return ErrSessionNotFound
	}
	if s.gameOver {
		return ErrGameOver
	}
	return nil
}

// ID returns the session ID
func (s *Session) ID() string {
	return s.id
}

// Enter moves the player into a location. A non-nil handoff replaces the
// stat record after it is sanitized against the defaults.
func (s *Session) Enter(location string, handoff *types.Handoff) error {
	s.mu.Lock()
	defer s.unlock()

	if err := s.acceptInput(); err != nil {
		return err
	}
	loc, ok := s.catalog.Location(location)
	if !ok {
		return ErrUnknownLocation
	}

	// Entering a new screen tears down the previous one
	s.decay.Stop()
	s.activity.Cancel()

	if handoff != nil {
		s.stats = SanitizeStats(DefaultStats(s.cfg.Defaults), handoff.Stats)
		if handoff.PlayerName != "" {
			s.playerName = handoff.PlayerName
		}
		if handoff.CharacterName != "" {
			s.characterName = handoff.CharacterName
		}
	}

	s.location = location
	s.prompt = nil
	added := InitializeTasks(&s.stats, location, loc.Tasks)
	if loc.Tracked {
		s.markVisited(location)
	}

	s.decay.Start()
	s.audio.StartAmbientLoop()
	s.dirty = true

	s.logger.Info("Entered location",
		zap.String("location", location),
		zap.Int("tasks_added", added),
		zap.Int("visited", len(s.visited)))

	s.afterUpdate()
	return nil
}

// markVisited merges the persisted visited set and records location
func (s *Session) markVisited(location string) {
	ctx := context.Background()

	if s.store != nil {
		stored, err := s.store.LoadVisited(ctx, VisitedKey(s.id))
		if err != nil {
			s.logger.Warn("Failed to load visited locations", zap.Error(err))
		}
		for _, v := range stored {
			if !contains(s.visited, v) {
				s.visited = append(s.visited, v)
			}
		}
	}

	if contains(s.visited, location) {
		return
	}
	s.visited = append(s.visited, location)

	if s.store != nil {
		if err := s.store.SaveVisited(ctx, VisitedKey(s.id), s.visited); err != nil {
			s.logger.Error("Failed to save visited locations", zap.Error(err))
		}
	}
}

// Leave tears down the current location and hands the state back
func (s *Session) Leave() (*types.Handoff, error) {
	s.mu.Lock()
	defer s.unlock()

	if err := s.acceptInput(); err != nil {
		return nil, err
	}
	if s.location == "" {
		return nil, ErrNotInLocation
	}

	s.decay.Stop()
	s.activity.Cancel()
	s.audio.StopAmbientLoop()

	left := s.location
	s.stats.LastVisitedLocation = left
	s.location = ""
	s.prompt = nil
	s.dirty = true

	s.logger.Info("Left location", zap.String("location", left))
	s.afterUpdate()

	return &types.Handoff{
		CharacterName: s.characterName,
		PlayerName:    s.playerName,
		Stats:         s.stats.Clone(),
	}, nil
}

// PerformActivity starts an activity of the current location. It reports
// false when another activity is still in flight.
func (s *Session) PerformActivity(activityKey string) (bool, error) {
	s.mu.Lock()
	defer s.unlock()

	if err := s.acceptInput(); err != nil {
		return false, err
	}
	if s.location == "" {
		return false, ErrNotInLocation
	}
	loc, _ := s.catalog.Location(s.location)
	def, ok := loc.Activities[activityKey]
	if !ok {
		return false, ErrUnknownActivity
	}

	if !s.activity.Start(&s.stats, def) {
		return false, nil
	}

	s.prompt = nil
	s.dirty = true
	if CompleteTask(&s.stats, s.location, def.TaskID, loc.Tasks) {
		s.logger.Info("Task completed",
			zap.String("task", TaskKey(s.location, def.TaskID)))
	}
	s.audio.PlaySound(SoundActivity)

	s.afterUpdate()
	return true, nil
}

// UseItem consumes one unit of an item that has an effect. Items the player
// does not hold, or that have no effect, are left alone.
func (s *Session) UseItem(name string) (bool, error) {
	s.mu.Lock()
	defer s.unlock()

	if err := s.acceptInput(); err != nil {
		return false, err
	}

	effect, ok := s.catalog.Effects().Effect(name)
	if !ok {
		return false, nil
	}
	if !ConsumeItem(&s.stats, name, effect) {
		return false, nil
	}

	if !contains(s.usedItems, name) {
		s.usedItems = append(s.usedItems, name)
	}
	s.audio.PlaySound(SoundUseItem)
	s.dirty = true
	s.logger.Info("Item used", zap.String("item", name))

	s.afterUpdate()
	return true, nil
}

// ToggleTask flips a task from the quest log
func (s *Session) ToggleTask(key string) error {
	s.mu.Lock()
	defer s.unlock()

	if err := s.acceptInput(); err != nil {
		return err
	}

	completed := ToggleTask(&s.stats, key)
	s.dirty = true
	s.logger.Info("Task toggled",
		zap.String("task", key),
		zap.Bool("completed", completed))

	s.afterUpdate()
	return nil
}

// Move places the avatar and resolves the activity offered at that spot.
// No prompt is raised while an activity is running.
func (s *Session) Move(x, y float64) (*types.Prompt, error) {
	s.mu.Lock()
	defer s.unlock()

	if err := s.acceptInput(); err != nil {
		return nil, err
	}
	if s.location == "" {
		return nil, ErrNotInLocation
	}

	s.prompt = nil
	if !s.activity.Busy() {
		loc, _ := s.catalog.Location(s.location)
		if z, ok := ZoneAt(loc, x, y); ok {
			if def, ok := loc.Activities[z.ActivityKey]; ok {
				s.prompt = &types.Prompt{ZoneID: z.ID, ActivityKey: z.ActivityKey, Activity: def.Name}
			}
		}
	}

	snap := s.snapshotLocked()
	s.emit(types.Event{Kind: types.EventState, Snapshot: &snap})

	if s.prompt == nil {
		return nil, nil
	}
	prompt := *s.prompt
	return &prompt, nil
}

// SpeedChanged reschedules the decay timer after the speed mode toggled
func (s *Session) SpeedChanged() {
	s.mu.Lock()
	defer s.unlock()

	if s.gameOver || s.closed {
		return
	}
	s.decay.Restart()

	snap := s.snapshotLocked()
	s.emit(types.Event{Kind: types.EventState, Snapshot: &snap})
}

// NewGame resets the stat record and tracking and leaves the game-over state.
// The player starts outside any location.
func (s *Session) NewGame() error {
	s.mu.Lock()
	defer s.unlock()

	if s.closed {
		return ErrSessionNotFound
	}

	s.decay.Stop()
	s.activity.Cancel()
	s.audio.StopAmbientLoop()

	s.stats = DefaultStats(s.cfg.Defaults)
	s.location = ""
	s.visited = nil
	s.usedItems = nil
	s.prompt = nil
	s.gameOver = false
	s.summary = nil
	s.dirty = true

	if s.store != nil {
		if err := s.store.SaveVisited(context.Background(), VisitedKey(s.id), []string{}); err != nil {
			s.logger.Error("Failed to clear visited locations", zap.Error(err))
		}
	}

	s.logger.Info("New game started")
	s.afterUpdate()
	return nil
}

// Close stops every timer and subscriber; the session accepts no more input
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.decay.Stop()
	s.activity.Cancel()
	if s.location != "" {
		s.audio.StopAmbientLoop()
	}
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.logger.Info("Session closed")
}

// Subscribe returns a channel of session events and a function to cancel it
func (s *Session) Subscribe() (<-chan types.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan types.Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				close(sub)
				delete(s.subscribers, id)
			}
		})
	}
}

// Snapshot returns a copy of the session state
func (s *Session) Snapshot() types.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() types.SessionSnapshot {
	snap := types.SessionSnapshot{
		ID:            s.id,
		PlayerName:    s.playerName,
		CharacterName: s.characterName,
		Location:      s.location,
		Stats:         s.stats.Clone(),
		Visited:       append([]string{}, s.visited...),
		UsedItems:     append([]string{}, s.usedItems...),
		Activity:      s.activity.Status(),
		GameOver:      s.gameOver,
		FastForward:   s.speed.FastForward(),
		UpdatedAt:     s.updatedAt,
	}
	if s.prompt != nil {
		prompt := *s.prompt
		snap.Prompt = &prompt
	}
	if s.summary != nil {
		summary := *s.summary
		snap.Summary = &summary
	}
	return snap
}

// Summary returns the frozen score once the game is over
func (s *Session) Summary() (*types.GameOverSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gameOver || s.summary == nil {
		return nil, false
	}
	summary := *s.summary
	return &summary, true
}

// GameOver reports whether the session has ended
func (s *Session) GameOver() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameOver
}

// Progress returns the quest log summary of every location with tasks
func (s *Session) Progress() []TaskProgress {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []TaskProgress
	for _, loc := range s.catalog.Locations() {
		if len(loc.Tasks) == 0 {
			continue
		}
		out = append(out, LocationProgress(s.stats, loc.ID, loc.Tasks))
	}
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
