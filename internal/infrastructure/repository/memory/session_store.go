package memory

import (
	"sync"

	"github.com/nftearth/fortune/internal/domain/phase"
	"github.com/nftearth/fortune/internal/domain/round"
	"github.com/nftearth/fortune/internal/domain/selection"
)

// SessionStore holds the live view of the current round plus the
// user's in-progress selection. All reads return copies; the selection
// builder is the one deliberately shared mutable piece and callers
// serialize access to it through the selection service.
type SessionStore struct {
	mu           sync.RWMutex
	current      round.Round
	hasCurrent   bool
	players      []round.Player
	prizes       []round.Prize
	countdown    phase.Countdown
	selection    *selection.Builder
	soundEnabled bool
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		selection:    selection.NewBuilder(),
		soundEnabled: true,
	}
}

func (s *SessionStore) SetCurrentRound(r round.Round, players []round.Player, prizes []round.Prize) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = r
	s.hasCurrent = true
	s.players = append([]round.Player(nil), players...)
	s.prizes = append([]round.Prize(nil), prizes...)
}

func (s *SessionStore) CurrentRound() (round.Round, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current, s.hasCurrent
}

func (s *SessionStore) Players() []round.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]round.Player(nil), s.players...)
}

func (s *SessionStore) Prizes() []round.Prize {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]round.Prize(nil), s.prizes...)
}

func (s *SessionStore) SetCountdown(minutes, seconds int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.countdown = phase.Countdown{Minutes: minutes, Seconds: seconds}
}

func (s *SessionStore) Countdown() (minutes, seconds int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.countdown.Minutes, s.countdown.Seconds
}

func (s *SessionStore) Selection() *selection.Builder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selection
}

func (s *SessionStore) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection.Clear()
}

func (s *SessionStore) SetSoundEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.soundEnabled = enabled
}

func (s *SessionStore) SoundEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.soundEnabled
}
