package phase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nftearth/fortune/internal/domain/round"
)

// Phase is the UI-facing lifecycle state derived from the source
// status and the countdown. It is a projection; the contract alone
// decides the underlying status.
type Phase string

const (
	PhaseNone       Phase = "NONE"
	PhaseOpen       Phase = "OPEN"
	PhaseValidating Phase = "VALIDATING"
	PhaseDrawing    Phase = "DRAWING"
	PhaseDrawn      Phase = "DRAWN"
	PhaseCancelled  Phase = "CANCELLED"
)

// Countdown is the remaining time until cutoff, split for display.
// Minutes*60+Seconds equals the ceiling of the remaining duration,
// clamped at zero.
type Countdown struct {
	Minutes int64
	Seconds int64
}

func (c Countdown) Total() int64 { return c.Minutes*60 + c.Seconds }

func (c Countdown) Expired() bool { return c.Total() <= 0 }

// CountdownAt computes the countdown toward a unix cutoff at a given
// instant. Never negative.
func CountdownAt(cutoff int64, now time.Time) Countdown {
	remaining := time.Unix(cutoff, 0).Sub(now)
	secs := int64(math.Ceil(remaining.Seconds()))
	if secs < 0 {
		secs = 0
	}
	return Countdown{Minutes: secs / 60, Seconds: secs % 60}
}

// Derive maps the source-reported status and the local clock onto a
// phase. A round whose cutoff passed while the source still reports
// Open is Validating: the draw has not been observed yet, but entries
// are closed.
func Derive(status round.Status, cutoff int64, now time.Time) Phase {
	switch status {
	case round.StatusOpen:
		if CountdownAt(cutoff, now).Expired() {
			return PhaseValidating
		}
		return PhaseOpen
	case round.StatusDrawing:
		return PhaseDrawing
	case round.StatusDrawn:
		return PhaseDrawn
	case round.StatusCancelled:
		return PhaseCancelled
	default:
		return PhaseNone
	}
}

// ErrWinnerNotLocal reports that the resolved winner address does not
// appear in the local player list. Callers surface this divergence
// instead of masking it.
type ErrWinnerNotLocal struct {
	Winner string
}

func (e ErrWinnerNotLocal) Error() string {
	return fmt.Sprintf("winner %s not present in local player list", e.Winner)
}

// WheelTarget locates the winner on the reveal wheel. Index is the
// winner's position in the player slice; Angle is the terminal rotation
// in degrees pointing at the middle of the winner's arc, where arcs are
// laid out clockwise from zero in player order, sized by win chance.
type WheelTarget struct {
	Index int
	Angle float64
}

// WinnerSlice maps an externally resolved winner onto the local wheel.
func WinnerSlice(players []round.Player, winner string) (WheelTarget, error) {
	var start float64
	for i, p := range players {
		arc := p.WinChance / 100 * 360
		if strings.EqualFold(p.Address, winner) {
			return WheelTarget{Index: i, Angle: start + arc/2}, nil
		}
		start += arc
	}
	return WheelTarget{}, ErrWinnerNotLocal{Winner: winner}
}

// Tick is one countdown observation.
type Tick struct {
	Countdown Countdown
	Phase     Phase
}

// Ticker emits a tick immediately and then once per second until the
// context is cancelled or the derived phase leaves Open. The channel is
// closed on return.
func Ticker(ctx context.Context, status round.Status, cutoff int64) <-chan Tick {
	out := make(chan Tick, 1)
	go func() {
		defer close(out)
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			tick := Tick{
				Countdown: CountdownAt(cutoff, time.Now()),
				Phase:     Derive(status, cutoff, time.Now()),
			}
			select {
			case out <- tick:
			case <-ctx.Done():
				return
			}
			if tick.Phase != PhaseOpen {
				return
			}
			select {
			case <-t.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
