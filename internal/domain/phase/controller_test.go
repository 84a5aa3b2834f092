package phase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nftearth/fortune/internal/domain/round"
)

func TestCountdownAt(t *testing.T) {
	cutoff := int64(1700000000)

	tests := []struct {
		name string
		now  time.Time
		want int64
	}{
		{name: "ninety seconds out", now: time.Unix(cutoff-90, 0), want: 90},
		{name: "fractional second rounds up", now: time.Unix(cutoff-10, 0).Add(-500 * time.Millisecond), want: 11},
		{name: "at cutoff", now: time.Unix(cutoff, 0), want: 0},
		{name: "past cutoff clamps to zero", now: time.Unix(cutoff+30, 0), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CountdownAt(cutoff, tt.now)
			if c.Total() != tt.want {
				t.Fatalf("total = %d, want %d", c.Total(), tt.want)
			}
			if c.Minutes*60+c.Seconds != c.Total() {
				t.Fatalf("split %d:%d disagrees with total %d", c.Minutes, c.Seconds, c.Total())
			}
			if c.Seconds < 0 || c.Seconds > 59 {
				t.Fatalf("seconds out of range: %d", c.Seconds)
			}
		})
	}
}

func TestCountdownMonotonicity(t *testing.T) {
	cutoff := int64(1700000000)
	prev := int64(1 << 62)
	for offset := int64(-120); offset <= 10; offset++ {
		c := CountdownAt(cutoff, time.Unix(cutoff+offset, 0))
		if c.Total() > prev {
			t.Fatalf("countdown increased at offset %d: %d > %d", offset, c.Total(), prev)
		}
		if c.Total() < 0 {
			t.Fatalf("negative countdown at offset %d", offset)
		}
		prev = c.Total()
	}
}

func TestDerive(t *testing.T) {
	cutoff := int64(1700000000)

	tests := []struct {
		name   string
		status round.Status
		now    time.Time
		want   Phase
	}{
		{name: "open before cutoff", status: round.StatusOpen, now: time.Unix(cutoff-60, 0), want: PhaseOpen},
		{name: "open past cutoff is validating", status: round.StatusOpen, now: time.Unix(cutoff+5, 0), want: PhaseValidating},
		{name: "drawing regardless of clock", status: round.StatusDrawing, now: time.Unix(cutoff-60, 0), want: PhaseDrawing},
		{name: "drawn", status: round.StatusDrawn, now: time.Unix(cutoff+500, 0), want: PhaseDrawn},
		{name: "cancelled", status: round.StatusCancelled, now: time.Unix(cutoff, 0), want: PhaseCancelled},
		{name: "none", status: round.StatusNone, now: time.Unix(cutoff, 0), want: PhaseNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive(tt.status, cutoff, tt.now); got != tt.want {
				t.Fatalf("Derive(%s) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestWinnerSlice(t *testing.T) {
	players := []round.Player{
		{Address: "0xaaa", WinChance: 50},
		{Address: "0xbbb", WinChance: 30},
		{Address: "0xccc", WinChance: 20},
	}

	target, err := WinnerSlice(players, "0xBBB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Index != 1 {
		t.Fatalf("index = %d, want 1", target.Index)
	}
	// Second arc spans [180, 288); its middle is 234.
	if target.Angle < 233.9 || target.Angle > 234.1 {
		t.Fatalf("angle = %f, want 234", target.Angle)
	}

	_, err = WinnerSlice(players, "0xddd")
	var miss ErrWinnerNotLocal
	if !errors.As(err, &miss) {
		t.Fatalf("expected ErrWinnerNotLocal, got %v", err)
	}
	if miss.Winner != "0xddd" {
		t.Fatalf("miss winner = %s, want 0xddd", miss.Winner)
	}
}

func TestTickerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks := Ticker(ctx, round.StatusOpen, time.Now().Add(time.Hour).Unix())

	first, ok := <-ticks
	if !ok {
		t.Fatal("expected an immediate tick")
	}
	if first.Phase != PhaseOpen {
		t.Fatalf("phase = %s, want OPEN", first.Phase)
	}

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-ticks:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("ticker channel not closed after cancel")
		}
	}
}

func TestTickerTerminalPhaseEmitsOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks := Ticker(ctx, round.StatusDrawn, time.Now().Unix())
	first, ok := <-ticks
	if !ok {
		t.Fatal("expected one tick")
	}
	if first.Phase != PhaseDrawn {
		t.Fatalf("phase = %s, want DRAWN", first.Phase)
	}
	if _, open := <-ticks; open {
		t.Fatal("expected channel to close after terminal phase")
	}
}
