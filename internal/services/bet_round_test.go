package services

import (
	"errors"
	"testing"
	"time"

	"bus-eta-service/internal/domain"
)

func TestNewBetRoundSkew(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		duration string
		over     bool
		wantFake int
		wantText string
	}{
		{"5 mins", true, 6, "6 mins"},
		{"5 mins", false, 4, "4 mins"},
		{"1 min", false, 1, "1 mins"},
		{"1 min", true, 2, "2 mins"},
	}

	for _, tt := range tests {
		over := tt.over
		round, err := NewBetRound(&domain.ETAResult{Duration: tt.duration}, func() bool { return over }, now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.duration, err)
		}
		if round.FakeMinutes != tt.wantFake || round.FakeETA != tt.wantText {
			t.Fatalf("%s over=%v: fake = %d (%q), want %d (%q)",
				tt.duration, tt.over, round.FakeMinutes, round.FakeETA, tt.wantFake, tt.wantText)
		}
		if !round.ClosesAt.Equal(now.Add(15 * time.Second)) {
			t.Fatalf("ClosesAt = %v, want now+15s", round.ClosesAt)
		}
	}
}

func TestNewBetRoundRejectsUnparsableDuration(t *testing.T) {
	_, err := NewBetRound(&domain.ETAResult{Duration: "Unknown"}, nil, time.Now())
	if !errors.Is(err, ErrUnparsableDuration) {
		t.Fatalf("err = %v, want ErrUnparsableDuration", err)
	}
}

func TestSettleMinutes(t *testing.T) {
	tests := []struct {
		name   string
		actual int
		fake   int
		choice Choice
		won    bool
	}{
		{"under wins when actual below baseline", 5, 6, ChoiceUnder, true},
		{"over loses when actual below baseline", 5, 6, ChoiceOver, false},
		{"over wins when actual above baseline", 5, 4, ChoiceOver, true},
		{"under loses when actual above baseline", 5, 4, ChoiceUnder, false},
		{"tie counts as over", 1, 1, ChoiceOver, true},
		{"tie loses under", 1, 1, ChoiceUnder, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := SettleMinutes(tt.actual, tt.fake, tt.choice)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Won != tt.won {
				t.Fatalf("won = %v, want %v", out.Won, tt.won)
			}
			wantPoints := 0
			if tt.won {
				wantPoints = PointsPerWin
			}
			if out.Points != wantPoints {
				t.Fatalf("points = %d, want %d", out.Points, wantPoints)
			}
		})
	}

	if _, err := SettleMinutes(1, 2, Choice("sideways")); !errors.Is(err, ErrInvalidChoice) {
		t.Fatalf("err = %v, want ErrInvalidChoice", err)
	}
}

func TestSettleAtEnforcesWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	round, err := NewBetRound(&domain.ETAResult{Duration: "5 mins"}, func() bool { return true }, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := round.SettleAt(ChoiceUnder, now.Add(10*time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Won {
		t.Fatalf("expected under to win against a baseline above the actual ETA")
	}

	if _, err := round.SettleAt(ChoiceUnder, now.Add(16*time.Second)); !errors.Is(err, ErrBettingClosed) {
		t.Fatalf("err = %v, want ErrBettingClosed", err)
	}
}

func TestParseChoice(t *testing.T) {
	if c, err := ParseChoice(" Over "); err != nil || c != ChoiceOver {
		t.Fatalf("ParseChoice = %q, %v", c, err)
	}
	if _, err := ParseChoice("both"); !errors.Is(err, ErrInvalidChoice) {
		t.Fatalf("err = %v, want ErrInvalidChoice", err)
	}
}
