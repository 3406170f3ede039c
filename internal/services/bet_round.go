package services

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"bus-eta-service/internal/domain"
)

// BettingWindow is how long a round accepts a choice after it is created.
const BettingWindow = 15 * time.Second

// PointsPerWin is the toy-currency reward for a correct call.
const PointsPerWin = 100

var (
	ErrUnparsableDuration = errors.New("duration has no leading minute count")
	ErrInvalidChoice      = errors.New(`choice must be "over" or "under"`)
	ErrBettingClosed      = errors.New("betting window closed")
)

type Choice string

const (
	ChoiceOver  Choice = "over"
	ChoiceUnder Choice = "under"
)

func ParseChoice(s string) (Choice, error) {
	switch Choice(strings.ToLower(strings.TrimSpace(s))) {
	case ChoiceOver:
		return ChoiceOver, nil
	case ChoiceUnder:
		return ChoiceUnder, nil
	default:
		return "", fmt.Errorf("parse choice %q: %w", s, ErrInvalidChoice)
	}
}

// BetRound pairs a real ETA with a skewed baseline that players bet against.
type BetRound struct {
	ETA           *domain.ETAResult
	ActualMinutes int
	FakeMinutes   int
	FakeETA       string
	OpenedAt      time.Time
	ClosesAt      time.Time
}

// Outcome is the settlement of one choice.
type Outcome struct {
	Choice        Choice
	ActualMinutes int
	FakeMinutes   int
	ActualIsUnder bool
	Won           bool
	Points        int
}

// NewBetRound derives the fake baseline from eta. coin decides the skew
// direction: true puts the baseline one minute above the actual ETA, false
// one minute below (never under one minute). A nil coin flips a fair coin.
func NewBetRound(eta *domain.ETAResult, coin func() bool, now time.Time) (*BetRound, error) {
	if eta == nil {
		return nil, errors.New("new bet round: eta is nil")
	}

	actual, err := ParseMinutes(eta.Duration)
	if err != nil {
		return nil, fmt.Errorf("new bet round: %w", err)
	}

	if coin == nil {
		coin = func() bool { return rand.Float64() >= 0.5 }
	}

	fake := FakeMinutes(actual, coin())

	return &BetRound{
		ETA:           eta,
		ActualMinutes: actual,
		FakeMinutes:   fake,
		FakeETA:       FormatMinutes(fake),
		OpenedAt:      now,
		ClosesAt:      now.Add(BettingWindow),
	}, nil
}

// FakeMinutes skews actual by one minute in the requested direction.
func FakeMinutes(actual int, over bool) int {
	if over {
		return actual + 1
	}
	return max(1, actual-1)
}

// ParseMinutes reads the leading integer of a duration text such as
// "5 mins" or "1 min".
func ParseMinutes(text string) (int, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, fmt.Errorf("parse minutes %q: %w", text, ErrUnparsableDuration)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("parse minutes %q: %w", text, ErrUnparsableDuration)
	}
	return n, nil
}

func FormatMinutes(n int) string {
	return strconv.Itoa(n) + " mins"
}

// Settle resolves choice against the round without checking the window.
func (r *BetRound) Settle(choice Choice) (Outcome, error) {
	return SettleMinutes(r.ActualMinutes, r.FakeMinutes, choice)
}

// SettleAt resolves choice made at t, rejecting choices after ClosesAt.
func (r *BetRound) SettleAt(choice Choice, t time.Time) (Outcome, error) {
	if t.After(r.ClosesAt) {
		return Outcome{}, fmt.Errorf("settle at %s: closed at %s: %w",
			t.Format(time.RFC3339), r.ClosesAt.Format(time.RFC3339), ErrBettingClosed)
	}
	return r.Settle(choice)
}

// SettleMinutes resolves a choice from raw minute counts. The actual ETA is
// "under" only when strictly below the baseline; a tie counts as "over".
func SettleMinutes(actual, fake int, choice Choice) (Outcome, error) {
	if choice != ChoiceOver && choice != ChoiceUnder {
		return Outcome{}, fmt.Errorf("settle: %w", ErrInvalidChoice)
	}

	under := actual < fake
	won := (choice == ChoiceUnder && under) || (choice == ChoiceOver && !under)

	out := Outcome{
		Choice:        choice,
		ActualMinutes: actual,
		FakeMinutes:   fake,
		ActualIsUnder: under,
		Won:           won,
	}
	if won {
		out.Points = PointsPerWin
	}
	return out, nil
}
