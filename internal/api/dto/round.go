package dto

import "time"

type RoundResponse struct {
	ETA         ETAResponse `json:"eta"`
	FakeETA     string      `json:"fake_eta"`
	FakeMinutes int         `json:"fake_minutes"`
	OpenedAt    time.Time   `json:"opened_at"`
	ClosesAt    time.Time   `json:"closes_at"`
}

type SettleRequest struct {
	ActualMinutes int        `json:"actual_minutes"`
	FakeMinutes   int        `json:"fake_minutes"`
	Choice        string     `json:"choice"`
	ClosesAt      *time.Time `json:"closes_at"`
}

type SettleResponse struct {
	Choice        string `json:"choice"`
	ActualMinutes int    `json:"actual_minutes"`
	FakeMinutes   int    `json:"fake_minutes"`
	ActualIsUnder bool   `json:"actual_is_under"`
	Won           bool   `json:"won"`
	Points        int    `json:"points"`
}
