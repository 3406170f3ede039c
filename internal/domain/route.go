package domain

import "time"

// Route is a provider route record. Only Name is used as a topology key.
type Route struct {
	ID        string
	Name      string
	ShortName string
	Color     string
}

// Alert is a service message published by a transit system.
type Alert struct {
	ID      string
	RouteID string
	Title   string
	Body    string
	Start   *time.Time
	End     *time.Time
}

// SystemInfo describes a transit system known to a provider.
type SystemInfo struct {
	ID   int
	Name string
}
