package dto

import (
	"time"

	"bus-eta-service/internal/domain"
)

type PositionResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewPositionResponse(c domain.Coordinates) PositionResponse {
	return PositionResponse{Lat: c.Lat, Lon: c.Lon}
}

type RouteResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
	Color     string `json:"color,omitempty"`
}

func NewRouteResponse(r domain.Route) RouteResponse {
	return RouteResponse{ID: r.ID, Name: r.Name, ShortName: r.ShortName, Color: r.Color}
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}

type StopResponse struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Position PositionResponse `json:"position"`
}

func NewStopResponse(s domain.Stop) StopResponse {
	return StopResponse{ID: s.ID, Name: s.Name, Position: NewPositionResponse(s.Position)}
}

type ListStopsResponse struct {
	Stops []StopResponse `json:"stops"`
}

type AlertResponse struct {
	ID      string     `json:"id"`
	RouteID string     `json:"route_id,omitempty"`
	Title   string     `json:"title"`
	Body    string     `json:"body"`
	Start   *time.Time `json:"start"`
	End     *time.Time `json:"end"`
}

func NewAlertResponse(a domain.Alert) AlertResponse {
	return AlertResponse{
		ID:      a.ID,
		RouteID: a.RouteID,
		Title:   a.Title,
		Body:    a.Body,
		Start:   a.Start,
		End:     a.End,
	}
}

type ListAlertsResponse struct {
	Alerts []AlertResponse `json:"alerts"`
}

type VehicleResponse struct {
	ID       string           `json:"id,omitempty"`
	Name     string           `json:"name"`
	Route    string           `json:"route"`
	Position PositionResponse `json:"position"`
}

func NewVehicleResponses(vs []domain.Vehicle) []VehicleResponse {
	out := make([]VehicleResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, VehicleResponse{
			ID:       v.ID,
			Name:     v.Name,
			Route:    v.RouteName,
			Position: NewPositionResponse(v.Position),
		})
	}
	return out
}

type ListVehiclesResponse struct {
	Vehicles []VehicleResponse `json:"vehicles"`
}

// PositionEvent is one frame of the vehicle stream.
type PositionEvent struct {
	SystemID  int               `json:"system_id"`
	Tick      uint64            `json:"tick"`
	FetchedAt time.Time         `json:"fetched_at"`
	Vehicles  []VehicleResponse `json:"vehicles"`
}
