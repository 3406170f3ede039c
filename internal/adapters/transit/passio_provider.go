package transit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/platform/httpx"
	"bus-eta-service/internal/platform/obs"
	"bus-eta-service/internal/ports"
)

const DefaultPassioBaseURL = "https://passiogo.com"

// Passio reports alert windows in the agency's local wall clock.
const passioTimeLayout = "2006-01-02 15:04:05"

// PassioProvider implements TransitProvider against the Passio GO web API.
type PassioProvider struct {
	baseURL string
	client  *httpx.Client
}

func NewPassioProvider(baseURL string, client *httpx.Client) *PassioProvider {
	if baseURL == "" {
		baseURL = DefaultPassioBaseURL
	}
	if client == nil {
		client = httpx.New(10 * time.Second)
	}
	return &PassioProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// ListSystems returns every system the provider knows about.
func (p *PassioProvider) ListSystems(ctx context.Context) (_ []domain.SystemInfo, err error) {
	defer obs.Time(ctx, "passio.ListSystems")(&err)

	var body passioSystemsResponse
	endpoint := p.baseURL + "/mapGetData.php?getSystems=2&sortMode=1&credentials=1"
	if err := p.client.DoJSON(ctx, http.MethodGet, endpoint, nil, &body); err != nil {
		return nil, fmt.Errorf("passio list systems: %w", err)
	}

	systems := make([]domain.SystemInfo, 0, len(body.All))
	for _, s := range body.All {
		id, err := strconv.Atoi(string(s.ID))
		if err != nil {
			continue
		}
		name := s.FullName
		if name == "" {
			name = s.Name
		}
		systems = append(systems, domain.SystemInfo{ID: id, Name: name})
	}
	return systems, nil
}

func (p *PassioProvider) GetSystem(ctx context.Context, systemID int) (ports.TransitSystem, error) {
	systems, err := p.ListSystems(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range systems {
		if s.ID == systemID {
			return &PassioSystem{provider: p, info: s}, nil
		}
	}
	return nil, fmt.Errorf("passio system %d: %w", systemID, ports.ErrSystemNotFound)
}

// System builds a handle without checking the systems list.
func (p *PassioProvider) System(info domain.SystemInfo) *PassioSystem {
	return &PassioSystem{provider: p, info: info}
}

func (p *PassioProvider) post(ctx context.Context, path string, payload any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return p.client.DoJSON(ctx, http.MethodPost, p.baseURL+path, b, out)
}

// PassioSystem is one Passio system. Every call goes to the network.
type PassioSystem struct {
	provider *PassioProvider
	info     domain.SystemInfo
}

func (s *PassioSystem) ID() int      { return s.info.ID }
func (s *PassioSystem) Name() string { return s.info.Name }

func (s *PassioSystem) GetVehicles(ctx context.Context) (_ []domain.Vehicle, err error) {
	defer obs.Time(ctx, "passio.GetVehicles")(&err)

	var body passioBusesResponse
	req := map[string]any{"s0": strconv.Itoa(s.info.ID), "sA": 1}
	if err := s.provider.post(ctx, "/mapGetData.php?getBuses=2", req, &body); err != nil {
		return nil, fmt.Errorf("passio vehicles system=%d: %w", s.info.ID, err)
	}

	keys := make([]string, 0, len(body.Buses))
	for k := range body.Buses {
		// "-1" holds buses that are not in service.
		if k == "-1" {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	vehicles := make([]domain.Vehicle, 0, len(keys))
	for _, k := range keys {
		for _, b := range body.Buses[k] {
			vehicles = append(vehicles, domain.Vehicle{
				ID:        string(b.BusID),
				Name:      b.BusName,
				RouteName: b.Route,
				Position:  domain.Coordinates{Lat: float64(b.Latitude), Lon: float64(b.Longitude)},
			})
		}
	}
	return vehicles, nil
}

func (s *PassioSystem) GetStops(ctx context.Context) (_ []domain.Stop, err error) {
	defer obs.Time(ctx, "passio.GetStops")(&err)

	var body passioStopsResponse
	req := map[string]any{"s0": strconv.Itoa(s.info.ID), "sA": 1}
	if err := s.provider.post(ctx, "/mapGetData.php?getStops=2", req, &body); err != nil {
		return nil, fmt.Errorf("passio stops system=%d: %w", s.info.ID, err)
	}

	stops := make([]domain.Stop, 0, len(body.Stops))
	for key, st := range body.Stops {
		id := string(st.ID)
		if id == "" {
			id = key
		}
		stops = append(stops, domain.Stop{
			ID:       id,
			Name:     st.Name,
			Position: domain.Coordinates{Lat: float64(st.Latitude), Lon: float64(st.Longitude)},
		})
	}
	slices.SortFunc(stops, func(a, b domain.Stop) int { return strings.Compare(a.ID, b.ID) })
	return stops, nil
}

func (s *PassioSystem) GetRoutes(ctx context.Context) (_ []domain.Route, err error) {
	defer obs.Time(ctx, "passio.GetRoutes")(&err)

	var raw json.RawMessage
	req := map[string]any{"systemSelected0": strconv.Itoa(s.info.ID), "amount": 1}
	if err := s.provider.post(ctx, "/mapGetData.php?getRoutes=1", req, &raw); err != nil {
		return nil, fmt.Errorf("passio routes system=%d: %w", s.info.ID, err)
	}

	records, err := decodePassioRoutes(raw)
	if err != nil {
		return nil, fmt.Errorf("passio routes system=%d: %w", s.info.ID, err)
	}

	routes := make([]domain.Route, 0, len(records))
	for _, r := range records {
		id := string(r.MyID)
		if id == "" {
			id = string(r.ID)
		}
		routes = append(routes, domain.Route{
			ID:        id,
			Name:      r.Name,
			ShortName: r.ShortName,
			Color:     r.Color,
		})
	}
	return routes, nil
}

// The routes endpoint answers either a bare list or {"all": [...]}.
func decodePassioRoutes(raw json.RawMessage) ([]passioRoute, error) {
	var list []passioRoute
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		All []passioRoute `json:"all"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, errors.New("decode routes: unexpected payload shape")
	}
	return wrapped.All, nil
}

func (s *PassioSystem) GetAlerts(ctx context.Context) (_ []domain.Alert, err error) {
	defer obs.Time(ctx, "passio.GetAlerts")(&err)

	var body passioAlertsResponse
	req := map[string]any{
		"systemSelected0": strconv.Itoa(s.info.ID),
		"amount":          1,
		"routesAmount":    0,
	}
	if err := s.provider.post(ctx, "/goServices.php?getAlertMessages=1", req, &body); err != nil {
		return nil, fmt.Errorf("passio alerts system=%d: %w", s.info.ID, err)
	}

	alerts := make([]domain.Alert, 0, len(body.Msgs))
	for _, m := range body.Msgs {
		alerts = append(alerts, domain.Alert{
			ID:      string(m.ID),
			RouteID: string(m.RouteID),
			Title:   m.Name,
			Body:    m.HTML,
			Start:   parsePassioTime(m.From),
			End:     parsePassioTime(m.To),
		})
	}
	return alerts, nil
}

func parsePassioTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(passioTimeLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
