package transit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/platform/httpx"
	"bus-eta-service/internal/platform/obs"
)

// GTFSRealtimeVehicleSource reads vehicle positions from a GTFS-realtime
// VehiclePositions feed. The feed covers one agency, so systemID is only
// used for error context.
type GTFSRealtimeVehicleSource struct {
	url    string
	client *httpx.Client
}

func NewGTFSRealtimeVehicleSource(url string, client *httpx.Client) *GTFSRealtimeVehicleSource {
	if client == nil {
		client = httpx.New(10 * time.Second)
	}
	return &GTFSRealtimeVehicleSource{url: url, client: client}
}

func (g *GTFSRealtimeVehicleSource) FetchVehicles(ctx context.Context, systemID int) (_ []domain.Vehicle, err error) {
	defer obs.Time(ctx, "gtfsrt.FetchVehicles")(&err)

	resp, err := g.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.client.NewRequest(ctx, http.MethodGet, g.url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/x-protobuf")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("gtfs-rt vehicles system=%d: %w", systemID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gtfs-rt vehicles system=%d: read body: %w", systemID, err)
	}

	feed := gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("gtfs-rt vehicles system=%d: decode feed: %w", systemID, err)
	}

	return vehiclesFromFeed(&feed), nil
}

func vehiclesFromFeed(feed *gtfs.FeedMessage) []domain.Vehicle {
	vehicles := make([]domain.Vehicle, 0, len(feed.GetEntity()))

	for _, entity := range feed.GetEntity() {
		vp := entity.GetVehicle()
		if vp == nil || vp.GetPosition() == nil {
			continue
		}

		desc := vp.GetVehicle()
		id := desc.GetId()
		if id == "" {
			id = entity.GetId()
		}
		name := desc.GetLabel()
		if name == "" {
			name = id
		}

		vehicles = append(vehicles, domain.Vehicle{
			ID:        id,
			Name:      name,
			RouteName: vp.GetTrip().GetRouteId(),
			Position: domain.Coordinates{
				Lat: float64(vp.GetPosition().GetLatitude()),
				Lon: float64(vp.GetPosition().GetLongitude()),
			},
		})
	}

	return vehicles
}
