package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bus-eta-service/internal/config"
	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/topology"
)

type scriptedEstimator struct {
	failFirst int
	calls     int
}

func (s *scriptedEstimator) EstimateRandomETA(ctx context.Context, systemID int) *domain.ETAResult {
	s.calls++
	if s.calls <= s.failFirst {
		return nil
	}
	return &domain.ETAResult{VehicleName: "Bus 7", Duration: "4 mins"}
}

func TestEstimateWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failFirst int
		attempts  int
		wantErr   bool
		wantCalls int
	}{
		{"first try", 0, 5, false, 1},
		{"third try", 2, 5, false, 3},
		{"exhausted", 10, 3, true, 3},
		{"zero attempts still tries once", 0, 0, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := &scriptedEstimator{failFirst: tt.failFirst}
			eta, err := estimateWithRetry(context.Background(), est, config.DefaultSystemID, tt.attempts, time.Second)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && eta == nil {
				t.Fatalf("expected an estimate")
			}
			if est.calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", est.calls, tt.wantCalls)
			}
		})
	}
}

func TestEstimateWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	est := &scriptedEstimator{failFirst: 10}
	_, err := estimateWithRetry(ctx, est, config.DefaultSystemID, 5, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if est.calls != 1 {
		t.Fatalf("calls = %d, want 1", est.calls)
	}
}

func toolConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		SystemID:      config.DefaultSystemID,
		PassioBaseURL: "http://127.0.0.1:1",
		DBPath:        filepath.Join(t.TempDir(), "tool.db"),
		DirectionsTTL: time.Minute,
		PollInterval:  time.Second,
		ETATimeout:    time.Second,
	}
}

func runTool(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newTool(cfg, &out).RunContext(context.Background(), append([]string{"etatool"}, args...))
	return out.String(), err
}

func writeSnapshot(t *testing.T, stops []domain.Stop) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stops.json")
	if err := topology.WriteStopSnapshot(path, stops); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func allTopologyStops() []domain.Stop {
	table := topology.Default()
	seen := map[string]bool{}
	var stops []domain.Stop
	for _, r := range table.Routes() {
		for _, name := range table.Stops(r) {
			if !seen[name] {
				seen[name] = true
				stops = append(stops, domain.Stop{ID: name, Name: name})
			}
		}
	}
	return stops
}

func TestTopologyValidateCommand(t *testing.T) {
	full := writeSnapshot(t, allTopologyStops())
	empty := writeSnapshot(t, nil)
	copyPath := filepath.Join(t.TempDir(), "copy.json")

	tests := []struct {
		name       string
		args       []string
		wantErr    bool
		wantOutput string
	}{
		{"complete snapshot", []string{"--snapshot", full}, false, ""},
		{"empty snapshot", []string{"--snapshot", empty}, true, `"missing_stops"`},
		{"missing snapshot file", []string{"--snapshot", filepath.Join(t.TempDir(), "nope.json")}, true, ""},
		{"write snapshot copy", []string{"--snapshot", full, "--write-snapshot", copyPath}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runTool(t, toolConfig(t), append([]string{"topology", "validate"}, tt.args...)...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantOutput != "" && !strings.Contains(out, tt.wantOutput) {
				t.Fatalf("output %q does not contain %q", out, tt.wantOutput)
			}
		})
	}

	copied, err := topology.ReadStopSnapshot(copyPath)
	if err != nil {
		t.Fatalf("read copied snapshot: %v", err)
	}
	if want := len(allTopologyStops()); len(copied) != want {
		t.Fatalf("copied %d stops, want %d", len(copied), want)
	}
}

func TestTopologyShowCommand(t *testing.T) {
	route := topology.Default().Routes()[0]

	out, err := runTool(t, toolConfig(t), "topology", "show", "--route", route)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var got map[string][]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if len(got[route]) == 0 {
		t.Fatalf("expected stops for %q, got %v", route, got)
	}

	if _, err := runTool(t, toolConfig(t), "topology", "show", "--route", "No Such Route"); err == nil {
		t.Fatalf("expected error for unknown route")
	}
}

func TestSchemaInitCommand(t *testing.T) {
	cfg := toolConfig(t)
	if _, err := runTool(t, cfg, "schema", "init"); err != nil {
		t.Fatalf("schema init: %v", err)
	}
	if _, err := os.Stat(cfg.DBPath); err != nil {
		t.Fatalf("expected database file: %v", err)
	}

	// idempotent
	if _, err := runTool(t, cfg, "schema", "init"); err != nil {
		t.Fatalf("second schema init: %v", err)
	}
	if _, err := runTool(t, cfg, "cache", "purge"); err != nil {
		t.Fatalf("cache purge: %v", err)
	}
}

func TestTrackRequiresVehicle(t *testing.T) {
	if _, err := runTool(t, toolConfig(t), "track"); err == nil {
		t.Fatalf("expected error without --vehicle")
	}
}
