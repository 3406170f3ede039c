package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"bus-eta-service/internal/api/dto"
	"bus-eta-service/internal/app"
	"bus-eta-service/internal/config"
	"bus-eta-service/internal/domain"
	"bus-eta-service/internal/platform/logging"
	"bus-eta-service/internal/services"
	"bus-eta-service/internal/topology"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Setup(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newTool(cfg, os.Stdout).RunContext(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

// newTool builds the command tree. JSON results are written to out.
func newTool(cfg *config.Config, out io.Writer) *cli.App {
	return &cli.App{
		Name:      "etatool",
		Usage:     "Operate the campus bus ETA pipeline from the command line",
		Writer:    out,
		ErrWriter: out,

		Commands: []*cli.Command{
			schemaCommand(cfg),
			cacheCommand(cfg),
			etaCommand(cfg, out),
			trackCommand(cfg),
			topologyCommand(cfg, out),
		},
	}
}

func schemaCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Manage the database schema",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create the estimates and directions cache tables",
				Action: func(c *cli.Context) error {
					a := &app.App{Config: cfg}
					if err := a.OpenStore(); err != nil {
						return err
					}
					defer a.Close()

					log.Info().Str("dialect", string(a.Dialect)).Msg("schema ready")
					return nil
				},
			},
		},
	}
}

func cacheCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Maintain the directions cache",
		Subcommands: []*cli.Command{
			{
				Name:  "purge",
				Usage: "delete expired directions",
				Action: func(c *cli.Context) error {
					a := &app.App{Config: cfg}
					if err := a.OpenStore(); err != nil {
						return err
					}
					defer a.Close()

					n, err := a.NewDirectionsCache().Purge(c.Context)
					if err != nil {
						return err
					}
					log.Info().Int64("removed", n).Dur("ttl", cfg.DirectionsTTL).Msg("directions cache purged")
					return nil
				},
			},
		},
	}
}

func etaCommand(cfg *config.Config, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "eta",
		Usage: "Compute bus ETAs",
		Subcommands: []*cli.Command{
			{
				Name:  "estimate",
				Usage: "estimate one random vehicle and print it as JSON",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "system",
						Value: cfg.SystemID,
						Usage: "transit system id",
					},
					&cli.IntFlag{
						Name:  "attempts",
						Value: 5,
						Usage: "estimations to try before giving up",
					},
				},
				Action: func(c *cli.Context) error {
					a, err := app.Build(c.Context, cfg, nil)
					if err != nil {
						return err
					}
					defer a.Close()

					eta, err := estimateWithRetry(c.Context, a.Estimator, c.Int("system"), c.Int("attempts"), cfg.ETATimeout)
					if err != nil {
						return err
					}
					if err := a.Estimates.RecordEstimate(c.Context, eta); err != nil {
						log.Warn().Err(err).Msg("record estimate failed")
					}
					return printJSON(out, dto.NewETAResponse(eta))
				},
			},
		},
	}
}

func trackCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Follow one vehicle's position until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "vehicle",
				Required: true,
				Usage:    "vehicle name to follow",
			},
			&cli.IntFlag{
				Name:  "system",
				Value: cfg.SystemID,
				Usage: "transit system id",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Value: cfg.PollInterval,
				Usage: "poll interval",
			},
		},
		Action: func(c *cli.Context) error {
			a, err := app.BuildTransit(c.Context, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			vehicle := c.String("vehicle")
			poller, err := services.NewPositionPoller(c.Int("system"), a.Vehicles, func(u services.PositionUpdate) {
				if len(u.Vehicles) == 0 {
					log.Info().Uint64("tick", u.Tick).Str("vehicle", vehicle).Msg("vehicle not reporting")
					return
				}
				for _, v := range u.Vehicles {
					log.Info().
						Uint64("tick", u.Tick).
						Str("vehicle", v.Name).
						Str("route", v.RouteName).
						Float64("lat", v.Position.Lat).
						Float64("lon", v.Position.Lon).
						Msg("position")
				}
			}, c.Duration("interval"),
				services.WithVehicleFilter(services.ByVehicleName(vehicle)),
				services.WithPollerName("track"),
			)
			if err != nil {
				return err
			}

			if err := poller.Start(c.Context); err != nil {
				return err
			}
			<-poller.Done()

			log.Info().Uint64("skipped_ticks", poller.Skipped()).Msg("tracking stopped")
			return nil
		},
	}
}

func topologyCommand(cfg *config.Config, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "topology",
		Usage: "Inspect the route topology table",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print routes and their stop sequences",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "route",
						Usage: "only print this route",
					},
				},
				Action: func(c *cli.Context) error {
					table, err := topology.Load(cfg.TopologyPath)
					if err != nil {
						return err
					}

					if route := c.String("route"); route != "" {
						if !table.HasRoute(route) {
							return fmt.Errorf("unknown route %q", route)
						}
						return printJSON(out, map[string][]string{route: table.Stops(route)})
					}

					all := make(map[string][]string, len(table.Routes()))
					for _, r := range table.Routes() {
						all[r] = table.Stops(r)
					}
					return printJSON(out, all)
				},
			},
			{
				Name:  "validate",
				Usage: "report topology stop names missing from the provider's stops",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "snapshot",
						Usage: "read provider stops from this JSON file instead of the live feed",
					},
					&cli.StringFlag{
						Name:  "write-snapshot",
						Usage: "save the live provider stops to this JSON file",
					},
					&cli.IntFlag{
						Name:  "system",
						Value: cfg.SystemID,
						Usage: "transit system id",
					},
				},
				Action: func(c *cli.Context) error {
					table, err := topology.Load(cfg.TopologyPath)
					if err != nil {
						return err
					}

					var stops []domain.Stop
					if path := c.String("snapshot"); path != "" {
						stops, err = topology.ReadStopSnapshot(path)
					} else {
						stops, err = liveStops(c, cfg)
					}
					if err != nil {
						return err
					}

					if path := c.String("write-snapshot"); path != "" {
						if err := topology.WriteStopSnapshot(path, stops); err != nil {
							return err
						}
						log.Info().Str("path", path).Int("stops", len(stops)).Msg("snapshot written")
					}

					missing := table.Validate(stops)
					if len(missing) == 0 {
						log.Info().Int("routes", len(table.Routes())).Msg("topology matches provider stops")
						return nil
					}
					if err := printJSON(out, missing); err != nil {
						return err
					}
					return errors.New("topology references stops the provider does not report")
				},
			},
		},
	}
}

func liveStops(c *cli.Context, cfg *config.Config) ([]domain.Stop, error) {
	a, err := app.BuildTransit(c.Context, cfg)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	sys, err := a.Transit.GetSystem(c.Context, c.Int("system"))
	if err != nil {
		return nil, err
	}
	return sys.GetStops(c.Context)
}

type randomEstimator interface {
	EstimateRandomETA(ctx context.Context, systemID int) *domain.ETAResult
}

// estimateWithRetry asks est for an estimate up to attempts times, each under
// its own timeout.
func estimateWithRetry(
	ctx context.Context,
	est randomEstimator,
	systemID int,
	attempts int,
	timeout time.Duration,
) (*domain.ETAResult, error) {
	attempts = max(1, attempts)
	for i := 1; i <= attempts; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		eta := est.EstimateRandomETA(attemptCtx, systemID)
		cancel()

		if eta != nil {
			return eta, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Info().Int("attempt", i).Int("of", attempts).Msg("no estimate, retrying")
	}
	return nil, fmt.Errorf("no estimate for system %d after %d attempts", systemID, attempts)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
