package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/racekit/race-telemetry-go/log"
	"github.com/racekit/race-telemetry-go/pkg/coach"
	"github.com/racekit/race-telemetry-go/pkg/config"
	"github.com/racekit/race-telemetry-go/pkg/ingest"
	"github.com/racekit/race-telemetry-go/pkg/model"
	"github.com/racekit/race-telemetry-go/pkg/processing/kinematics"
	"github.com/racekit/race-telemetry-go/pkg/processing/lap"
	"github.com/racekit/race-telemetry-go/pkg/processing/session"
	httpserver "github.com/racekit/race-telemetry-go/pkg/server/http"
	"github.com/racekit/race-telemetry-go/pkg/server/publish"
	"github.com/racekit/race-telemetry-go/pkg/source"
	"github.com/racekit/race-telemetry-go/pkg/telemetry"
	"github.com/racekit/race-telemetry-go/pkg/track"
	"github.com/racekit/race-telemetry-go/pkg/utils"
	"github.com/racekit/race-telemetry-go/pkg/utils/broadcast"
)

var appConfig config.Config // holds processed config values

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the telemetry analytics server",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			appConfig = config.Config{}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}
	cmd.Flags().StringVarP(&config.TelemetryAddr,
		"telemetry-addr",
		"t",
		"localhost:9000",
		"address of the telemetry sample source")
	cmd.Flags().StringVarP(&config.HTTPAddr,
		"http-addr",
		"a",
		"localhost:8080",
		"HTTP query server listen address")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"if set, snapshots are published to this NATS server")
	cmd.Flags().StringVar(&config.TrackProfile,
		"track-profile",
		"",
		"path to a track profile yaml file")
	cmd.Flags().StringVar(&config.UpdateInterval,
		"update-interval",
		"1s",
		"cadence for stream and broker pushes")
	cmd.Flags().StringVar(&config.StalenessTimeout,
		"staleness-timeout",
		"2s",
		"snapshot is marked stale after this duration without frames")
	cmd.Flags().StringVar(&config.FuelSampleInterval,
		"fuel-sample-interval",
		"10s",
		"cadence for fuel usage sampling")
	cmd.Flags().Float64Var(&config.SpotRadius,
		"spot-radius",
		telemetry.DefaultSpotRadius,
		"default spotting radius in meters")
	cmd.Flags().Float64Var(&config.SpotHorizon,
		"spot-horizon",
		telemetry.DefaultSpotHorizon,
		"default prediction horizon in seconds")
	cmd.Flags().IntVar(&config.Sectors,
		"sectors",
		3,
		"number of lap sectors")
	cmd.Flags().IntVar(&config.PaceWindow,
		"pace-window",
		session.DefaultPaceWindow,
		"number of completed laps for the pace trend")
	cmd.Flags().Float64Var(&config.TireWearCoeff,
		"tire-wear-coeff",
		session.DefaultTireWearCoeff,
		"tire wear fraction per kilometer driven")
	cmd.Flags().Float64Var(&config.LapWrapHigh,
		"lap-wrap-high",
		lap.DefaultWrapHigh,
		"distance fraction above which a lap wrap may begin")
	cmd.Flags().Float64Var(&config.LapWrapLow,
		"lap-wrap-low",
		lap.DefaultWrapLow,
		"distance fraction below which a lap wrap is confirmed")
	cmd.Flags().BoolVar(&appConfig.PrintFrames,
		"print-frames",
		false,
		"if true and log level is debug, the raw frame payload will be printed")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warn("invalid duration, using default",
			log.String("value", s), log.Duration("default", defaultVal))
		return defaultVal
	}
	return d
}

//nolint:funlen // by design
func startServer() error {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	log.ResetDefault(logger)

	log.Debug("Config:",
		log.String("telemetryAddr", config.TelemetryAddr),
		log.String("httpAddr", config.HTTPAddr),
		log.String("trackProfile", config.TrackProfile),
		log.Float64("spotRadius", config.SpotRadius),
		log.Float64("spotHorizon", config.SpotHorizon),
	)

	profile, err := loadTrackProfile()
	if err != nil {
		return err
	}

	cache := telemetry.NewCache(profile,
		telemetry.WithCalculator(kinematics.NewCalculator(
			kinematics.WithIdealLine(track.IdealLineFunc(profile)))),
		telemetry.WithSegmenter(lap.NewSegmenter(
			lap.WithWrapThresholds(config.LapWrapHigh, config.LapWrapLow),
			lap.WithSectorThresholds(track.SectorThresholds(profile, config.Sectors)))),
		telemetry.WithAggregator(session.NewAggregator(
			session.WithPaceWindow(config.PaceWindow),
			session.WithTireWearCoeff(config.TireWearCoeff),
			session.WithFuelSampleInterval(
				parseDuration(config.FuelSampleInterval, 10*time.Second).Seconds()),
			session.WithStartWall(float64(time.Now().Unix())))),
		telemetry.WithSpotDefaults(config.SpotRadius, config.SpotHorizon),
		telemetry.WithStalenessTimeout(
			parseDuration(config.StalenessTimeout, telemetry.DefaultStalenessTimeout)),
	)
	facade := telemetry.NewFacade(cache)

	log.Info("Waiting for telemetry feed", log.String("addr", config.TelemetryAddr))
	if err := utils.WaitForTCP(config.TelemetryAddr, 60*time.Second); err != nil {
		log.Error("telemetry feed not reachable", log.ErrorField(err))
		return err
	}
	src, err := source.NewTCPSource(config.TelemetryAddr)
	if err != nil {
		return err
	}
	defer src.Close() //nolint:errcheck // shutdown path

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	// frame fan-out feeding the event watcher
	frameCh := make(chan *model.Frame, 16)
	frames := broadcast.NewBroadcastServer("frames", (<-chan *model.Frame)(frameCh))
	defer frames.Close()

	updateInterval := parseDuration(config.UpdateInterval, time.Second)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ingest.Run(gCtx, src, cache,
			ingest.WithSinks(frameCh),
			ingest.WithFrameLogging(appConfig.PrintFrames))
	})
	g.Go(func() error {
		watcher := coach.NewWatcher(coach.NewRuleAdvisor())
		watcher.Run(gCtx, frames.Subscribe())
		return nil
	})
	g.Go(func() error {
		srv := httpserver.NewServer(config.HTTPAddr, facade,
			httpserver.WithStreamInterval(updateInterval))
		return srv.ListenAndServe(gCtx)
	})
	if config.NatsURL != "" {
		pub, pubErr := publish.NewNatsPublisher(config.NatsURL, facade,
			publish.WithInterval(updateInterval))
		if pubErr != nil {
			return pubErr
		}
		defer pub.Close()
		g.Go(func() error {
			pub.Run(gCtx)
			return nil
		})
	}

	log.Info("Server started")
	if err := g.Wait(); err != nil {
		log.Error("server terminated with error", log.ErrorField(err))
		return err
	}
	log.Info("Server terminated")
	return nil
}

func loadTrackProfile() (*model.TrackProfile, error) {
	if config.TrackProfile == "" {
		return track.DefaultProfile(config.Sectors), nil
	}
	return track.LoadProfile(config.TrackProfile)
}
