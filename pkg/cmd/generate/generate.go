package generate

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/racekit/race-telemetry-go/log"
	"github.com/racekit/race-telemetry-go/pkg/config"
	"github.com/racekit/race-telemetry-go/pkg/source/generate"
)

var (
	listenAddr  string
	tickRate    float64
	trackLength float64
	carCount    int
	seed        int64
)

func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "serves a simulated telemetry stream over TCP",
		Long: `Starts a TCP server that emits newline-delimited JSON telemetry
frames of a simulated car lapping a circuit. Useful for development and
demos when no live feed is available.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startGenerator()
		},
	}
	cmd.Flags().StringVarP(&listenAddr,
		"listen-addr",
		"l",
		"localhost:9000",
		"TCP listen address for the telemetry stream")
	cmd.Flags().Float64Var(&tickRate,
		"tick-rate",
		generate.DefaultTickRate,
		"telemetry frames per second")
	cmd.Flags().Float64Var(&trackLength,
		"track-length",
		generate.DefaultTrackLength,
		"simulated track length in meters")
	cmd.Flags().IntVar(&carCount,
		"car-count",
		generate.DefaultCarCount,
		"number of simulated opponent cars")
	cmd.Flags().Int64Var(&seed,
		"seed",
		0,
		"random seed for a reproducible stream (0 uses the clock)")
	return cmd
}

func startGenerator() error {
	var logger *log.Logger
	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	switch config.LogFormat {
	case "json":
		logger = log.New(os.Stderr, level)
	default:
		logger = log.DevLogger(os.Stderr, level)
	}
	log.ResetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []generate.Option{
		generate.WithTickRate(tickRate),
		generate.WithTrackLength(trackLength),
		generate.WithCarCount(carCount),
	}
	if seed != 0 {
		opts = append(opts, generate.WithSeed(seed))
	}
	srv := generate.NewServer(listenAddr, opts...)
	return srv.ListenAndServe(ctx)
}
