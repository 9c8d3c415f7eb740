// Command veloroute plans a round-trip cycling route through a set of
// bike-share stations and writes the itinerary as CSV.
//
// Usage:
//
//	veloroute -stations bluebikes.csv -model osrm -osrm-url http://localhost:5000 -out route.csv
//
// The cost model is pluggable: "haversine" needs no network, "osrm" talks to
// an OSRM server, "gmaps" uses the Google Maps Platform (set
// GOOGLE_MAPS_API_KEY, optionally via a .env file).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kr/pretty"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/veloplan/veloroute/cache"
	"github.com/veloplan/veloroute/gmaps"
	"github.com/veloplan/veloroute/oracle"
	"github.com/veloplan/veloroute/osrm"
	"github.com/veloplan/veloroute/planner"
	"github.com/veloplan/veloroute/route"
	"github.com/veloplan/veloroute/station"
	"github.com/veloplan/veloroute/tour"
)

// config holds every knob, populated from the YAML file first and then
// overridden by flags.
type config struct {
	Stations       string  `yaml:"stations"`
	Model          string  `yaml:"model"`
	OSRMURL        string  `yaml:"osrm_url"`
	Profile        string  `yaml:"profile"`
	Metric         string  `yaml:"metric"`
	Strategy       string  `yaml:"strategy"`
	MaxSweeps      int     `yaml:"max_sweeps"`
	Eps            float64 `yaml:"eps"`
	ExactThreshold int     `yaml:"exact_threshold"`
	Workers        int     `yaml:"workers"`
	SpeedKMH       float64 `yaml:"speed_kmh"`
	CachePath      string  `yaml:"cache"`
	Out            string  `yaml:"out"`
}

func defaultConfig() config {
	return config{
		Model:          "haversine",
		OSRMURL:        "http://localhost:5000",
		Profile:        "bicycle",
		Metric:         "distance",
		Strategy:       "first",
		MaxSweeps:      tour.NoSweepLimit,
		Eps:            tour.DefaultEps,
		ExactThreshold: 12,
		SpeedKMH:       15,
		Out:            "route.csv",
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "veloroute:", err)
		os.Exit(1)
	}
}

func run() error {
	// Values present in the config file become the flag defaults, so flags
	// always win.
	cfg := defaultConfig()

	configPath := ""
	args := os.Args[1:]
	for i, arg := range args {
		switch {
		case (arg == "-config" || arg == "--config") && i+1 < len(args):
			configPath = args[i+1]
		case len(arg) > 8 && arg[:8] == "-config=":
			configPath = arg[8:]
		case len(arg) > 9 && arg[:9] == "--config=":
			configPath = arg[9:]
		}
	}
	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	flag.String("config", configPath, "YAML config file (flags override it)")
	stationsPath := flag.String("stations", cfg.Stations, "station list (CSV or supply JSON)")
	model := flag.String("model", cfg.Model, "cost model: haversine, osrm, gmaps")
	osrmURL := flag.String("osrm-url", cfg.OSRMURL, "OSRM server base URL")
	profile := flag.String("profile", cfg.Profile, "OSRM travel profile")
	metric := flag.String("metric", cfg.Metric, "optimize for: distance, duration")
	strategy := flag.String("strategy", cfg.Strategy, "improvement strategy: first, best")
	maxSweeps := flag.Int("max-sweeps", cfg.MaxSweeps, "improvement sweep budget (-1 = unlimited)")
	eps := flag.Float64("eps", cfg.Eps, "minimum accepted improvement")
	exactThreshold := flag.Int("exact-threshold", cfg.ExactThreshold, "max station count for exact construction")
	workers := flag.Int("workers", cfg.Workers, "concurrent pair queries (0 = default)")
	speedKMH := flag.Float64("speed-kmh", cfg.SpeedKMH, "assumed cycling speed for the haversine model")
	cachePath := flag.String("cache", cfg.CachePath, "SQLite pair cache path (empty = no cache)")
	out := flag.String("out", cfg.Out, "output itinerary CSV")
	verbose := flag.Bool("verbose", false, "debug logging and a full result dump")
	flag.Parse()

	if *stationsPath == "" {
		return fmt.Errorf("missing -stations")
	}
	if *metric != "distance" && *metric != "duration" {
		return fmt.Errorf("unknown metric %q", *metric)
	}

	// API keys commonly live in a .env next to the binary; absence is fine.
	_ = godotenv.Load()

	log, err := buildLogger(*verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stations, err := station.LoadFile(*stationsPath)
	if err != nil {
		return err
	}
	log.Info("stations loaded",
		zap.String("path", *stationsPath), zap.Int("count", len(stations)))

	costSrc, dirSrc, cleanup, err := buildSources(*model, *osrmURL, *profile, *metric, *speedKMH, *cachePath, log)
	if err != nil {
		return err
	}
	defer cleanup()

	pcfg := planner.DefaultConfig()
	pcfg.Logger = log
	pcfg.Matrix.Workers = *workers
	pcfg.Tour.Eps = *eps
	pcfg.Tour.MaxSweeps = *maxSweeps
	pcfg.Tour.ExactThreshold = *exactThreshold
	if *cachePath != "" {
		// The batched table path would bypass the per-pair cache.
		pcfg.Matrix.DisableBatch = true
	}
	switch *strategy {
	case "first":
		pcfg.Tour.Strategy = tour.FirstImprovement
	case "best":
		pcfg.Tour.Strategy = tour.BestImprovement
	default:
		return fmt.Errorf("unknown strategy %q", *strategy)
	}

	started := time.Now()
	plan, err := planner.Run(ctx, stations, costSrc, dirSrc, pcfg)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()
	if err := route.WriteCSV(f, plan.Route); err != nil {
		return err
	}

	log.Info("itinerary written",
		zap.String("path", *out),
		zap.Float64("total_km", plan.Summary.TotalDistanceMeters/1000),
		zap.Float64("total_min", plan.Summary.TotalDurationSeconds/60),
		zap.Duration("elapsed", time.Since(started)))

	if *verbose {
		pretty.Fprintf(os.Stderr, "%# v\n", plan.Summary)
	}

	return nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	return cfg.Build()
}

// buildSources wires the cost and directions backends for the chosen model.
// The returned cleanup closes any attached cache.
func buildSources(model, osrmURL, profile, metric string, speedKMH float64, cachePath string, log *zap.Logger) (oracle.CostSource, oracle.DirectionsSource, func(), error) {
	noop := func() {}

	switch model {
	case "haversine":
		src := oracle.GreatCircle{SpeedMPS: speedKMH / 3.6}
		return src, src, noop, nil

	case "osrm":
		opts := []osrm.Option{
			osrm.WithProfile(profile),
			osrm.WithLogger(log),
		}
		if metric == "duration" {
			opts = append(opts, osrm.WithMetric(osrm.MetricDuration))
		}

		cleanup := noop
		if cachePath != "" {
			store, err := cache.Open(cachePath, log)
			if err != nil {
				return nil, nil, nil, err
			}
			opts = append(opts, osrm.WithCache(store))
			cleanup = func() { store.Close() }
		}

		c := osrm.NewClient(osrmURL, opts...)
		return c, c, cleanup, nil

	case "gmaps":
		key := os.Getenv("GOOGLE_MAPS_API_KEY")
		if key == "" {
			return nil, nil, nil, fmt.Errorf("gmaps model needs GOOGLE_MAPS_API_KEY")
		}

		opts := []gmaps.Option{gmaps.WithLogger(log)}
		if metric == "duration" {
			opts = append(opts, gmaps.WithMetric(gmaps.MetricDuration))
		}

		c, err := gmaps.NewClient(key, opts...)
		if err != nil {
			return nil, nil, nil, err
		}
		return c, c, noop, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown model %q", model)
	}
}
