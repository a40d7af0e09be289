package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"rentalsearch/internal/app"
	"rentalsearch/internal/config"
	logpkg "rentalsearch/internal/logger"
	"rentalsearch/internal/model"
	"rentalsearch/internal/service"
	"rentalsearch/internal/source"
	"rentalsearch/internal/store"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	listingsFlag := &cli.StringFlag{
		Name:    "listings",
		Aliases: []string{"f"},
		Usage:   "Path to a YAML listing snapshot",
		Value:   "./data/listings.yaml",
		EnvVars: []string{"LISTING_FILE"},
	}
	formatFlag := &cli.StringFlag{
		Name:  "format",
		Usage: "Output format (json, yaml)",
		Value: "json",
	}

	return &cli.App{
		Name:  "rentalsearch",
		Usage: "Query a rental listing snapshot from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Run a free-text search",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					listingsFlag,
					formatFlag,
					&cli.IntFlag{Name: "max-results", Aliases: []string{"n"}, Usage: "Maximum semantic results"},
					&cli.StringFlag{Name: "destination", Usage: "Commute destination to rate results against"},
					&cli.StringFlag{Name: "mode", Usage: "Travel mode (driving, transit, walking, bicycling)"},
				},
			},
			{
				Name:      "assist",
				Usage:     "Classify a request, build a plan and execute it",
				ArgsUsage: "<query>",
				Action:    assistCommand,
				Flags: []cli.Flag{
					listingsFlag,
					formatFlag,
					&cli.StringFlag{Name: "destination", Usage: "Commute destination"},
					&cli.StringFlag{Name: "origin", Usage: "Commute origin"},
				},
			},
			{
				Name:   "commute",
				Usage:  "Analyze one commute",
				Action: commuteCommand,
				Flags: []cli.Flag{
					formatFlag,
					&cli.StringFlag{Name: "origin", Required: true, Usage: "Origin address or lat,lng"},
					&cli.StringFlag{Name: "destination", Required: true, Usage: "Destination address or lat,lng"},
					&cli.StringFlag{Name: "mode", Usage: "Travel mode"},
				},
			},
			{
				Name:   "rate",
				Usage:  "Rate a trip from its distance and duration",
				Action: rateCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "distance", Required: true, Usage: "Distance in meters"},
					&cli.IntFlag{Name: "duration", Required: true, Usage: "Duration in seconds"},
				},
			},
			{
				Name:   "market",
				Usage:  "Summarize rent statistics of the snapshot",
				Action: marketCommand,
				Flags:  []cli.Flag{listingsFlag, formatFlag},
			},
		},
	}
}

// pipeline loads config and a YAML snapshot and wires the search service
func pipeline(c *cli.Context) (*service.SearchService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logpkg.NewLogger("local", c.String("log-level"))
	if err != nil {
		return nil, nil, err
	}

	listingStore := store.New(source.NewFileSource(c.String("listings")), logger)
	if _, err := listingStore.Reload(c.Context); err != nil {
		return nil, nil, err
	}

	svc, cleanup, err := app.BuildSearchService(cfg, listingStore, logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, func() {
		cleanup()
		_ = logger.Sync()
	}, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}

	svc, cleanup, err := pipeline(c)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := svc.Search(c.Context, &model.SearchRequest{
		Query: query,
		Options: &model.SearchOptions{
			MaxResults:  c.Int("max-results"),
			Destination: c.String("destination"),
			TravelMode:  c.String("mode"),
		},
	})
	if err != nil {
		return err
	}
	return render(c.App.Writer, c.String("format"), resp)
}

func assistCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}

	svc, cleanup, err := pipeline(c)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := svc.Assist(c.Context, &model.AssistRequest{
		Query:       query,
		Origin:      c.String("origin"),
		Destination: c.String("destination"),
	})
	if err != nil {
		return err
	}
	return render(c.App.Writer, c.String("format"), resp)
}

func commuteCommand(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var primary service.CommuteScorer
	if cfg.Commute.Enabled {
		primary = service.NewDistanceMatrixScorer(cfg.Commute.APIBase, cfg.Commute.APIKey, cfg.Commute.DefaultMode, 0)
	}
	scorer := service.NewFallbackScorer(primary, service.NewSyntheticScorer(cfg.Commute.FallbackMeters), zap.NewNop())

	analysis, err := scorer.Analyze(c.Context, c.String("origin"), c.String("destination"), c.String("mode"))
	if err != nil {
		return err
	}
	return render(c.App.Writer, c.String("format"), analysis)
}

func rateCommand(c *cli.Context) error {
	rating := service.RateCommute(c.Int("distance"), c.Int("duration"))
	_, err := fmt.Fprintf(c.App.Writer, "%d/10 %s\n", rating, service.Recommendation(rating))
	return err
}

func marketCommand(c *cli.Context) error {
	listings, err := source.NewFileSource(c.String("listings")).LoadListings(c.Context)
	if err != nil {
		return err
	}
	return render(c.App.Writer, c.String("format"), service.SummarizeMarket(listings))
}

func render(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
