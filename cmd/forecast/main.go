// Command forecast fetches one forecast and prints it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/i474232898/weather-forecast/internal/app"
	"github.com/i474232898/weather-forecast/internal/config"
	"github.com/i474232898/weather-forecast/internal/logging"
	"github.com/i474232898/weather-forecast/internal/weather"
)

func run() int {
	locationName := flag.String("location", "Sapporo", "place name, or "+weather.CurrentLocation+" for the device location")
	asJSON := flag.Bool("json", false, "print JSON instead of a table")
	daily := flag.Bool("daily", false, "print one summary line per day")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	log, err := logging.New(cfg.LogLevel, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build application", zap.Error(err))
		return 1
	}
	defer a.Close()

	type outcome struct {
		forecast weather.Forecast
		err      error
	}
	done := make(chan outcome, 1)

	req := a.Service.Fetch(ctx, *locationName,
		func(f weather.Forecast) { done <- outcome{forecast: f} },
		func(err error) { done <- outcome{err: err} },
	)

	var res outcome
	select {
	case res = <-done:
	case <-req.Done():
		// Done also closes after a callback; prefer the delivered outcome.
		select {
		case res = <-done:
		default:
			fmt.Fprintln(os.Stderr, "cancelled")
			return 130
		}
	}

	if res.err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", *locationName, res.err)
		return 1
	}

	if *daily {
		err = printDaily(os.Stdout, weather.Summarize(res.forecast), *asJSON)
	} else {
		err = printEntries(os.Stdout, res.forecast, *asJSON)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to print forecast: %v\n", err)
		return 1
	}
	return 0
}

func printEntries(w io.Writer, f weather.Forecast, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(f)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTEMP (°C)\tCONDITIONS")
	for _, e := range f {
		descs := make([]string, 0, len(e.Conditions))
		for _, c := range e.Conditions {
			descs = append(descs, fmt.Sprintf("%s (%s)", c.Description, c.Icon))
		}
		fmt.Fprintf(tw, "%s\t%.1f\t%s\n", e.Timestamp, e.Temperature, strings.Join(descs, ", "))
	}
	return tw.Flush()
}

func printDaily(w io.Writer, days []weather.DailySummary, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(days)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tMIN\tMAX\tAVG\tCONDITION")
	for _, d := range days {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\t%s (%s)\n", d.Date, d.MinTemp, d.MaxTemp, d.AvgTemp, d.Kind, d.Icon)
	}
	return tw.Flush()
}

func main() {
	os.Exit(run())
}
