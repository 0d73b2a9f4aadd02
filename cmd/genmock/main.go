// Command genmock writes a synthetic YOLP weather response for manual testing
// and for replay with cmd/validate. Samples are 10 minutes apart, starting at
// -start; the first is typed "observation" like the live API.
//
// Usage:
//
//	go run ./cmd/genmock -rainfall 0,0,0.65,1.25,2.5,1.75,0 -out testdata/202604261510.json
//	go run ./cmd/genmock -start 202604261510 -rainfall 0,3 -archive-dir responses/
//
// Without -start the current time in -tz, rounded down to 10 minutes, is used.
// -archive-dir names the file after the start time, like the archiver does.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/couchcryptid/rain-alert/internal/adapter/yolp"
	"github.com/couchcryptid/rain-alert/internal/domain"
)

const defaultCoordinates = "139.732293,35.663613"

func main() {
	if err := run(os.Args[1:], clockwork.NewRealClock(), os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, clock clockwork.Clock, stdout io.Writer) error {
	fs := flag.NewFlagSet("genmock", flag.ContinueOnError)
	start := fs.String("start", "", "first sample time, YYYYMMDDHHMM in -tz (default: now)")
	rainfall := fs.String("rainfall", "0,0,0,0,0,0,0", "comma-separated rainfall series in mm/h")
	coordinates := fs.String("coordinates", defaultCoordinates, "longitude,latitude")
	tz := fs.String("tz", "Asia/Tokyo", "provider time zone")
	out := fs.String("out", "", "output file (default: stdout)")
	archiveDir := fs.String("archive-dir", "", "write <dir>/<start>.json instead of -out")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out != "" && *archiveDir != "" {
		return errors.New("-out and -archive-dir are mutually exclusive")
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return fmt.Errorf("time zone %q: %w", *tz, err)
	}

	first := clock.Now().In(loc).Truncate(10 * time.Minute)
	if *start != "" {
		if first, err = time.ParseInLocation(yolp.DateLayout, *start, loc); err != nil {
			return fmt.Errorf("-start %q: %w", *start, err)
		}
	}

	entries, err := series(first, *rainfall)
	if err != nil {
		return err
	}

	body, err := yolp.BuildResponse(*coordinates, entries, loc)
	if err != nil {
		return fmt.Errorf("build response: %w", err)
	}
	body = append(body, '\n')

	path := *out
	if *archiveDir != "" {
		path = filepath.Join(*archiveDir, first.Format(yolp.DateLayout)+".json")
	}
	if path == "" {
		_, err := stdout.Write(body)
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Printf("wrote %d samples from %s: %s", len(entries), first.Format(yolp.DateLayout), path)
	return nil
}

func series(first time.Time, csv string) ([]domain.ForecastEntry, error) {
	fields := strings.Split(csv, ",")
	entries := make([]domain.ForecastEntry, 0, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		d, err := decimal.NewFromString(f)
		if err != nil {
			return nil, fmt.Errorf("rainfall[%d] %q: %w", i, f, err)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("rainfall[%d] %q: must not be negative", i, f)
		}
		entries = append(entries, domain.ForecastEntry{
			Time:     first.Add(time.Duration(len(entries)*10) * time.Minute),
			Rainfall: d,
		})
	}
	return entries, nil
}
