package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/christophergentle/circalendar/internal/state"
)

func main() {
	var (
		table     = flag.String("table", "", "DynamoDB observation table (required)")
		seriesStr = flag.String("series", "default", "Comma-separated list of series to seed")
		year      = flag.Int("year", time.Now().Year(), "Year to generate observations for")
		perDay    = flag.Int("per-day", 3, "Observations per active day")
		seed      = flag.Int64("seed", 1, "Random seed")
		ttlDays   = flag.Int("ttl-days", 0, "Expire seeded items after this many days (0 keeps them)")
		dryRun    = flag.Bool("dry-run", false, "Generate and count observations without writing them")
	)
	flag.Parse()

	if *table == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: --table is required\n")
		flag.Usage()
		os.Exit(1)
	}

	var series []string
	for _, name := range strings.Split(*seriesStr, ",") {
		if name = strings.TrimSpace(name); name != "" {
			series = append(series, name)
		}
	}

	var ttl int64
	if *ttlDays > 0 {
		ttl = time.Now().Add(time.Duration(*ttlDays) * 24 * time.Hour).Unix()
	}

	var observations []state.Observation
	for i, name := range series {
		generated := state.DemoObservations(name, *year, *perDay, *seed+int64(i))
		for j := range generated {
			generated[j].TTL = ttl
		}
		fmt.Printf("  %s: %d observations\n", name, len(generated))
		observations = append(observations, generated...)
	}

	if *dryRun {
		fmt.Printf("Dry run: %d observations for %d not written\n", len(observations), *year)
		return
	}

	ctx := context.Background()
	store, err := state.NewObservationStore(ctx, *table)
	if err != nil {
		log.Fatalf("Failed to create observation store: %v", err)
	}

	start := time.Now()
	if err := store.BatchPut(ctx, observations); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	fmt.Printf("Seeded %d observations into %s in %v\n", len(observations), store.TableName(), time.Since(start).Round(time.Millisecond))
}
