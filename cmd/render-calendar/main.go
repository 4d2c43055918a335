package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/christophergentle/circalendar/internal/config"
	"github.com/christophergentle/circalendar/internal/panel"
	"github.com/christophergentle/circalendar/internal/render"
	"github.com/christophergentle/circalendar/internal/snapshot"
	"github.com/christophergentle/circalendar/internal/state"
	"github.com/jonboulle/clockwork"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config.yaml (default: ./config.yaml, then the executable's directory)")
		year       = flag.Int("year", 0, "Calendar year, overrides panel.year (default: current year)")
		output     = flag.String("output", "calendar.png", "Output PNG file")
		snapshotTo = flag.String("snapshot-dir", "", "Write a snapshot (PNG, day buckets, manifest) into this directory")
		publish    = flag.Bool("publish", false, "Upload the snapshot to snapshot.bucket")
		demo       = flag.Bool("demo", false, "Render generated observations instead of the DynamoDB table")
	)
	flag.Parse()

	cfg := config.LoadConfigFromEnv()
	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	if fileCfg, err := config.LoadConfig(path); err == nil {
		cfg = fileCfg
	} else if *configPath != "" {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *demo {
		cfg.Source.Demo = true
	}
	if *year != 0 {
		cfg.Panel.Year = *year
	}
	if *snapshotTo == "" {
		*snapshotTo = cfg.Snapshot.OutputDir
	}

	ctx := context.Background()
	clock := clockwork.NewRealClock()
	loc := cfg.Location()

	controller := panel.NewController(nil,
		panel.WithClock(clock),
		panel.WithLocation(loc),
		panel.WithRenderer(render.NewCalendarRenderer(cfg.RendererConfig())),
	)
	if cfg.Panel.Year != 0 {
		controller.SetYear(cfg.Panel.Year)
	}
	activeYear := controller.State().Year

	var source state.Source = state.DemoSource{PerDay: 3, Seed: 1}
	if !cfg.Source.Demo {
		store, err := state.NewObservationStore(ctx, cfg.Source.Table)
		if err != nil {
			log.Fatalf("Failed to create observation store: %v", err)
		}
		source = store
	}

	data, err := source.LoadYear(ctx, cfg.Source.Series, activeYear, loc)
	if err != nil {
		log.Fatalf("Failed to load observations: %v", err)
	}

	current := controller.Update(data, cfg.Panel.Width, cfg.Panel.Height, cfg.Panel.Options)
	imageData, err := controller.RenderPNG()
	if err != nil {
		log.Fatalf("Failed to render calendar: %v", err)
	}

	if err := os.WriteFile(*output, imageData, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}

	info := current.Info
	fmt.Printf("Rendered %d to %s (%dx%d)\n", activeYear, *output, cfg.Panel.Width, cfg.Panel.Height)
	fmt.Printf("  Observations: %d (%d outside the year, %d dropped)\n", info.Observations(), info.Outside.Count, info.Dropped)
	fmt.Printf("  Days with data: %d/%d\n", info.Touched(), len(info.Day))
	if info.SkippedFrames > 0 {
		fmt.Printf("  Skipped frames: %d\n", info.SkippedFrames)
	}

	snap := snapshot.Snapshot{Image: imageData, Info: info, Series: cfg.Source.Series}

	if *snapshotTo != "" {
		manifest, err := snapshot.WriteLocal(*snapshotTo, snap, clock)
		if err != nil {
			log.Fatalf("Failed to write snapshot: %v", err)
		}
		fmt.Printf("  Snapshot: %s (checksum %s)\n", *snapshotTo, manifest.Checksum)
	}

	if *publish {
		if cfg.Snapshot.Bucket == "" {
			log.Fatalf("--publish requires snapshot.bucket in config.yaml")
		}
		publisher, err := snapshot.NewPublisher(ctx, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix)
		if err != nil {
			log.Fatalf("Failed to create snapshot publisher: %v", err)
		}
		keyPrefix, _, err := publisher.Publish(ctx, snap)
		if err != nil {
			log.Fatalf("Failed to publish snapshot: %v", err)
		}
		fmt.Printf("  Published: s3://%s/%s\n", cfg.Snapshot.Bucket, keyPrefix)
	}
}
