package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/christophergentle/circalendar/internal/config"
	"github.com/christophergentle/circalendar/internal/httpapi"
	"github.com/christophergentle/circalendar/internal/observability"
	"github.com/christophergentle/circalendar/internal/panel"
	"github.com/christophergentle/circalendar/internal/render"
	"github.com/christophergentle/circalendar/internal/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config.yaml (default: ./config.yaml, then the executable's directory)")
		addr       = flag.String("addr", "", "Listen address, overrides server.addr")
		demo       = flag.Bool("demo", false, "Serve generated observations instead of the DynamoDB table")
	)
	flag.Parse()

	cfg := loadConfig(*configPath)
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *demo {
		cfg.Source.Demo = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := newSource(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create data source: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	loc := cfg.Location()
	navigator := &panel.RecordingNavigator{}
	controller := panel.NewController(navigator,
		panel.WithLocation(loc),
		panel.WithMetrics(metrics),
		panel.WithRenderer(render.NewCalendarRenderer(cfg.RendererConfig())),
	)
	if cfg.Panel.Year != 0 {
		controller.SetYear(cfg.Panel.Year)
	}
	controller.Update(nil, cfg.Panel.Width, cfg.Panel.Height, cfg.Panel.Options)

	server := httpapi.NewServer(controller, navigator, source, httpapi.Options{
		Addr:     cfg.Server.Addr,
		Series:   cfg.Source.Series,
		Location: loc,
		Gatherer: reg,
		LogTo:    os.Stdout,
	})
	if err := server.Reload(ctx); err != nil {
		log.Fatalf("Failed to load observations: %v", err)
	}

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Preview server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down preview server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shut down cleanly: %v", err)
	}
}

func loadConfig(path string) *config.Config {
	if path == "" {
		path = config.GetConfigPath()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("Config file not used (%v), falling back to environment", err)
		return config.LoadConfigFromEnv()
	}
	return cfg
}

func newSource(ctx context.Context, cfg *config.Config) (state.Source, error) {
	if cfg.Source.Demo {
		log.Println("Serving generated demo observations")
		return state.DemoSource{PerDay: 3, Seed: 1}, nil
	}
	store, err := state.NewObservationStore(ctx, cfg.Source.Table)
	if err != nil {
		return nil, err
	}
	return store, nil
}
