package main

import (
	"context"
	"fmt"
	"log"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	panellambda "github.com/christophergentle/circalendar/internal/lambda"
	"github.com/christophergentle/circalendar/internal/observability"
	"github.com/christophergentle/circalendar/internal/panel"
	"github.com/christophergentle/circalendar/internal/state"
	"github.com/prometheus/client_golang/prometheus"
)

// NewPanelHandler wires the panel handler from the SSM settings
func NewPanelHandler(ctx context.Context) (*panellambda.PanelHandler, error) {
	loader, err := panellambda.NewSSMConfigLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSM config loader: %w", err)
	}

	settings, err := loader.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	store, err := state.NewObservationStore(ctx, settings.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to create observation store: %w", err)
	}

	var navigator panel.Navigator
	if settings.NavigationFunction != "" {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		navigator = panellambda.NewLambdaNavigator(awslambda.NewFromConfig(cfg), settings.NavigationFunction)
	} else {
		log.Println("No navigation function configured, navigation commands are only returned")
	}

	loc := time.UTC
	if settings.Timezone != "" {
		if loc, err = time.LoadLocation(settings.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
		}
	}

	handler := panellambda.NewPanelHandler(store, navigator, settings.Series,
		panel.WithLocation(loc),
		panel.WithMetrics(observability.NewMetrics(prometheus.DefaultRegisterer)),
	).WithLocation(loc)

	// options come from SSM, size from the first render event
	current := handler.Controller().State()
	handler.Controller().Update(nil, current.Width, current.Height, settings.Options)

	log.Printf("Panel ready: table=%s series=%v timezone=%s", settings.Table, settings.Series, loc)
	return handler, nil
}

func main() {
	ctx := context.Background()
	handler, err := NewPanelHandler(ctx)
	if err != nil {
		log.Fatalf("Failed to create panel handler: %v", err)
	}

	lambda.Start(handler.HandleRequest)
}
