package lambda

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/christophergentle/circalendar/internal/calendar"
	"github.com/christophergentle/circalendar/internal/panel"
)

// Panel actions understood by PanelHandler
const (
	ActionRender    = "render"
	ActionPointer   = "pointer"
	ActionYearLabel = "year-label"
	ActionSetYear   = "set-year"
	ActionOptions   = "options"
)

// DataSource loads the observations of a calendar year
type DataSource interface {
	LoadYear(ctx context.Context, series []string, year int, loc *time.Location) (*calendar.DataSet, error)
}

// Event is a panel request from the dashboard host
type Event struct {
	Action  string              `json:"action"`
	Width   int                 `json:"width,omitempty"`
	Height  int                 `json:"height,omitempty"`
	Year    int                 `json:"year,omitempty"`
	Delta   int                 `json:"delta,omitempty"`
	Text    *string             `json:"text,omitempty"`
	Pad     string              `json:"pad,omitempty"` // raw entry from the options form
	Pointer *panel.PointerEvent `json:"pointer,omitempty"`
}

// Response represents the Lambda response
type Response struct {
	StatusCode int              `json:"statusCode"`
	Body       string           `json:"body"`
	Year       int              `json:"year,omitempty"`
	Image      string           `json:"image,omitempty"` // base64 PNG
	Hover      *panel.Hover     `json:"hover,omitempty"`
	Navigation *panel.TimeRange `json:"navigation,omitempty"`
}

// PanelHandler serves one calendar panel. A warm function instance keeps the
// controller, so hover state carries across pointer events.
type PanelHandler struct {
	mu         sync.Mutex
	controller *panel.Controller
	source     DataSource
	series     []string
	location   *time.Location
	loadedYear int
	navigated  *panel.TimeRange
}

// NewPanelHandler creates a handler reading series from source and sending
// navigation commands to navigator
func NewPanelHandler(source DataSource, navigator panel.Navigator, series []string, opts ...panel.ControllerOption) *PanelHandler {
	h := &PanelHandler{
		source:   source,
		series:   series,
		location: time.UTC,
	}

	// record the command so the response can echo it
	tap := panel.NavigatorFunc(func(ctx context.Context, r panel.TimeRange) error {
		h.navigated = &r
		if navigator == nil {
			return nil
		}
		return navigator.SetTimeRange(ctx, r)
	})
	h.controller = panel.NewController(tap, opts...)
	return h
}

// WithLocation sets the zone the panel's calendar days are resolved in
func (h *PanelHandler) WithLocation(loc *time.Location) *PanelHandler {
	if loc != nil {
		h.location = loc
	}
	return h
}

// Controller returns the panel's interaction controller
func (h *PanelHandler) Controller() *panel.Controller {
	return h.controller
}

// HandleRequest is the main Lambda handler
func (h *PanelHandler) HandleRequest(ctx context.Context, event Event) (Response, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log.Printf("Panel received event: action=%s year=%d size=%dx%d", event.Action, event.Year, event.Width, event.Height)
	h.navigated = nil

	var err error
	switch event.Action {
	case ActionRender, "":
		err = h.handleRender(ctx, event)
	case ActionPointer:
		err = h.handlePointer(ctx, event)
	case ActionYearLabel:
		_, err = h.controller.ActivateYearLabel(ctx)
	case ActionSetYear:
		err = h.handleSetYear(ctx, event)
	case ActionOptions:
		err = h.handleOptions(ctx, event)
	default:
		return Response{
			StatusCode: 400,
			Body:       fmt.Sprintf("Unknown action: %s", event.Action),
		}, nil
	}
	if err != nil {
		log.Printf("Failed to handle %s event: %v", event.Action, err)
		return Response{
			StatusCode: 500,
			Body:       fmt.Sprintf("Error: %v", err),
		}, err
	}

	return h.respond()
}

func (h *PanelHandler) handleRender(ctx context.Context, event Event) error {
	state := h.controller.State()
	width, height := state.Width, state.Height
	if event.Width > 0 {
		width = event.Width
	}
	if event.Height > 0 {
		height = event.Height
	}

	data, err := h.source.LoadYear(ctx, h.series, state.Year, h.location)
	if err != nil {
		return fmt.Errorf("failed to load observations: %w", err)
	}
	h.loadedYear = state.Year

	h.controller.Update(data, width, height, state.Options)
	return nil
}

func (h *PanelHandler) handlePointer(ctx context.Context, event Event) error {
	if event.Pointer == nil {
		return fmt.Errorf("pointer event missing")
	}
	_, err := h.controller.HandlePointer(ctx, *event.Pointer)
	return err
}

func (h *PanelHandler) handleSetYear(ctx context.Context, event Event) error {
	if event.Year != 0 {
		h.controller.SetYear(event.Year)
	} else {
		h.controller.AdvanceYear(event.Delta)
	}
	if h.controller.State().Year == h.loadedYear {
		return nil
	}
	return h.handleRender(ctx, Event{})
}

func (h *PanelHandler) handleOptions(ctx context.Context, event Event) error {
	state := h.controller.State()
	options := state.Options
	if event.Text != nil {
		options = options.WithText(*event.Text)
	}
	if event.Pad != "" {
		options = options.WithPad(event.Pad)
	}

	// keep the data set of the last render
	h.controller.Update(h.controller.Data(), state.Width, state.Height, options)
	return nil
}

func (h *PanelHandler) respond() (Response, error) {
	state := h.controller.State()

	imageData, err := h.controller.RenderPNG()
	if err != nil {
		log.Printf("Failed to render panel: %v", err)
		return Response{
			StatusCode: 500,
			Body:       fmt.Sprintf("Error: %v", err),
		}, err
	}

	return Response{
		StatusCode: 200,
		Body:       "Success",
		Year:       state.Year,
		Image:      base64.StdEncoding.EncodeToString(imageData),
		Hover:      state.Hover,
		Navigation: h.navigated,
	}, nil
}
