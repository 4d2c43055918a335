package panel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/christophergentle/circalendar/internal/calendar"
	"github.com/christophergentle/circalendar/internal/geometry"
	"github.com/christophergentle/circalendar/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func sampleData() *calendar.DataSet {
	return calendar.NewDataSet(calendar.NewSeriesTable("requests",
		[]int64{ms(2021, time.March, 15), ms(2021, time.July, 1), ms(2020, time.July, 1)},
		[]float64{2, 8, 5}))
}

func newTestController(nav Navigator) *Controller {
	clock := clockwork.NewFakeClockAt(time.Date(2021, time.June, 1, 12, 0, 0, 0, time.UTC))
	return NewController(nav, WithClock(clock), WithMetrics(observability.NewMetricsForTesting()))
}

// dayPixel returns the panel pixel at the centre of a day's marker
func dayPixel(s *State, date time.Time) (float64, float64) {
	layout := s.Layout()
	return layout.ToScreen(layout.DayPoint(date))
}

func TestNewController_DefaultsToCurrentYear(t *testing.T) {
	c := newTestController(nil)

	s := c.State()
	assert.Equal(t, 2021, s.Year)
	assert.Equal(t, DefaultOptions(), s.Options)
	require.NotNil(t, s.Info)
	assert.Len(t, s.Info.Day, 365)
	assert.Nil(t, s.Hover)
}

func TestController_UpdateAggregatesOnNewData(t *testing.T) {
	c := newTestController(nil)
	data := sampleData()

	s := c.Update(data, 600, 600, DefaultOptions())
	assert.Equal(t, 1, s.Info.Day[73].Count)
	assert.Equal(t, 2.0, s.Info.Day[73].Sum)
	assert.Equal(t, 1, s.Info.Outside.Count)

	// same data set, new size: no re-aggregation
	resized := c.Update(data, 800, 600, DefaultOptions())
	assert.Same(t, s.Info, resized.Info)
	assert.Equal(t, 800, resized.Width)

	// a different data set value re-aggregates even with equal contents
	fresh := c.Update(sampleData(), 800, 600, DefaultOptions())
	assert.NotSame(t, s.Info, fresh.Info)
	assert.Equal(t, s.Info.Day, fresh.Info.Day)
}

func TestController_UpdateNormalizesPad(t *testing.T) {
	c := newTestController(nil)

	s := c.Update(nil, 600, 600, Options{Text: "x", Pad: 0})
	assert.Equal(t, FallbackPad, s.Options.Pad)
	assert.Equal(t, "x", s.Options.Text)
}

func TestController_StateIsReplacedNotMutated(t *testing.T) {
	c := newTestController(nil)
	before := c.Update(sampleData(), 600, 600, DefaultOptions())

	x, y := dayPixel(before, time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC))
	after, err := c.HandlePointer(context.Background(), PointerEvent{Type: PointerMove, OffsetX: x, OffsetY: y})
	require.NoError(t, err)

	assert.Nil(t, before.Hover)
	assert.Nil(t, before.Pointer)
	assert.NotNil(t, after.Hover)
}

func TestController_HoverAndClickNavigatesToMonth(t *testing.T) {
	nav := &RecordingNavigator{}
	c := newTestController(nav)
	s := c.Update(sampleData(), 600, 600, DefaultOptions())
	ctx := context.Background()

	march15 := time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC)
	x, y := dayPixel(s, march15)

	s, err := c.HandlePointer(ctx, PointerEvent{Type: PointerMove, OffsetX: x, OffsetY: y})
	require.NoError(t, err)
	require.True(t, s.Hovering())
	assert.Equal(t, march15, s.Hover.Date)
	assert.Equal(t, 1, s.Hover.Weekday)
	assert.Equal(t, 1, s.Hover.Count)
	assert.Equal(t, 2.0, s.Hover.Sum)

	_, err = c.HandlePointer(ctx, PointerEvent{Type: PointerDown, OffsetX: x, OffsetY: y})
	require.NoError(t, err)
	assert.Empty(t, nav.Ranges())

	_, err = c.HandlePointer(ctx, PointerEvent{Type: PointerUp, OffsetX: x, OffsetY: y})
	require.NoError(t, err)

	got, ok := nav.Last()
	require.True(t, ok)
	assert.Equal(t, TimeRange{From: ms(2021, time.March, 1), To: ms(2021, time.April, 1)}, got)
}

func TestController_ClickWhileIdleDoesNothing(t *testing.T) {
	nav := &RecordingNavigator{}
	c := newTestController(nav)
	c.Update(sampleData(), 600, 600, DefaultOptions())
	ctx := context.Background()

	// centre of the panel is inside the padding
	s, err := c.HandlePointer(ctx, PointerEvent{Type: PointerMove, OffsetX: 300, OffsetY: 300})
	require.NoError(t, err)
	assert.False(t, s.Hovering())
	require.NotNil(t, s.Pointer)

	_, err = c.HandlePointer(ctx, PointerEvent{Type: PointerUp, OffsetX: 300, OffsetY: 300})
	require.NoError(t, err)
	assert.Empty(t, nav.Ranges())
}

func TestController_LeaveClearsHover(t *testing.T) {
	nav := &RecordingNavigator{}
	c := newTestController(nav)
	s := c.Update(sampleData(), 600, 600, DefaultOptions())
	ctx := context.Background()

	x, y := dayPixel(s, time.Date(2021, time.July, 1, 0, 0, 0, 0, time.UTC))
	s, err := c.HandlePointer(ctx, PointerEvent{Type: PointerMove, OffsetX: x, OffsetY: y})
	require.NoError(t, err)
	require.True(t, s.Hovering())

	s, err = c.HandlePointer(ctx, PointerEvent{Type: PointerLeave})
	require.NoError(t, err)
	assert.False(t, s.Hovering())
	assert.Nil(t, s.Pointer)

	_, err = c.HandlePointer(ctx, PointerEvent{Type: PointerUp, OffsetX: x, OffsetY: y})
	require.NoError(t, err)
	assert.Empty(t, nav.Ranges())
}

func TestController_UnknownPointerEvent(t *testing.T) {
	c := newTestController(nil)
	before := c.State()

	s, err := c.HandlePointer(context.Background(), PointerEvent{Type: "wheel"})
	assert.Error(t, err)
	assert.Same(t, before, s)
}

func TestController_ActivateYearLabel(t *testing.T) {
	nav := &RecordingNavigator{}
	c := newTestController(nav)

	r, err := c.ActivateYearLabel(context.Background())
	require.NoError(t, err)

	want := TimeRange{From: ms(2021, time.January, 1), To: ms(2022, time.January, 1)}
	assert.Equal(t, want, r)
	got, ok := nav.Last()
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestController_NavigationError(t *testing.T) {
	failing := NavigatorFunc(func(ctx context.Context, r TimeRange) error {
		return errors.New("host unavailable")
	})
	c := newTestController(failing)

	_, err := c.ActivateYearLabel(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host unavailable")
}

func TestController_SetYear(t *testing.T) {
	nav := &RecordingNavigator{}
	c := newTestController(nav)
	s := c.Update(sampleData(), 600, 600, DefaultOptions())

	x, y := dayPixel(s, time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC))
	_, err := c.HandlePointer(context.Background(), PointerEvent{Type: PointerMove, OffsetX: x, OffsetY: y})
	require.NoError(t, err)

	s = c.SetYear(2020)
	assert.Equal(t, 2020, s.Year)
	assert.Len(t, s.Info.Day, 366)
	assert.Equal(t, 1, s.Info.Touched())
	assert.Nil(t, s.Hover)

	same := c.SetYear(2020)
	assert.Same(t, s, same)

	s = c.AdvanceYear(2)
	assert.Equal(t, 2022, s.Year)
	assert.Equal(t, 0, s.Info.Touched())

	r, err := c.ActivateYearLabel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ms(2022, time.January, 1), r.From)
}

func TestController_HoverRefreshesOnNewData(t *testing.T) {
	c := newTestController(nil)
	s := c.Update(sampleData(), 600, 600, DefaultOptions())

	x, y := dayPixel(s, time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC))
	_, err := c.HandlePointer(context.Background(), PointerEvent{Type: PointerMove, OffsetX: x, OffsetY: y})
	require.NoError(t, err)

	more := calendar.NewDataSet(calendar.NewSeriesTable("requests",
		[]int64{ms(2021, time.March, 15), ms(2021, time.March, 15)},
		[]float64{2, 3}))
	s = c.Update(more, 600, 600, DefaultOptions())
	require.True(t, s.Hovering())
	assert.Equal(t, 2, s.Hover.Count)
	assert.Equal(t, 5.0, s.Hover.Sum)

	// resizing moves every marker
	s = c.Update(more, 400, 400, DefaultOptions())
	assert.False(t, s.Hovering())
}

func TestController_ViewCarriesTooltip(t *testing.T) {
	c := newTestController(nil)
	s := c.Update(sampleData(), 600, 600, Options{Text: "footer", Pad: 50})

	v := c.View()
	assert.Nil(t, v.Tooltip)
	assert.Equal(t, "footer", v.Text)
	assert.Equal(t, 1, v.Series)
	assert.Equal(t, geometry.NewLayout(600, 600, 50), v.Layout)

	x, y := dayPixel(s, time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC))
	_, err := c.HandlePointer(context.Background(), PointerEvent{Type: PointerMove, OffsetX: x, OffsetY: y})
	require.NoError(t, err)

	v = c.View()
	require.NotNil(t, v.Tooltip)
	assert.Equal(t, x, v.Tooltip.X)
	assert.Equal(t, 1, v.Tooltip.Count)
}

func TestController_RenderPNG(t *testing.T) {
	c := newTestController(nil)
	c.Update(sampleData(), 200, 200, DefaultOptions())

	imageData, err := c.RenderPNG()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, imageData[:4])
}
