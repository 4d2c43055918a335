package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/christophergentle/circalendar/internal/calendar"
	"github.com/christophergentle/circalendar/internal/geometry"
	"github.com/christophergentle/circalendar/internal/panel"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	years []int
	err   error
}

func (f *fakeSource) LoadYear(ctx context.Context, series []string, year int, loc *time.Location) (*calendar.DataSet, error) {
	f.years = append(f.years, year)
	if f.err != nil {
		return nil, f.err
	}
	ms := func(m time.Month, d int) int64 {
		return time.Date(year, m, d, 12, 0, 0, 0, time.UTC).UnixMilli()
	}
	return calendar.NewDataSet(calendar.NewSeriesTable("requests",
		[]int64{ms(time.March, 15), ms(time.July, 1)},
		[]float64{2, 8})), nil
}

func newTestHandler(source DataSource, nav panel.Navigator) *PanelHandler {
	clock := clockwork.NewFakeClockAt(time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC))
	return NewPanelHandler(source, nav, []string{"requests"}, panel.WithClock(clock))
}

func decodeImage(t *testing.T, resp Response) []byte {
	data, err := base64.StdEncoding.DecodeString(resp.Image)
	require.NoError(t, err)
	return data
}

func TestEventStructure(t *testing.T) {
	var event Event
	err := json.Unmarshal([]byte(`{"action":"pointer","pointer":{"type":"move","offsetX":10,"offsetY":20}}`), &event)
	require.NoError(t, err)

	assert.Equal(t, ActionPointer, event.Action)
	require.NotNil(t, event.Pointer)
	assert.Equal(t, panel.PointerMove, event.Pointer.Type)
	assert.Equal(t, 20.0, event.Pointer.OffsetY)
}

func TestHandleRequest_Render(t *testing.T) {
	source := &fakeSource{}
	h := newTestHandler(source, nil)

	resp, err := h.HandleRequest(context.Background(), Event{Action: ActionRender, Width: 400, Height: 300})
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 2021, resp.Year)
	assert.Equal(t, []int{2021}, source.years)
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, decodeImage(t, resp)[:4])
	assert.Nil(t, resp.Navigation)

	s := h.Controller().State()
	assert.Equal(t, 400, s.Width)
	assert.Equal(t, 1, s.Info.Day[73].Count)
}

func TestHandleRequest_PointerNavigates(t *testing.T) {
	nav := &panel.RecordingNavigator{}
	h := newTestHandler(&fakeSource{}, nav)
	ctx := context.Background()

	_, err := h.HandleRequest(ctx, Event{Action: ActionRender, Width: 600, Height: 600})
	require.NoError(t, err)

	layout := geometry.NewLayout(600, 600, panel.DefaultPad)
	x, y := layout.ToScreen(layout.DayPoint(time.Date(2021, time.July, 1, 0, 0, 0, 0, time.UTC)))

	resp, err := h.HandleRequest(ctx, Event{Action: ActionPointer, Pointer: &panel.PointerEvent{Type: panel.PointerMove, OffsetX: x, OffsetY: y}})
	require.NoError(t, err)
	require.NotNil(t, resp.Hover)
	assert.Equal(t, 8.0, resp.Hover.Sum)
	assert.Nil(t, resp.Navigation)

	resp, err = h.HandleRequest(ctx, Event{Action: ActionPointer, Pointer: &panel.PointerEvent{Type: panel.PointerUp, OffsetX: x, OffsetY: y}})
	require.NoError(t, err)
	require.NotNil(t, resp.Navigation)

	want := panel.NewTimeRange(
		time.Date(2021, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, time.August, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, want, *resp.Navigation)
	assert.Equal(t, []panel.TimeRange{want}, nav.Ranges())
}

func TestHandleRequest_YearLabel(t *testing.T) {
	nav := &panel.RecordingNavigator{}
	h := newTestHandler(&fakeSource{}, nav)

	resp, err := h.HandleRequest(context.Background(), Event{Action: ActionYearLabel})
	require.NoError(t, err)
	require.NotNil(t, resp.Navigation)
	assert.Equal(t, time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), resp.Navigation.From)
	assert.Equal(t, time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), resp.Navigation.To)
}

func TestHandleRequest_SetYearReloads(t *testing.T) {
	source := &fakeSource{}
	h := newTestHandler(source, nil)
	ctx := context.Background()

	_, err := h.HandleRequest(ctx, Event{Action: ActionRender, Width: 300, Height: 300})
	require.NoError(t, err)

	resp, err := h.HandleRequest(ctx, Event{Action: ActionSetYear, Delta: -1})
	require.NoError(t, err)
	assert.Equal(t, 2020, resp.Year)

	resp, err = h.HandleRequest(ctx, Event{Action: ActionSetYear, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, 2024, resp.Year)
	assert.Equal(t, []int{2021, 2020, 2024}, source.years)
	assert.Equal(t, 300, h.Controller().State().Width)
}

func TestHandleRequest_Options(t *testing.T) {
	h := newTestHandler(&fakeSource{}, nil)
	ctx := context.Background()

	_, err := h.HandleRequest(ctx, Event{Action: ActionRender, Width: 300, Height: 300})
	require.NoError(t, err)
	info := h.Controller().State().Info

	text := "Deploys"
	_, err = h.HandleRequest(ctx, Event{Action: ActionOptions, Text: &text, Pad: "nope"})
	require.NoError(t, err)

	s := h.Controller().State()
	assert.Equal(t, panel.Options{Text: "Deploys", Pad: panel.FallbackPad}, s.Options)
	assert.Same(t, info, s.Info)
}

func TestHandleRequest_Errors(t *testing.T) {
	h := newTestHandler(&fakeSource{err: errors.New("table missing")}, nil)
	ctx := context.Background()

	resp, err := h.HandleRequest(ctx, Event{Action: ActionRender})
	assert.Error(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Contains(t, resp.Body, "table missing")

	resp, err = h.HandleRequest(ctx, Event{Action: "explode"})
	assert.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	resp, err = h.HandleRequest(ctx, Event{Action: ActionPointer})
	assert.Error(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}

type fakeInvoker struct {
	inputs []*awslambda.InvokeInput
	output *awslambda.InvokeOutput
	err    error
}

func (f *fakeInvoker) Invoke(ctx context.Context, params *awslambda.InvokeInput, optFns ...func(*awslambda.Options)) (*awslambda.InvokeOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.output != nil {
		return f.output, nil
	}
	return &awslambda.InvokeOutput{StatusCode: 202}, nil
}

func TestLambdaNavigator(t *testing.T) {
	invoker := &fakeInvoker{}
	nav := NewLambdaNavigator(invoker, "dashboard-navigation")

	r := panel.TimeRange{From: 1000, To: 2000}
	require.NoError(t, nav.SetTimeRange(context.Background(), r))

	require.Len(t, invoker.inputs, 1)
	input := invoker.inputs[0]
	assert.Equal(t, "dashboard-navigation", aws.ToString(input.FunctionName))
	assert.Equal(t, types.InvocationTypeEvent, input.InvocationType)

	var payload NavigationPayload
	require.NoError(t, json.Unmarshal(input.Payload, &payload))
	assert.Equal(t, "setTimeRange", payload.Action)
	assert.Equal(t, r, payload.Range)
}

func TestLambdaNavigator_Errors(t *testing.T) {
	nav := NewLambdaNavigator(&fakeInvoker{err: errors.New("denied")}, "nav")
	assert.Error(t, nav.SetTimeRange(context.Background(), panel.TimeRange{}))

	nav = NewLambdaNavigator(&fakeInvoker{output: &awslambda.InvokeOutput{FunctionError: aws.String("Unhandled")}}, "nav")
	err := nav.SetTimeRange(context.Background(), panel.TimeRange{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unhandled")
}

type fakeSSM struct {
	values  map[string]string
	invalid []string
}

func (f *fakeSSM) GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	out := &ssm.GetParametersOutput{InvalidParameters: f.invalid}
	for _, name := range params.Names {
		if value, ok := f.values[name]; ok {
			out.Parameters = append(out.Parameters, ssmtypes.Parameter{
				Name:  aws.String(name),
				Value: aws.String(value),
			})
		}
	}
	return out, nil
}

func TestLoadSettings(t *testing.T) {
	loader := NewSSMConfigLoaderWithClient(&fakeSSM{values: map[string]string{
		paramTable:      "observations",
		paramSeries:     "requests, errors",
		paramPad:        "30",
		paramNavigation: "dashboard-navigation",
	}})

	settings, err := loader.LoadSettings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "observations", settings.Table)
	assert.Equal(t, []string{"requests", "errors"}, settings.Series)
	assert.Equal(t, panel.Options{Text: panel.DefaultText, Pad: 30}, settings.Options)
	assert.Equal(t, "dashboard-navigation", settings.NavigationFunction)
}

func TestLoadSettings_Defaults(t *testing.T) {
	loader := NewSSMConfigLoaderWithClient(&fakeSSM{
		values:  map[string]string{paramTable: "observations", paramPad: "wide"},
		invalid: []string{paramText, paramSeries},
	})

	settings, err := loader.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, settings.Series)
	assert.Equal(t, panel.DefaultOptions(), settings.Options)
}

func TestLoadSettings_MissingTable(t *testing.T) {
	loader := NewSSMConfigLoaderWithClient(&fakeSSM{invalid: []string{paramTable}})

	_, err := loader.LoadSettings(context.Background())
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, []string{paramTable}, configErr.Details)

	loader = NewSSMConfigLoaderWithClient(&fakeSSM{values: map[string]string{}})
	_, err = loader.LoadSettings(context.Background())
	require.ErrorAs(t, err, &configErr)
	assert.Contains(t, configErr.Error(), paramTable)
}

func TestParseIntWithDefault(t *testing.T) {
	assert.Equal(t, 5, parseIntWithDefault("", 5))
	assert.Equal(t, 5, parseIntWithDefault("x", 5))
	assert.Equal(t, 12, parseIntWithDefault("12", 5))
}
