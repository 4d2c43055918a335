package lambda

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/christophergentle/circalendar/internal/panel"
)

const (
	paramText       = "/circalendar/options/text"
	paramPad        = "/circalendar/options/pad"
	paramTable      = "/circalendar/source/table"
	paramSeries     = "/circalendar/source/series"
	paramNavigation = "/circalendar/navigation/function"
	paramTimezone   = "/circalendar/settings/timezone"
)

// Settings is the panel function configuration kept in SSM Parameter Store
type Settings struct {
	Options            panel.Options
	Table              string
	Series             []string
	NavigationFunction string
	Timezone           string
}

// SSMAPI is the subset of the SSM client used by SSMConfigLoader
type SSMAPI interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// SSMConfigLoader handles loading configuration from SSM Parameter Store
type SSMConfigLoader struct {
	client SSMAPI
}

// NewSSMConfigLoader creates a new SSM configuration loader
func NewSSMConfigLoader(ctx context.Context) (*SSMConfigLoader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSSMConfigLoaderWithClient(ssm.NewFromConfig(cfg)), nil
}

// NewSSMConfigLoaderWithClient creates a loader on an existing client
func NewSSMConfigLoaderWithClient(client SSMAPI) *SSMConfigLoader {
	return &SSMConfigLoader{client: client}
}

// LoadSettings loads the panel settings from SSM Parameter Store
func (s *SSMConfigLoader) LoadSettings(ctx context.Context) (*Settings, error) {
	parameterNames := []string{
		paramText,
		paramPad,
		paramTable,
		paramSeries,
		paramNavigation,
		paramTimezone,
	}

	result, err := s.client.GetParameters(ctx, &ssm.GetParametersInput{
		Names:          parameterNames,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get parameters: %w", err)
	}

	// Only the table is required, the rest fall back to defaults
	for _, name := range result.InvalidParameters {
		if name == paramTable {
			return nil, &ConfigError{
				Message: "Invalid parameters found",
				Details: result.InvalidParameters,
			}
		}
		log.Printf("Parameter %s not set, using default", name)
	}

	params := make(map[string]string)
	for _, param := range result.Parameters {
		if param.Name != nil && param.Value != nil {
			params[*param.Name] = *param.Value
		}
	}

	if table, ok := params[paramTable]; !ok || table == "" {
		return nil, &ConfigError{
			Message: "Missing required parameter: " + paramTable,
		}
	}

	options := panel.DefaultOptions()
	if text, ok := params[paramText]; ok && text != "" {
		options.Text = text
	}
	options.Pad = parseIntWithDefault(params[paramPad], panel.DefaultPad)

	return &Settings{
		Options:            options.Normalize(),
		Table:              params[paramTable],
		Series:             parseList(params[paramSeries], []string{"default"}),
		NavigationFunction: params[paramNavigation],
		Timezone:           params[paramTimezone],
	}, nil
}

// parseIntWithDefault parses an integer with a default value
func parseIntWithDefault(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

// parseList parses a comma separated StringList parameter
func parseList(value string, defaultValue []string) []string {
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	if len(list) == 0 {
		return defaultValue
	}
	return list
}

// ConfigError represents a configuration error
type ConfigError struct {
	Message string
	Details []string
}

func (e *ConfigError) Error() string {
	if len(e.Details) > 0 {
		return e.Message + ": " + strconv.Itoa(len(e.Details)) + " invalid parameters"
	}
	return e.Message
}
