package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // Lambda images carry no zoneinfo

	"github.com/christophergentle/circalendar/internal/panel"
	"github.com/christophergentle/circalendar/internal/render"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Panel    PanelConfig    `yaml:"panel"`
	Source   SourceConfig   `yaml:"source"`
	Render   RenderConfig   `yaml:"render"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Server   ServerConfig   `yaml:"server"`
}

type PanelConfig struct {
	Width    int           `yaml:"width"`
	Height   int           `yaml:"height"`
	Year     int           `yaml:"year"` // 0 means the current year
	Timezone string        `yaml:"timezone"`
	Options  panel.Options `yaml:"options"`
}

type SourceConfig struct {
	Table  string   `yaml:"table"`
	Series []string `yaml:"series"`
	Demo   bool     `yaml:"demo"` // generate observations instead of reading the table
}

type RenderConfig struct {
	BaseRadius float64 `yaml:"base_radius"`
	Amplitude  float64 `yaml:"amplitude"`
	FontPath   string  `yaml:"font_path"`
	FontSize   float64 `yaml:"font_size"`
}

type SnapshotConfig struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	OutputDir string `yaml:"output_dir"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s not found. Please copy config.example.yaml to config.yaml", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML configuration and fills in defaults
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if !config.Source.Demo && config.Source.Table == "" {
		return nil, fmt.Errorf("please set source.table in config.yaml or enable source.demo")
	}
	if _, err := time.LoadLocation(config.Panel.Timezone); err != nil {
		return nil, fmt.Errorf("invalid panel.timezone %q: %w", config.Panel.Timezone, err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Panel.Width == 0 {
		c.Panel.Width = 600
	}
	if c.Panel.Height == 0 {
		c.Panel.Height = 600
	}
	if c.Panel.Timezone == "" {
		c.Panel.Timezone = "UTC"
	}
	if c.Panel.Options.Text == "" {
		c.Panel.Options.Text = panel.DefaultText
	}
	if c.Panel.Options.Pad == 0 {
		c.Panel.Options.Pad = panel.DefaultPad
	}
	if len(c.Source.Series) == 0 {
		c.Source.Series = []string{"default"}
	}
	if c.Snapshot.Prefix == "" {
		c.Snapshot.Prefix = "snapshots"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// LoadConfigFromEnv loads configuration from environment variables (fallback)
func LoadConfigFromEnv() *Config {
	config := &Config{
		Panel: PanelConfig{
			Timezone: os.Getenv("CIRCALENDAR_TIMEZONE"),
			Options: panel.Options{
				Text: os.Getenv("CIRCALENDAR_TEXT"),
				Pad:  parsePadEnv(os.Getenv("CIRCALENDAR_PAD")),
			},
		},
		Source: SourceConfig{
			Table: os.Getenv("CIRCALENDAR_TABLE"),
			Demo:  os.Getenv("CIRCALENDAR_DEMO") == "true",
		},
		Snapshot: SnapshotConfig{
			Bucket: os.Getenv("CIRCALENDAR_SNAPSHOT_BUCKET"),
		},
		Server: ServerConfig{
			Addr: os.Getenv("CIRCALENDAR_ADDR"),
		},
	}

	if series := os.Getenv("CIRCALENDAR_SERIES"); series != "" {
		for _, name := range strings.Split(series, ",") {
			if name = strings.TrimSpace(name); name != "" {
				config.Source.Series = append(config.Source.Series, name)
			}
		}
	}
	if config.Source.Table == "" {
		config.Source.Demo = true
	}

	config.applyDefaults()
	return config
}

func parsePadEnv(value string) int {
	if value == "" {
		return 0
	}
	return panel.ParsePad(value)
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	// Try current directory first
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}

	// Try executable directory
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		configPath := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	return "config.yaml"
}

// Location returns the panel time zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Panel.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RendererConfig returns the renderer configuration with the file's overrides
func (c *Config) RendererConfig() *render.Config {
	rc := render.DefaultConfig()
	if c.Render.BaseRadius > 0 {
		rc.BaseRadius = c.Render.BaseRadius
	}
	if c.Render.Amplitude > 0 {
		rc.Amplitude = c.Render.Amplitude
	}
	if c.Render.FontSize > 0 {
		rc.FontSize = c.Render.FontSize
	}
	rc.FontPath = c.Render.FontPath
	return rc
}
