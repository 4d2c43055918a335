package panel

import (
	"strconv"
	"strings"
)

const (
	DefaultText = "The default text!"
	DefaultPad  = 50
	// FallbackPad replaces a padding entry that does not parse to a nonzero integer
	FallbackPad = 40
)

// Options are the settings of the panel's options form
type Options struct {
	Text string `json:"text" yaml:"text"`
	Pad  int    `json:"pad" yaml:"pad"`
}

// DefaultOptions returns the options of a freshly added panel
func DefaultOptions() Options {
	return Options{
		Text: DefaultText,
		Pad:  DefaultPad,
	}
}

// ParsePad parses a padding entry from the options form
func ParsePad(value string) int {
	pad, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || pad == 0 {
		return FallbackPad
	}
	return pad
}

// WithText returns a copy of the options with a new text
func (o Options) WithText(text string) Options {
	o.Text = text
	return o
}

// WithPad returns a copy of the options with the padding re-validated from a
// form entry
func (o Options) WithPad(value string) Options {
	o.Pad = ParsePad(value)
	return o
}

// Normalize replaces a zero or negative padding with FallbackPad
func (o Options) Normalize() Options {
	if o.Pad <= 0 {
		o.Pad = FallbackPad
	}
	return o
}
