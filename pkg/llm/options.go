// Package llm provides the provider abstraction and generation options.
package llm

// GenerateOptions holds parameters for LLM generation.
// Defaults come from the model definition in config.yaml and can be
// overridden per call.
type GenerateOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int

	// Format specifies response format ("json_object" for structured output).
	Format string
}

// GenerateOption is a functional option for configuring GenerateOptions.
type GenerateOption func(*GenerateOptions)

// WithModel overrides the model for one call.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithTemperature overrides the temperature for one call.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens overrides the response length limit for one call.
func WithMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = tokens
	}
}

// WithFormat sets the response format for one call.
// Use "json_object" for structured JSON output.
func WithFormat(format string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Format = format
	}
}

// ApplyOptions applies every GenerateOption found in opts to base.
// Values of other types are ignored.
func ApplyOptions(base GenerateOptions, opts ...any) GenerateOptions {
	for _, opt := range opts {
		if fn, ok := opt.(GenerateOption); ok {
			fn(&base)
		}
	}
	return base
}
