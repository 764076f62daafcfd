package llm

import (
	"context"
)

// Option allows for optional parameters like Temperature
type Option func(*Options)

type Options struct {
	Temperature float64
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Generate sends a single prompt to the model and returns the response
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
