package v2

import (
	"log/slog"
	"time"
)

// DefaultMaxDepth bounds nesting of built-in calls in gate parameters.
const DefaultMaxDepth = 64

// ParserOpt represents a parser configuration option
type ParserOpt func(*ParserConfig)

// TelemetryMode controls telemetry collection
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Counts only
	TelemetryTiming                      // Counts + parse time
)

// ParserConfig holds parser configuration
type ParserConfig struct {
	maxDepth  int
	logger    *slog.Logger
	telemetry TelemetryMode
}

// WithMaxDepth sets the call nesting budget. Values below 1 restore the default.
func WithMaxDepth(depth int) ParserOpt {
	return func(c *ParserConfig) {
		c.maxDepth = depth
	}
}

// WithLogger routes debug tracing of parsed statements to logger
func WithLogger(logger *slog.Logger) ParserOpt {
	return func(c *ParserConfig) {
		c.logger = logger
	}
}

// WithTelemetryBasic enables basic telemetry (counts only)
func WithTelemetryBasic() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry (counts + parse time)
func WithTelemetryTiming() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryTiming
	}
}

// ParseTelemetry holds parser metrics
type ParseTelemetry struct {
	ParseTime      time.Duration // Zero unless TelemetryTiming
	TokenCount     int           // Tokens handed to the parser, EOF included
	StatementCount int           // Top-level statements produced
	GateCount      int           // Gates known when parsing finished
}
