/*
# Module: logging/logging.go
Structured logger construction shared by the server and the CLI.

## Linked Modules
- [config/config](../config/config.go) - Level and format settings

## Tags
logging, zerolog, observability

## Exports
New, NewWithWriter, Component, ServiceName

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "logging/logging.go" ;
    code:description "Structured logger construction shared by the server and the CLI" ;
    code:linksTo [
        code:name "config/config" ;
        code:path "../config/config.go" ;
        code:relationship "Level and format settings"
    ] ;
    code:exports :New, :NewWithWriter, :Component, :ServiceName ;
    code:tags "logging", "zerolog", "observability" .
<!-- End LinkedDoc RDF -->
*/
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line
const ServiceName = "basetree"

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// New returns a logger writing to stderr. An unknown level falls back to info.
// pretty switches to the human-readable console format.
func New(level string, pretty bool) zerolog.Logger {
	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return NewWithWriter(out, level)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(out io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("svc", ServiceName).Logger()
}

// Component returns a sub-logger tagged with the component name
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
