package output

import (
	"fmt"
	"io"

	"github.com/yndnr/redikv/pkg/resp"
)

// Format represents the output format.
type Format string

const (
	FormatRaw  Format = "raw"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. The empty string means raw.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatRaw:
		return FormatRaw, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want raw or json)", s)
	}
}

// Formatter writes one reply.
type Formatter interface {
	Format(w io.Writer, v resp.Value) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	default:
		return &RawFormatter{}
	}
}

// RawFormatter prints replies the way redis-cli does.
type RawFormatter struct{}

// Format writes v followed by a newline.
func (f *RawFormatter) Format(w io.Writer, v resp.Value) error {
	_, err := fmt.Fprintln(w, v.String())
	return err
}
