// Package output provides output formatters for toast snapshots.
package output

import (
	"io"
	"time"

	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/toast"
)

// Formatter formats toast snapshots for output.
type Formatter interface {
	// Format writes formatted toasts to the writer.
	Format(w io.Writer, views []toast.View) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatDmenu FormatType = "dmenu"
	FormatIDs   FormatType = "ids"
)

// FormatTypes returns the accepted format names.
func FormatTypes() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatDmenu, FormatIDs}
}

// NewFormatter creates a formatter for the specified format type.
// Unknown types fall back to plain text. A custom template that does not
// parse is an error.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts), nil
	case FormatYAML:
		return NewYAMLFormatter(opts), nil
	case FormatDmenu:
		f, err := NewDmenuFormatter(opts)
		if err != nil {
			return nil, err
		}
		return f, nil
	case FormatIDs:
		return NewIDsFormatter(), nil
	default:
		f, err := NewPlainFormatter(opts)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template      string           // Custom template for dmenu/plain format
	ShowIndex     bool             // Show 1-based index prefix
	ShowApp       bool             // Show app name
	ShowRemaining bool             // Show time left and progress
	MessageMaxLen int              // Maximum message length (0 = unlimited)
	Separator     string           // Field separator for dmenu format
	Now           func() time.Time // Reference time for relative ages
}

// DefaultFormatterOptions returns sensible defaults.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:     true,
		ShowApp:       true,
		ShowRemaining: true,
		MessageMaxLen: 120,
		Separator:     " | ",
	}
}

func (o FormatterOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Record is the machine-readable form of a toast snapshot.
type Record struct {
	ID          string         `json:"id" yaml:"id"`
	Message     string         `json:"message" yaml:"message"`
	Category    model.Category `json:"category" yaml:"category"`
	AppName     string         `json:"app_name,omitempty" yaml:"app_name,omitempty"`
	Source      string         `json:"source,omitempty" yaml:"source,omitempty"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
	DurationMS  int64          `json:"duration_ms" yaml:"duration_ms"`
	Persistent  bool           `json:"persistent" yaml:"persistent"`
	State       string         `json:"state" yaml:"state"`
	RemainingMS int64          `json:"remaining_ms" yaml:"remaining_ms"`
	Progress    float64        `json:"progress" yaml:"progress"`
}

// NewRecord converts a snapshot into a Record.
func NewRecord(v toast.View) Record {
	return Record{
		ID:          v.ID,
		Message:     v.Message,
		Category:    v.Category,
		AppName:     v.AppName,
		Source:      v.Source,
		CreatedAt:   v.CreatedAt,
		DurationMS:  v.Duration.Milliseconds(),
		Persistent:  v.Persistent(),
		State:       v.State.String(),
		RemainingMS: v.Remaining.Milliseconds(),
		Progress:    v.Progress,
	}
}

// NewRecords converts snapshots into Records, never returning nil.
func NewRecords(views []toast.View) []Record {
	records := make([]Record, 0, len(views))
	for _, v := range views {
		records = append(records, NewRecord(v))
	}
	return records
}
