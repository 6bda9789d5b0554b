package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/toastd/internal/toast"
)

// JSONFormatter formats toasts as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes toasts as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, views []toast.View) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewRecords(views))
}

// FormatSingle writes a single toast as JSON.
func (f *JSONFormatter) FormatSingle(w io.Writer, v toast.View) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewRecord(v))
}
