package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastd/internal/toast"
)

// YAMLFormatter formats toasts as a YAML document per snapshot.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes toasts as a YAML sequence.
func (f *YAMLFormatter) Format(w io.Writer, views []toast.View) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(NewRecords(views)); err != nil {
		return err
	}
	return encoder.Close()
}
