package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/toastd/internal/toast"
)

// IDsFormatter outputs just the toast IDs, one per line.
// Useful for scripting dismissals.
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes toast IDs to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, views []toast.View) error {
	for _, v := range views {
		if _, err := fmt.Fprintln(w, v.ID); err != nil {
			return err
		}
	}
	return nil
}
