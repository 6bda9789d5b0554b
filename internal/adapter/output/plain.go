package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/jmylchreest/toastd/internal/toast"
)

// PlainFormatter formats toasts as human-readable text, two lines each.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
// It fails when opts.Template does not parse.
func NewPlainFormatter(opts FormatterOptions) (*PlainFormatter, error) {
	tmpl, err := parseTemplate("plain", opts.Template)
	if err != nil {
		return nil, err
	}
	return &PlainFormatter{opts: opts, template: tmpl}, nil
}

// Format writes toasts as plain text. An empty stack writes "no toasts".
func (f *PlainFormatter) Format(w io.Writer, views []toast.View) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "no toasts")
		return err
	}

	now := f.opts.now()
	for i, v := range views {
		if err := f.formatToast(w, i+1, v, now); err != nil {
			return err
		}
	}
	return nil
}

// formatToast formats a single toast.
func (f *PlainFormatter) formatToast(w io.Writer, index int, v toast.View, now time.Time) error {
	if f.template != nil {
		return f.template.Execute(w, newTemplateData(index, v, now))
	}

	var sb strings.Builder

	if f.opts.ShowIndex {
		sb.WriteString(fmt.Sprintf("[%d] ", index))
	}
	sb.WriteString(v.Category.Icon() + " ")
	if f.opts.ShowApp && v.AppName != "" {
		sb.WriteString(fmt.Sprintf("<%s> ", v.AppName))
	}
	sb.WriteString(truncate(sanitizeMessage(v.Message), f.opts.MessageMaxLen))
	sb.WriteString("\n")

	details := []string{string(v.Category), ageText(v.CreatedAt, now)}
	if f.opts.ShowRemaining {
		details = append(details, remainingText(v, now), fmt.Sprintf("%.0f%%", v.Progress))
	}
	sb.WriteString("    " + strings.Join(details, " · ") + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
