package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toastd/internal/toast"
)

// DmenuFormatter formats toasts for dmenu/rofi/fuzzel, one per line.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
// It fails when opts.Template does not parse.
func NewDmenuFormatter(opts FormatterOptions) (*DmenuFormatter, error) {
	tmpl, err := parseTemplate("dmenu", opts.Template)
	if err != nil {
		return nil, err
	}
	return &DmenuFormatter{opts: opts, template: tmpl}, nil
}

// parseTemplate parses a custom line template. An empty text yields nil.
func parseTemplate(name, text string) (*template.Template, error) {
	if text == "" {
		return nil, nil
	}
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	return tmpl, nil
}

// Format writes toasts in dmenu format (one per line).
func (f *DmenuFormatter) Format(w io.Writer, views []toast.View) error {
	now := f.opts.now()
	for i, v := range views {
		line := f.formatLine(i+1, v, now)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single toast line.
func (f *DmenuFormatter) formatLine(index int, v toast.View, now time.Time) string {
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, newTemplateData(index, v, now)); err == nil {
			return buf.String()
		}
	}

	// Default format: index | category | app | message | remaining
	var parts []string
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", index))
	}
	parts = append(parts, v.Category.Icon())
	if f.opts.ShowApp && v.AppName != "" {
		parts = append(parts, v.AppName)
	}
	parts = append(parts, truncate(sanitizeMessage(v.Message), f.opts.MessageMaxLen))
	if f.opts.ShowRemaining {
		parts = append(parts, remainingText(v, now))
	}

	return strings.Join(parts, sep)
}

// templateData provides data for custom templates.
type templateData struct {
	Index     int
	Toast     toast.View
	Age       string
	Remaining string
}

func newTemplateData(index int, v toast.View, now time.Time) templateData {
	return templateData{
		Index:     index,
		Toast:     v,
		Age:       ageText(v.CreatedAt, now),
		Remaining: remainingText(v, now),
	}
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"upper":    strings.ToUpper,
		"percent": func(p float64) string {
			return fmt.Sprintf("%.0f%%", p)
		},
	}
}

// remainingText describes how long a toast has left.
func remainingText(v toast.View, now time.Time) string {
	if v.Persistent() {
		if v.State == toast.StatePaused {
			return "paused"
		}
		return "until dismissed"
	}

	var left string
	if v.Remaining < time.Minute {
		left = fmt.Sprintf("%.1fs left", v.Remaining.Seconds())
	} else {
		left = humanize.RelTime(now, now.Add(v.Remaining), "left", "ago")
	}
	if v.State == toast.StatePaused {
		return "paused, " + left
	}
	return left
}

// ageText returns a human-readable relative age.
func ageText(created, now time.Time) string {
	if created.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(created, now, "ago", "from now")
}

// truncate shortens s to maxLen runes, marking the cut with an ellipsis.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// sanitizeMessage cleans up message text for single-line display.
func sanitizeMessage(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
