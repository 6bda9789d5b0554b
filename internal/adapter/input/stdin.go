package input

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jmylchreest/toastd/internal/model"
)

// StdinAdapter reads toasts from standard input, one per line.
//
// A line holding a JSON object is decoded as a draft:
//
//	{"message": "Saved", "category": "success", "duration": 1000}
//
// Any other non-blank line becomes an info toast with the line as message.
type StdinAdapter struct {
	reader io.Reader
	logger *slog.Logger
}

// NewStdinAdapter creates a new StdinAdapter reading from os.Stdin.
func NewStdinAdapter() *StdinAdapter {
	return NewStdinAdapterWithReader(os.Stdin)
}

// NewStdinAdapterWithReader creates a new StdinAdapter with a custom reader.
func NewStdinAdapterWithReader(r io.Reader) *StdinAdapter {
	return &StdinAdapter{reader: r, logger: slog.Default()}
}

// Name returns the adapter identifier.
func (a *StdinAdapter) Name() string {
	return "stdin"
}

// lineResult carries one scanned line to Run.
type lineResult struct {
	line []byte
	err  error
}

// Run reads lines until EOF or ctx is cancelled.
func (a *StdinAdapter) Run(ctx context.Context, sink Sink) (int, error) {
	lines := make(chan lineResult)
	go a.scan(ctx, lines)

	added := 0
	for {
		select {
		case <-ctx.Done():
			return added, ctx.Err()
		case res, ok := <-lines:
			if !ok {
				return added, nil
			}
			if res.err != nil {
				return added, &AdapterError{
					Source:  "stdin",
					Message: "failed to read stdin",
					Err:     res.err,
				}
			}

			d, ok := ParseLine(res.line)
			if !ok {
				continue
			}
			if id := sink.Add(d); id != "" {
				added++
			}
		}
	}
}

func (a *StdinAdapter) scan(ctx context.Context, out chan<- lineResult) {
	defer close(out)

	scanner := bufio.NewScanner(a.reader)
	const maxSize = 1024 * 1024 // 1MB per line
	scanner.Buffer(make([]byte, 64*1024), maxSize)

	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		select {
		case out <- lineResult{line: line}:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		select {
		case out <- lineResult{err: err}:
		case <-ctx.Done():
		}
	}
}

// stdinEntry is the JSON line format.
type stdinEntry struct {
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
	Duration *int   `json:"duration,omitempty"` // milliseconds
	AppName  string `json:"app_name,omitempty"`
	Silent   bool   `json:"silent,omitempty"`
}

// ParseLine converts one input line into a draft.
// It returns false for blank lines and JSON objects without a message.
func ParseLine(line []byte) (model.Draft, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return model.Draft{}, false
	}

	if trimmed[0] == '{' {
		var entry stdinEntry
		if err := json.Unmarshal(trimmed, &entry); err == nil {
			msg := sanitizeString(entry.Message)
			if msg == "" {
				return model.Draft{}, false
			}
			return model.Draft{
				Message:  msg,
				Category: model.ParseCategory(entry.Category),
				Duration: entry.Duration,
				AppName:  sanitizeString(entry.AppName),
				Silent:   entry.Silent,
				Source:   "stdin",
			}, true
		}
	}

	return model.Draft{
		Message:  sanitizeString(string(trimmed)),
		Category: model.CategoryInfo,
		Source:   "stdin",
	}, true
}

// sanitizeString removes control characters and normalizes whitespace.
func sanitizeString(s string) string {
	var result strings.Builder
	for _, r := range s {
		if r < 32 || r == 127 {
			result.WriteRune(' ')
		} else {
			result.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(result.String()), " ")
}
