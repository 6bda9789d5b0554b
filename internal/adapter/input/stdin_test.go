package input

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/model"
)

type sliceSink struct {
	mu     sync.Mutex
	drafts []model.Draft
}

func (s *sliceSink) Add(d model.Draft) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts = append(s.drafts, d)
	return "id"
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		ok   bool
		want model.Draft
	}{
		{
			name: "json with all fields",
			line: `{"message":"Saved","category":"success","duration":1000,"app_name":"editor"}`,
			ok:   true,
			want: model.Draft{Message: "Saved", Category: model.CategorySuccess, Duration: model.Millis(1000), AppName: "editor", Source: "stdin"},
		},
		{
			name: "json without duration",
			line: `{"message":"Heads up","category":"WARN"}`,
			ok:   true,
			want: model.Draft{Message: "Heads up", Category: model.CategoryWarning, Source: "stdin"},
		},
		{
			name: "json persistent",
			line: `{"message":"Stay","duration":0}`,
			ok:   true,
			want: model.Draft{Message: "Stay", Category: model.CategoryInfo, Duration: model.Millis(0), Source: "stdin"},
		},
		{
			name: "plain text",
			line: "  build finished  ",
			ok:   true,
			want: model.Draft{Message: "build finished", Category: model.CategoryInfo, Source: "stdin"},
		},
		{
			name: "broken json is plain text",
			line: `{"message":`,
			ok:   true,
			want: model.Draft{Message: `{"message":`, Category: model.CategoryInfo, Source: "stdin"},
		},
		{name: "blank", line: "   ", ok: false},
		{name: "json without message", line: `{"category":"error"}`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine([]byte(tt.line))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStdinAdapter_Run(t *testing.T) {
	input := strings.Join([]string{
		`{"message":"one","category":"error"}`,
		"",
		"two",
		`{"message":"three","silent":true}`,
	}, "\n")

	a := NewStdinAdapterWithReader(strings.NewReader(input))
	assert.Equal(t, "stdin", a.Name())

	sink := &sliceSink{}
	n, err := a.Run(context.Background(), sink)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, sink.drafts, 3)
	assert.Equal(t, model.CategoryError, sink.drafts[0].Category)
	assert.Equal(t, "two", sink.drafts[1].Message)
	assert.True(t, sink.drafts[2].Silent)
}

func TestStdinAdapter_RunStopsOnCancel(t *testing.T) {
	r, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	a := NewStdinAdapterWithReader(r)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := a.Run(ctx, &sliceSink{})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestStdinAdapter_ReadError(t *testing.T) {
	a := NewStdinAdapterWithReader(failingReader{})
	_, err := a.Run(context.Background(), &sliceSink{})

	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, "stdin", adapterErr.Source)
	assert.EqualError(t, errors.Unwrap(err), "boom")
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"normal string", "normal string"},
		{"with\nnewline", "with newline"},
		{"with\ttab", "with tab"},
		{"  trimmed  ", "trimmed"},
		{"control\x00char", "control char"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeString(tt.input))
		})
	}
}

func TestNewSource(t *testing.T) {
	src, err := NewSource("stdin")
	require.NoError(t, err)
	assert.Equal(t, "stdin", src.Name())

	src, err = NewSource("dunst")
	require.NoError(t, err)
	assert.Equal(t, "dunst", src.Name())

	_, err = NewSource("mako")
	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, "mako", adapterErr.Source)
}
