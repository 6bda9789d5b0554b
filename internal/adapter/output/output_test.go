package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/toast"
)

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func testOptions() FormatterOptions {
	opts := DefaultFormatterOptions()
	opts.Now = func() time.Time { return now }
	return opts
}

func testViews() []toast.View {
	return []toast.View{
		{
			Toast: model.Toast{
				ID:        "01J0000000000000000000000A",
				Message:   "Saved",
				Category:  model.CategorySuccess,
				Duration:  time.Second,
				CreatedAt: now.Add(-600 * time.Millisecond),
				AppName:   "editor",
			},
			Status: toast.Status{State: toast.StateRunning, Remaining: 400 * time.Millisecond, Progress: 40},
		},
		{
			Toast: model.Toast{
				ID:        "01J0000000000000000000000B",
				Message:   "Disk almost full",
				Category:  model.CategoryError,
				CreatedAt: now.Add(-5 * time.Minute),
			},
			Status: toast.Status{State: toast.StateRunning, Progress: 100},
		},
		{
			Toast: model.Toast{
				ID:        "01J0000000000000000000000C",
				Message:   "Upload\nfinished",
				Category:  model.CategoryInfo,
				Duration:  10 * time.Minute,
				CreatedAt: now.Add(-time.Minute),
			},
			Status: toast.Status{State: toast.StatePaused, Remaining: 9 * time.Minute, Progress: 90},
		},
	}
}

func TestNewRecord(t *testing.T) {
	r := NewRecord(testViews()[0])

	assert.Equal(t, "01J0000000000000000000000A", r.ID)
	assert.Equal(t, int64(1000), r.DurationMS)
	assert.Equal(t, int64(400), r.RemainingMS)
	assert.Equal(t, "running", r.State)
	assert.False(t, r.Persistent)
	assert.InDelta(t, 40.0, r.Progress, 0.001)

	assert.True(t, NewRecord(testViews()[1]).Persistent)
	assert.NotNil(t, NewRecords(nil))
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(testOptions()).Format(&buf, testViews()))

	var records []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Equal(t, "Saved", records[0]["message"])
	assert.Equal(t, "success", records[0]["category"])
	assert.EqualValues(t, 400, records[0]["remaining_ms"])
	assert.Equal(t, "paused", records[2]["state"])
	assert.NotContains(t, records[1], "app_name")
}

func TestJSONFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(testOptions()).Format(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestJSONFormatter_FormatSingle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(testOptions()).FormatSingle(&buf, testViews()[1]))
	assert.Contains(t, buf.String(), `"persistent": true`)
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(testOptions()).Format(&buf, testViews()))

	var records []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Equal(t, "Disk almost full", records[1]["message"])
	assert.Equal(t, true, records[1]["persistent"])
	assert.Equal(t, 1000, records[0]["duration_ms"])
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newPlain(t, testOptions()).Format(&buf, testViews()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)

	assert.Equal(t, "[1] ✓ <editor> Saved", lines[0])
	assert.Contains(t, lines[1], "success")
	assert.Contains(t, lines[1], "0.4s left")
	assert.Contains(t, lines[1], "40%")

	assert.Equal(t, "[2] ✗ Disk almost full", lines[2])
	assert.Contains(t, lines[3], "5 minutes ago")
	assert.Contains(t, lines[3], "until dismissed")

	assert.Equal(t, "[3] i Upload finished", lines[4])
	assert.Contains(t, lines[5], "paused, 9 minutes left")
}

func TestPlainFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newPlain(t, testOptions()).Format(&buf, nil))
	assert.Equal(t, "no toasts\n", buf.String())
}

func TestPlainFormatter_CustomTemplate(t *testing.T) {
	opts := testOptions()
	opts.Template = "{{.Index}} {{.Toast.Message | upper}} {{percent .Toast.Progress}}\n"

	var buf bytes.Buffer
	require.NoError(t, newPlain(t, opts).Format(&buf, testViews()[:1]))
	assert.Equal(t, "1 SAVED 40%\n", buf.String())
}

func TestDmenuFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newDmenu(t, testOptions()).Format(&buf, testViews()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1 | ✓ | editor | Saved | 0.4s left", lines[0])
	assert.Equal(t, "2 | ✗ | Disk almost full | until dismissed", lines[1])
}

func TestDmenuFormatter_NoIndex(t *testing.T) {
	opts := testOptions()
	opts.ShowIndex = false
	opts.ShowRemaining = false
	opts.Separator = "\t"

	var buf bytes.Buffer
	require.NoError(t, newDmenu(t, opts).Format(&buf, testViews()[:1]))
	assert.Equal(t, "✓\teditor\tSaved\n", buf.String())
}

func TestDmenuFormatter_CustomTemplate(t *testing.T) {
	opts := testOptions()
	opts.Template = "{{.Toast.ID}} {{.Age}}"

	var buf bytes.Buffer
	require.NoError(t, newDmenu(t, opts).Format(&buf, testViews()[1:2]))
	assert.Equal(t, "01J0000000000000000000000B 5 minutes ago\n", buf.String())
}

func TestIDsFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewIDsFormatter().Format(&buf, testViews()))
	assert.Equal(t, "01J0000000000000000000000A\n01J0000000000000000000000B\n01J0000000000000000000000C\n", buf.String())
}

func newPlain(t *testing.T, opts FormatterOptions) *PlainFormatter {
	t.Helper()
	f, err := NewPlainFormatter(opts)
	require.NoError(t, err)
	return f
}

func newDmenu(t *testing.T, opts FormatterOptions) *DmenuFormatter {
	t.Helper()
	f, err := NewDmenuFormatter(opts)
	require.NoError(t, err)
	return f
}

func TestNewFormatter(t *testing.T) {
	opts := testOptions()
	tests := []struct {
		format FormatType
		want   Formatter
	}{
		{FormatJSON, &JSONFormatter{}},
		{FormatYAML, &YAMLFormatter{}},
		{FormatDmenu, &DmenuFormatter{}},
		{FormatIDs, &IDsFormatter{}},
		{FormatPlain, &PlainFormatter{}},
		{"bogus", &PlainFormatter{}},
	}
	for _, tt := range tests {
		f, err := NewFormatter(tt.format, opts)
		require.NoError(t, err, tt.format)
		assert.IsType(t, tt.want, f, tt.format)
	}
	assert.Len(t, FormatTypes(), 5)
}

func TestNewFormatter_BadTemplate(t *testing.T) {
	opts := testOptions()
	opts.Template = "{{.Toast.Message | nosuchfunc}}"

	_, err := NewPlainFormatter(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid template")

	_, err = NewDmenuFormatter(opts)
	require.Error(t, err)

	f, err := NewFormatter(FormatDmenu, opts)
	require.Error(t, err)
	assert.Nil(t, f)

	opts.Template = "{{if .Toast}}unclosed"
	_, err = NewFormatter(FormatPlain, opts)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in       string
		max      int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is longer", 10, "this is..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 2, "ab"},
		{"unlimited", 0, "unlimited"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncate(tt.in, tt.max))
		})
	}
}
