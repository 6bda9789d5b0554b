package input

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/model"
)

const sampleDunstHistory = `{
	"type": "aa{sv}",
	"data": [[
		{
			"id": {"type": "i", "data": 124},
			"appname": {"type": "s", "data": "slack"},
			"summary": {"type": "s", "data": "New Message"},
			"body": {"type": "s", "data": "Hello from John"},
			"urgency": {"type": "s", "data": "CRITICAL"},
			"category": {"type": "s", "data": ""}
		},
		{
			"id": {"type": "i", "data": 123},
			"appname": {"type": "s", "data": "firefox"},
			"summary": {"type": "s", "data": "Download Complete"},
			"body": {"type": "s", "data": "myfile.zip has finished downloading"},
			"urgency": {"type": "i", "data": 1},
			"category": {"type": "s", "data": "transfer.complete"}
		},
		{
			"id": {"type": "i", "data": 122},
			"appname": {"type": "s", "data": "empty"},
			"summary": {"type": "s", "data": ""},
			"body": {"type": "s", "data": ""},
			"urgency": {"type": "i", "data": 0},
			"category": {"type": "s", "data": ""}
		}
	]]
}`

func TestDunstAdapter_Name(t *testing.T) {
	assert.Equal(t, "dunst", NewDunstAdapter().Name())
}

func TestParseDunstHistory(t *testing.T) {
	drafts, err := ParseDunstHistory([]byte(sampleDunstHistory))
	require.NoError(t, err)
	require.Len(t, drafts, 2, "entries without text are skipped")

	assert.Equal(t, "New Message: Hello from John", drafts[0].Message)
	assert.Equal(t, model.CategoryError, drafts[0].Category)
	assert.Equal(t, "slack", drafts[0].AppName)
	assert.True(t, drafts[0].Silent)
	assert.Nil(t, drafts[0].Duration)

	assert.Equal(t, model.CategorySuccess, drafts[1].Category)
	assert.Equal(t, "dunst", drafts[1].Source)
}

func TestParseDunstHistory_Empty(t *testing.T) {
	drafts, err := ParseDunstHistory([]byte(`{"type": "array", "data": [[]]}`))
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestParseDunstHistory_InvalidJSON(t *testing.T) {
	_, err := ParseDunstHistory([]byte(`{invalid json`))
	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, "dunst", adapterErr.Source)
}

func TestDunstAdapter_RunAddsOldestFirst(t *testing.T) {
	a := &DunstAdapter{history: func(context.Context) ([]byte, error) {
		return []byte(sampleDunstHistory), nil
	}}
	sink := &sliceSink{}

	n, err := a.Run(context.Background(), sink)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, sink.drafts, 2)
	assert.Equal(t, "firefox", sink.drafts[0].AppName)
	assert.Equal(t, "slack", sink.drafts[1].AppName)
}

func TestDunstAdapter_RunLimit(t *testing.T) {
	a := &DunstAdapter{Limit: 1, history: func(context.Context) ([]byte, error) {
		return []byte(sampleDunstHistory), nil
	}}
	sink := &sliceSink{}

	n, err := a.Run(context.Background(), sink)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "slack", sink.drafts[0].AppName)
}

func TestDunstAdapter_RunCommandError(t *testing.T) {
	cause := errors.New("exec: dunstctl not found")
	a := &DunstAdapter{history: func(context.Context) ([]byte, error) {
		return nil, cause
	}}

	_, err := a.Run(context.Background(), &sliceSink{})
	assert.ErrorIs(t, err, cause)
}

func TestDunstValue_String(t *testing.T) {
	tests := []struct {
		name     string
		value    dunstValue
		expected string
	}{
		{"string value", dunstValue{Type: "STRING", Data: "hello"}, "hello"},
		{"int value", dunstValue{Type: "INT", Data: float64(123)}, "123"},
		{"nil value", dunstValue{Type: "STRING", Data: nil}, ""},
		{"empty string", dunstValue{Type: "STRING", Data: ""}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.String())
		})
	}
}

func TestDunstValue_Urgency(t *testing.T) {
	tests := []struct {
		name     string
		value    dunstValue
		expected int
	}{
		{"name low", dunstValue{Data: "LOW"}, model.UrgencyLow},
		{"name critical", dunstValue{Data: "CRITICAL"}, model.UrgencyCritical},
		{"number", dunstValue{Data: float64(2)}, model.UrgencyCritical},
		{"numeric string", dunstValue{Data: "0"}, model.UrgencyLow},
		{"out of range", dunstValue{Data: float64(9)}, model.UrgencyNormal},
		{"nil", dunstValue{}, model.UrgencyLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.urgency())
		})
	}
}
