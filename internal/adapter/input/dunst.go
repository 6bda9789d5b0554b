package input

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/jmylchreest/toastd/internal/model"
)

// DefaultDunstLimit is how many history entries a replay shows.
const DefaultDunstLimit = 5

// DunstAdapter replays recent entries from dunstctl history as toasts.
type DunstAdapter struct {
	// Limit caps the number of replayed entries; 0 means DefaultDunstLimit.
	Limit int

	// history returns raw dunstctl history JSON.
	history func(ctx context.Context) ([]byte, error)
}

// NewDunstAdapter creates a new DunstAdapter.
func NewDunstAdapter() *DunstAdapter {
	return &DunstAdapter{history: dunstctlHistory}
}

// Name returns the adapter identifier.
func (a *DunstAdapter) Name() string {
	return "dunst"
}

// Run adds the most recent history entries, oldest first, so the newest
// ends up last in the stack.
func (a *DunstAdapter) Run(ctx context.Context, sink Sink) (int, error) {
	output, err := a.history(ctx)
	if err != nil {
		return 0, &AdapterError{
			Source:  "dunst",
			Message: "failed to execute dunstctl history",
			Err:     err,
		}
	}

	drafts, err := ParseDunstHistory(output)
	if err != nil {
		return 0, err
	}

	limit := a.Limit
	if limit <= 0 {
		limit = DefaultDunstLimit
	}
	if len(drafts) > limit {
		drafts = drafts[:limit]
	}

	added := 0
	for i := len(drafts) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		if id := sink.Add(drafts[i]); id != "" {
			added++
		}
	}
	return added, nil
}

func dunstctlHistory(ctx context.Context) ([]byte, error) {
	return exec.CommandContext(ctx, "dunstctl", "history").Output()
}

// dunstHistory represents the top-level dunstctl history JSON structure.
type dunstHistory struct {
	Type string         `json:"type"`
	Data [][]dunstEntry `json:"data"`
}

// dunstEntry represents a single notification in dunstctl history.
type dunstEntry struct {
	ID       dunstValue `json:"id"`
	AppName  dunstValue `json:"appname"`
	Summary  dunstValue `json:"summary"`
	Body     dunstValue `json:"body"`
	Urgency  dunstValue `json:"urgency"`
	Category dunstValue `json:"category"`
}

// dunstValue represents a typed value in dunst JSON.
// dunst uses {"type": "INT", "data": 123} format.
type dunstValue struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// String returns the value as a string.
func (v dunstValue) String() string {
	switch d := v.Data.(type) {
	case string:
		return d
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", d)
	}
}

// Int returns the value as an int.
func (v dunstValue) Int() int {
	switch d := v.Data.(type) {
	case float64:
		return int(d)
	case string:
		i, _ := strconv.Atoi(d)
		return i
	default:
		return 0
	}
}

// urgency maps dunst's urgency, which may be a name or a number.
func (v dunstValue) urgency() int {
	switch v.String() {
	case "LOW":
		return model.UrgencyLow
	case "CRITICAL":
		return model.UrgencyCritical
	case "NORMAL":
		return model.UrgencyNormal
	}
	u := v.Int()
	if u < model.UrgencyLow || u > model.UrgencyCritical {
		return model.UrgencyNormal
	}
	return u
}

// ParseDunstHistory parses dunstctl history JSON output into drafts,
// newest first as dunst reports them.
func ParseDunstHistory(data []byte) ([]model.Draft, error) {
	var history dunstHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, &AdapterError{
			Source:  "dunst",
			Message: "failed to parse dunstctl history JSON",
			Err:     err,
		}
	}

	var drafts []model.Draft

	// dunst uses nested arrays: data is [[entry1, entry2, ...]]
	for _, group := range history.Data {
		for _, entry := range group {
			if d, ok := convertDunstEntry(entry); ok {
				drafts = append(drafts, d)
			}
		}
	}

	return drafts, nil
}

// convertDunstEntry converts a dunst entry to a draft.
func convertDunstEntry(entry dunstEntry) (model.Draft, bool) {
	summary := sanitizeString(entry.Summary.String())
	body := sanitizeString(entry.Body.String())

	msg := summary
	switch {
	case summary == "":
		msg = body
	case body != "":
		msg = summary + ": " + body
	}
	if msg == "" {
		return model.Draft{}, false
	}

	return model.Draft{
		Message:  msg,
		Category: model.CategoryForHints(entry.Category.String(), entry.Urgency.urgency()),
		AppName:  sanitizeString(entry.AppName.String()),
		Source:   "dunst",
		Silent:   true, // Already announced by dunst
	}, true
}
