// Package core provides filtering, sorting, and lookup over toast snapshots.
package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/toast"
)

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="  // Exact match
	FilterOpNotEqual  FilterOp = "!=" // Not equal
	FilterOpContains  FilterOp = "~"  // Contains substring
	FilterOpRegex     FilterOp = "~=" // Regex match
	FilterOpGreater   FilterOp = ">"  // Greater than
	FilterOpLess      FilterOp = "<"  // Less than
	FilterOpGreaterEq FilterOp = ">=" // Greater than or equal
	FilterOpLessEq    FilterOp = "<=" // Less than or equal
)

// FilterCondition represents a single filter condition.
type FilterCondition struct {
	Field    string   // app, message, category, source, state, persistent, age, remaining
	Operator FilterOp // Comparison operator
	Value    string   // Value to compare against

	regex       *regexp.Regexp
	severity    int
	durationVal time.Duration
	boolVal     bool
	now         time.Time
}

// FilterExpr represents a compound filter expression.
// Multiple conditions are ANDed together.
type FilterExpr struct {
	Conditions []FilterCondition
}

// FilterOptions specifies simple criteria for filtering toasts.
type FilterOptions struct {
	Category model.Category // Exact category (empty = any)
	AppName  string         // Exact app name (empty = any)
	Limit    int            // Maximum results (0 = unlimited)
}

// Filter filters toasts based on the provided options.
func Filter(views []toast.View, opts FilterOptions) []toast.View {
	result := make([]toast.View, 0, len(views))

	for _, v := range views {
		if opts.Category != "" && v.Category != opts.Category {
			continue
		}
		if opts.AppName != "" && v.AppName != opts.AppName {
			continue
		}
		result = append(result, v)
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result
}

// ParseDuration parses a duration string with extended formats.
// Supports: 500ms, 30s, 48h, 7d, 1w, and 0.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if s == "0" || s == "" {
		return 0, nil
	}

	if daysStr, found := strings.CutSuffix(s, "d"); found {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	if weeksStr, found := strings.CutSuffix(s, "w"); found {
		weeks, err := strconv.Atoi(weeksStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}

// Severity ranks categories for ordered comparisons: info < success <
// warning < error.
func Severity(c model.Category) int {
	switch c {
	case model.CategorySuccess:
		return 1
	case model.CategoryWarning:
		return 2
	case model.CategoryError:
		return 3
	default:
		return 0
	}
}

// ParseFilter parses a filter expression relative to the current time.
// Format: "field=value,field2~value2,field3>value3"
// Multiple conditions are comma-separated and ANDed together.
//
// Supported fields: app, message, category, source, state, persistent, age, remaining
// Supported operators: = (equal), != (not equal), ~ (contains), ~= (regex), >, <, >=, <=
//
// Examples:
//   - "app=make" - exact app name match
//   - "message~failed" - message contains "failed"
//   - "category>=warning" - warnings and errors
//   - "state=paused" - countdowns held by focus
//   - "remaining<2s" - toasts about to expire
//   - "age<1m" - toasts added in the last minute
func ParseFilter(expr string) (*FilterExpr, error) {
	return ParseFilterAt(expr, time.Now())
}

// ParseFilterAt parses a filter expression, measuring age against now.
func ParseFilterAt(expr string, now time.Time) (*FilterExpr, error) {
	filter := &FilterExpr{}
	if expr == "" {
		return filter, nil
	}

	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		cond, err := parseCondition(part, now)
		if err != nil {
			return nil, err
		}
		filter.Conditions = append(filter.Conditions, cond)
	}

	return filter, nil
}

// parseCondition parses a single condition like "app=make" or "message~error".
func parseCondition(s string, now time.Time) (FilterCondition, error) {
	// Longest operators first so "!=" is not read as "=".
	operators := []FilterOp{
		FilterOpNotEqual,
		FilterOpGreaterEq,
		FilterOpLessEq,
		FilterOpRegex,
		FilterOpEqual,
		FilterOpContains,
		FilterOpGreater,
		FilterOpLess,
	}

	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx > 0 {
			cond := FilterCondition{
				Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
				Operator: op,
				Value:    strings.TrimSpace(s[idx+len(op):]),
				now:      now,
			}
			if err := cond.init(); err != nil {
				return FilterCondition{}, err
			}
			return cond, nil
		}
	}

	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

// init pre-parses and validates the condition value.
func (c *FilterCondition) init() error {
	switch c.Field {
	case "app", "app_name", "appname":
		c.Field = "app"
	case "message", "msg", "body", "summary":
		c.Field = "message"
	case "source", "src":
		c.Field = "source"
	case "state", "status":
		c.Field = "state"
	case "category", "cat":
		c.Field = "category"
		c.severity = Severity(model.ParseCategory(c.Value))
	case "persistent", "sticky":
		c.Field = "persistent"
		c.boolVal = parseBool(c.Value)
	case "age", "created":
		c.Field = "age"
		d, err := ParseDuration(c.Value)
		if err != nil {
			return fmt.Errorf("invalid age value: %w", err)
		}
		c.durationVal = d
	case "remaining", "left":
		c.Field = "remaining"
		d, err := ParseDuration(c.Value)
		if err != nil {
			return fmt.Errorf("invalid remaining value: %w", err)
		}
		c.durationVal = d
	default:
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}

	if c.Operator == FilterOpRegex {
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		c.regex = re
	}

	return nil
}

// parseBool parses various boolean representations.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y", "t":
		return true
	default:
		return false
	}
}

// Match tests if a toast matches the filter expression.
// All conditions must match (AND logic).
func (f *FilterExpr) Match(v toast.View) bool {
	for _, cond := range f.Conditions {
		if !cond.Match(v) {
			return false
		}
	}
	return true
}

// Match tests if a toast matches this single condition.
func (c *FilterCondition) Match(v toast.View) bool {
	switch c.Field {
	case "app":
		return c.matchString(v.AppName)
	case "message":
		return c.matchString(v.Message)
	case "source":
		return c.matchString(v.Source)
	case "state":
		return c.matchString(v.State.String())
	case "category":
		if c.Operator == FilterOpContains || c.Operator == FilterOpRegex {
			return c.matchString(string(v.Category))
		}
		return c.matchInt(Severity(v.Category), c.severity)
	case "persistent":
		return c.matchBool(v.Persistent())
	case "age":
		return c.matchDuration(c.now.Sub(v.CreatedAt))
	case "remaining":
		if v.Persistent() {
			return false
		}
		return c.matchDuration(v.Remaining)
	default:
		return false
	}
}

// matchString matches a string field.
func (c *FilterCondition) matchString(fieldValue string) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.Value
	case FilterOpNotEqual:
		return fieldValue != c.Value
	case FilterOpContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(c.Value))
	case FilterOpRegex:
		return c.regex != nil && c.regex.MatchString(fieldValue)
	default:
		return false
	}
}

// matchInt matches an integer field with numeric comparison.
func (c *FilterCondition) matchInt(fieldValue, condValue int) bool {
	return c.matchInt64(int64(fieldValue), int64(condValue))
}

// matchBool matches a boolean field.
func (c *FilterCondition) matchBool(fieldValue bool) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.boolVal
	case FilterOpNotEqual:
		return fieldValue != c.boolVal
	default:
		return false
	}
}

// matchDuration matches a duration field.
func (c *FilterCondition) matchDuration(fieldValue time.Duration) bool {
	return c.matchInt64(int64(fieldValue), int64(c.durationVal))
}

func (c *FilterCondition) matchInt64(fieldValue, condValue int64) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == condValue
	case FilterOpNotEqual:
		return fieldValue != condValue
	case FilterOpGreater:
		return fieldValue > condValue
	case FilterOpLess:
		return fieldValue < condValue
	case FilterOpGreaterEq:
		return fieldValue >= condValue
	case FilterOpLessEq:
		return fieldValue <= condValue
	default:
		return false
	}
}

// FilterWithExpr filters toasts using a filter expression.
func FilterWithExpr(views []toast.View, expr *FilterExpr) []toast.View {
	if expr == nil || len(expr.Conditions) == 0 {
		return views
	}

	result := make([]toast.View, 0, len(views))
	for _, v := range views {
		if expr.Match(v) {
			result = append(result, v)
		}
	}
	return result
}
