package core

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jmylchreest/toastd/internal/toast"
)

// LookupByID finds a toast by its ID or a unique case-insensitive prefix
// of it. Returns nil if nothing or more than one toast matches.
func LookupByID(views []toast.View, id string) *toast.View {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return nil
	}

	var found *toast.View
	for i := range views {
		if views[i].ID == id {
			return &views[i]
		}
		if strings.HasPrefix(views[i].ID, id) {
			if found != nil {
				return nil
			}
			found = &views[i]
		}
	}
	return found
}

// LookupByIndex finds a toast by its index (1-based for user-friendliness).
// Returns nil if index is out of bounds.
func LookupByIndex(views []toast.View, index int) *toast.View {
	idx := index - 1
	if idx < 0 || idx >= len(views) {
		return nil
	}
	return &views[idx]
}

// Lookup resolves a selector that is either a 1-based index or an ID prefix.
// Selectors may carry a trailing dmenu line, as in "2 | ✓ | make | ...".
func Lookup(views []toast.View, selector string) *toast.View {
	selector = strings.TrimSpace(selector)
	if head, _, found := strings.Cut(selector, "|"); found {
		selector = strings.TrimSpace(head)
	}
	if n, err := strconv.Atoi(selector); err == nil {
		return LookupByIndex(views, n)
	}
	return LookupByID(views, selector)
}

// Search finds toasts whose message or app name contains term.
// Case-insensitive substring match.
func Search(views []toast.View, term string) []toast.View {
	if term == "" {
		return views
	}

	term = strings.ToLower(term)
	var result []toast.View

	for _, v := range views {
		if strings.Contains(strings.ToLower(v.Message), term) ||
			strings.Contains(strings.ToLower(v.AppName), term) {
			result = append(result, v)
		}
	}

	return result
}

// UniqueApps returns a sorted list of unique app names.
func UniqueApps(views []toast.View) []string {
	seen := make(map[string]bool)
	var apps []string

	for _, v := range views {
		if v.AppName != "" && !seen[v.AppName] {
			seen[v.AppName] = true
			apps = append(apps, v.AppName)
		}
	}

	sort.Slice(apps, func(i, j int) bool {
		return strings.ToLower(apps[i]) < strings.ToLower(apps[j])
	})
	return apps
}
