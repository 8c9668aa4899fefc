package services

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var referencePattern = regexp.MustCompile(`^https?://[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?(\.[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?)*\.[A-Za-z]{2,}(:[0-9]{1,5})?(/[^\s]*)?$`)

// ReferenceList is a list of reference URLs accepted from JSON either as an
// array of strings or as one comma-separated string. Decoding trims entries,
// drops blanks and removes duplicates, keeping first occurrence order.
// A nil ReferenceList means the field was absent.
type ReferenceList []string

// UnmarshalJSON implements json.Unmarshaler.
func (r *ReferenceList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*r = nil
	case string:
		*r = NormalizeReferences(strings.Split(v, ","))
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("references: expected string, got %T", item)
			}
			items = append(items, s)
		}
		*r = NormalizeReferences(items)
	default:
		return fmt.Errorf("references: expected array or string, got %T", raw)
	}
	return nil
}

// NormalizeReferences trims, drops blanks and de-duplicates. Never returns nil.
func NormalizeReferences(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		s := strings.TrimSpace(item)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// ValidReference reports whether s is an absolute http(s) URL with a host.
func ValidReference(s string) bool {
	if len(s) > 2048 || !referencePattern.MatchString(s) {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.Host != ""
}

// InvalidReferences returns the entries of refs that fail ValidReference.
func InvalidReferences(refs []string) []string {
	var bad []string
	for _, r := range refs {
		if !ValidReference(r) {
			bad = append(bad, r)
		}
	}
	return bad
}

func checkReferences(refs []string) error {
	if bad := InvalidReferences(refs); len(bad) > 0 {
		return &AppError{Kind: KindBadRequest, Message: "Invalid reference URLs", Invalid: bad}
	}
	return nil
}

// mergeReferences returns the union of current and added, current order first.
func mergeReferences(current, added []string) []string {
	return NormalizeReferences(append(append([]string{}, current...), added...))
}

// removeReferences returns current without any entry in removed.
func removeReferences(current, removed []string) []string {
	drop := make(map[string]bool, len(removed))
	for _, r := range removed {
		drop[r] = true
	}
	out := make([]string, 0, len(current))
	for _, r := range current {
		if !drop[r] {
			out = append(out, r)
		}
	}
	return out
}
