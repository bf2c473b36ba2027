package domain

import (
	"maps"
	"strconv"
)

// Profile is the signed-in customer's profile as returned by the backend.
// Only the id is interpreted; everything else is carried through.
type Profile map[string]any

// Merge returns a new profile with patch applied on top of p.
func (p Profile) Merge(patch Profile) Profile {
	out := make(Profile, len(p)+len(patch))
	maps.Copy(out, p)
	maps.Copy(out, patch)
	return out
}

// ID returns the customer id as a string, or "" when absent.
func (p Profile) ID() string {
	switch v := p["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
