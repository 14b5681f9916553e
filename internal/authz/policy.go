// Package authz decides which catalog categories a caller may browse.
package authz

import (
	"github.com/blakestevenson/marquee/internal/auth"
	"github.com/blakestevenson/marquee/internal/catalog"
)

// Decision is the outcome of an authorization check
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// restricted lists categories that need a signed-in subject, for every media type
var restricted = map[catalog.Category]bool{
	catalog.CategoryTopRated: true,
}

// Authorize returns Allow unless the category is restricted and state is anonymous
func Authorize(category catalog.Category, state auth.State) Decision {
	if restricted[category] && !state.IsAuthenticated() {
		return Deny
	}
	return Allow
}
