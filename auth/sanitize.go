package auth

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// SanitizeUsername strips HTML and surrounding whitespace from a username
// before it is validated or stored.
func SanitizeUsername(username string) string {
	return strings.TrimSpace(policy.Sanitize(username))
}
