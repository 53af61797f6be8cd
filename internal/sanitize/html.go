package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy removes all HTML tags and attributes. Used for
	// fields that should only contain plain text (titles, locations,
	// account names).
	strictPolicy = bluemonday.StrictPolicy()

	// ugcPolicy allows safe user-generated content with basic
	// formatting. Used for event descriptions.
	ugcPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML tags and returns plain text.
func Text(input string) string {
	return strictPolicy.Sanitize(input)
}

// HTML sanitizes HTML content, allowing safe formatting tags while
// removing scripts, iframes, and event handler attributes.
func HTML(input string) string {
	return ugcPolicy.Sanitize(input)
}
