package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var communityNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{2,32}$`)

// Names that would shadow routes or read as system accounts.
var reservedCommunityNames = map[string]struct{}{
	"admin":       {},
	"api":         {},
	"auth":        {},
	"batch":       {},
	"communities": {},
	"comments":    {},
	"health":      {},
	"metrics":     {},
	"posts":       {},
	"swagger":     {},
	"users":       {},
}

// ValidateCommunityName validates community name format and reserved names.
// Names are case-sensitive but reserved words are matched case-insensitively.
func ValidateCommunityName(name string) error {
	if !communityNameRegex.MatchString(name) {
		return fmt.Errorf("name must be 2-32 characters and contain only letters, numbers, underscores, and hyphens")
	}

	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return fmt.Errorf("name cannot start or end with a hyphen")
	}

	if IsNumericRef(name) {
		return fmt.Errorf("name must contain at least one non-digit character")
	}

	if _, exists := reservedCommunityNames[strings.ToLower(name)]; exists {
		return fmt.Errorf("name is reserved")
	}

	return nil
}
