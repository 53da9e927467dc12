package validation

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	MaxTitleLength       = 300
	MaxBodyLength        = 40000
	MaxCommentLength     = 10000
	MaxDescriptionLength = 500
	MaxURLLength         = 2048
)

var strictPolicy = bluemonday.StrictPolicy()

// StripHTML removes all markup from s and trims surrounding whitespace.
// Entities escaped by the sanitizer are unescaped again; output is JSON,
// never HTML.
func StripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// CleanText strips markup from a required field and checks its length.
func CleanText(field, s string, maxLen int) (string, error) {
	cleaned := StripHTML(s)
	if cleaned == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(cleaned) > maxLen {
		return "", fmt.Errorf("%s must not exceed %d characters", field, maxLen)
	}
	return cleaned, nil
}

// CleanOptionalText is CleanText for nullable fields. Nil stays nil and
// input that is empty after stripping becomes nil.
func CleanOptionalText(field string, s *string, maxLen int) (*string, error) {
	if s == nil {
		return nil, nil
	}
	cleaned := StripHTML(*s)
	if cleaned == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(cleaned) > maxLen {
		return nil, fmt.Errorf("%s must not exceed %d characters", field, maxLen)
	}
	return &cleaned, nil
}

// ValidateImageURL accepts absolute http(s) URLs only.
func ValidateImageURL(raw string) error {
	if len(raw) > MaxURLLength {
		return fmt.Errorf("image_url must not exceed %d characters", MaxURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("image_url must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("image_url must use http or https")
	}
	return nil
}
