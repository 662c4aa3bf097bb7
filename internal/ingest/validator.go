package ingest

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/ecomsearch/product-index-pipeline/pkg/errors"
)

const (
	maxURLLength         = 2048
	maxTitleLength       = 1024
	maxDescriptionLength = 1 << 20
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// ValidatePageEvent checks that a crawled-page event carries a usable
// URL and that its text fields meet the length constraints. Invalid
// events are dropped before they reach the corpus store.
func ValidatePageEvent(ev *PageEvent) error {
	errs := make(map[string]string)

	rawURL := strings.TrimSpace(ev.URL)
	switch {
	case rawURL == "":
		errs["url"] = "url is required"
	case len(rawURL) > maxURLLength:
		errs["url"] = fmt.Sprintf("url must be at most %d characters", maxURLLength)
	default:
		if u, err := url.Parse(rawURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs["url"] = "url must be absolute"
		}
	}
	if len(ev.Title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	if len(ev.Description) > maxDescriptionLength {
		errs["description"] = fmt.Sprintf("description must be at most %d characters", maxDescriptionLength)
	}
	for i, r := range ev.ProductReviews {
		if r.Rating < 0 || r.Rating > 5 {
			errs["product_reviews"] = fmt.Sprintf("review %d rating %v outside 0-5", i, r.Rating)
			break
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
