package story

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/storytrack/backend/domain"
)

// Validation collects every violated rule instead of stopping at the
// first, so one response can correct the whole request.

func requireID(fields *[]domain.FieldError, field, value string) {
	if strings.TrimSpace(value) == "" {
		*fields = append(*fields, domain.FieldError{Field: field, Message: fmt.Sprintf("%s is required", field)})
		return
	}
	if uuid.Validate(value) != nil {
		*fields = append(*fields, domain.FieldError{Field: field, Message: fmt.Sprintf("%s must be a valid UUID", field)})
	}
}

func requireTitle(fields *[]domain.FieldError, field, value string) {
	if strings.TrimSpace(value) == "" {
		*fields = append(*fields, domain.FieldError{Field: field, Message: fmt.Sprintf("%s is required", field)})
		return
	}
	if utf8.RuneCountInString(value) > domain.MaxTitleLength {
		*fields = append(*fields, domain.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be at most %d characters", field, domain.MaxTitleLength),
		})
	}
}

func boundDescription(fields *[]domain.FieldError, field, value string) {
	if utf8.RuneCountInString(value) > domain.MaxDescriptionLength {
		*fields = append(*fields, domain.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be at most %d characters", field, domain.MaxDescriptionLength),
		})
	}
}
