package event

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mwieland/terminus/internal/model"
)

// validate checks the draft rules in order; the first violation determines
// the reported kind. Rules are re-checked on every mutating call, so an
// update cannot move an event into the past either.
func validate(d model.Draft, now time.Time) error {
	title := strings.TrimSpace(d.Title)
	if title == "" || utf8.RuneCountInString(title) > model.MaxTitleLength {
		return &model.ValidationError{
			Kind:    model.KindTitleInvalid,
			Message: fmt.Sprintf("title must be non-empty and at most %d characters", model.MaxTitleLength),
		}
	}

	if utf8.RuneCountInString(d.Description) > model.MaxDescriptionLength {
		return &model.ValidationError{
			Kind:    model.KindDescriptionTooLong,
			Message: fmt.Sprintf("description must be at most %d characters", model.MaxDescriptionLength),
		}
	}

	if d.StartDate.IsZero() || !d.StartDate.After(now) {
		return &model.ValidationError{
			Kind:    model.KindStartInvalid,
			Message: "start date must be a valid instant in the future",
		}
	}

	if d.EndDate != nil && (d.EndDate.IsZero() || !d.EndDate.After(d.StartDate)) {
		return &model.ValidationError{
			Kind:    model.KindEndInvalid,
			Message: "end date must be after the start date",
		}
	}

	return nil
}
