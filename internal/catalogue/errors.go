package catalogue

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrReaderUnavailable is returned when no table reader handles the source format
	ErrReaderUnavailable = errors.New("no table reader available")

	// ErrMissingColumns is returned when required catalogue columns are absent
	ErrMissingColumns = errors.New("missing required column(s)")

	// ErrEmptyCatalogue is returned when the source has no header row
	ErrEmptyCatalogue = errors.New("catalogue has no header row")
)

// LoadError is fatal for a whole batch. Missing lists absent required columns.
type LoadError struct {
	Source  string
	Missing []string
	Err     error
}

func (e *LoadError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "failed to load catalogue %s", e.Source)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&sb, ": %s: %s (required: %s)", ErrMissingColumns, strings.Join(e.Missing, ", "), strings.Join(RequiredColumns, ", "))
		return sb.String()
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *LoadError) Unwrap() error {
	if len(e.Missing) > 0 {
		return ErrMissingColumns
	}
	return e.Err
}
