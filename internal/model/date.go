package model

import (
	"fmt"
	"strings"
	"time"

	"todoshare/internal/apperr"
)

// DateLayout is the due date format accepted on input and shown on output.
const DateLayout = "2006-01-02"

// ParseDate parses a due date given as YYYY-MM-DD or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, apperr.Validation("dueDate", fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", s))
}
