package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/exerlog/exerlog/internal/model"
)

// LogQuery holds the optional read filters for a user's log. Nil fields
// are absent from the request.
type LogQuery struct {
	From  *time.Time
	To    *time.Time
	Limit *int
}

// HasRange reports whether a date window applies.
func (q LogQuery) HasRange() bool {
	return q.From != nil || q.To != nil
}

// ParseLogQuery parses the raw from, to and limit query values. Empty
// strings mean "absent".
func ParseLogQuery(from, to, limit string) (LogQuery, error) {
	var q LogQuery

	if s := strings.TrimSpace(limit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return LogQuery{}, fmt.Errorf("%w: limit must be a non-negative integer", ErrValidation)
		}
		q.Limit = &n
	}

	if from != "" {
		t, err := model.ParseDate(from)
		if err != nil {
			return LogQuery{}, fmt.Errorf("%w: from %q", ErrInvalidDate, from)
		}
		q.From = &t
	}

	if to != "" {
		t, err := model.ParseDate(to)
		if err != nil {
			return LogQuery{}, fmt.Errorf("%w: to %q", ErrInvalidDate, to)
		}
		q.To = &t
	}

	return q, nil
}

// ApplyLogQuery returns the filtered view of log. The limit is applied
// first as a prefix of the insertion-ordered log; the date window is then
// applied to what remains, with from defaulting to the Unix epoch and to
// defaulting to now. Both bounds are inclusive. log is never modified.
func ApplyLogQuery(log []model.Exercise, q LogQuery, now time.Time) []model.Exercise {
	out := make([]model.Exercise, len(log))
	copy(out, log)

	if q.Limit != nil {
		n := max(*q.Limit, 0)
		if n < len(out) {
			out = out[:n]
		}
	}

	if !q.HasRange() {
		return out
	}

	from := time.Unix(0, 0).UTC()
	if q.From != nil {
		from = *q.From
	}
	to := now
	if q.To != nil {
		to = *q.To
	}

	filtered := make([]model.Exercise, 0, len(out))
	for _, e := range out {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		filtered = append(filtered, e)
	}

	return filtered
}
