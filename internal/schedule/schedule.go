// Package schedule evaluates sets of five-field cron expressions in UTC.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrEmptySchedule = errors.New("schedule: no cron expressions")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Schedule fires whenever any of its expressions fires. It satisfies
// cron.Schedule so it can be registered on a cron.Cron directly.
type Schedule struct {
	exprs []string
	specs []cron.Schedule
}

var _ cron.Schedule = (*Schedule)(nil)

func Parse(exprs ...string) (*Schedule, error) {
	if len(exprs) == 0 {
		return nil, ErrEmptySchedule
	}

	s := &Schedule{}
	for _, expr := range exprs {
		expr = strings.TrimSpace(expr)
		if strings.HasPrefix(expr, "@") || strings.Contains(expr, "TZ=") {
			return nil, fmt.Errorf("schedule: %q: only five-field expressions are supported", expr)
		}
		spec, err := parser.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("schedule: %q: %w", expr, err)
		}
		s.exprs = append(s.exprs, expr)
		s.specs = append(s.specs, spec)
	}
	return s, nil
}

func MustParse(exprs ...string) *Schedule {
	s, err := Parse(exprs...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schedule) Expressions() []string {
	out := make([]string, len(s.exprs))
	copy(out, s.exprs)
	return out
}

func (s *Schedule) String() string {
	return strings.Join(s.exprs, " | ")
}

// Next returns the earliest firing instant strictly after t, in UTC. It returns
// the zero time when no expression fires within the cron search horizon.
func (s *Schedule) Next(t time.Time) time.Time {
	utc := t.UTC()
	var next time.Time
	for _, spec := range s.specs {
		candidate := spec.Next(utc)
		if candidate.IsZero() {
			continue
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}

// Matches reports whether the minute containing t is a firing instant.
func (s *Schedule) Matches(t time.Time) bool {
	minute := t.UTC().Truncate(time.Minute)
	return s.Next(minute.Add(-time.Second)).Equal(minute)
}

// Upcoming lists the next n firing instants after from. It is nil for n <= 0.
func (s *Schedule) Upcoming(from time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	t := from
	for len(out) < n {
		t = s.Next(t)
		if t.IsZero() {
			break
		}
		out = append(out, t)
	}
	return out
}
