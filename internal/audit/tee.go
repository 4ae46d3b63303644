package audit

import (
	"context"
	"errors"
)

type tee []Appender

// Tee appends every event to each non-nil appender in order. All appenders
// are attempted; their failures are joined.
func Tee(appenders ...Appender) Appender {
	var t tee
	for _, a := range appenders {
		if a != nil {
			t = append(t, a)
		}
	}
	if len(t) == 1 {
		return t[0]
	}
	return t
}

func (t tee) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, a := range t {
		if err := a.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
