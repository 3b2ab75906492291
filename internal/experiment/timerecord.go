package experiment

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrRecordOutsideTrial is returned when a record that belongs to a trial
	// arrives before any trial has been opened.
	ErrRecordOutsideTrial = errors.New("record outside open trial")
	// ErrDurationMismatch is returned when a reported duration disagrees
	// with its start and end times.
	ErrDurationMismatch = errors.New("duration does not match start and end")
	// ErrVariableCount is returned when a trial's variable values do not
	// line up with the experiment's labels.
	ErrVariableCount = errors.New("trial variable count does not match labels")
)

// StructuralError reports a record that violates the shape of the
// experiment tree.
type StructuralError struct {
	// Record names the offending record kind, e.g. "sample".
	Record string
	Detail string
	Err    error
}

func (e *StructuralError) Error() string {
	msg := e.Err.Error()
	if e.Record != "" {
		msg = e.Record + ": " + msg
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *StructuralError) Unwrap() error { return e.Err }

// TimeRecord is the start and end of an interval.
type TimeRecord struct {
	Start decimal.Decimal `json:"start"`
	End   decimal.Decimal `json:"end"`
}

// NewTimeRecord validates that end - start equals duration.
func NewTimeRecord(start, end, duration decimal.Decimal) (TimeRecord, error) {
	if !end.Sub(start).Equal(duration) {
		return TimeRecord{}, &StructuralError{
			Record: "time record",
			Detail: fmt.Sprintf("duration %s, start %s, end %s", duration, start, end),
			Err:    ErrDurationMismatch,
		}
	}
	return TimeRecord{Start: start, End: end}, nil
}

// Duration returns End - Start.
func (r TimeRecord) Duration() decimal.Decimal {
	return r.End.Sub(r.Start)
}
