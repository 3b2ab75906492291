// Package asc decodes the line-oriented plaintext export of the eye tracker.
//
// Each line is classified on its own into an Element; MSG lines carry a
// payload that is further decoded into a Message. Classification is pure,
// so lines may be decoded concurrently and reassembled in order by the
// caller.
package asc

import (
	"time"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/shopspring/decimal"
)

// Element is one classified line. The set of implementations is closed.
type Element interface {
	element()
}

// PreambleKind distinguishes the shapes of a "**" header line.
type PreambleKind int

const (
	PreambleEmpty PreambleKind = iota
	PreambleDate
	PreambleText
)

// Preamble is a "**" header line.
type Preamble struct {
	Kind PreambleKind
	Date time.Time
	// Text is the line after the marker, verbatim.
	Text string
}

// Msg is a timestamped message line.
type Msg struct {
	Time    decimal.Decimal
	Message Message
}

// Comment is a line starting with "#", ";" or "//".
type Comment struct {
	Text string
}

// Other is a line with no recognised keyword and no leading timestamp.
type Other struct {
	Raw string
}

// Blank is a line without tokens.
type Blank struct{}

// Input is a change on the tracker's digital input port.
type Input struct {
	Time  decimal.Decimal
	Value uint32
}

// Sample is a filtered sample line. Absent fields are nil.
type Sample struct {
	Time           decimal.Decimal
	LeftPosX       *decimal.Decimal
	LeftPosY       *decimal.Decimal
	LeftArea       *decimal.Decimal
	RightPosX      *decimal.Decimal
	RightPosY      *decimal.Decimal
	RightArea      *decimal.Decimal
	LeftVelocityX  *decimal.Decimal
	LeftVelocityY  *decimal.Decimal
	RightVelocityX *decimal.Decimal
	RightVelocityY *decimal.Decimal
	ResX           *decimal.Decimal
	ResY           *decimal.Decimal
	Unknown        *decimal.Decimal

	Interpolated      bool
	LeftCRMissing     bool
	LeftCRRecovering  bool
	RightCRMissing    bool
	RightCRRecovering bool
}

// StartBlock opens a recording block.
type StartBlock struct {
	Time    decimal.Decimal
	Left    bool
	Right   bool
	Samples bool
	Events  bool
}

// EndBlock closes a recording block.
type EndBlock struct {
	Time       decimal.Decimal
	Samples    bool
	Events     bool
	Resolution *experiment.Vector
}

// FixationStart marks the onset of a fixation.
type FixationStart struct {
	Eye  experiment.Eye
	Time decimal.Decimal
}

// FixationEnd reports a completed fixation.
type FixationEnd struct {
	Eye              experiment.Eye
	StartTime        decimal.Decimal
	EndTime          decimal.Decimal
	Duration         decimal.Decimal
	AveragePosX      decimal.Decimal
	AveragePosY      decimal.Decimal
	AveragePupilSize decimal.Decimal
	ResX             decimal.Decimal
	ResY             decimal.Decimal
}

// SaccadeStart marks the onset of a saccade.
type SaccadeStart struct {
	Eye  experiment.Eye
	Time decimal.Decimal
}

// SaccadeEnd reports a completed saccade.
type SaccadeEnd struct {
	Eye           experiment.Eye
	StartTime     decimal.Decimal
	EndTime       decimal.Decimal
	Duration      decimal.Decimal
	StartPosX     *decimal.Decimal
	StartPosY     *decimal.Decimal
	EndPosX       *decimal.Decimal
	EndPosY       *decimal.Decimal
	MovementAngle *decimal.Decimal
	PeakVelocity  decimal.Decimal
	ResX          decimal.Decimal
	ResY          decimal.Decimal
}

// BlinkStart marks the onset of a blink.
type BlinkStart struct {
	Eye  experiment.Eye
	Time decimal.Decimal
}

// BlinkEnd reports a completed blink.
type BlinkEnd struct {
	Eye       experiment.Eye
	StartTime decimal.Decimal
	EndTime   decimal.Decimal
	Duration  decimal.Decimal
}

// PrescalerPosition is the position prescaler of the recording.
type PrescalerPosition struct {
	Value decimal.Decimal
}

// PrescalerVelocity is the velocity prescaler of the recording.
type PrescalerVelocity struct {
	Value decimal.Decimal
}

// DataType is the coordinate space of recorded data.
type DataType int

const (
	DataGaze DataType = iota
	DataHref
	DataPupil
)

// DataOptions are the settings shared by EVENTS and SAMPLES lines.
type DataOptions struct {
	Res      bool
	Rate     decimal.Decimal
	Tracking TrackingMode
	Filter   FilterType
}

// EventSpec describes what the event stream contains.
type EventSpec struct {
	DataType DataType
	Left     bool
	Right    bool
	Options  DataOptions
}

// SampleSpec describes what the sample stream contains.
type SampleSpec struct {
	DataType DataType
	Left     bool
	Right    bool
	Velocity bool
	Options  DataOptions
}

func (Preamble) element()          {}
func (Msg) element()               {}
func (Comment) element()           {}
func (Other) element()             {}
func (Blank) element()             {}
func (Input) element()             {}
func (Sample) element()            {}
func (StartBlock) element()        {}
func (EndBlock) element()          {}
func (FixationStart) element()     {}
func (FixationEnd) element()       {}
func (SaccadeStart) element()      {}
func (SaccadeEnd) element()        {}
func (BlinkStart) element()        {}
func (BlinkEnd) element()          {}
func (PrescalerPosition) element() {}
func (PrescalerVelocity) element() {}
func (EventSpec) element()         {}
func (SampleSpec) element()        {}
