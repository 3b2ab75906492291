// Package experiment defines the in-memory record of an eye-tracking
// recording session: trials and everything observed inside them.
//
// Values in this package are produced once by the ingest builder and are
// treated as read-only afterwards. Fixed-point quantities (timestamps,
// positions, areas) are held as decimal.Decimal so that the text of the
// export survives conversion exactly.
package experiment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vector is a 2D quantity: a screen position, a velocity or a resolution.
type Vector [2]decimal.Decimal

// NewVector builds a Vector from its components.
func NewVector(x, y decimal.Decimal) Vector {
	return Vector{x, y}
}

// OptionalVector returns a Vector when both components are present and nil
// otherwise.
func OptionalVector(x, y *decimal.Decimal) *Vector {
	if x == nil || y == nil {
		return nil
	}
	v := Vector{*x, *y}
	return &v
}

// X returns the first component.
func (v Vector) X() decimal.Decimal { return v[0] }

// Y returns the second component.
func (v Vector) Y() decimal.Decimal { return v[1] }

// Experiment is the root of a parsed recording.
type Experiment struct {
	Meta MetaData `json:"meta"`
	// VariableLabels names the per-trial variables, positionally aligned
	// with Trial.Variables.
	VariableLabels []string `json:"variable_labels"`
	Trials         []Trial  `json:"trials"`
}

// MetaData holds the preamble of the export.
type MetaData struct {
	RecordingTime time.Time `json:"recording_time"`
	PreambleLines []string  `json:"preamble_lines"`
}

// Trial is one bounded recording interval.
type Trial struct {
	ID           uint32                  `json:"id"`
	Time         TimeRecord              `json:"time"`
	Samples      []Sample                `json:"samples"`
	RawSamples   []RawSample             `json:"raw_samples"`
	Events       []EventRecord           `json:"events"`
	CameraFrames []CameraFrame           `json:"camera_frames"`
	Variables    []string                `json:"variables"`
	Targets      map[string][]TargetInfo `json:"targets"`
}

// NewTrial returns an empty trial opened at start. The end time stays zero
// until a result message closes it.
func NewTrial(id uint32, start decimal.Decimal) Trial {
	return Trial{
		ID:      id,
		Time:    TimeRecord{Start: start},
		Targets: make(map[string][]TargetInfo),
	}
}

// AddTarget appends a reported position to the named target's history.
func (t *Trial) AddTarget(name string, info TargetInfo) {
	if t.Targets == nil {
		t.Targets = make(map[string][]TargetInfo)
	}
	t.Targets[name] = append(t.Targets[name], info)
}

// Variable returns the value of the labelled trial variable.
func (t *Trial) Variable(labels []string, name string) (string, bool) {
	for i, l := range labels {
		if l == name && i < len(t.Variables) {
			return t.Variables[i], true
		}
	}
	return "", false
}

// TargetInfo is one timestamped position of an on-screen target.
type TargetInfo struct {
	Time     decimal.Decimal `json:"time"`
	Position [2]int32        `json:"position"`
}

// Sample is one binocular eye-position observation.
type Sample struct {
	Time       decimal.Decimal `json:"time"`
	Left       *EyeSampleData  `json:"left"`
	Right      *EyeSampleData  `json:"right"`
	Resolution *Vector         `json:"resolution"`
}

// EyeSampleData is the filtered reading of one eye.
type EyeSampleData struct {
	Position Vector          `json:"position"`
	Area     decimal.Decimal `json:"area"`
	Velocity *Vector         `json:"velocity"`
	CR       CRStatus        `json:"cr"`
}

// NewEyeSampleData assembles one eye's reading. The eye is reported only when
// position and area are all present; a partial reading yields nil.
func NewEyeSampleData(posX, posY, area, velX, velY *decimal.Decimal, crMissing, crRecovering bool) *EyeSampleData {
	if posX == nil || posY == nil || area == nil {
		return nil
	}
	return &EyeSampleData{
		Position: Vector{*posX, *posY},
		Area:     *area,
		Velocity: OptionalVector(velX, velY),
		CR:       CRStatusFromFlags(crMissing, crRecovering),
	}
}

// RawSample is an unsmoothed sensor reading for both eyes.
type RawSample struct {
	Time  decimal.Decimal  `json:"time"`
	Left  RawEyeSampleData `json:"left"`
	Right RawEyeSampleData `json:"right"`
}

// RawEyeSampleData holds pupil and corneal reflection geometry of one eye.
type RawEyeSampleData struct {
	PupilPosition Vector          `json:"pupil_position"`
	PupilArea     decimal.Decimal `json:"pupil_area"`
	PupilSize     Vector          `json:"pupil_size"`
	CRPosition    Vector          `json:"cr_position"`
	CRArea        decimal.Decimal `json:"cr_area"`
}

// CameraFrame records the timing of one camera frame.
type CameraFrame struct {
	Name        string             `json:"name"`
	Version     CameraFrameVersion `json:"version"`
	Index       uint32             `json:"index"`
	CamTime     uint64             `json:"cam_time"`
	SysTime     uint64             `json:"sys_time"`
	ProcessTime decimal.Decimal    `json:"process_time"`
	// EyelinkTime is always set for V2 frames.
	EyelinkTime *decimal.Decimal `json:"eyelink_time"`
}

// EventRecord is a fixation, saccade or blink detected by the tracker.
type EventRecord struct {
	Eye        Eye        `json:"eye"`
	Time       TimeRecord `json:"time"`
	Resolution *Vector    `json:"resolution"`
	Info       EventInfo  `json:"info"`
}

// EventInfo is the kind-specific payload of an event. Exactly the field
// matching Kind is set; blinks carry no payload.
type EventInfo struct {
	Kind     EventKind     `json:"kind"`
	Fixation *FixationInfo `json:"fixation,omitempty"`
	Saccade  *SaccadeInfo  `json:"saccade,omitempty"`
}

// FixationInfo summarises a fixation.
type FixationInfo struct {
	AveragePosition  Vector          `json:"average_position"`
	AveragePupilArea decimal.Decimal `json:"average_pupil_area"`
}

// SaccadeInfo summarises a saccade.
type SaccadeInfo struct {
	StartPosition *Vector          `json:"start_position"`
	EndPosition   *Vector          `json:"end_position"`
	MovementAngle *decimal.Decimal `json:"movement_angle"`
	PeakVelocity  decimal.Decimal  `json:"peak_velocity"`
}

// FixationEvent wraps fixation details as an EventInfo.
func FixationEvent(f FixationInfo) EventInfo {
	return EventInfo{Kind: EventFixation, Fixation: &f}
}

// SaccadeEvent wraps saccade details as an EventInfo.
func SaccadeEvent(s SaccadeInfo) EventInfo {
	return EventInfo{Kind: EventSaccade, Saccade: &s}
}

// BlinkEvent returns the EventInfo of a blink.
func BlinkEvent() EventInfo {
	return EventInfo{Kind: EventBlink}
}

// FormatDecimal renders d keeping its scale, so "1000.0" is written back as
// "1000.0" rather than "1000".
func FormatDecimal(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
