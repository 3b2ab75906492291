package experiment

import "fmt"

// Eye identifies which eye a record belongs to.
type Eye int

const (
	EyeLeft Eye = iota
	EyeRight
)

var eyeNames = map[Eye]string{
	EyeLeft:  "left",
	EyeRight: "right",
}

func (e Eye) String() string {
	if n, ok := eyeNames[e]; ok {
		return n
	}
	return fmt.Sprintf("Eye(%d)", int(e))
}

// MarshalText implements encoding.TextMarshaler.
func (e Eye) MarshalText() ([]byte, error) {
	n, ok := eyeNames[e]
	if !ok {
		return nil, fmt.Errorf("unknown eye %d", int(e))
	}
	return []byte(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Eye) UnmarshalText(b []byte) error {
	for k, n := range eyeNames {
		if n == string(b) {
			*e = k
			return nil
		}
	}
	return fmt.Errorf("unknown eye %q", b)
}

// CRStatus is the detection state of the corneal reflection.
type CRStatus int

const (
	CRMissing CRStatus = iota
	CRRecovering
	CRFound
)

var crNames = map[CRStatus]string{
	CRMissing:    "missing",
	CRRecovering: "recovering",
	CRFound:      "found",
}

// CRStatusFromFlags folds the two sample flags into a status. Missing wins
// over recovering.
func CRStatusFromFlags(missing, recovering bool) CRStatus {
	switch {
	case missing:
		return CRMissing
	case recovering:
		return CRRecovering
	default:
		return CRFound
	}
}

func (s CRStatus) String() string {
	if n, ok := crNames[s]; ok {
		return n
	}
	return fmt.Sprintf("CRStatus(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s CRStatus) MarshalText() ([]byte, error) {
	n, ok := crNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown cr status %d", int(s))
	}
	return []byte(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CRStatus) UnmarshalText(b []byte) error {
	for k, n := range crNames {
		if n == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown cr status %q", b)
}

// EventKind tags the payload of an EventInfo.
type EventKind int

const (
	EventFixation EventKind = iota
	EventSaccade
	EventBlink
)

var eventKindNames = map[EventKind]string{
	EventFixation: "fixation",
	EventSaccade:  "saccade",
	EventBlink:    "blink",
}

func (k EventKind) String() string {
	if n, ok := eventKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) {
	n, ok := eventKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown event kind %d", int(k))
	}
	return []byte(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EventKind) UnmarshalText(b []byte) error {
	for v, n := range eventKindNames {
		if n == string(b) {
			*k = v
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", b)
}

// CameraFrameVersion is the layout revision of a camera frame message.
type CameraFrameVersion int

const (
	// CameraFrameV1 covers messages that carry no version marker.
	CameraFrameV1 CameraFrameVersion = iota + 1
	// CameraFrameV2 is the first layout with an explicit marker and a
	// trailing tracker clock time.
	CameraFrameV2
)

var frameVersionNames = map[CameraFrameVersion]string{
	CameraFrameV1: "V1",
	CameraFrameV2: "V2",
}

func (v CameraFrameVersion) String() string {
	if n, ok := frameVersionNames[v]; ok {
		return n
	}
	return fmt.Sprintf("CameraFrameVersion(%d)", int(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v CameraFrameVersion) MarshalText() ([]byte, error) {
	n, ok := frameVersionNames[v]
	if !ok {
		return nil, fmt.Errorf("unknown camera frame version %d", int(v))
	}
	return []byte(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *CameraFrameVersion) UnmarshalText(b []byte) error {
	for k, n := range frameVersionNames {
		if n == string(b) {
			*v = k
			return nil
		}
	}
	return fmt.Errorf("unknown camera frame version %q", b)
}
