package asc

import (
	"strings"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/shopspring/decimal"
)

// Message is the decoded payload of a MSG line. The set of implementations
// is closed.
type Message interface {
	message()
}

// TrialID opens a trial.
type TrialID struct {
	ID uint32
}

// TrialResult closes a trial with a result code.
type TrialResult struct {
	Code uint32
}

// RecordingConfig is the RECCFG message.
type RecordingConfig struct {
	TrackingMode TrackingMode
	SamplingRate decimal.Decimal
	FileFilter   FilterType
	LinkFilter   FilterType
	Eyes         EyeSpecification
}

// MountConfig is the ELCLCFG message.
type MountConfig struct {
	Mount MountConfiguration
}

// GazeCoords are the bounds of the gaze coordinate space.
type GazeCoords struct {
	Left, Top, Right, Bottom decimal.Decimal
}

// ThresholdSpec holds the pupil and corneal reflection thresholds of one eye.
type ThresholdSpec struct {
	Pupil uint32
	CR    uint32
}

// Thresholds is the THRESHOLDS message.
type Thresholds struct {
	Left  ThresholdSpec
	Right ThresholdSpec
}

// ProcessingAlgorithm is the ELCL_PROC message.
type ProcessingAlgorithm struct {
	Algorithm TrackingAlgorithm
}

// PCRParameter is the ELCL_PCR_PARAM message.
type PCRParameter struct {
	Index uint32
	Value decimal.Decimal
}

// CameraFocalLength is the CAMERA_LENS_FOCAL_LENGTH message.
type CameraFocalLength struct {
	Value decimal.Decimal
}

// WindowSizes is the ELCL_WINDOW_SIZES message.
type WindowSizes struct {
	Sizes [4]uint32
}

// PupilDataType is the PUPIL_DATA_TYPE message.
type PupilDataType struct {
	Name string
}

// TrialVarLabels names the per-trial variables.
type TrialVarLabels struct {
	Labels []string
}

// TrialVarGrouping lists the variables trials are grouped by.
type TrialVarGrouping struct {
	Groups []string
}

// TrialVarData holds the values of the per-trial variables.
type TrialVarData struct {
	Values []string
}

// Target is one entry of a TARGET_POS message.
type Target struct {
	Name        string
	Position    [2]int32
	Visible     bool
	Interpolate bool
}

// TargetPositions reports the positions of one or two targets.
type TargetPositions struct {
	Targets []Target
}

// TrialDataOther is a "!V" message with an unrecognised command.
type TrialDataOther struct {
	Raw string
}

// RawEye is one eye's block of a raw sample message.
type RawEye struct {
	PupilPosX  decimal.Decimal
	PupilPosY  decimal.Decimal
	PupilArea  decimal.Decimal
	PupilSizeX decimal.Decimal
	PupilSizeY decimal.Decimal
	CRPosX     decimal.Decimal
	CRPosY     decimal.Decimal
	CRArea     decimal.Decimal
}

// RawData is an unsmoothed binocular sample.
type RawData struct {
	Time  decimal.Decimal
	Left  RawEye
	Right RawEye
}

// CameraFrame is the CAM_FRAME message.
type CameraFrame struct {
	Version     experiment.CameraFrameVersion
	Name        string
	Index       uint32
	CamTime     uint64
	SysTime     uint64
	ProcessTime decimal.Decimal
	EyelinkTime *decimal.Decimal
}

// OtherMessage is a message with no recognised keyword.
type OtherMessage struct {
	Raw string
}

func (TrialID) message()             {}
func (TrialResult) message()         {}
func (RecordingConfig) message()     {}
func (MountConfig) message()         {}
func (GazeCoords) message()          {}
func (Thresholds) message()          {}
func (ProcessingAlgorithm) message() {}
func (PCRParameter) message()        {}
func (CameraFocalLength) message()   {}
func (WindowSizes) message()         {}
func (PupilDataType) message()       {}
func (TrialVarLabels) message()      {}
func (TrialVarGrouping) message()    {}
func (TrialVarData) message()        {}
func (TargetPositions) message()     {}
func (TrialDataOther) message()      {}
func (RawData) message()             {}
func (CameraFrame) message()         {}
func (OtherMessage) message()        {}

// ClassifyMessage decodes the payload of a MSG line, i.e. everything after
// the message timestamp.
func ClassifyMessage(payload string) (Message, error) {
	parts := strings.Fields(payload)
	if len(parts) == 0 {
		return OtherMessage{Raw: payload}, nil
	}

	switch kw := parts[0]; kw {
	case "TRIALID":
		if len(parts) < 2 {
			return nil, tooFewTokens(kw, 2, len(parts))
		}
		id, err := ParseUint32(parts[1])
		if err != nil {
			return nil, err
		}
		return TrialID{ID: id}, nil

	case "TRIAL_RESULT":
		if len(parts) < 2 {
			return nil, tooFewTokens(kw, 2, len(parts))
		}
		code, err := ParseUint32(parts[1])
		if err != nil {
			return nil, err
		}
		return TrialResult{Code: code}, nil

	case "RECCFG":
		return parseRecordingConfig(parts)

	case "ELCLCFG":
		if len(parts) < 2 {
			return nil, tooFewTokens(kw, 2, len(parts))
		}
		m, err := ParseMountConfiguration(parts[1])
		if err != nil {
			return nil, err
		}
		return MountConfig{Mount: m}, nil

	case "GAZE_COORDS":
		if len(parts) < 5 {
			return nil, tooFewTokens(kw, 5, len(parts))
		}
		var v [4]decimal.Decimal
		for i := range v {
			d, err := ParseDecimal(parts[i+1])
			if err != nil {
				return nil, err
			}
			v[i] = d
		}
		return GazeCoords{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}, nil

	case "THRESHOLDS":
		return parseThresholds(parts)

	case "ELCL_PROC":
		if len(parts) < 2 {
			return nil, tooFewTokens(kw, 2, len(parts))
		}
		a, err := ParseTrackingAlgorithm(parts[1])
		if err != nil {
			return nil, err
		}
		return ProcessingAlgorithm{Algorithm: a}, nil

	case "ELCL_PCR_PARAM":
		if len(parts) < 3 {
			return nil, tooFewTokens(kw, 3, len(parts))
		}
		idx, err := ParseUint32(parts[1])
		if err != nil {
			return nil, err
		}
		val, err := ParseDecimal(parts[2])
		if err != nil {
			return nil, err
		}
		return PCRParameter{Index: idx, Value: val}, nil

	case "CAMERA_LENS_FOCAL_LENGTH":
		if len(parts) < 2 {
			return nil, tooFewTokens(kw, 2, len(parts))
		}
		v, err := ParseDecimal(parts[1])
		if err != nil {
			return nil, err
		}
		return CameraFocalLength{Value: v}, nil

	case "ELCL_WINDOW_SIZES":
		if len(parts) < 5 {
			return nil, tooFewTokens(kw, 5, len(parts))
		}
		var ws WindowSizes
		for i := range ws.Sizes {
			v, err := ParseUint32(parts[i+1])
			if err != nil {
				return nil, err
			}
			ws.Sizes[i] = v
		}
		return ws, nil

	case "PUPIL_DATA_TYPE":
		if len(parts) < 2 {
			return nil, tooFewTokens(kw, 2, len(parts))
		}
		return PupilDataType{Name: parts[1]}, nil

	case "TRIAL_VAR_LABELS":
		return TrialVarLabels{Labels: cloneTokens(parts[1:])}, nil

	case "TRIAL_VAR_GROUPING":
		return TrialVarGrouping{Groups: cloneTokens(parts[1:])}, nil

	case "!V":
		return parseTrialData(rest(payload, 1), parts[1:])

	case "L":
		return parseRawData(parts)

	case "CAM_FRAME":
		return parseCameraFrame(parts)

	default:
		return OtherMessage{Raw: payload}, nil
	}
}

func parseRecordingConfig(parts []string) (Message, error) {
	if len(parts) < 6 {
		return nil, tooFewTokens(parts[0], 6, len(parts))
	}
	mode, err := ParseTrackingMode(parts[1])
	if err != nil {
		return nil, err
	}
	rate, err := ParseDecimal(parts[2])
	if err != nil {
		return nil, err
	}
	fileFilter, err := ParseFilterType(parts[3])
	if err != nil {
		return nil, err
	}
	linkFilter, err := ParseFilterType(parts[4])
	if err != nil {
		return nil, err
	}
	eyes, err := ParseEyeSpecification(parts[5])
	if err != nil {
		return nil, err
	}
	return RecordingConfig{
		TrackingMode: mode,
		SamplingRate: rate,
		FileFilter:   fileFilter,
		LinkFilter:   linkFilter,
		Eyes:         eyes,
	}, nil
}

// parseThresholds decodes "THRESHOLDS L <pupil> <cr> R <pupil> <cr>".
func parseThresholds(parts []string) (Message, error) {
	if len(parts) < 7 {
		return nil, tooFewTokens(parts[0], 7, len(parts))
	}
	var vals [4]uint32
	for i, pos := range []int{2, 3, 5, 6} {
		v, err := ParseUint32(parts[pos])
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return Thresholds{
		Left:  ThresholdSpec{Pupil: vals[0], CR: vals[1]},
		Right: ThresholdSpec{Pupil: vals[2], CR: vals[3]},
	}, nil
}

// targetFields is the width of one target group in a TARGET_POS message.
const targetFields = 5

func parseTrialData(raw string, parts []string) (Message, error) {
	if len(parts) == 0 {
		return TrialDataOther{Raw: raw}, nil
	}
	switch parts[0] {
	case "TRIAL_VAR_DATA":
		return TrialVarData{Values: cloneTokens(parts[1:])}, nil
	case "TARGET_POS":
		groups := parts[1:]
		if len(groups) < targetFields {
			return nil, tooFewTokens("TARGET_POS", targetFields+1, len(parts))
		}
		n := 1
		if len(groups) >= 2*targetFields {
			n = 2
		}
		targets := make([]Target, 0, n)
		for i := 0; i < n; i++ {
			tgt, err := parseTarget(groups[i*targetFields : (i+1)*targetFields])
			if err != nil {
				return nil, err
			}
			targets = append(targets, tgt)
		}
		return TargetPositions{Targets: targets}, nil
	default:
		return TrialDataOther{Raw: raw}, nil
	}
}

// parseTarget decodes "<name> (<x>, <y>) <visible> <interpolate>".
func parseTarget(group []string) (Target, error) {
	x, err := ParseInt32(strings.TrimRight(strings.TrimLeft(group[1], "("), ","))
	if err != nil {
		return Target{}, err
	}
	y, err := ParseInt32(strings.TrimRight(group[2], ")"))
	if err != nil {
		return Target{}, err
	}
	visible, err := ParseInt32(group[3])
	if err != nil {
		return Target{}, err
	}
	interpolate, err := ParseInt32(group[4])
	if err != nil {
		return Target{}, err
	}
	return Target{
		Name:        group[0],
		Position:    [2]int32{x, y},
		Visible:     visible == 1,
		Interpolate: interpolate == 1,
	}, nil
}

// rawEyeFields is the width of one eye block in a raw sample message.
const rawEyeFields = 8

// parseRawData decodes "L <time> <8 left fields> <sep> <8 right fields>".
func parseRawData(parts []string) (Message, error) {
	const want = 2 + rawEyeFields + 1 + rawEyeFields
	if len(parts) < want {
		return nil, tooFewTokens("L", want, len(parts))
	}
	t, err := parseTimestamp(parts[1])
	if err != nil {
		return nil, err
	}
	left, err := parseRawEye(parts[2 : 2+rawEyeFields])
	if err != nil {
		return nil, err
	}
	right, err := parseRawEye(parts[3+rawEyeFields : 3+2*rawEyeFields])
	if err != nil {
		return nil, err
	}
	return RawData{Time: t, Left: left, Right: right}, nil
}

func parseRawEye(f []string) (RawEye, error) {
	var v [rawEyeFields]decimal.Decimal
	for i := range v {
		d, err := ParseDecimal(f[i])
		if err != nil {
			return RawEye{}, err
		}
		v[i] = d
	}
	return RawEye{
		PupilPosX:  v[0],
		PupilPosY:  v[1],
		PupilArea:  v[2],
		PupilSizeX: v[3],
		PupilSizeY: v[4],
		CRPosX:     v[5],
		CRPosY:     v[6],
		CRArea:     v[7],
	}, nil
}

// parseCameraFrame decodes
//
//	CAM_FRAME [V2] <name> <index> <cam time> <sys time> <process time> [<eyelink time>]
//
// The eyelink time is mandatory once the V2 marker is present.
func parseCameraFrame(parts []string) (Message, error) {
	fields := parts[1:]
	version := experiment.CameraFrameV1
	if len(fields) > 0 && fields[0] == "V2" {
		version = experiment.CameraFrameV2
		fields = fields[1:]
	}
	want := 5
	if version == experiment.CameraFrameV2 {
		want = 6
	}
	if len(fields) < want {
		return nil, tooFewTokens("CAM_FRAME", len(parts)-len(fields)+want, len(parts))
	}

	idx, err := ParseUint32(fields[1])
	if err != nil {
		return nil, err
	}
	camTime, err := ParseUint64(fields[2])
	if err != nil {
		return nil, err
	}
	sysTime, err := ParseUint64(fields[3])
	if err != nil {
		return nil, err
	}
	process, err := ParseDecimal(fields[4])
	if err != nil {
		return nil, err
	}
	frame := CameraFrame{
		Version:     version,
		Name:        fields[0],
		Index:       idx,
		CamTime:     camTime,
		SysTime:     sysTime,
		ProcessTime: process,
	}
	if len(fields) > 5 {
		el, err := ParseDecimal(fields[5])
		if err != nil {
			return nil, err
		}
		frame.EyelinkTime = &el
	}
	return frame, nil
}

func cloneTokens(parts []string) []string {
	out := make([]string, len(parts))
	copy(out, parts)
	return out
}
