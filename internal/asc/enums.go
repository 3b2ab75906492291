package asc

import (
	"fmt"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
)

// ParseEye decodes an "L" or "R" eye token.
func ParseEye(tok string) (experiment.Eye, error) {
	switch tok {
	case "L":
		return experiment.EyeLeft, nil
	case "R":
		return experiment.EyeRight, nil
	default:
		return 0, unknownLiteral("eye", "eye specification", tok)
	}
}

// TrackingMode is the tracking mode of a recording.
type TrackingMode int

const (
	TrackingPupil TrackingMode = iota
	TrackingCR
)

// ParseTrackingMode decodes "P" or "CR".
func ParseTrackingMode(tok string) (TrackingMode, error) {
	switch tok {
	case "P":
		return TrackingPupil, nil
	case "CR":
		return TrackingCR, nil
	default:
		return 0, unknownLiteral("tracking mode", "tracking mode", tok)
	}
}

func (m TrackingMode) String() string {
	if m == TrackingCR {
		return "CR"
	}
	return "P"
}

// FilterType is the level of the tracker's sample filter.
type FilterType int

const (
	FilterOff FilterType = iota
	FilterStandard
	FilterExtra
)

// ParseFilterType decodes "0", "1" or "2".
func ParseFilterType(tok string) (FilterType, error) {
	switch tok {
	case "0":
		return FilterOff, nil
	case "1":
		return FilterStandard, nil
	case "2":
		return FilterExtra, nil
	default:
		return 0, unknownLiteral("filter", "filter type", tok)
	}
}

// EyeSpecification lists the eyes being recorded.
type EyeSpecification int

const (
	EyesLeft EyeSpecification = iota
	EyesRight
	EyesBoth
)

// ParseEyeSpecification decodes "L", "R" or "LR".
func ParseEyeSpecification(tok string) (EyeSpecification, error) {
	switch tok {
	case "L":
		return EyesLeft, nil
	case "R":
		return EyesRight, nil
	case "LR":
		return EyesBoth, nil
	default:
		return 0, unknownLiteral("eyes", "eye specification", tok)
	}
}

// TrackingAlgorithm is the pupil detection algorithm.
type TrackingAlgorithm int

const (
	AlgorithmEllipse TrackingAlgorithm = iota
	AlgorithmCentroid
)

// ParseTrackingAlgorithm decodes "ELLIPSE" or "CENTROID".
func ParseTrackingAlgorithm(tok string) (TrackingAlgorithm, error) {
	switch tok {
	case "ELLIPSE":
		return AlgorithmEllipse, nil
	case "CENTROID":
		return AlgorithmCentroid, nil
	default:
		return 0, unknownLiteral("ELCL_PROC", "tracking algorithm", tok)
	}
}

// MountConfiguration is the physical mount of the tracker: desktop, tower,
// primate or long range, for monocular or binocular recording.
type MountConfiguration int

const (
	MountMTABLER MountConfiguration = iota
	MountBTABLER
	MountRTABLER
	MountRBTABLER
	MountAMTABLER
	MountARTABLER
	MountBTOWER
	MountTOWER
	MountMPRIM
	MountBPRIM
	MountMLRR
	MountBLRR
)

var mountNames = []string{
	MountMTABLER:  "MTABLER",
	MountBTABLER:  "BTABLER",
	MountRTABLER:  "RTABLER",
	MountRBTABLER: "RBTABLER",
	MountAMTABLER: "AMTABLER",
	MountARTABLER: "ARTABLER",
	MountBTOWER:   "BTOWER",
	MountTOWER:    "TOWER",
	MountMPRIM:    "MPRIM",
	MountBPRIM:    "BPRIM",
	MountMLRR:     "MLRR",
	MountBLRR:     "BLRR",
}

// ParseMountConfiguration decodes one of the twelve mount codes.
func ParseMountConfiguration(tok string) (MountConfiguration, error) {
	for i, n := range mountNames {
		if n == tok {
			return MountConfiguration(i), nil
		}
	}
	return 0, unknownLiteral("ELCLCFG", "mounting configuration", tok)
}

func (m MountConfiguration) String() string {
	if int(m) >= 0 && int(m) < len(mountNames) {
		return mountNames[m]
	}
	return fmt.Sprintf("MountConfiguration(%d)", int(m))
}

func parseDataType(tok string) (DataType, bool) {
	switch tok {
	case "GAZE":
		return DataGaze, true
	case "HREF":
		return DataHref, true
	case "PUPIL":
		return DataPupil, true
	default:
		return 0, false
	}
}
