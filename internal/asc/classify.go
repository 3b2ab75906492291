package asc

import (
	"fmt"
	"strings"
	"time"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/shopspring/decimal"
)

// DateLayout is the layout of the "** DATE:" preamble line, after runs of
// whitespace have been collapsed.
const DateLayout = "Mon Jan 2 15:04:05 2006"

// Token counts of the fixed positional layouts.
const (
	sampleFields       = 15
	saccadeEndFields   = 13
	fixationEndFields  = 10
	blinkEndFields     = 5
	eventStartFields   = 3
	sampleOptionsWidth = 5
)

// Classify decodes a single line of the export.
func Classify(line string) (Element, error) {
	line = strings.TrimRight(line, "\r")
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Blank{}, nil
	}

	switch kw := parts[0]; kw {
	case "**":
		return parsePreamble(rest(line, 1))

	case "MSG":
		if len(parts) < 2 {
			return nil, tooFewTokens(kw, 2, len(parts))
		}
		t, err := parseTimestamp(parts[1])
		if err != nil {
			return nil, err
		}
		msg, err := ClassifyMessage(rest(line, 2))
		if err != nil {
			return nil, err
		}
		return Msg{Time: t, Message: msg}, nil

	case "#", ";", "//":
		return Comment{Text: rest(line, 1)}, nil

	case "INPUT":
		if len(parts) < 3 {
			return nil, tooFewTokens(kw, 3, len(parts))
		}
		t, err := parseTimestamp(parts[1])
		if err != nil {
			return nil, err
		}
		v, err := ParseUint32(parts[2])
		if err != nil {
			return nil, err
		}
		return Input{Time: t, Value: v}, nil

	case "SSACC", "SFIX", "SBLINK":
		return parseEventStart(parts)

	case "ESACC":
		return parseSaccadeEnd(parts)

	case "EFIX":
		return parseFixationEnd(parts)

	case "EBLINK":
		return parseBlinkEnd(parts)

	case "START":
		return parseStartBlock(parts)

	case "END":
		return parseEndBlock(parts)

	case "PRESCALER", "VPRESCALER":
		if len(parts) < 2 {
			return nil, tooFewTokens(kw, 2, len(parts))
		}
		v, err := ParseDecimal(parts[1])
		if err != nil {
			return nil, err
		}
		if kw == "PRESCALER" {
			return PrescalerPosition{Value: v}, nil
		}
		return PrescalerVelocity{Value: v}, nil

	case "EVENTS", "SAMPLES":
		if spec, ok := parseDataSpec(parts); ok {
			return spec, nil
		}
		return Other{Raw: line}, nil
	}

	t, err := ParseDecimal(parts[0])
	if err != nil {
		return Other{Raw: line}, nil
	}
	return parseSample(t, parts)
}

func parsePreamble(text string) (Element, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Preamble{Kind: PreambleEmpty}, nil
	}
	if fields[0] != "DATE:" {
		return Preamble{Kind: PreambleText, Text: text}, nil
	}
	d, err := time.Parse(DateLayout, strings.Join(fields[1:], " "))
	if err != nil {
		return nil, &GrammarError{Keyword: "DATE", Message: err.Error()}
	}
	return Preamble{Kind: PreambleDate, Date: d}, nil
}

func parseEventStart(parts []string) (Element, error) {
	if len(parts) < eventStartFields {
		return nil, tooFewTokens(parts[0], eventStartFields, len(parts))
	}
	eye, err := ParseEye(parts[1])
	if err != nil {
		return nil, err
	}
	t, err := parseTimestamp(parts[2])
	if err != nil {
		return nil, err
	}
	switch parts[0] {
	case "SSACC":
		return SaccadeStart{Eye: eye, Time: t}, nil
	case "SFIX":
		return FixationStart{Eye: eye, Time: t}, nil
	default:
		return BlinkStart{Eye: eye, Time: t}, nil
	}
}

// eventTimes decodes the eye, start, end and duration columns shared by all
// event end records.
func eventTimes(parts []string) (eye experiment.Eye, start, end, duration decimal.Decimal, err error) {
	if eye, err = ParseEye(parts[1]); err != nil {
		return
	}
	if start, err = parseTimestamp(parts[2]); err != nil {
		return
	}
	if end, err = parseTimestamp(parts[3]); err != nil {
		return
	}
	duration, err = ParseDecimal(parts[4])
	return
}

func parseSaccadeEnd(parts []string) (Element, error) {
	if len(parts) < saccadeEndFields {
		return nil, tooFewTokens(parts[0], saccadeEndFields, len(parts))
	}
	eye, start, end, dur, err := eventTimes(parts)
	if err != nil {
		return nil, err
	}
	var opt [5]*decimal.Decimal
	for i := range opt {
		if opt[i], err = ParseOptionalDecimal(parts[5+i]); err != nil {
			return nil, err
		}
	}
	var req [3]decimal.Decimal
	for i := range req {
		if req[i], err = ParseDecimal(parts[10+i]); err != nil {
			return nil, err
		}
	}
	return SaccadeEnd{
		Eye:           eye,
		StartTime:     start,
		EndTime:       end,
		Duration:      dur,
		StartPosX:     opt[0],
		StartPosY:     opt[1],
		EndPosX:       opt[2],
		EndPosY:       opt[3],
		MovementAngle: opt[4],
		PeakVelocity:  req[0],
		ResX:          req[1],
		ResY:          req[2],
	}, nil
}

func parseFixationEnd(parts []string) (Element, error) {
	if len(parts) < fixationEndFields {
		return nil, tooFewTokens(parts[0], fixationEndFields, len(parts))
	}
	eye, start, end, dur, err := eventTimes(parts)
	if err != nil {
		return nil, err
	}
	var v [5]decimal.Decimal
	for i := range v {
		if v[i], err = ParseDecimal(parts[5+i]); err != nil {
			return nil, err
		}
	}
	return FixationEnd{
		Eye:              eye,
		StartTime:        start,
		EndTime:          end,
		Duration:         dur,
		AveragePosX:      v[0],
		AveragePosY:      v[1],
		AveragePupilSize: v[2],
		ResX:             v[3],
		ResY:             v[4],
	}, nil
}

func parseBlinkEnd(parts []string) (Element, error) {
	if len(parts) < blinkEndFields {
		return nil, tooFewTokens(parts[0], blinkEndFields, len(parts))
	}
	eye, start, end, dur, err := eventTimes(parts)
	if err != nil {
		return nil, err
	}
	return BlinkEnd{Eye: eye, StartTime: start, EndTime: end, Duration: dur}, nil
}

// parseStartBlock decodes "START <time> [LEFT] [RIGHT] [SAMPLES] [EVENTS]".
func parseStartBlock(parts []string) (Element, error) {
	if len(parts) < 2 {
		return nil, tooFewTokens(parts[0], 2, len(parts))
	}
	t, err := parseTimestamp(parts[1])
	if err != nil {
		return nil, err
	}
	b := StartBlock{Time: t}
	for _, p := range parts[2:] {
		switch p {
		case "LEFT":
			b.Left = true
		case "RIGHT":
			b.Right = true
		case "SAMPLES":
			b.Samples = true
		case "EVENTS":
			b.Events = true
		}
	}
	return b, nil
}

// parseEndBlock decodes "END <time> [SAMPLES] [EVENTS] [RES <x> <y>]".
func parseEndBlock(parts []string) (Element, error) {
	if len(parts) < 2 {
		return nil, tooFewTokens(parts[0], 2, len(parts))
	}
	t, err := parseTimestamp(parts[1])
	if err != nil {
		return nil, err
	}
	b := EndBlock{Time: t}
	for i := 2; i < len(parts); i++ {
		switch parts[i] {
		case "SAMPLES":
			b.Samples = true
		case "EVENTS":
			b.Events = true
		case "RES":
			if i+2 >= len(parts) {
				return nil, tooFewTokens("END RES", i+3, len(parts))
			}
			x, err := ParseDecimal(parts[i+1])
			if err != nil {
				return nil, err
			}
			y, err := ParseDecimal(parts[i+2])
			if err != nil {
				return nil, err
			}
			res := experiment.NewVector(x, y)
			b.Resolution = &res
			i += 2
		}
	}
	return b, nil
}

// parseDataSpec decodes the EVENTS and SAMPLES header lines, e.g.
//
//	SAMPLES GAZE LEFT RIGHT VEL RES RATE 500.00 TRACKING CR FILTER 2 INPUT
//
// Flags the decoder does not know are skipped. The headers only describe
// the streams, so one without a data type or RATE, or with a value that does
// not decode, is reported as not decoded rather than failing the line.
func parseDataSpec(parts []string) (Element, bool) {
	var (
		dt               DataType
		left, right, vel bool
		opts             DataOptions
		sawType, sawRate bool
	)
	for i := 1; i < len(parts); i++ {
		p := parts[i]
		if t, ok := parseDataType(p); ok && !sawType {
			dt, sawType = t, true
			continue
		}
		switch p {
		case "LEFT":
			left = true
		case "RIGHT":
			right = true
		case "VEL":
			vel = true
		case "RES":
			opts.Res = true
		case "RATE", "TRACKING", "FILTER":
			if i+1 >= len(parts) {
				return nil, false
			}
			i++
			var err error
			switch p {
			case "RATE":
				opts.Rate, err = ParseDecimal(parts[i])
				sawRate = true
			case "TRACKING":
				opts.Tracking, err = ParseTrackingMode(parts[i])
			case "FILTER":
				opts.Filter, err = ParseFilterType(parts[i])
			}
			if err != nil {
				return nil, false
			}
		}
	}
	if !sawType || !sawRate {
		return nil, false
	}
	if parts[0] == "EVENTS" {
		return EventSpec{DataType: dt, Left: left, Right: right, Options: opts}, true
	}
	return SampleSpec{DataType: dt, Left: left, Right: right, Velocity: vel, Options: opts}, true
}

func parseSample(t decimal.Decimal, parts []string) (Element, error) {
	if len(parts) < sampleFields {
		return nil, tooFewTokens("sample", sampleFields, len(parts))
	}
	var f [13]*decimal.Decimal
	for i := range f {
		v, err := ParseOptionalDecimal(parts[1+i])
		if err != nil {
			return nil, err
		}
		f[i] = v
	}
	opts := parts[14]
	if len(opts) < sampleOptionsWidth {
		return nil, &GrammarError{
			Keyword: "sample",
			Message: fmt.Sprintf("option string %q shorter than %d characters", opts, sampleOptionsWidth),
		}
	}
	return Sample{
		Time:              t,
		LeftPosX:          f[0],
		LeftPosY:          f[1],
		LeftArea:          f[2],
		RightPosX:         f[3],
		RightPosY:         f[4],
		RightArea:         f[5],
		LeftVelocityX:     f[6],
		LeftVelocityY:     f[7],
		RightVelocityX:    f[8],
		RightVelocityY:    f[9],
		ResX:              f[10],
		ResY:              f[11],
		Unknown:           f[12],
		Interpolated:      opts[0] == 'I',
		LeftCRMissing:     opts[1] == 'C',
		LeftCRRecovering:  opts[2] == 'R',
		RightCRMissing:    opts[3] == 'C',
		RightCRRecovering: opts[4] == 'R',
	}, nil
}

// rest returns s without its first n whitespace-delimited fields and the
// single separator character following them.
func rest(s string, n int) string {
	i := 0
	for k := 0; k < n; k++ {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		for i < len(s) && !isSpace(s[i]) {
			i++
		}
	}
	if i < len(s) {
		i++
	}
	return s[i:]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
}
