package ingest

import (
	"fmt"

	"github.com/antonmeskildsen/tracker-tools/internal/asc"
	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/shopspring/decimal"
)

// Builder folds classified elements, in file order, into an Experiment.
// A Builder is not safe for concurrent use.
type Builder struct {
	exp  experiment.Experiment
	open bool
}

// NewBuilder returns a Builder with an empty experiment.
func NewBuilder() *Builder {
	return &Builder{exp: experiment.Experiment{Trials: []experiment.Trial{}}}
}

// current returns the trial records are attached to, or a StructuralError
// naming record when no trial has been opened.
func (b *Builder) current(record string) (*experiment.Trial, error) {
	if !b.open {
		return nil, &experiment.StructuralError{Record: record, Err: experiment.ErrRecordOutsideTrial}
	}
	return &b.exp.Trials[len(b.exp.Trials)-1], nil
}

// Add folds one element into the experiment.
func (b *Builder) Add(el asc.Element) error {
	switch e := el.(type) {
	case asc.Preamble:
		switch e.Kind {
		case asc.PreambleDate:
			b.exp.Meta.RecordingTime = e.Date
		case asc.PreambleText:
			b.exp.Meta.PreambleLines = append(b.exp.Meta.PreambleLines, e.Text)
		}
		return nil

	case asc.Msg:
		return b.addMessage(e.Time, e.Message)

	case asc.Sample:
		t, err := b.current("sample")
		if err != nil {
			return err
		}
		t.Samples = append(t.Samples, experiment.Sample{
			Time:       e.Time,
			Left:       experiment.NewEyeSampleData(e.LeftPosX, e.LeftPosY, e.LeftArea, e.LeftVelocityX, e.LeftVelocityY, e.LeftCRMissing, e.LeftCRRecovering),
			Right:      experiment.NewEyeSampleData(e.RightPosX, e.RightPosY, e.RightArea, e.RightVelocityX, e.RightVelocityY, e.RightCRMissing, e.RightCRRecovering),
			Resolution: experiment.OptionalVector(e.ResX, e.ResY),
		})
		return nil

	case asc.FixationEnd:
		return b.addEvent("fixation", e.Eye, e.StartTime, e.EndTime, e.Duration, e.ResX, e.ResY,
			experiment.FixationEvent(experiment.FixationInfo{
				AveragePosition:  experiment.NewVector(e.AveragePosX, e.AveragePosY),
				AveragePupilArea: e.AveragePupilSize,
			}))

	case asc.SaccadeEnd:
		return b.addEvent("saccade", e.Eye, e.StartTime, e.EndTime, e.Duration, e.ResX, e.ResY,
			experiment.SaccadeEvent(experiment.SaccadeInfo{
				StartPosition: experiment.OptionalVector(e.StartPosX, e.StartPosY),
				EndPosition:   experiment.OptionalVector(e.EndPosX, e.EndPosY),
				MovementAngle: e.MovementAngle,
				PeakVelocity:  e.PeakVelocity,
			}))

	case asc.BlinkEnd:
		t, err := b.current("blink")
		if err != nil {
			return err
		}
		tr, err := experiment.NewTimeRecord(e.StartTime, e.EndTime, e.Duration)
		if err != nil {
			return err
		}
		t.Events = append(t.Events, experiment.EventRecord{Eye: e.Eye, Time: tr, Info: experiment.BlinkEvent()})
		return nil
	}

	// Start markers, block boundaries, data specs, prescalers, inputs,
	// comments and unrecognised lines carry nothing the tree records.
	return nil
}

func (b *Builder) addEvent(record string, eye experiment.Eye, start, end, dur, resX, resY decimal.Decimal, info experiment.EventInfo) error {
	t, err := b.current(record)
	if err != nil {
		return err
	}
	tr, err := experiment.NewTimeRecord(start, end, dur)
	if err != nil {
		return err
	}
	res := experiment.NewVector(resX, resY)
	t.Events = append(t.Events, experiment.EventRecord{Eye: eye, Time: tr, Resolution: &res, Info: info})
	return nil
}

func (b *Builder) addMessage(at decimal.Decimal, msg asc.Message) error {
	switch m := msg.(type) {
	case asc.TrialID:
		b.exp.Trials = append(b.exp.Trials, experiment.NewTrial(m.ID, at))
		b.open = true

	case asc.TrialResult:
		t, err := b.current("trial result")
		if err != nil {
			return err
		}
		t.Time.End = at

	case asc.TrialVarLabels:
		b.exp.VariableLabels = m.Labels

	case asc.TrialVarData:
		t, err := b.current("trial variables")
		if err != nil {
			return err
		}
		t.Variables = m.Values

	case asc.TargetPositions:
		t, err := b.current("target position")
		if err != nil {
			return err
		}
		for _, tgt := range m.Targets {
			t.AddTarget(tgt.Name, experiment.TargetInfo{Time: at, Position: tgt.Position})
		}

	case asc.RawData:
		t, err := b.current("raw sample")
		if err != nil {
			return err
		}
		t.RawSamples = append(t.RawSamples, experiment.RawSample{
			Time:  m.Time,
			Left:  rawEye(m.Left),
			Right: rawEye(m.Right),
		})

	case asc.CameraFrame:
		t, err := b.current("camera frame")
		if err != nil {
			return err
		}
		t.CameraFrames = append(t.CameraFrames, experiment.CameraFrame{
			Name:        m.Name,
			Version:     m.Version,
			Index:       m.Index,
			CamTime:     m.CamTime,
			SysTime:     m.SysTime,
			ProcessTime: m.ProcessTime,
			EyelinkTime: m.EyelinkTime,
		})
	}
	return nil
}

func rawEye(r asc.RawEye) experiment.RawEyeSampleData {
	return experiment.RawEyeSampleData{
		PupilPosition: experiment.NewVector(r.PupilPosX, r.PupilPosY),
		PupilArea:     r.PupilArea,
		PupilSize:     experiment.NewVector(r.PupilSizeX, r.PupilSizeY),
		CRPosition:    experiment.NewVector(r.CRPosX, r.CRPosY),
		CRArea:        r.CRArea,
	}
}

// Experiment finishes the fold. It fails if any trial carries variable
// values that do not line up with the experiment's labels.
func (b *Builder) Experiment() (*experiment.Experiment, error) {
	for _, t := range b.exp.Trials {
		if t.Variables != nil && len(t.Variables) != len(b.exp.VariableLabels) {
			return nil, &experiment.StructuralError{
				Record: "trial variables",
				Detail: fmt.Sprintf("trial %d has %d values for %d labels", t.ID, len(t.Variables), len(b.exp.VariableLabels)),
				Err:    experiment.ErrVariableCount,
			}
		}
	}
	exp := b.exp
	return &exp, nil
}

// Build folds elems into an Experiment. The first failing element aborts
// the fold; its index is reported through an ElementError.
func Build(elems []asc.Element) (*experiment.Experiment, error) {
	b := NewBuilder()
	for i, el := range elems {
		if err := b.Add(el); err != nil {
			return nil, &ElementError{Index: i, Err: err}
		}
	}
	return b.Experiment()
}
