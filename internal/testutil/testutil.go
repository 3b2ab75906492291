// Package testutil provides experiment fixtures shared by the codec, store
// and export tests.
package testutil

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DecPtr is Dec returning a pointer.
func DecPtr(s string) *decimal.Decimal {
	d := Dec(s)
	return &d
}

// Vec builds a vector from two decimal literals.
func Vec(x, y string) experiment.Vector { return experiment.NewVector(Dec(x), Dec(y)) }

// VecPtr is Vec returning a pointer.
func VecPtr(x, y string) *experiment.Vector {
	v := Vec(x, y)
	return &v
}

// SmallExperiment returns a fixed two-trial experiment covering every
// record kind, including absent optionals and a multi-target trial.
func SmallExperiment() *experiment.Experiment {
	t1 := experiment.NewTrial(1, Dec("2000"))
	t1.Time.End = Dec("2013")
	t1.Samples = []experiment.Sample{
		{
			Time: Dec("2002"),
			Left: &experiment.EyeSampleData{
				Position: Vec("512.1", "384.2"),
				Area:     Dec("1000.0"),
				Velocity: VecPtr("1.5", "-2.5"),
				CR:       experiment.CRFound,
			},
			Right: &experiment.EyeSampleData{
				Position: Vec("520.3", "390.4"),
				Area:     Dec("1010.0"),
				CR:       experiment.CRRecovering,
			},
			Resolution: VecPtr("38.5", "31.2"),
		},
		{Time: Dec("2004")},
	}
	t1.RawSamples = []experiment.RawSample{{
		Time: Dec("2006"),
		Left: experiment.RawEyeSampleData{
			PupilPosition: Vec("1", "2"), PupilArea: Dec("3"), PupilSize: Vec("4", "5"),
			CRPosition: Vec("6", "7"), CRArea: Dec("8"),
		},
		Right: experiment.RawEyeSampleData{
			PupilPosition: Vec("11", "12"), PupilArea: Dec("13"), PupilSize: Vec("14", "15"),
			CRPosition: Vec("16", "17"), CRArea: Dec("18.5"),
		},
	}}
	t1.CameraFrames = []experiment.CameraFrame{
		{Name: "left", Version: experiment.CameraFrameV1, Index: 2, CamTime: 90000, SysTime: 91000, ProcessTime: Dec("1.25")},
		{Name: "left", Version: experiment.CameraFrameV2, Index: 3, CamTime: 90002, SysTime: 91002, ProcessTime: Dec("1.5"), EyelinkTime: DecPtr("2007")},
	}
	t1.Events = []experiment.EventRecord{
		{
			Eye:        experiment.EyeLeft,
			Time:       experiment.TimeRecord{Start: Dec("2002"), End: Dec("2010")},
			Resolution: VecPtr("38.5", "31.2"),
			Info: experiment.FixationEvent(experiment.FixationInfo{
				AveragePosition:  Vec("512.3", "384.1"),
				AveragePupilArea: Dec("1024"),
			}),
		},
		{
			Eye:        experiment.EyeRight,
			Time:       experiment.TimeRecord{Start: Dec("2010"), End: Dec("2012")},
			Resolution: VecPtr("38.5", "31.2"),
			Info: experiment.SaccadeEvent(experiment.SaccadeInfo{
				StartPosition: VecPtr("100.0", "200.0"),
				PeakVelocity:  Dec("312.5"),
			}),
		},
	}
	t1.Variables = []string{"easy", "1"}
	t1.AddTarget("TARG1", experiment.TargetInfo{Time: Dec("2005"), Position: [2]int32{960, 540}})
	t1.AddTarget("TARG2", experiment.TargetInfo{Time: Dec("2005"), Position: [2]int32{-100, 200}})
	t1.AddTarget("TARG1", experiment.TargetInfo{Time: Dec("2011"), Position: [2]int32{970, 545}})

	t2 := experiment.NewTrial(2, Dec("3000"))
	t2.Time.End = Dec("3100")
	t2.Events = []experiment.EventRecord{{
		Eye:  experiment.EyeRight,
		Time: experiment.TimeRecord{Start: Dec("3001"), End: Dec("3050")},
		Info: experiment.BlinkEvent(),
	}}
	t2.Samples = []experiment.Sample{{
		Time: Dec("3082"),
		Left: &experiment.EyeSampleData{Position: Vec("0.5", "0.25"), Area: Dec("900"), CR: experiment.CRMissing},
	}}
	t2.Variables = []string{"hard", "2"}

	return &experiment.Experiment{
		Meta: experiment.MetaData{
			RecordingTime: time.Date(2023, time.March, 8, 10, 19, 51, 0, time.UTC),
			PreambleLines: []string{"CONVERTED FROM s01.edf", "TYPE: EDF_FILE"},
		},
		VariableLabels: []string{"condition", "block"},
		Trials:         []experiment.Trial{t1, t2},
	}
}

// Generator produces pseudo-random experiments from a fixed seed.
type Generator struct {
	rng *rand.Rand
	// MaxTrials and MaxRecords bound the size of generated trees.
	MaxTrials  int
	MaxRecords int
}

// NewGenerator returns a Generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), MaxTrials: 4, MaxRecords: 6}
}

func (g *Generator) decimal() decimal.Decimal {
	// Mix integers and fixed-point values with up to four decimals.
	v := g.rng.Int64N(2_000_000) - 1_000_000
	return decimal.New(v, -int32(g.rng.IntN(5)))
}

func (g *Generator) optDecimal() *decimal.Decimal {
	if g.rng.IntN(3) == 0 {
		return nil
	}
	d := g.decimal()
	return &d
}

func (g *Generator) vector() experiment.Vector { return experiment.NewVector(g.decimal(), g.decimal()) }

func (g *Generator) optVector() *experiment.Vector {
	if g.rng.IntN(3) == 0 {
		return nil
	}
	v := g.vector()
	return &v
}

func (g *Generator) timeRecord() experiment.TimeRecord {
	start := decimal.NewFromInt(g.rng.Int64N(1 << 40))
	return experiment.TimeRecord{Start: start, End: start.Add(decimal.New(g.rng.Int64N(100_000), -1))}
}

func (g *Generator) eye() *experiment.EyeSampleData {
	if g.rng.IntN(4) == 0 {
		return nil
	}
	return &experiment.EyeSampleData{
		Position: g.vector(),
		Area:     g.decimal(),
		Velocity: g.optVector(),
		CR:       experiment.CRStatus(g.rng.IntN(3)),
	}
}

func (g *Generator) rawEye() experiment.RawEyeSampleData {
	return experiment.RawEyeSampleData{
		PupilPosition: g.vector(),
		PupilArea:     g.decimal(),
		PupilSize:     g.vector(),
		CRPosition:    g.vector(),
		CRArea:        g.decimal(),
	}
}

func (g *Generator) event() experiment.EventRecord {
	ev := experiment.EventRecord{
		Eye:  experiment.Eye(g.rng.IntN(2)),
		Time: g.timeRecord(),
	}
	switch experiment.EventKind(g.rng.IntN(3)) {
	case experiment.EventFixation:
		ev.Resolution = g.optVector()
		ev.Info = experiment.FixationEvent(experiment.FixationInfo{AveragePosition: g.vector(), AveragePupilArea: g.decimal()})
	case experiment.EventSaccade:
		ev.Resolution = g.optVector()
		ev.Info = experiment.SaccadeEvent(experiment.SaccadeInfo{
			StartPosition: g.optVector(),
			EndPosition:   g.optVector(),
			MovementAngle: g.optDecimal(),
			PeakVelocity:  g.decimal(),
		})
	default:
		ev.Info = experiment.BlinkEvent()
	}
	return ev
}

func (g *Generator) frame() experiment.CameraFrame {
	f := experiment.CameraFrame{
		Name:        fmt.Sprintf("cam%d", g.rng.IntN(3)),
		Version:     experiment.CameraFrameV1,
		Index:       g.rng.Uint32(),
		CamTime:     g.rng.Uint64(),
		SysTime:     g.rng.Uint64(),
		ProcessTime: g.decimal(),
	}
	if g.rng.IntN(2) == 0 {
		f.Version = experiment.CameraFrameV2
		f.EyelinkTime = new(decimal.Decimal)
		*f.EyelinkTime = g.decimal()
	} else {
		f.EyelinkTime = g.optDecimal()
	}
	return f
}

func (g *Generator) n() int { return g.rng.IntN(g.MaxRecords + 1) }

// Experiment returns the next random experiment. Trial lists may be empty
// and every optional field is absent with some probability.
func (g *Generator) Experiment() *experiment.Experiment {
	labels := make([]string, g.rng.IntN(4))
	for i := range labels {
		labels[i] = fmt.Sprintf("var%d", i)
	}
	exp := &experiment.Experiment{
		Meta: experiment.MetaData{
			RecordingTime: time.Unix(g.rng.Int64N(2_000_000_000), 0).UTC(),
		},
		VariableLabels: labels,
		Trials:         make([]experiment.Trial, g.rng.IntN(g.MaxTrials+1)),
	}
	for i := 0; i < g.n(); i++ {
		exp.Meta.PreambleLines = append(exp.Meta.PreambleLines, fmt.Sprintf("line %d", g.rng.IntN(1000)))
	}
	for i := range exp.Trials {
		t := experiment.NewTrial(uint32(i+1), decimal.Zero)
		t.Time = g.timeRecord()
		for j := g.n(); j > 0; j-- {
			t.Samples = append(t.Samples, experiment.Sample{
				Time: g.decimal(), Left: g.eye(), Right: g.eye(), Resolution: g.optVector(),
			})
		}
		for j := g.n(); j > 0; j-- {
			t.RawSamples = append(t.RawSamples, experiment.RawSample{Time: g.decimal(), Left: g.rawEye(), Right: g.rawEye()})
		}
		for j := g.n(); j > 0; j-- {
			t.Events = append(t.Events, g.event())
		}
		for j := g.n(); j > 0; j-- {
			t.CameraFrames = append(t.CameraFrames, g.frame())
		}
		if g.rng.IntN(2) == 0 {
			t.Variables = make([]string, len(labels))
			for k := range t.Variables {
				t.Variables[k] = fmt.Sprintf("v%d", g.rng.IntN(10))
			}
		}
		for j := g.n(); j > 0; j-- {
			name := fmt.Sprintf("TARG%d", g.rng.IntN(3))
			t.AddTarget(name, experiment.TargetInfo{
				Time:     g.decimal(),
				Position: [2]int32{g.rng.Int32() - 1<<30, -g.rng.Int32N(5000)},
			})
		}
		exp.Trials[i] = t
	}
	return exp
}
