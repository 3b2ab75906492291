// Package summary computes per-trial descriptive statistics of an
// experiment.
package summary

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
)

// EyeStats describes the pupil area of one eye over a trial. Mean and
// StdDev are NaN when the eye was never tracked.
type EyeStats struct {
	Tracked    int
	MeanArea   float64
	StdDevArea float64
}

// TrialSummary condenses one trial.
type TrialSummary struct {
	ID           uint32
	Duration     float64
	Samples      int
	RawSamples   int
	Events       int
	CameraFrames int
	Fixations    int
	Saccades     int
	Blinks       int
	Targets      int
	// MeanFixation is the mean fixation duration, NaN without fixations.
	MeanFixation float64
	// PeakSaccade is the largest saccade peak velocity, zero without
	// saccades.
	PeakSaccade  float64
	Left         EyeStats
	Right        EyeStats
}

func eyeStats(areas []float64) EyeStats {
	s := EyeStats{Tracked: len(areas), MeanArea: math.NaN(), StdDevArea: math.NaN()}
	switch len(areas) {
	case 0:
	case 1:
		s.MeanArea, s.StdDevArea = areas[0], 0
	default:
		s.MeanArea, s.StdDevArea = stat.MeanStdDev(areas, nil)
	}
	return s
}

// Trial summarises a single trial.
func Trial(t *experiment.Trial) TrialSummary {
	s := TrialSummary{
		ID:           t.ID,
		Duration:     t.Time.Duration().InexactFloat64(),
		Samples:      len(t.Samples),
		RawSamples:   len(t.RawSamples),
		Events:       len(t.Events),
		CameraFrames: len(t.CameraFrames),
		Targets:      len(t.Targets),
		MeanFixation: math.NaN(),
	}

	var left, right []float64
	for _, smp := range t.Samples {
		if smp.Left != nil {
			left = append(left, smp.Left.Area.InexactFloat64())
		}
		if smp.Right != nil {
			right = append(right, smp.Right.Area.InexactFloat64())
		}
	}
	s.Left, s.Right = eyeStats(left), eyeStats(right)

	var fixations []float64
	for _, ev := range t.Events {
		switch ev.Info.Kind {
		case experiment.EventFixation:
			s.Fixations++
			fixations = append(fixations, ev.Time.Duration().InexactFloat64())
		case experiment.EventSaccade:
			s.Saccades++
			if ev.Info.Saccade != nil {
				s.PeakSaccade = math.Max(s.PeakSaccade, ev.Info.Saccade.PeakVelocity.InexactFloat64())
			}
		case experiment.EventBlink:
			s.Blinks++
		}
	}
	if len(fixations) > 0 {
		s.MeanFixation = stat.Mean(fixations, nil)
	}
	return s
}

// Summarize returns one summary per trial, in trial order.
func Summarize(exp *experiment.Experiment) []TrialSummary {
	out := make([]TrialSummary, len(exp.Trials))
	for i := range exp.Trials {
		out[i] = Trial(&exp.Trials[i])
	}
	return out
}

// Totals aggregates trial summaries over the whole experiment.
type Totals struct {
	Trials    int
	Samples   int
	Events    int
	Fixations int
	Saccades  int
	Blinks    int

	// MedianDuration is the median trial duration, NaN without trials.
	MedianDuration float64
}

// Total folds per-trial summaries into experiment totals.
func Total(summaries []TrialSummary) Totals {
	tot := Totals{Trials: len(summaries), MedianDuration: math.NaN()}
	durations := make([]float64, 0, len(summaries))
	for _, s := range summaries {
		tot.Samples += s.Samples
		tot.Events += s.Events
		tot.Fixations += s.Fixations
		tot.Saccades += s.Saccades
		tot.Blinks += s.Blinks
		durations = append(durations, s.Duration)
	}
	if len(durations) > 0 {
		sort.Float64s(durations)
		tot.MedianDuration = stat.Quantile(0.5, stat.Empirical, durations, nil)
	}
	return tot
}
