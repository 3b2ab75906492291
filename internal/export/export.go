// Package export flattens experiment trees into CSV tables, one row per
// record, for loading into spreadsheets and analysis tools.
//
// Every row starts with the id of the trial it belongs to. Decimal values
// are written with their original scale; absent values are empty cells.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
)

// Table selects one of the flattened views.
type Table int

const (
	Samples Table = iota
	RawSamples
	Events
	CameraFrames
	Variables
	Targets
)

var tableNames = []string{
	Samples:      "samples",
	RawSamples:   "raw",
	Events:       "events",
	CameraFrames: "frames",
	Variables:    "variables",
	Targets:      "targets",
}

func (t Table) String() string {
	if t >= 0 && int(t) < len(tableNames) {
		return tableNames[t]
	}
	return fmt.Sprintf("Table(%d)", int(t))
}

// ParseTable accepts a table name as produced by String.
func ParseTable(s string) (Table, error) {
	for i, n := range tableNames {
		if strings.EqualFold(s, n) {
			return Table(i), nil
		}
	}
	return 0, fmt.Errorf("unknown table %q (want one of %s)", s, strings.Join(tableNames, ", "))
}

// TableNames lists the accepted table names.
func TableNames() []string {
	return append([]string(nil), tableNames...)
}

// Write renders table for every trial of exp.
func Write(w io.Writer, exp *experiment.Experiment, table Table) error {
	switch table {
	case Samples:
		return WriteSamples(w, exp)
	case RawSamples:
		return WriteRawSamples(w, exp)
	case Events:
		return WriteEvents(w, exp)
	case CameraFrames:
		return WriteCameraFrames(w, exp)
	case Variables:
		return WriteTrialVariables(w, exp)
	case Targets:
		return WriteTargets(w, exp)
	default:
		return fmt.Errorf("unsupported table %v", table)
	}
}

// SelectTrial returns a shallow copy of exp holding only the trial with id.
func SelectTrial(exp *experiment.Experiment, id uint32) (*experiment.Experiment, error) {
	for _, t := range exp.Trials {
		if t.ID == id {
			out := *exp
			out.Trials = []experiment.Trial{t}
			return &out, nil
		}
	}
	return nil, fmt.Errorf("trial %d not found", id)
}

// table accumulates rows and reports the first write error.
type table struct {
	w   *csv.Writer
	err error
}

func newTable(w io.Writer, header ...string) *table {
	t := &table{w: csv.NewWriter(w)}
	t.row(header...)
	return t
}

func (t *table) row(cells ...string) {
	if t.err != nil {
		return
	}
	t.err = t.w.Write(cells)
}

func (t *table) flush() error {
	if t.err != nil {
		return t.err
	}
	t.w.Flush()
	return t.w.Error()
}

func dec(d decimal.Decimal) string { return experiment.FormatDecimal(d) }

func optDec(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return dec(*d)
}

func vec(v experiment.Vector) []string { return []string{dec(v.X()), dec(v.Y())} }

func optVec(v *experiment.Vector) []string {
	if v == nil {
		return []string{"", ""}
	}
	return vec(*v)
}

func id(t *experiment.Trial) string { return strconv.FormatUint(uint64(t.ID), 10) }

func eyeHeader(side string) []string {
	return []string{side + "_x", side + "_y", side + "_area", side + "_vel_x", side + "_vel_y", side + "_cr"}
}

func eyeCells(e *experiment.EyeSampleData) []string {
	if e == nil {
		return make([]string, 6)
	}
	cells := append(vec(e.Position), dec(e.Area))
	cells = append(cells, optVec(e.Velocity)...)
	return append(cells, e.CR.String())
}

// WriteSamples writes one row per filtered sample.
func WriteSamples(w io.Writer, exp *experiment.Experiment) error {
	header := []string{"trial_id", "time"}
	header = append(header, eyeHeader("left")...)
	header = append(header, eyeHeader("right")...)
	header = append(header, "res_x", "res_y")
	tab := newTable(w, header...)
	for i := range exp.Trials {
		t := &exp.Trials[i]
		for _, s := range t.Samples {
			row := []string{id(t), dec(s.Time)}
			row = append(row, eyeCells(s.Left)...)
			row = append(row, eyeCells(s.Right)...)
			row = append(row, optVec(s.Resolution)...)
			tab.row(row...)
		}
	}
	return tab.flush()
}

func rawHeader(side string) []string {
	return []string{
		side + "_pupil_x", side + "_pupil_y", side + "_pupil_area",
		side + "_pupil_w", side + "_pupil_h",
		side + "_cr_x", side + "_cr_y", side + "_cr_area",
	}
}

func rawCells(r experiment.RawEyeSampleData) []string {
	cells := append(vec(r.PupilPosition), dec(r.PupilArea))
	cells = append(cells, vec(r.PupilSize)...)
	cells = append(cells, vec(r.CRPosition)...)
	return append(cells, dec(r.CRArea))
}

// WriteRawSamples writes one row per unsmoothed sample.
func WriteRawSamples(w io.Writer, exp *experiment.Experiment) error {
	header := append([]string{"trial_id", "time"}, rawHeader("left")...)
	header = append(header, rawHeader("right")...)
	tab := newTable(w, header...)
	for i := range exp.Trials {
		t := &exp.Trials[i]
		for _, r := range t.RawSamples {
			row := append([]string{id(t), dec(r.Time)}, rawCells(r.Left)...)
			row = append(row, rawCells(r.Right)...)
			tab.row(row...)
		}
	}
	return tab.flush()
}

// WriteEvents writes one row per fixation, saccade or blink. Columns that
// do not apply to an event's kind are empty.
func WriteEvents(w io.Writer, exp *experiment.Experiment) error {
	tab := newTable(w,
		"trial_id", "eye", "kind", "start", "end", "duration", "res_x", "res_y",
		"avg_x", "avg_y", "avg_pupil_area",
		"start_x", "start_y", "end_x", "end_y", "angle", "peak_velocity",
	)
	for i := range exp.Trials {
		t := &exp.Trials[i]
		for _, e := range t.Events {
			row := []string{id(t), e.Eye.String(), e.Info.Kind.String(),
				dec(e.Time.Start), dec(e.Time.End), dec(e.Time.Duration())}
			row = append(row, optVec(e.Resolution)...)
			if f := e.Info.Fixation; f != nil {
				row = append(row, vec(f.AveragePosition)...)
				row = append(row, dec(f.AveragePupilArea))
			} else {
				row = append(row, "", "", "")
			}
			if s := e.Info.Saccade; s != nil {
				row = append(row, optVec(s.StartPosition)...)
				row = append(row, optVec(s.EndPosition)...)
				row = append(row, optDec(s.MovementAngle), dec(s.PeakVelocity))
			} else {
				row = append(row, "", "", "", "", "", "")
			}
			tab.row(row...)
		}
	}
	return tab.flush()
}

// WriteCameraFrames writes one row per camera frame record.
func WriteCameraFrames(w io.Writer, exp *experiment.Experiment) error {
	tab := newTable(w, "trial_id", "name", "version", "index", "cam_time", "sys_time", "process_time", "eyelink_time")
	for i := range exp.Trials {
		t := &exp.Trials[i]
		for _, f := range t.CameraFrames {
			tab.row(id(t), f.Name, f.Version.String(),
				strconv.FormatUint(uint64(f.Index), 10),
				strconv.FormatUint(f.CamTime, 10),
				strconv.FormatUint(f.SysTime, 10),
				dec(f.ProcessTime), optDec(f.EyelinkTime))
		}
	}
	return tab.flush()
}

// WriteTrialVariables writes one row per trial with a column per variable
// label. Trials without values get empty cells.
func WriteTrialVariables(w io.Writer, exp *experiment.Experiment) error {
	tab := newTable(w, append([]string{"trial_id"}, exp.VariableLabels...)...)
	for i := range exp.Trials {
		t := &exp.Trials[i]
		row := make([]string, 1+len(exp.VariableLabels))
		row[0] = id(t)
		copy(row[1:], t.Variables)
		tab.row(row...)
	}
	return tab.flush()
}

// WriteTargets writes one row per reported target position, targets of a
// trial ordered by name.
func WriteTargets(w io.Writer, exp *experiment.Experiment) error {
	tab := newTable(w, "trial_id", "target", "time", "x", "y")
	for i := range exp.Trials {
		t := &exp.Trials[i]
		names := make([]string, 0, len(t.Targets))
		for n := range t.Targets {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			for _, info := range t.Targets[n] {
				tab.row(id(t), n, dec(info.Time),
					strconv.FormatInt(int64(info.Position[0]), 10),
					strconv.FormatInt(int64(info.Position[1]), 10))
			}
		}
	}
	return tab.flush()
}
