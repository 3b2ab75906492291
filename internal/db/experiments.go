package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/antonmeskildsen/tracker-tools/internal/codec"
	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/antonmeskildsen/tracker-tools/internal/monitoring"
	"github.com/antonmeskildsen/tracker-tools/internal/summary"
)

// ErrNotFound is returned when no experiment has the requested ID.
var ErrNotFound = errors.New("experiment not found")

// Payloads are always written as zstd compressed CBOR. The format columns
// are read back so older rows with other encodings still load.
const (
	payloadFormat      = codec.CBOR
	payloadCompression = codec.Zstd
)

// ExperimentRecord describes a stored experiment without its payload.
type ExperimentRecord struct {
	ID             uuid.UUID
	Source         string
	RecordingTime  time.Time // zero when the export had no date line
	ImportedAt     time.Time
	TrialCount     int
	VariableLabels []string
}

// TrialRecord is the stored summary row of one trial.
type TrialRecord struct {
	ExperimentID  uuid.UUID
	Index         int
	TrialID       uint32
	Start         string // decimal text, scale preserved
	End           string
	Samples       int
	RawSamples    int
	Events        int
	CameraFrames  int
	Fixations     int
	Saccades      int
	Blinks        int
	Targets       int
	MeanLeftArea  *float64
	MeanRightArea *float64
}

func nullFloat64(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// SaveExperiment stores exp under a new ID. source names where it came
// from, usually the input path.
func (db *DB) SaveExperiment(ctx context.Context, source string, exp *experiment.Experiment) (uuid.UUID, error) {
	payload, err := codec.EncodeBytes(exp, payloadFormat, payloadCompression)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode experiment: %w", err)
	}
	labels, err := json.Marshal(exp.VariableLabels)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode variable labels: %w", err)
	}

	id := uuid.New()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO experiments (
			experiment_id, source, recording_time, imported_at_ns, trial_count,
			variable_labels, payload_format, payload_compression, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(),
		source,
		nullTime(exp.Meta.RecordingTime),
		db.clock.Now().UnixNano(),
		len(exp.Trials),
		string(labels),
		payloadFormat.String(),
		payloadCompression.String(),
		payload,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert experiment: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trials (
			experiment_id, trial_index, trial_id, start_time, end_time,
			samples, raw_samples, events, camera_frames,
			fixations, saccades, blinks, targets,
			mean_left_area, mean_right_area
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return uuid.Nil, fmt.Errorf("prepare trial insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range summary.Summarize(exp) {
		t := exp.Trials[i]
		_, err := stmt.ExecContext(ctx,
			id.String(), i, s.ID,
			experiment.FormatDecimal(t.Time.Start),
			experiment.FormatDecimal(t.Time.End),
			s.Samples, s.RawSamples, s.Events, s.CameraFrames,
			s.Fixations, s.Saccades, s.Blinks, s.Targets,
			nullFloat64(s.Left.MeanArea),
			nullFloat64(s.Right.MeanArea),
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert trial %d: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("commit experiment: %w", err)
	}
	monitoring.Logf("stored experiment %s from %s: %d trials, %d byte payload", id, source, len(exp.Trials), len(payload))
	return id, nil
}

// LoadExperiment decodes the stored payload of experiment id.
func (db *DB) LoadExperiment(ctx context.Context, id uuid.UUID) (*experiment.Experiment, error) {
	var formatName, compressionName string
	var payload []byte
	err := db.QueryRowContext(ctx, `
		SELECT payload_format, payload_compression, payload
		FROM experiments
		WHERE experiment_id = ?`, id.String()).Scan(&formatName, &compressionName, &payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load experiment: %w", err)
	}

	f, err := codec.ParseFormat(formatName)
	if err != nil {
		return nil, fmt.Errorf("experiment %s: %w", id, err)
	}
	c, err := codec.ParseCompression(compressionName)
	if err != nil {
		return nil, fmt.Errorf("experiment %s: %w", id, err)
	}
	exp, err := codec.DecodeBytes(payload, f, c)
	if err != nil {
		return nil, fmt.Errorf("experiment %s: %w", id, err)
	}
	return exp, nil
}

const experimentColumns = `
	experiment_id, source, recording_time, imported_at_ns, trial_count, variable_labels`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExperiment(row rowScanner) (*ExperimentRecord, error) {
	var rec ExperimentRecord
	var id, labels string
	var recordingTime sql.NullString
	var importedAtNs int64
	if err := row.Scan(&id, &rec.Source, &recordingTime, &importedAtNs, &rec.TrialCount, &labels); err != nil {
		return nil, err
	}

	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse experiment id %q: %w", id, err)
	}
	if recordingTime.Valid {
		if rec.RecordingTime, err = time.Parse(time.RFC3339Nano, recordingTime.String); err != nil {
			return nil, fmt.Errorf("parse recording time: %w", err)
		}
	}
	rec.ImportedAt = time.Unix(0, importedAtNs).UTC()
	if err := json.Unmarshal([]byte(labels), &rec.VariableLabels); err != nil {
		return nil, fmt.Errorf("parse variable labels: %w", err)
	}
	return &rec, nil
}

// Experiment returns the record of experiment id.
func (db *DB) Experiment(ctx context.Context, id uuid.UUID) (*ExperimentRecord, error) {
	row := db.QueryRowContext(ctx, `SELECT `+experimentColumns+`
		FROM experiments
		WHERE experiment_id = ?`, id.String())
	rec, err := scanExperiment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get experiment: %w", err)
	}
	return rec, nil
}

// ListExperiments returns every stored experiment, oldest import first.
func (db *DB) ListExperiments(ctx context.Context) ([]ExperimentRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+experimentColumns+`
		FROM experiments
		ORDER BY imported_at_ns, experiment_id`)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	var out []ExperimentRecord
	for rows.Next() {
		rec, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	return out, nil
}

// Trials returns the trial summary rows of experiment id in trial order.
func (db *DB) Trials(ctx context.Context, id uuid.UUID) ([]TrialRecord, error) {
	if _, err := db.Experiment(ctx, id); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT trial_index, trial_id, start_time, end_time,
		       samples, raw_samples, events, camera_frames,
		       fixations, saccades, blinks, targets,
		       mean_left_area, mean_right_area
		FROM trials
		WHERE experiment_id = ?
		ORDER BY trial_index`, id.String())
	if err != nil {
		return nil, fmt.Errorf("list trials: %w", err)
	}
	defer rows.Close()

	out := []TrialRecord{}
	for rows.Next() {
		tr := TrialRecord{ExperimentID: id}
		var left, right sql.NullFloat64
		err := rows.Scan(
			&tr.Index, &tr.TrialID, &tr.Start, &tr.End,
			&tr.Samples, &tr.RawSamples, &tr.Events, &tr.CameraFrames,
			&tr.Fixations, &tr.Saccades, &tr.Blinks, &tr.Targets,
			&left, &right,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		if left.Valid {
			v := left.Float64
			tr.MeanLeftArea = &v
		}
		if right.Valid {
			v := right.Float64
			tr.MeanRightArea = &v
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trials: %w", err)
	}
	return out, nil
}

// DeleteExperiment removes experiment id and its trial rows.
func (db *DB) DeleteExperiment(ctx context.Context, id uuid.UUID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM experiments WHERE experiment_id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete experiment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete experiment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	monitoring.Logf("deleted experiment %s", id)
	return nil
}
