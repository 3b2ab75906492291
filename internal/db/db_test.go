package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antonmeskildsen/tracker-tools/internal/codec"
	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/antonmeskildsen/tracker-tools/internal/monitoring"
	"github.com/antonmeskildsen/tracker-tools/internal/testutil"
	"github.com/antonmeskildsen/tracker-tools/internal/timeutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPragmasApplied(t *testing.T) {
	db := openTestDB(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var synchronous int
	require.NoError(t, db.QueryRow("PRAGMA synchronous").Scan(&synchronous))
	assert.Equal(t, 1, synchronous) // NORMAL

	var foreignKeys int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}

func TestMigrations(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion(Migrations())
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	require.NoError(t, db.MigrateDown(Migrations()))
	version, _, err = db.MigrateVersion(Migrations())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var indexes int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_experiments_source'`).Scan(&indexes))
	assert.Zero(t, indexes)

	require.NoError(t, db.MigrateUp(Migrations()))
	version, _, err = db.MigrateVersion(Migrations())
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)

	// already at latest
	require.NoError(t, db.MigrateUp(Migrations()))
}

func TestMigrateVersionFreshDB(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	defer db.Close()

	version, dirty, err := db.MigrateVersion(Migrations())
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, db.MigrateForce(Migrations(), 1))
	version, _, err = db.MigrateVersion(Migrations())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestReopenExistingDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	id, err := db.SaveExperiment(ctx, "a.asc", testutil.SmallExperiment())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	rec, err := db.Experiment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a.asc", rec.Source)
}

func TestSaveAndLoadExperiment(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	exp := testutil.SmallExperiment()

	id, err := db.SaveExperiment(ctx, "session1.asc", exp)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	got, err := db.LoadExperiment(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(exp, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("loaded experiment mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveGeneratedExperiments(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	gen := testutil.NewGenerator(11)

	for i := 0; i < 10; i++ {
		exp := gen.Experiment()
		id, err := db.SaveExperiment(ctx, "generated", exp)
		require.NoError(t, err)

		got, err := db.LoadExperiment(ctx, id)
		require.NoError(t, err)
		if diff := cmp.Diff(exp, got, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("experiment %d mismatch (-want +got):\n%s", i, diff)
		}

		trials, err := db.Trials(ctx, id)
		require.NoError(t, err)
		assert.Len(t, trials, len(exp.Trials))
	}
}

func TestExperimentRecord(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	importedAt := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	db.SetClock(timeutil.NewMockClock(importedAt))

	exp := testutil.SmallExperiment()
	id, err := db.SaveExperiment(ctx, "session1.asc", exp)
	require.NoError(t, err)

	rec, err := db.Experiment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "session1.asc", rec.Source)
	assert.True(t, rec.RecordingTime.Equal(exp.Meta.RecordingTime), "recording time %v", rec.RecordingTime)
	assert.True(t, rec.ImportedAt.Equal(importedAt), "imported at %v", rec.ImportedAt)
	assert.Equal(t, 2, rec.TrialCount)
	assert.Equal(t, []string{"condition", "block"}, rec.VariableLabels)
}

func TestExperimentWithoutRecordingTime(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	exp := &experiment.Experiment{Trials: []experiment.Trial{}}
	id, err := db.SaveExperiment(ctx, "empty.asc", exp)
	require.NoError(t, err)

	rec, err := db.Experiment(ctx, id)
	require.NoError(t, err)
	assert.True(t, rec.RecordingTime.IsZero())
	assert.Zero(t, rec.TrialCount)
	assert.Empty(t, rec.VariableLabels)

	trials, err := db.Trials(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, trials)
}

func TestTrials(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.SaveExperiment(ctx, "session1.asc", testutil.SmallExperiment())
	require.NoError(t, err)

	trials, err := db.Trials(ctx, id)
	require.NoError(t, err)
	require.Len(t, trials, 2)

	first := trials[0]
	assert.Equal(t, id, first.ExperimentID)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, uint32(1), first.TrialID)
	assert.Equal(t, "2000", first.Start)
	assert.Equal(t, "2013", first.End)
	assert.Equal(t, 2, first.Samples)
	assert.Equal(t, 1, first.RawSamples)
	assert.Equal(t, 2, first.Events)
	assert.Equal(t, 2, first.CameraFrames)
	assert.Equal(t, 1, first.Fixations)
	assert.Equal(t, 1, first.Saccades)
	assert.Equal(t, 0, first.Blinks)
	assert.Equal(t, 2, first.Targets)
	require.NotNil(t, first.MeanLeftArea)
	require.NotNil(t, first.MeanRightArea)

	second := trials[1]
	assert.Equal(t, uint32(2), second.TrialID)
	assert.Equal(t, 1, second.Blinks)
	require.NotNil(t, second.MeanLeftArea)
	assert.Nil(t, second.MeanRightArea, "right eye never tracked in trial 2")
}

func TestListExperiments(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	db.SetClock(clock)

	list, err := db.ListExperiments(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	var ids []uuid.UUID
	for _, src := range []string{"b.asc", "a.asc", "c.asc"} {
		id, err := db.SaveExperiment(ctx, src, testutil.SmallExperiment())
		require.NoError(t, err)
		ids = append(ids, id)
		clock.Advance(time.Minute)
	}

	list, err = db.ListExperiments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, rec := range list {
		assert.Equal(t, ids[i], rec.ID, "import order")
	}
	assert.Equal(t, "b.asc", list[0].Source)
	assert.Equal(t, "c.asc", list[2].Source)
}

func TestDeleteExperiment(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.SaveExperiment(ctx, "session1.asc", testutil.SmallExperiment())
	require.NoError(t, err)
	keep, err := db.SaveExperiment(ctx, "session2.asc", testutil.SmallExperiment())
	require.NoError(t, err)

	require.NoError(t, db.DeleteExperiment(ctx, id))

	var trialRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM trials WHERE experiment_id = ?`, id.String()).Scan(&trialRows))
	assert.Zero(t, trialRows, "trial rows cascade with the experiment")

	_, err = db.LoadExperiment(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := db.ListExperiments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep, list[0].ID)

	err = db.DeleteExperiment(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotFound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := db.LoadExperiment(ctx, missing)
	assert.True(t, errors.Is(err, ErrNotFound), "LoadExperiment: %v", err)
	assert.Contains(t, err.Error(), missing.String())

	_, err = db.Experiment(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.Trials(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadCorruptPayload(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.SaveExperiment(ctx, "session1.asc", testutil.SmallExperiment())
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE experiments SET payload = ? WHERE experiment_id = ?`, []byte("not zstd"), id.String())
	require.NoError(t, err)

	_, err = db.LoadExperiment(ctx, id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestLoadOtherPayloadEncoding(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	exp := testutil.SmallExperiment()

	id, err := db.SaveExperiment(ctx, "session1.asc", exp)
	require.NoError(t, err)

	// rows written with another encoding still decode
	payload, err := codec.Marshal(exp, codec.JSON)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE experiments SET payload = ?, payload_format = 'json', payload_compression = 'none' WHERE experiment_id = ?`, payload, id.String())
	require.NoError(t, err)

	got, err := db.LoadExperiment(ctx, id)
	require.NoError(t, err)
	if diff := cmp.Diff(exp, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveExperimentCanceledContext(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.SaveExperiment(ctx, "session1.asc", testutil.SmallExperiment())
	require.Error(t, err)

	list, err := db.ListExperiments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOpenInvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "store.db"))
	assert.Error(t, err)
}
