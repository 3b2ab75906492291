package codec

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/antonmeskildsen/tracker-tools/internal/fsutil"
	"github.com/antonmeskildsen/tracker-tools/internal/testutil"
)

var (
	formats      = []Format{JSON, CBOR, Proto}
	compressions = []Compression{None, Gzip, Zstd}
)

func requireSameTree(t *testing.T, want, got *experiment.Experiment) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripSmallExperiment(t *testing.T) {
	want := testutil.SmallExperiment()
	for _, f := range formats {
		for _, c := range compressions {
			t.Run(fmt.Sprintf("%v/%v", f, c), func(t *testing.T) {
				data, err := EncodeBytes(want, f, c)
				require.NoError(t, err)
				got, err := DecodeBytes(data, f, c)
				require.NoError(t, err)
				requireSameTree(t, want, got)
			})
		}
	}
}

func TestRoundTripGenerated(t *testing.T) {
	for _, f := range formats {
		t.Run(f.String(), func(t *testing.T) {
			g := testutil.NewGenerator(uint64(f) + 1)
			for i := 0; i < 100; i++ {
				want := g.Experiment()
				data, err := Marshal(want, f)
				require.NoError(t, err)
				got, err := Unmarshal(data, f)
				require.NoError(t, err)
				requireSameTree(t, want, got)
			}
		})
	}
}

func TestRoundTripEmptyExperiment(t *testing.T) {
	want := &experiment.Experiment{Trials: []experiment.Trial{}}
	for _, f := range formats {
		data, err := Marshal(want, f)
		require.NoError(t, err)
		got, err := Unmarshal(data, f)
		require.NoError(t, err)
		assert.Empty(t, got.Trials, f.String())
		assert.True(t, got.Meta.RecordingTime.IsZero(), f.String())
	}
}

func TestRoundTripPreservesAbsence(t *testing.T) {
	exp := testutil.SmallExperiment()
	for _, f := range formats {
		data, err := Marshal(exp, f)
		require.NoError(t, err)
		got, err := Unmarshal(data, f)
		require.NoError(t, err)

		s := got.Trials[0].Samples
		assert.Nil(t, s[1].Left, f.String())
		assert.Nil(t, s[1].Right, f.String())
		assert.Nil(t, s[1].Resolution, f.String())
		assert.Nil(t, s[0].Right.Velocity, f.String())
		frames := got.Trials[0].CameraFrames
		assert.Nil(t, frames[0].EyelinkTime, f.String())
		assert.NotNil(t, frames[1].EyelinkTime, f.String())
		sacc := got.Trials[0].Events[1].Info.Saccade
		require.NotNil(t, sacc, f.String())
		assert.Nil(t, sacc.EndPosition, f.String())
		assert.Nil(t, sacc.MovementAngle, f.String())
		blink := got.Trials[1].Events[0]
		assert.Equal(t, experiment.EventBlink, blink.Info.Kind, f.String())
		assert.Nil(t, blink.Info.Fixation, f.String())
		assert.Nil(t, blink.Info.Saccade, f.String())
	}
}

func TestRoundTripEmptyTargetHistory(t *testing.T) {
	exp := testutil.SmallExperiment()
	exp.Trials[0].Targets["FIXPOINT"] = []experiment.TargetInfo{}
	for _, f := range formats {
		data, err := Marshal(exp, f)
		require.NoError(t, err)
		got, err := Unmarshal(data, f)
		require.NoError(t, err)

		infos, ok := got.Trials[0].Targets["FIXPOINT"]
		assert.True(t, ok, "%v dropped the target", f)
		assert.Empty(t, infos, f.String())
		assert.Len(t, got.Trials[0].Targets, len(exp.Trials[0].Targets), f.String())
	}
}

func TestMarshalDeterministic(t *testing.T) {
	g := testutil.NewGenerator(99)
	g.MaxRecords = 10
	exp := g.Experiment()
	for _, f := range []Format{CBOR, Proto} {
		a, err := Marshal(exp, f)
		require.NoError(t, err)
		b, err := Marshal(exp, f)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(a, b), "%v output differs between runs", f)
	}
}

func TestJSONShape(t *testing.T) {
	data, err := Marshal(testutil.SmallExperiment(), JSON)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"variable_labels":["condition","block"]`)
	assert.Contains(t, s, `"eye":"left"`)
	assert.Contains(t, s, `"kind":"blink"`)
	assert.Contains(t, s, `"version":"V2"`)
	assert.Contains(t, s, `"cr":"recovering"`)
	assert.Contains(t, s, `"recording_time":"2023-03-08T10:19:51Z"`)
}

func TestUnsupported(t *testing.T) {
	_, err := Marshal(testutil.SmallExperiment(), Format(9))
	assert.Error(t, err)
	_, err = Unmarshal(nil, Format(9))
	assert.Error(t, err)
	_, err = EncodeBytes(testutil.SmallExperiment(), JSON, Compression(9))
	assert.Error(t, err)
	_, err = DecodeBytes(nil, JSON, Compression(9))
	assert.Error(t, err)
}

func TestDecodeCorrupt(t *testing.T) {
	data, err := EncodeBytes(testutil.SmallExperiment(), CBOR, Zstd)
	require.NoError(t, err)
	_, err = DecodeBytes(data[:len(data)/2], CBOR, Zstd)
	assert.Error(t, err)

	_, err = DecodeBytes([]byte("not gzip"), JSON, Gzip)
	assert.Error(t, err)

	_, err = Unmarshal([]byte("{"), JSON)
	assert.Error(t, err)
}

func TestFileRoundTrip(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	want := testutil.SmallExperiment()
	for _, name := range []string{"out.json", "out.cbor.zst", "out.pb.gz", "OUT.CBOR"} {
		require.NoError(t, WriteFile(mfs, name, want), name)
		got, err := ReadFile(mfs, name)
		require.NoError(t, err, name)
		requireSameTree(t, want, got)
	}

	data, err := mfs.ReadFile("out.cbor.zst")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, data[:4], "zstd magic")

	assert.Error(t, WriteFile(mfs, "out.txt", want))
	_, err = ReadFile(mfs, "missing.json")
	assert.Error(t, err)
}
