package plot

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/antonmeskildsen/tracker-tools/internal/testutil"
)

func TestGazeSeries(t *testing.T) {
	exp := testutil.SmallExperiment()
	p, err := Gaze(&exp.Trials[0])
	require.NoError(t, err)
	assert.Equal(t, "Trial 1 - Gaze", p.Title.Text)
	assert.Equal(t, "X (px)", p.X.Label.Text)
	assert.InDelta(t, 512.1, p.X.Min, 1e-9)
	assert.InDelta(t, 520.3, p.X.Max, 1e-9)

	p, err = Gaze(&exp.Trials[1])
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p.X.Min, 1e-9, "only the left eye is tracked in trial 2")
}

func TestWriteGazeFormats(t *testing.T) {
	exp := testutil.SmallExperiment()

	var png bytes.Buffer
	require.NoError(t, WriteGaze(&png, &exp.Trials[0], "PNG"))
	assert.True(t, bytes.HasPrefix(png.Bytes(), []byte("\x89PNG\r\n\x1a\n")))

	var svg bytes.Buffer
	require.NoError(t, WriteGaze(&svg, &exp.Trials[0], "svg"))
	assert.Contains(t, svg.String(), "<svg")

	assert.Error(t, WriteGaze(&bytes.Buffer{}, &exp.Trials[0], "bmp"))
}

func TestNoData(t *testing.T) {
	empty := experiment.NewTrial(5, testutil.Dec("0"))
	_, err := Gaze(&empty)
	assert.True(t, errors.Is(err, ErrNoData))

	empty.Samples = []experiment.Sample{{Time: testutil.Dec("1")}}
	_, err = Gaze(&empty)
	assert.True(t, errors.Is(err, ErrNoData), "samples without tracked eyes")

	_, err = Timeline(&experiment.Trial{})
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestTimeline(t *testing.T) {
	exp := testutil.SmallExperiment()
	line, err := Timeline(&exp.Trials[0])
	require.NoError(t, err)
	require.Len(t, line.MultiSeries, 4)
	assert.Equal(t, "left x", line.MultiSeries[0].Name)

	var buf bytes.Buffer
	require.NoError(t, WriteTimeline(&buf, &exp.Trials[0]))
	html := buf.String()
	assert.Contains(t, html, "Trial 1 - Gaze timeline")
	assert.Contains(t, html, "right y")
}

func TestLineValueGap(t *testing.T) {
	assert.Equal(t, missing, lineValue(nil, false).Value)
	e := &experiment.EyeSampleData{Position: testutil.Vec("1.5", "2.5")}
	assert.Equal(t, 1.5, lineValue(e, false).Value)
	assert.Equal(t, 2.5, lineValue(e, true).Value)
}
