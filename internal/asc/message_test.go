package asc

import (
	"errors"
	"testing"

	"github.com/antonmeskildsen/tracker-tools/internal/experiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyMessageTrial(t *testing.T) {
	m, err := ClassifyMessage("TRIALID 42")
	require.NoError(t, err)
	assert.Equal(t, TrialID{ID: 42}, m)

	m, err = ClassifyMessage("TRIAL_RESULT 0")
	require.NoError(t, err)
	assert.Equal(t, TrialResult{Code: 0}, m)

	_, err = ClassifyMessage("TRIALID")
	var ge *GrammarError
	assert.True(t, errors.As(err, &ge))

	_, err = ClassifyMessage("TRIALID -3")
	var ne *NumericParseError
	assert.True(t, errors.As(err, &ne))
}

func TestClassifyMessageRecordingConfig(t *testing.T) {
	m, err := ClassifyMessage("RECCFG CR 500 2 1 LR")
	require.NoError(t, err)
	rc, ok := m.(RecordingConfig)
	require.True(t, ok)
	assert.Equal(t, TrackingCR, rc.TrackingMode)
	assert.True(t, rc.SamplingRate.Equal(d("500")))
	assert.Equal(t, FilterExtra, rc.FileFilter)
	assert.Equal(t, FilterStandard, rc.LinkFilter)
	assert.Equal(t, EyesBoth, rc.Eyes)

	_, err = ClassifyMessage("RECCFG CR 500 2 1 X")
	var ge *GrammarError
	assert.True(t, errors.As(err, &ge))
}

func TestClassifyMessageMount(t *testing.T) {
	for _, code := range []string{"MTABLER", "BTABLER", "RTABLER", "RBTABLER", "AMTABLER", "ARTABLER", "BTOWER", "TOWER", "MPRIM", "BPRIM", "MLRR", "BLRR"} {
		m, err := ClassifyMessage("ELCLCFG " + code)
		require.NoError(t, err, code)
		assert.Equal(t, code, m.(MountConfig).Mount.String())
	}

	_, err := ClassifyMessage("ELCLCFG MATBLER")
	var ge *GrammarError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "ELCLCFG", ge.Keyword)
	assert.Equal(t, "MountConfiguration(99)", MountConfiguration(99).String())
}

func TestClassifyMessageCalibration(t *testing.T) {
	m, err := ClassifyMessage("GAZE_COORDS 0.00 0.00 1919.00 1079.00")
	require.NoError(t, err)
	gc := m.(GazeCoords)
	assert.True(t, gc.Right.Equal(d("1919")))
	assert.True(t, gc.Bottom.Equal(d("1079")))

	m, err = ClassifyMessage("THRESHOLDS L 102 230 R 97 215")
	require.NoError(t, err)
	assert.Equal(t, Thresholds{
		Left:  ThresholdSpec{Pupil: 102, CR: 230},
		Right: ThresholdSpec{Pupil: 97, CR: 215},
	}, m)

	m, err = ClassifyMessage("ELCL_PROC CENTROID (3)")
	require.NoError(t, err)
	assert.Equal(t, ProcessingAlgorithm{Algorithm: AlgorithmCentroid}, m)

	m, err = ClassifyMessage("ELCL_PCR_PARAM 5 3.0")
	require.NoError(t, err)
	pcr := m.(PCRParameter)
	assert.Equal(t, uint32(5), pcr.Index)
	assert.True(t, pcr.Value.Equal(d("3")))

	m, err = ClassifyMessage("CAMERA_LENS_FOCAL_LENGTH 27.00")
	require.NoError(t, err)
	assert.True(t, m.(CameraFocalLength).Value.Equal(d("27")))

	m, err = ClassifyMessage("ELCL_WINDOW_SIZES 176 188 0 0")
	require.NoError(t, err)
	assert.Equal(t, WindowSizes{Sizes: [4]uint32{176, 188, 0, 0}}, m)

	m, err = ClassifyMessage("PUPIL_DATA_TYPE RAW_AUTOSLIP")
	require.NoError(t, err)
	assert.Equal(t, PupilDataType{Name: "RAW_AUTOSLIP"}, m)
}

func TestClassifyMessageTrialVariables(t *testing.T) {
	m, err := ClassifyMessage("TRIAL_VAR_LABELS condition block")
	require.NoError(t, err)
	assert.Equal(t, TrialVarLabels{Labels: []string{"condition", "block"}}, m)

	m, err = ClassifyMessage("TRIAL_VAR_LABELS")
	require.NoError(t, err)
	assert.Equal(t, TrialVarLabels{Labels: []string{}}, m)

	m, err = ClassifyMessage("TRIAL_VAR_GROUPING condition")
	require.NoError(t, err)
	assert.Equal(t, TrialVarGrouping{Groups: []string{"condition"}}, m)

	m, err = ClassifyMessage("!V TRIAL_VAR_DATA easy 3")
	require.NoError(t, err)
	assert.Equal(t, TrialVarData{Values: []string{"easy", "3"}}, m)

	m, err = ClassifyMessage("!V IMGLOAD FILL image.png")
	require.NoError(t, err)
	assert.Equal(t, TrialDataOther{Raw: "IMGLOAD FILL image.png"}, m)
}

func TestClassifyMessageTargetPositions(t *testing.T) {
	m, err := ClassifyMessage("!V TARGET_POS TARG1 (960, 540) 1 0")
	require.NoError(t, err)
	assert.Equal(t, TargetPositions{Targets: []Target{
		{Name: "TARG1", Position: [2]int32{960, 540}, Visible: true},
	}}, m)

	m, err = ClassifyMessage("!V TARGET_POS TARG1 (-10, 20) 0 1 TARG2 (300, -400) 1 1")
	require.NoError(t, err)
	assert.Equal(t, TargetPositions{Targets: []Target{
		{Name: "TARG1", Position: [2]int32{-10, 20}, Interpolate: true},
		{Name: "TARG2", Position: [2]int32{300, -400}, Visible: true, Interpolate: true},
	}}, m)

	_, err = ClassifyMessage("!V TARGET_POS TARG1 (960, 540)")
	var ge *GrammarError
	assert.True(t, errors.As(err, &ge))

	_, err = ClassifyMessage("!V TARGET_POS TARG1 (x, 540) 1 0")
	var ne *NumericParseError
	assert.True(t, errors.As(err, &ne))
}

func TestClassifyMessageRawData(t *testing.T) {
	m, err := ClassifyMessage("L 7000 1 2 3 4 5 6 7 8 R 11 12 13 14 15 16 17 18.5")
	require.NoError(t, err)
	raw, ok := m.(RawData)
	require.True(t, ok)
	assert.True(t, raw.Time.Equal(d("7000")))
	assert.True(t, raw.Left.PupilPosX.Equal(d("1")))
	assert.True(t, raw.Left.CRArea.Equal(d("8")))
	assert.True(t, raw.Right.PupilPosX.Equal(d("11")))
	assert.True(t, raw.Right.PupilSizeY.Equal(d("15")))
	assert.True(t, raw.Right.CRArea.Equal(d("18.5")))

	_, err = ClassifyMessage("L 7000 1 2 3 4 5 6 7 8 R 11 12")
	var ge *GrammarError
	assert.True(t, errors.As(err, &ge))
}

func TestClassifyMessageCameraFrame(t *testing.T) {
	m, err := ClassifyMessage("CAM_FRAME left 10 123456 654321 2.5")
	require.NoError(t, err)
	f, ok := m.(CameraFrame)
	require.True(t, ok)
	assert.Equal(t, experiment.CameraFrameV1, f.Version)
	assert.Equal(t, "left", f.Name)
	assert.Equal(t, uint32(10), f.Index)
	assert.Equal(t, uint64(123456), f.CamTime)
	assert.Equal(t, uint64(654321), f.SysTime)
	assert.True(t, f.ProcessTime.Equal(d("2.5")))
	assert.Nil(t, f.EyelinkTime)

	m, err = ClassifyMessage("CAM_FRAME left 11 123457 654322 2.5 8000")
	require.NoError(t, err)
	f = m.(CameraFrame)
	assert.Equal(t, experiment.CameraFrameV1, f.Version)
	require.NotNil(t, f.EyelinkTime)
	assert.True(t, f.EyelinkTime.Equal(d("8000")))

	m, err = ClassifyMessage("CAM_FRAME V2 right 12 123458 654323 1.25 8001")
	require.NoError(t, err)
	f = m.(CameraFrame)
	assert.Equal(t, experiment.CameraFrameV2, f.Version)
	assert.Equal(t, "right", f.Name)
	require.NotNil(t, f.EyelinkTime)
	assert.True(t, f.EyelinkTime.Equal(d("8001")))

	_, err = ClassifyMessage("CAM_FRAME V2 right 12 123458 654323 1.25")
	var ge *GrammarError
	assert.True(t, errors.As(err, &ge))
}

func TestClassifyMessageOther(t *testing.T) {
	m, err := ClassifyMessage("DISPLAY_COORDS 0 0 1919 1079")
	require.NoError(t, err)
	assert.Equal(t, OtherMessage{Raw: "DISPLAY_COORDS 0 0 1919 1079"}, m)

	m, err = ClassifyMessage("")
	require.NoError(t, err)
	assert.Equal(t, OtherMessage{Raw: ""}, m)
}
