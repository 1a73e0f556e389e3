package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/anime-shed/rgd-inspector-go/internal/errors"
	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

func candidate(points ...models.Point) CrackCandidate {
	return CrackCandidate{Points: points}
}

func TestCrackClassifier_Types(t *testing.T) {
	loop := lockedLoop(t)
	classifier := NewCrackClassifier()

	testCases := []struct {
		name      string
		candidate CrackCandidate
		want      models.CrackType
	}{
		{"internal", candidate(pt(150, 200), pt(250, 200)), models.CrackInternal},
		{"internal from boundary", candidate(pt(300, 200), pt(220, 200)), models.CrackInternal},
		{"internal with excursion", candidate(pt(150, 200), pt(350, 200), pt(250, 220)), models.CrackInternal},
		{"external", candidate(pt(200, 200), pt(350, 200)), models.CrackExternal},
		{"external from inside the band", candidate(pt(298.5, 200), pt(350, 200)), models.CrackExternal},
		{"split through", candidate(pt(50, 200), pt(350, 200)), models.CrackSplit},
		{"split in and back", candidate(pt(350, 150), pt(250, 200), pt(350, 250)), models.CrackSplit},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			crack, err := classifier.Classify(tc.candidate, loop)
			require.NoError(t, err)
			assert.Equal(t, tc.want, crack.Type)
			assert.Equal(t, tc.candidate.Points[0], crack.Start)
			assert.Equal(t, tc.candidate.Points[len(tc.candidate.Points)-1], crack.End)
			assert.Empty(t, crack.ID)
		})
	}
}

func TestCrackClassifier_Rejections(t *testing.T) {
	loop := lockedLoop(t)
	classifier := NewCrackClassifier()

	testCases := []struct {
		name      string
		candidate CrackCandidate
	}{
		{"outside without crossings", candidate(pt(10, 10), pt(50, 10))},
		{"outside hugging the boundary", candidate(pt(301, 150), pt(320, 200), pt(301, 250))},
		{"boundary band with odd crossings", candidate(pt(301.5, 200), pt(250, 200))},
		{"band endpoint with even crossings", candidate(pt(301.5, 200), pt(250, 200), pt(350, 205))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := classifier.Classify(tc.candidate, loop)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidCrackGeometry), "got %v", err)
		})
	}
}

func TestCrackClassifier_RequiresLockedLoop(t *testing.T) {
	loop := NewPerimeterLoop(DefaultOptions())
	_, err := NewCrackClassifier().Classify(candidate(pt(150, 200), pt(250, 200)), loop)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))
}

func TestCrackClassifier_LeavesLoopAlone(t *testing.T) {
	loop := lockedLoop(t)
	before := loop.Snapshot()

	_, _ = NewCrackClassifier().Classify(candidate(pt(50, 200), pt(350, 200)), loop)
	_, _ = NewCrackClassifier().Classify(candidate(pt(10, 10), pt(50, 10)), loop)

	assert.Equal(t, before, loop.Snapshot())
}

func TestCrackClassifier_Length(t *testing.T) {
	loop := lockedLoop(t)
	crack, err := NewCrackClassifier().Classify(candidate(pt(150, 200), pt(250, 200), pt(250, 230)), loop)
	require.NoError(t, err)
	assert.InDelta(t, 130.0, crack.Length, 1e-9)
}
