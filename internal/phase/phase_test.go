package phase

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestCanAdvance_Understand(t *testing.T) {
	tests := []struct {
		secs  int
		boxes int
		want  bool
	}{
		{44, 3, false},
		{45, 1, false},
		{45, 2, true},
		{120, 0, false},
		{0, 0, false},
	}
	for _, tt := range tests {
		d := SessionData{TimeOnConcept: time.Duration(tt.secs) * time.Second, CheckedBoxes: tt.boxes}
		assert.Equal(t, tt.want, CanAdvance(Understand, d), "(%d,%d)", tt.secs, tt.boxes)
	}
}

func TestCanAdvance_TeachWordBoundary(t *testing.T) {
	assert.False(t, CanAdvance(Teach, SessionData{TeachResponse: words(39)}))
	assert.True(t, CanAdvance(Teach, SessionData{TeachResponse: words(40)}))
	assert.False(t, CanAdvance(Teach, SessionData{TeachResponse: "   \n\t  "}))

	padded := "\n\n  " + strings.ReplaceAll(words(40), " ", "   \t") + "   "
	assert.True(t, CanAdvance(Teach, SessionData{TeachResponse: padded}))
}

func TestCanAdvance_DeeperWordBoundary(t *testing.T) {
	assert.False(t, CanAdvance(Deeper, SessionData{DeeperResponse: words(29)}))
	assert.True(t, CanAdvance(Deeper, SessionData{DeeperResponse: words(30)}))
}

func TestCanAdvance_EmptyDataNeverAdvances(t *testing.T) {
	for _, p := range order {
		assert.False(t, CanAdvance(p, SessionData{}), "phase %s", p)
		assert.NotEmpty(t, Unmet(p, SessionData{}), "phase %s", p)
	}
}

func TestCanAdvance_DoesNotMutate(t *testing.T) {
	d := SessionData{TeachResponse: words(50), CheckedBoxes: 3, Choice: ChoiceDeeper, OverallStrength: 90}
	before := d
	CanAdvance(Teach, d)
	CanAdvance(Feedback, d)
	assert.Equal(t, before, d)
}

func TestCanAdvance_AnalyseNeedsSuccessfulAnalysis(t *testing.T) {
	assert.False(t, CanAdvance(Analyse, SessionData{AnalysisOK: false}))
	assert.Equal(t, "analysis is in progress", Unmet(Analyse, SessionData{}))
	assert.True(t, CanAdvance(Analyse, SessionData{AnalysisOK: true}))
}

func TestNextPhase_Linear(t *testing.T) {
	assert.Equal(t, Teach, NextPhase(Understand))
	assert.Equal(t, Analyse, NextPhase(Teach))
	assert.Equal(t, Feedback, NextPhase(Analyse))
	assert.Equal(t, Deeper, NextPhase(Feedback))
	assert.Equal(t, Complete, NextPhase(Deeper))
	assert.Equal(t, Complete, NextPhase(Complete))
}

func TestAfterFeedback(t *testing.T) {
	next, err := AfterFeedback(90, ChoiceDeeper)
	require.NoError(t, err)
	assert.Equal(t, Deeper, next)

	next, err = AfterFeedback(60, ChoiceReview)
	require.NoError(t, err)
	assert.Equal(t, Understand, next)

	_, err = AfterFeedback(84, ChoiceDeeper)
	var ge *GuardError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, Feedback, ge.Phase)

	_, err = AfterFeedback(85, ChoiceNone)
	assert.Error(t, err)
}

func TestOffered_Threshold(t *testing.T) {
	assert.Equal(t, []Choice{ChoiceReview}, Offered(DeeperThreshold-1))
	assert.Equal(t, []Choice{ChoiceDeeper}, Offered(DeeperThreshold))
}

func TestAfterDeeper(t *testing.T) {
	assert.Equal(t, Complete, AfterDeeper(true))
	assert.Equal(t, Feedback, AfterDeeper(false))
}

func TestAdvance_FullCycle(t *testing.T) {
	p := Understand
	var err error

	p, err = Advance(p, SessionData{TimeOnConcept: time.Minute, CheckedBoxes: 2})
	require.NoError(t, err)
	assert.Equal(t, Teach, p)

	p, err = Advance(p, SessionData{TeachResponse: words(45)})
	require.NoError(t, err)
	assert.Equal(t, Analyse, p)

	p, err = Advance(p, SessionData{AnalysisOK: true})
	require.NoError(t, err)
	assert.Equal(t, Feedback, p)

	p, err = Advance(p, SessionData{OverallStrength: 90, Choice: ChoiceDeeper})
	require.NoError(t, err)
	assert.Equal(t, Deeper, p)

	p, err = Advance(p, SessionData{DeeperResponse: words(35), Mastered: true})
	require.NoError(t, err)
	assert.Equal(t, Complete, p)

	_, err = Advance(p, SessionData{})
	assert.Error(t, err)
}

func TestAdvance_GuardFailureKeepsPhase(t *testing.T) {
	p, err := Advance(Teach, SessionData{TeachResponse: words(10)})
	assert.Equal(t, Teach, p)
	var ge *GuardError
	require.ErrorAs(t, err, &ge)
	assert.Contains(t, ge.Error(), "at least 40 words")
}

func TestParse(t *testing.T) {
	p, ok := Parse(" Feedback ")
	assert.True(t, ok)
	assert.Equal(t, Feedback, p)

	_, ok = Parse("done")
	assert.False(t, ok)
}
