package badges

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excellere/excellere/internal/mastery"
)

func session(acc, ctx int, feedback, gap string) Session {
	return Session{
		Scores: map[string]int{
			mastery.ScoreConceptAccuracy: acc,
			mastery.ScoreOwnContext:      ctx,
		},
		Feedback:   feedback,
		PrimaryGap: gap,
	}
}

func fullInput() Input {
	masteredAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return Input{
		History: []Session{
			session(90, 80, "Strong second-order reasoning about incentives.", "Reframing the problem"),
			session(88, 80, "You question the frame the vendor handed you.", "reframing scope"),
			session(60, 76, "Good start.", "data quality"),
		},
		Calibration: map[string]string{"q1": "I usually start with the tool"},
		Nodes: []mastery.Node{
			{Status: mastery.StatusMastered, GapFlags: []string{"mechanism"}, MasteredAt: &masteredAt},
		},
		Artefact: &Artefact{BoardReadiness: 85, Status: ArtefactValidated},
	}
}

func TestEvaluate_AllBadges(t *testing.T) {
	got := Evaluate(fullInput())
	assert.Equal(t, Set{AINativeArchitect, ContextApplier, DoubleLoopThinker, GapCloser, PrecisionThinker, StrategicReframer}, got)
}

func TestEvaluate_Idempotent(t *testing.T) {
	in := fullInput()
	first := Evaluate(in)
	second := Evaluate(in)
	assert.Equal(t, first, second)
	assert.Equal(t, fullInput(), in, "input is not mutated")
}

func TestEvaluate_EmptyInput(t *testing.T) {
	got := Evaluate(Input{})
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestStrategicReframer(t *testing.T) {
	ok, err := strategicReframer(Input{Calibration: map[string]string{"q3": "I'd Reframe the question first"}})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = strategicReframer(Input{History: []Session{session(0, 0, "", "Reframing")}})
	assert.False(t, ok, "one reframing gap is not enough")
}

func TestDoubleLoopThinker_NeedsAccuracy(t *testing.T) {
	in := Input{History: []Session{
		session(69, 0, "second-order effects", ""),
		session(95, 0, "second-order effects", ""),
	}}
	ok, _ := doubleLoopThinker(in)
	assert.False(t, ok)

	in.History[0].Scores[mastery.ScoreConceptAccuracy] = 70
	ok, _ = doubleLoopThinker(in)
	assert.True(t, ok)
}

func TestContextApplier_Boundary(t *testing.T) {
	in := Input{History: []Session{session(0, 75, "", ""), session(0, 75, "", ""), session(0, 74, "", "")}}
	ok, _ := contextApplier(in)
	assert.False(t, ok)
	in.History[2].Scores[mastery.ScoreOwnContext] = 75
	ok, _ = contextApplier(in)
	assert.True(t, ok)
}

func TestGapCloser_NeedsAllThree(t *testing.T) {
	at := time.Now()
	cases := []struct {
		node mastery.Node
		want bool
	}{
		{mastery.Node{Status: mastery.StatusMastered, GapFlags: []string{"x"}, MasteredAt: &at}, true},
		{mastery.Node{Status: mastery.StatusMastered, MasteredAt: &at}, false},
		{mastery.Node{Status: mastery.StatusGap, GapFlags: []string{"x"}}, false},
	}
	for _, c := range cases {
		ok, _ := gapCloser(Input{Nodes: []mastery.Node{c.node}})
		assert.Equal(t, c.want, ok)
	}
}

func TestAINativeArchitect(t *testing.T) {
	_, err := aiNativeArchitect(Input{})
	assert.ErrorIs(t, err, errNoArtefact)

	ok, _ := aiNativeArchitect(Input{Artefact: &Artefact{BoardReadiness: 90, Status: ArtefactSubmitted}})
	assert.False(t, ok, "must be validated")

	ok, _ = aiNativeArchitect(Input{Artefact: &Artefact{BoardReadiness: 80, Status: ArtefactValidated}})
	assert.True(t, ok)
}

func TestRun_SkipsFailingPredicate(t *testing.T) {
	panicky := Badge{ID: "panicky", earned: func(Input) (bool, error) { panic("boom") }}
	ok, err := run(panicky, Input{})
	assert.False(t, ok)
	assert.Error(t, err)

	failing := Badge{ID: "failing", earned: func(Input) (bool, error) { return true, errors.New("missing field") }}
	_, err = run(failing, Input{})
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	assert.Len(t, Catalog(), 6)
	b, ok := Lookup(GapCloser)
	require.True(t, ok)
	assert.Equal(t, "Gap Closer", b.Name)
	_, ok = Lookup("nope")
	assert.False(t, ok)
	assert.True(t, Set{GapCloser}.Has(GapCloser))
	assert.Equal(t, []string{"gap_closer"}, Set{GapCloser}.Strings())
}
