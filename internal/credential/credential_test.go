package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/excellere/excellere/internal/apierr"
	"github.com/excellere/excellere/internal/assessment"
	"github.com/excellere/excellere/internal/curriculum"
	"github.com/excellere/excellere/internal/store"
)

func seed(t *testing.T) (*Service, *store.Store, *store.InsightReport) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(store.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), nil)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { st.Close() })

	u := &store.User{Email: "coo@example.com", Name: "Morgan <Lee>"}
	require.NoError(t, st.Users().Create(ctx, u))

	body, err := json.Marshal(assessment.Report{Summary: "Reasons clearly about model limits.", Strengths: []string{"Conceptual accuracy"}})
	require.NoError(t, err)
	rep := &store.InsightReport{
		UserID:        u.ID,
		ModuleID:      "foundations",
		Archetype:     "Pragmatic Integrator",
		OverallScore:  86,
		BadgesEarned:  datatypes.JSONSlice[string]{"precision_thinker", "unknown_badge"},
		Report:        body,
		ArtefactTitle: "Board memo",
	}
	_, err = st.Reports().CreateWithQueue(ctx, rep)
	require.NoError(t, err)

	return NewService(st, curriculum.MustDefault(), "https://excellere.test/", nil), st, rep
}

func TestLoad_RequiresValidation(t *testing.T) {
	svc, st, rep := seed(t)
	ctx := context.Background()

	_, err := svc.Load(ctx, rep.ID)
	assert.Equal(t, http.StatusNotFound, apierr.From(err).Status)
	_, err = svc.Load(ctx, "missing")
	assert.Equal(t, http.StatusNotFound, apierr.From(err).Status)

	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	_, err = st.Reports().Review(ctx, rep.ID, "validator-1", true, "", at)
	require.NoError(t, err)

	v, err := svc.Load(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morgan <Lee>", v.LearnerName)
	assert.Equal(t, "How Modern AI Actually Works", v.ModuleTitle)
	assert.Equal(t, "Reasons clearly about model limits.", v.Summary)
	assert.Equal(t, "https://excellere.test/credentials/"+rep.ID, v.URL)
	require.Len(t, v.Badges, 1)
	assert.Equal(t, "Precision Thinker", v.Badges[0].Name)
	assert.True(t, at.Equal(v.ValidatedAt))
}

func TestRenderHTML_Escapes(t *testing.T) {
	v := &View{
		ReportID:    "r1",
		LearnerName: "Morgan <Lee>",
		ModuleTitle: "Foundations",
		Archetype:   "Pragmatic Integrator",
		Strengths:   []string{"Clarity"},
		Badges:      []Badge{{Name: "Precision Thinker", Icon: "*", Description: "Accurate"}},
		ValidatedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		URL:         "https://excellere.test/credentials/r1",
	}
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, v))
	out := buf.String()
	assert.Contains(t, out, "Morgan &lt;Lee&gt;")
	assert.NotContains(t, out, "<Lee>")
	assert.Contains(t, out, "1 April 2026")
	assert.Contains(t, out, "Precision Thinker")
	assert.Contains(t, out, "https://excellere.test/credentials/r1/card.png")
}

func TestRenderCard(t *testing.T) {
	v := &View{
		LearnerName:  "Morgan Lee",
		ModuleTitle:  "How Modern AI Actually Works",
		Archetype:    "Pragmatic Integrator",
		OverallScore: 86,
		Badges:       []Badge{{Name: "Precision Thinker"}},
		ValidatedAt:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	data, err := RenderCard(v)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, CardWidth, img.Bounds().Dx())
	assert.Equal(t, CardHeight, img.Bounds().Dy())
}
