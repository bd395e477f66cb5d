package report_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/gradebook"
	"github.com/trezcool/alama/core/report"
	inmemdb "github.com/trezcool/alama/storage/inmem"
)

func setup(t *testing.T) (*report.Renderer, *gradebook.Service) {
	marks := gradebook.NewService(inmemdb.NewGradebookRepository(inmemdb.Open()))
	return report.NewRenderer(marks, 640, 400), marks
}

func TestRenderer_Generate(t *testing.T) {
	r, marks := setup(t)
	ctx := context.Background()

	_, err := r.Generate(ctx, "alice@test.cd")
	assert.ErrorIs(t, err, gradebook.ErrNotFound)

	_, err = marks.SaveMarks(ctx, "alice@test.cd", []string{"Math", "Science"}, []int{50, 50})
	require.NoError(t, err)

	rep, err := r.Generate(ctx, "alice@test.cd")
	require.NoError(t, err)
	assert.Equal(t, 50.0, rep.Average)
	assert.Equal(t, []report.Slice{
		{Subject: "Math", Mark: 50, Percent: 50},
		{Subject: "Science", Mark: 50, Percent: 50},
	}, rep.Slices)
}

func TestRenderer_Generate_emptyGradebook(t *testing.T) {
	r, marks := setup(t)
	ctx := context.Background()

	// every row was blank
	_, err := marks.SaveMarks(ctx, "alice@test.cd", nil, nil)
	require.NoError(t, err)

	_, err = r.Generate(ctx, "alice@test.cd")
	assert.ErrorIs(t, err, gradebook.ErrNotFound)
	_, _, err = r.RenderAll(ctx, "alice@test.cd", report.SVG)
	assert.ErrorIs(t, err, gradebook.ErrNotFound)
}

func TestRenderer_Render(t *testing.T) {
	r, marks := setup(t)
	ctx := context.Background()
	_, err := marks.SaveMarks(ctx, "alice@test.cd", []string{"Math", "Science", "Art"}, []int{90, 75, 60})
	require.NoError(t, err)

	pngMagic := []byte("\x89PNG")
	for _, kind := range report.Kinds {
		t.Run(string(kind), func(t *testing.T) {
			svg, err := r.Render(ctx, "alice@test.cd", kind, report.SVG)
			require.NoError(t, err)
			assert.True(t, bytes.Contains(svg, []byte("<svg")), "not an svg document")

			png, err := r.Render(ctx, "alice@test.cd", kind, report.PNG)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(png, pngMagic), "not a png image")
		})
	}

	charts, skipped, err := r.RenderAll(ctx, "alice@test.cd", report.SVG)
	require.NoError(t, err)
	assert.Len(t, charts, len(report.Kinds))
	assert.Empty(t, skipped)
}

func TestRenderer_RenderAll_zeroMarks(t *testing.T) {
	r, marks := setup(t)
	ctx := context.Background()
	_, err := marks.SaveMarks(ctx, "alice@test.cd", []string{"Math", "Art"}, []int{0, 0})
	require.NoError(t, err)

	charts, skipped, err := r.RenderAll(ctx, "alice@test.cd", report.SVG)
	require.NoError(t, err)
	assert.Contains(t, charts, report.Bar)
	assert.Contains(t, charts, report.Line)
	assert.NotContains(t, charts, report.Pie)
	var vErr *core.ValidationError
	assert.ErrorAs(t, skipped[report.Pie], &vErr)
}

func TestRenderChart_edgeCases(t *testing.T) {
	single := gradebook.Gradebook{Email: "a@test.cd", Entries: []gradebook.Entry{{Subject: "Math", Mark: 100}}}
	for _, kind := range report.Kinds {
		_, err := report.RenderChart(single, kind, report.SVG, 640, 400)
		assert.NoError(t, err, "single entry %s chart", kind)
	}

	zeros := gradebook.Gradebook{Email: "a@test.cd", Entries: []gradebook.Entry{{Subject: "Math", Mark: 0}, {Subject: "Art", Mark: 0}}}
	_, err := report.RenderChart(zeros, report.Bar, report.SVG, 640, 400)
	assert.NoError(t, err)
	_, err = report.RenderChart(zeros, report.Pie, report.SVG, 640, 400)
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = report.RenderChart(gradebook.Gradebook{}, report.Bar, report.SVG, 640, 400)
	assert.ErrorIs(t, err, gradebook.ErrNotFound)
}

func TestRenderChart_subjectMarkup(t *testing.T) {
	gb := gradebook.Gradebook{Email: "a@test.cd", Entries: []gradebook.Entry{
		{Subject: "<script>alert(1)</script>", Mark: 60},
		{Subject: "R&D", Mark: 40},
	}}
	for _, kind := range report.Kinds {
		svg, err := report.RenderChart(gb, kind, report.SVG, 640, 400)
		require.NoError(t, err, "%s chart", kind)
		assert.NotContains(t, string(svg), "<script", "%s chart", kind)
		assert.NotContains(t, string(svg), "R&D", "%s chart", kind)

		_, err = report.RenderChart(gb, kind, report.PNG, 640, 400)
		assert.NoError(t, err, "%s png", kind)
	}

	svg, err := report.RenderChart(gb, report.Pie, report.SVG, 640, 400)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "&lt;script&gt;alert(1)&lt;/script&gt; (60.0%)")
}

func TestParse(t *testing.T) {
	k, err := report.ParseKind("pie")
	assert.NoError(t, err)
	assert.Equal(t, report.Pie, k)
	_, err = report.ParseKind("radar")
	assert.ErrorIs(t, err, report.ErrUnknownChart)

	f, err := report.ParseFormat("")
	assert.NoError(t, err)
	assert.Equal(t, report.SVG, f)
	assert.Equal(t, "image/png", report.PNG.ContentType())
	_, err = report.ParseFormat("gif")
	assert.ErrorIs(t, err, report.ErrUnknownFormat)
}
