package report

import (
	"context"
	"errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/gradebook"
)

var (
	// errors
	ErrUnknownChart  = errors.New("unknown chart, expected one of bar, line, pie")
	ErrUnknownFormat = errors.New("unknown format, expected svg or png")
)

type (
	// MarksLoader is satisfied by *gradebook.Service.
	MarksLoader interface {
		LoadMarks(ctx context.Context, email string) (gradebook.Gradebook, error)
	}

	// Slice is a pie slice: the share of one subject in the sum of all marks.
	Slice struct {
		Subject string  `json:"subject"`
		Mark    int     `json:"mark"`
		Percent float64 `json:"percent"`
	}

	Report struct {
		Email   string            `json:"email"`
		Average float64           `json:"average"`
		Entries []gradebook.Entry `json:"entries"`
		Slices  []Slice           `json:"slices"`
	}

	Renderer struct {
		marks  MarksLoader
		width  int
		height int
	}
)

func NewRenderer(marks MarksLoader, width, height int) *Renderer {
	return &Renderer{
		marks:  marks,
		width:  width,
		height: height,
	}
}

// Generate loads the user's gradebook and summarises it.
// gradebook.ErrNotFound when no marks were saved.
func (r *Renderer) Generate(ctx context.Context, email string) (Report, error) {
	gb, err := r.load(ctx, email)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Email:   gb.Email,
		Average: gb.Average(),
		Entries: gb.Entries,
		Slices:  PieSlices(gb),
	}, nil
}

// Render draws one chart of the user's gradebook.
func (r *Renderer) Render(ctx context.Context, email string, kind Kind, format Format) ([]byte, error) {
	gb, err := r.load(ctx, email)
	if err != nil {
		return nil, err
	}
	return RenderChart(gb, kind, format, r.width, r.height)
}

// RenderAll draws every chart from a single load of the gradebook, keyed by kind.
// A chart these marks cannot be drawn as (a pie of zeros) lands in skipped with its
// *core.ValidationError; any other failure aborts.
func (r *Renderer) RenderAll(ctx context.Context, email string, format Format) (charts map[Kind][]byte, skipped map[Kind]error, err error) {
	gb, err := r.load(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	charts = make(map[Kind][]byte, len(Kinds))
	skipped = make(map[Kind]error)
	for _, kind := range Kinds {
		data, err := RenderChart(gb, kind, format, r.width, r.height)
		if err != nil {
			if _, ok := core.AsValidationError(err); ok {
				skipped[kind] = err
				continue
			}
			return nil, nil, err
		}
		charts[kind] = data
	}
	return charts, skipped, nil
}

func (r *Renderer) load(ctx context.Context, email string) (gradebook.Gradebook, error) {
	gb, err := r.marks.LoadMarks(ctx, email)
	if err != nil {
		return gradebook.Gradebook{}, err
	}
	if gb.IsEmpty() {
		return gradebook.Gradebook{}, gradebook.ErrNotFound
	}
	return gb, nil
}

// PieSlices computes each subject's percentage of the total marks.
func PieSlices(gb gradebook.Gradebook) []Slice {
	total := gb.Total()
	slices := make([]Slice, 0, len(gb.Entries))
	for _, e := range gb.Entries {
		var pct float64
		if total > 0 {
			pct = float64(e.Mark) * 100 / float64(total)
		}
		slices = append(slices, Slice{Subject: e.Subject, Mark: e.Mark, Percent: pct})
	}
	return slices
}
