package gradebook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/gradebook"
	filestore "github.com/trezcool/alama/storage/file"
	"github.com/trezcool/alama/testutil"
)

func TestService_SaveLoadMarks(t *testing.T) {
	svc := gradebook.NewService(filestore.NewGradebookRepository(t.TempDir()))
	ctx := context.Background()
	email := "alice@test.cd"

	_, err := svc.LoadMarks(ctx, email)
	assert.ErrorIs(t, err, gradebook.ErrNotFound)
	has, err := svc.HasMarks(ctx, email)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = svc.SaveMarks(ctx, email, []string{"Math", "Science"}, []int{90, 75})
	require.NoError(t, err)
	gb, err := svc.LoadMarks(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, []gradebook.Entry{{Subject: "Math", Mark: 90}, {Subject: "Science", Mark: 75}}, gb.Entries)

	// a later save replaces everything
	_, err = svc.SaveMarks(ctx, email, []string{"Art"}, []int{60})
	require.NoError(t, err)
	gb, err = svc.LoadMarks(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, []gradebook.Entry{{Subject: "Art", Mark: 60}}, gb.Entries)

	has, err = svc.HasMarks(ctx, email)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestService_SaveMarks_errors(t *testing.T) {
	svc := gradebook.NewService(filestore.NewGradebookRepository(t.TempDir()))
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		subjects []string
		marks    []int
	}{
		{name: "length mismatch", email: "alice@test.cd", subjects: []string{"Math", "Art"}, marks: []int{1}},
		{name: "unsafe email", email: "../alice@test.cd", subjects: []string{"Math"}, marks: []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveMarks(ctx, tt.email, tt.subjects, tt.marks)
			var vErr *core.ValidationError
			if !assert.ErrorAs(t, err, &vErr) {
				return
			}
			_, err = svc.LoadMarks(ctx, tt.email)
			assert.ErrorIs(t, err, gradebook.ErrNotFound, "nothing must be written")
		})
	}
}

func TestGradebook_Average(t *testing.T) {
	assert.Equal(t, 0.0, gradebook.Gradebook{}.Average())
	gb := gradebook.Gradebook{Entries: []gradebook.Entry{{Subject: "Math", Mark: 90}, {Subject: "Science", Mark: 75}, {Subject: "Art", Mark: 60}}}
	assert.Equal(t, 225, gb.Total())
	assert.Equal(t, 75.0, gb.Average())
}

func TestSubmission_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	row := func(subject string, mark int) gradebook.MarkInput {
		return gradebook.MarkInput{Subject: subject, Mark: mark}
	}
	tests := []struct {
		name         string
		sub          gradebook.Submission
		wantErr      bool
		wantSubjects []string
		wantMarks    []int
	}{
		{
			name:         "blank rows dropped",
			sub:          gradebook.Submission{Entries: []gradebook.MarkInput{row(" Math ", 90), row("", 50), row("Art", 0)}},
			wantSubjects: []string{"Math", "Art"},
			wantMarks:    []int{90, 0},
		},
		{name: "mark too high", sub: gradebook.Submission{Entries: []gradebook.MarkInput{row("Math", 101)}}, wantErr: true},
		{name: "negative mark", sub: gradebook.Submission{Entries: []gradebook.MarkInput{row("Math", -1)}}, wantErr: true},
		{name: "markup in subject", sub: gradebook.Submission{Entries: []gradebook.MarkInput{row("<b>Math</b>", 1)}}, wantErr: true},
		{
			name: "too many rows",
			sub: gradebook.Submission{Entries: []gradebook.MarkInput{
				row("a", 1), row("b", 1), row("c", 1), row("d", 1), row("e", 1), row("f", 1), row("g", 1), row("h", 1),
			}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sub.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			if !assert.NoError(t, err) {
				return
			}
			subjects, marks := tt.sub.Pairs()
			assert.Equal(t, tt.wantSubjects, subjects)
			assert.Equal(t, tt.wantMarks, marks)
		})
	}
}
