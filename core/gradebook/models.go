package gradebook

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/alama/core"
)

const (
	MaxEntries  = 7
	MinMark     = 0
	MaxMark     = 100
	DefaultMark = 50
)

// Entry is one subject/mark pair.
type Entry struct {
	Subject string `json:"subject"`
	Mark    int    `json:"mark"`
}

// Gradebook is the ordered list of a user's marks.
type Gradebook struct {
	Email   string  `json:"email"`
	Entries []Entry `json:"entries"`
}

func (g Gradebook) IsEmpty() bool { return len(g.Entries) == 0 }

func (g Gradebook) Total() int {
	var total int
	for _, e := range g.Entries {
		total += e.Mark
	}
	return total
}

// Average is the arithmetic mean of all marks, 0 for an empty gradebook.
func (g Gradebook) Average() float64 {
	if g.IsEmpty() {
		return 0
	}
	return float64(g.Total()) / float64(len(g.Entries))
}

// MarkInput is one row of the marks form.
type MarkInput struct {
	Subject string `json:"subject" form:"subject" validate:"max=100,excludesall=<>&"`
	Mark    int    `json:"mark" form:"mark" validate:"min=0,max=100"`
}

// Submission is a full marks form; rows with a blank subject are ignored.
type Submission struct {
	Entries []MarkInput `json:"entries" validate:"max=7,dive"`
}

func (s *Submission) Validate(validate *validator.Validate) error {
	for i := range s.Entries {
		s.Entries[i].Subject = core.CleanString(s.Entries[i].Subject)
	}
	return validate.Struct(s)
}

// Pairs returns the filled rows as two same-length sequences.
func (s Submission) Pairs() ([]string, []int) {
	subjects := make([]string, 0, len(s.Entries))
	marks := make([]int, 0, len(s.Entries))
	for _, e := range s.Entries {
		if e.Subject == "" {
			continue
		}
		subjects = append(subjects, e.Subject)
		marks = append(marks, e.Mark)
	}
	return subjects, marks
}
