package gradebook

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

var (
	// errors
	ErrNotFound = errors.New("no marks found")
)

type (
	Repository interface {
		// SaveGradebook overwrites the user's gradebook with entries.
		SaveGradebook(ctx context.Context, email string, entries []Entry) error
		// GetGradebook returns ErrNotFound when nothing was ever saved for email.
		GetGradebook(ctx context.Context, email string) (Gradebook, error)
		// Provision creates the empty per-user storage.
		Provision(ctx context.Context, email string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SaveMarks pairs subjects and marks index-wise and replaces the user's gradebook.
// Mark ranges are not checked here.
func (svc *Service) SaveMarks(ctx context.Context, email string, subjects []string, marks []int) (Gradebook, error) {
	if !core.IsPathSafe(email) {
		return Gradebook{}, core.NewFieldError("email", "invalid email")
	}
	if len(subjects) != len(marks) {
		return Gradebook{}, core.NewValidationError(
			fmt.Errorf("got %d subjects and %d marks", len(subjects), len(marks)),
			core.FieldError{Field: "entries", Error: "subjects and marks must have the same length"},
		)
	}

	entries := make([]Entry, 0, len(subjects))
	for i, subject := range subjects {
		entries = append(entries, Entry{Subject: subject, Mark: marks[i]})
	}
	if err := svc.repo.SaveGradebook(ctx, email, entries); err != nil {
		return Gradebook{}, pkgerrors.Wrap(err, "saving gradebook")
	}
	return Gradebook{Email: email, Entries: entries}, nil
}

// LoadMarks returns the user's gradebook or ErrNotFound.
func (svc *Service) LoadMarks(ctx context.Context, email string) (Gradebook, error) {
	if !core.IsPathSafe(email) {
		return Gradebook{}, ErrNotFound
	}
	gb, err := svc.repo.GetGradebook(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Gradebook{}, ErrNotFound
		}
		return Gradebook{}, pkgerrors.Wrap(err, "loading gradebook")
	}
	return gb, nil
}

// HasMarks reports whether a gradebook was saved for email.
func (svc *Service) HasMarks(ctx context.Context, email string) (bool, error) {
	if _, err := svc.LoadMarks(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Provision implements user.Provisioner.
func (svc *Service) Provision(ctx context.Context, email string) error {
	if !core.IsPathSafe(email) {
		return core.NewFieldError("email", "invalid email")
	}
	return svc.repo.Provision(ctx, email)
}
