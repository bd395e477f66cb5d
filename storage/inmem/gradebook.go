package inmemdb

import (
	"context"

	"github.com/trezcool/alama/core/gradebook"
)

type gradebookRepository struct {
	db *gradebookTable
}

func NewGradebookRepository(db *DB) gradebook.Repository {
	return &gradebookRepository{db: db.gradebook}
}

func (repo *gradebookRepository) Provision(_ context.Context, email string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.provisioned[email] = true
	return nil
}

func (repo *gradebookRepository) SaveGradebook(_ context.Context, email string, entries []gradebook.Entry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.provisioned[email] = true
	repo.db.table[email] = append([]gradebook.Entry(nil), entries...)
	return nil
}

func (repo *gradebookRepository) GetGradebook(_ context.Context, email string) (gradebook.Gradebook, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries, ok := repo.db.table[email]
	if !ok {
		return gradebook.Gradebook{}, gradebook.ErrNotFound
	}
	return gradebook.Gradebook{
		Email:   email,
		Entries: append([]gradebook.Entry(nil), entries...),
	}, nil
}
