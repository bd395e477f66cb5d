package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/gradebook"
)

type (
	gradebookRepository struct {
		db *sqlx.DB
	}

	markRow struct {
		Subject string `db:"subject"`
		Mark    int    `db:"mark"`
	}
)

func NewGradebookRepository(db *sqlx.DB) gradebook.Repository {
	return &gradebookRepository{db: db}
}

func (repo *gradebookRepository) Provision(ctx context.Context, email string) error {
	const q = `INSERT INTO gradebooks (email) VALUES ($1) ON CONFLICT (email) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, q, email); err != nil {
		return errors.Wrap(err, "provisioning gradebook")
	}
	return nil
}

// SaveGradebook replaces the user's marks in one transaction.
func (repo *gradebookRepository) SaveGradebook(ctx context.Context, email string, entries []gradebook.Entry) (err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsert = `INSERT INTO gradebooks (email, saved_at) VALUES ($1, now())
		ON CONFLICT (email) DO UPDATE SET saved_at = EXCLUDED.saved_at`
	if _, err = tx.ExecContext(ctx, upsert, email); err != nil {
		return errors.Wrap(err, "saving gradebook")
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM marks WHERE email = $1`, email); err != nil {
		return errors.Wrap(err, "clearing marks")
	}
	for i, e := range entries {
		const ins = `INSERT INTO marks (email, position, subject, mark) VALUES ($1, $2, $3, $4)`
		if _, err = tx.ExecContext(ctx, ins, email, i, e.Subject, e.Mark); err != nil {
			return errors.Wrap(err, "inserting mark")
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing marks")
	}
	return nil
}

func (repo *gradebookRepository) GetGradebook(ctx context.Context, email string) (gradebook.Gradebook, error) {
	var savedAt sql.NullTime
	err := repo.db.GetContext(ctx, &savedAt, `SELECT saved_at FROM gradebooks WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return gradebook.Gradebook{}, gradebook.ErrNotFound
		}
		return gradebook.Gradebook{}, errors.Wrap(err, "selecting gradebook")
	}
	if !savedAt.Valid {
		return gradebook.Gradebook{}, gradebook.ErrNotFound
	}

	var rows []markRow
	if err = repo.db.SelectContext(ctx, &rows, `SELECT subject, mark FROM marks WHERE email = $1 ORDER BY position`, email); err != nil {
		return gradebook.Gradebook{}, errors.Wrap(err, "selecting marks")
	}
	gb := gradebook.Gradebook{Email: email, Entries: make([]gradebook.Entry, 0, len(rows))}
	for _, r := range rows {
		gb.Entries = append(gb.Entries, gradebook.Entry{Subject: r.Subject, Mark: r.Mark})
	}
	return gb, nil
}
