package filestore

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/gradebook"
)

// MarksFile is the name of the per-user gradebook file.
const MarksFile = "marks.csv"

var csvHeader = []string{"Subject", "Marks"}

type gradebookRepository struct {
	root string
}

// NewGradebookRepository returns a gradebook.Repository storing <root>/<email>/marks.csv.
func NewGradebookRepository(root string) *gradebookRepository {
	return &gradebookRepository{root: root}
}

var _ gradebook.Repository = (*gradebookRepository)(nil)

func (repo *gradebookRepository) userDir(email string) string {
	return filepath.Join(repo.root, email)
}

func (repo *gradebookRepository) marksPath(email string) string {
	return filepath.Join(repo.userDir(email), MarksFile)
}

func (repo *gradebookRepository) Provision(_ context.Context, email string) error {
	return errors.Wrap(os.MkdirAll(repo.userDir(email), 0755), "creating user dir")
}

func (repo *gradebookRepository) SaveGradebook(ctx context.Context, email string, entries []gradebook.Entry) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, e := range entries {
		if err := w.Write([]string{e.Subject, strconv.Itoa(e.Mark)}); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "flushing csv")
	}

	if err := repo.Provision(ctx, email); err != nil {
		return err
	}
	return writeFileAtomic(repo.marksPath(email), buf.Bytes(), 0644)
}

func (repo *gradebookRepository) GetGradebook(_ context.Context, email string) (gradebook.Gradebook, error) {
	f, err := os.Open(repo.marksPath(email))
	if err != nil {
		if os.IsNotExist(err) {
			return gradebook.Gradebook{}, gradebook.ErrNotFound
		}
		return gradebook.Gradebook{}, errors.Wrap(err, "opening marks file")
	}
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return gradebook.Gradebook{}, errors.Wrap(err, "reading marks file")
	}

	gb := gradebook.Gradebook{Email: email, Entries: make([]gradebook.Entry, 0, len(rows))}
	for i, row := range rows {
		if len(row) != len(csvHeader) {
			return gradebook.Gradebook{}, errors.Errorf("marks file line %d: expected %d columns, got %d", i+1, len(csvHeader), len(row))
		}
		if i == 0 && strings.EqualFold(row[0], csvHeader[0]) {
			continue
		}
		mark, err := parseMark(row[1])
		if err != nil {
			return gradebook.Gradebook{}, errors.Wrapf(err, "marks file line %d", i+1)
		}
		gb.Entries = append(gb.Entries, gradebook.Entry{Subject: row[0], Mark: mark})
	}
	return gb, nil
}

// parseMark accepts integers, and floats with no fractional part as some spreadsheet tools write them.
func parseMark(s string) (int, error) {
	s = strings.TrimSpace(s)
	if mark, err := strconv.Atoi(s); err == nil {
		return mark, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, errors.Errorf("invalid mark %q", s)
	}
	return int(f), nil
}
