package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/user"
)

const uniqueViolation = "23505"

type (
	userRepository struct {
		db *sqlx.DB
	}

	userRow struct {
		Email    string       `db:"email"`
		Name     string       `db:"name"`
		Phone    string       `db:"phone"`
		DOB      sql.NullTime `db:"dob"`
		Password string       `db:"password"`
	}
)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (r userRow) toUser() user.User {
	usr := user.User{
		Email:    r.Email,
		Name:     r.Name,
		Phone:    r.Phone,
		Password: r.Password,
	}
	if r.DOB.Valid {
		usr.DOB = r.DOB.Time.UTC()
	}
	return usr
}

func nullDate(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `INSERT INTO users (email, name, phone, dob, password) VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, q, usr.Email, usr.Name, usr.Phone, nullDate(usr.DOB), usr.Password)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return user.User{}, user.ErrDuplicateAccount
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT email, name, phone, dob, password FROM users ORDER BY email`); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, `SELECT email, name, phone, dob, password FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `UPDATE users SET name = $2, phone = $3, dob = $4, password = $5 WHERE email = $1`
	res, err := repo.db.ExecContext(ctx, q, usr.Email, usr.Name, usr.Phone, nullDate(usr.DOB), usr.Password)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
