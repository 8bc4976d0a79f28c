package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kunalverma25/users-api/internal/domain/entity"
	"github.com/kunalverma25/users-api/internal/domain/repository"
)

const userColumns = `id, username, first_name, last_name, email, mobile_number, password, avatar, dob, gender, is_active, created, updated`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, u.ID, u.Username, u.FirstName, u.LastName, u.Email, u.MobileNumber,
		u.Password, u.Avatar, u.DOB, string(u.Gender), u.IsActive, u.Created, u.Updated)
	return mapConstraint(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

// List returns one page of users ordered by created descending (id as
// tie-break for equal timestamps) together with the total count. Nil limit
// returns everything after the offset.
func (r *UserRepository) List(ctx context.Context, limit, offset *int) ([]*entity.User, int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + userColumns + ` FROM users ORDER BY created DESC, id`
	args := []any{}
	if limit != nil {
		args = append(args, *limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset != nil && *offset > 0 {
		args = append(args, *offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET username = $1, first_name = $2, last_name = $3, email = $4,
		    mobile_number = $5, password = $6, avatar = $7, dob = $8,
		    gender = $9, is_active = $10, updated = $11
		WHERE id = $12
	`, u.Username, u.FirstName, u.LastName, u.Email, u.MobileNumber,
		u.Password, u.Avatar, u.DOB, string(u.Gender), u.IsActive, u.Updated, u.ID)
	if err != nil {
		return mapConstraint(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var gender string
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email,
		&u.MobileNumber, &u.Password, &u.Avatar, &u.DOB, &gender, &u.IsActive,
		&u.Created, &u.Updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.Gender = entity.Gender(gender)
	return u, nil
}

// mapConstraint turns a unique violation on the username index into the
// domain-level sentinel. Concurrent creates racing on one username resolve
// here: one insert wins, the rest surface ErrUsernameTaken.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrUsernameTaken
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
