package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

const pgUniqueViolation = "23505"

// Users is the bun backed UserStore
type Users interface {
	UserStore
}

type users struct {
	db  *bun.DB
	now clock
}

var _ Users = (*users)(nil)

type UsersOption func(*users)

// WithUsersClock sets the time source for created_at / updated_at
func WithUsersClock(now func() time.Time) UsersOption {
	return func(u *users) {
		if now != nil {
			u.now = now
		}
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repoUsers := &users{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}
	return repoUsers
}

func (a *users) FindByUsername(ctx context.Context, username string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, map[string]any{"username": username})
	}
	return record, nil
}

func (a *users) FindByID(ctx context.Context, id int64) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, map[string]any{"id": id})
	}
	return record, nil
}

func (a *users) Create(ctx context.Context, user *User) (*User, error) {
	if user == nil {
		return nil, ErrInvalidInput
	}

	a.prepareDefaults(user)

	_, err := a.db.NewInsert().
		Model(user).
		ExcludeColumn("id").
		Returning("id").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	return user, nil
}

// Update writes only the fields set in changes. An empty change set
// still checks that the row exists.
func (a *users) Update(ctx context.Context, id int64, changes UserChanges) error {
	if changes.IsEmpty() {
		_, err := a.FindByID(ctx, id)
		return err
	}

	q := a.db.NewUpdate().
		Model((*User)(nil)).
		Where("id = ?", id).
		Set("updated_at = ?", a.now().UTC())

	if changes.Username != nil {
		q = q.Set("username = ?", *changes.Username)
	}
	if changes.Email != nil {
		q = q.Set("email = ?", *changes.Email)
	}
	if changes.PasswordHash != nil {
		q = q.Set("password_hash = ?", *changes.PasswordHash)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	return requireAffected(res, id)
}

func (a *users) Delete(ctx context.Context, id int64) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, id)
}

func (a *users) prepareDefaults(user *User) {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.TrimSpace(user.Email)
	if user.Role == "" {
		user.Role = RoleUser
	}
	now := a.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Wrap(ErrIdentityNotFound, errors.CategoryNotFound, ErrIdentityNotFound.Message).
			WithTextCode(TextCodeUserNotFound).
			WithCode(errors.CodeNotFound).
			WithMetadata(map[string]any{"id": id})
	}
	return nil
}

func notFoundOr(err error, meta map[string]any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(ErrIdentityNotFound, errors.CategoryNotFound, ErrIdentityNotFound.Message).
			WithTextCode(TextCodeUserNotFound).
			WithCode(errors.CodeNotFound).
			WithMetadata(meta)
	}
	return err
}

// isUniqueViolation recognises unique constraint failures from both
// Postgres (pgx) and SQLite.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
