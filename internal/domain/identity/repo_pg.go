package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) UserRepository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const uniqueViolation = "23505"

func (r *repoPG) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	// The user row and its role assignments commit together.
	if db.ConnFromContext(ctx) == nil {
		return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
			return r.create(ctx, u)
		})
	}
	return r.create(ctx, u)
}

func (r *repoPG) create(ctx context.Context, u *User) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO app_user (id, email, username, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		u.ID, u.Email, u.Username, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return r.insertRoles(ctx, u.ID, u.Roles)
}

func (r *repoPG) insertRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	for _, role := range roles {
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO user_role (user_id, role_name) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			userID, role); err != nil {
			return fmt.Errorf("assign role %s: %w", role, err)
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, `email = $1`, email)
}

func (r *repoPG) getBy(ctx context.Context, where string, arg interface{}) (*User, error) {
	var u User
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, email, username, password_hash, created_at
		FROM app_user WHERE `+where, arg).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.Roles, err = r.rolesFor(ctx, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repoPG) rolesFor(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT role_name FROM user_role WHERE user_id = $1 ORDER BY role_name`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM app_user`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, email, username, password_hash, created_at
		FROM app_user ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, u := range users {
		if u.Roles, err = r.rolesFor(ctx, u.ID); err != nil {
			return nil, 0, err
		}
	}
	return users, total, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SetRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	if db.ConnFromContext(ctx) == nil {
		return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
			return r.setRoles(ctx, userID, roles)
		})
	}
	return r.setRoles(ctx, userID, roles)
}

func (r *repoPG) setRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	var exists bool
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM app_user WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM user_role WHERE user_id = $1`, userID); err != nil {
		return err
	}
	return r.insertRoles(ctx, userID, roles)
}

func (r *repoPG) EnsureRoles(ctx context.Context, names []string) (int, error) {
	created := 0
	for _, name := range names {
		tag, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO role (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
			name)
		if err != nil {
			return created, fmt.Errorf("ensure role %s: %w", name, err)
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

func (r *repoPG) ListRoles(ctx context.Context) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT name FROM role ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}
