package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"aulanet/internal/core/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, is_admin, profile_picture, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Name, user.Email, user.PasswordHash, string(user.Role), user.IsAdmin, user.ProfilePicture, fmtTime(user.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user id: %w", err)
	}
	user.ID = domain.UserID(id)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, is_admin, profile_picture, created_at
		 FROM users WHERE id = ?`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, is_admin, profile_picture, created_at
		 FROM users WHERE email = ? COLLATE NOCASE`, email))
}

func (r *UserRepository) scanOne(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var createdAt string
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.IsAdmin, &user.ProfilePicture, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse user created_at: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, password_hash, role, is_admin, profile_picture, created_at
		 FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.User, 0)
	for rows.Next() {
		var user domain.User
		var createdAt string
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.IsAdmin, &user.ProfilePicture, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if user.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse user created_at: %w", err)
		}
		out = append(out, &user)
	}
	return out, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, password_hash = ?, role = ?, is_admin = ?, profile_picture = ?
		 WHERE id = ?`,
		user.Name, user.Email, user.PasswordHash, string(user.Role), user.IsAdmin, user.ProfilePicture, user.ID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id domain.UserID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListTeachers(ctx context.Context) ([]*domain.TeacherProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, u.password_hash, u.role, u.is_admin, u.profile_picture, u.created_at,
		        (SELECT COUNT(*) FROM videos v WHERE v.user_id = u.id)
		 FROM users u WHERE u.role = ? ORDER BY u.id`, string(domain.RoleTeacher))
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.TeacherProfile, 0)
	for rows.Next() {
		var p domain.TeacherProfile
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Role, &p.IsAdmin, &p.ProfilePicture, &createdAt, &p.VideoCount); err != nil {
			return nil, fmt.Errorf("scan teacher: %w", err)
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse teacher created_at: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
