package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"example/waxroom/internal/database"
	"example/waxroom/internal/logger"
	"example/waxroom/internal/models"
)

// User database operations

// CreateUser adds a user with an already-hashed password,
// returning the public user record
func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash string) (models.User, error) {
	logger.Log.Infow("Adding new user", "email", email)

	now := time.Now().UTC().Truncate(time.Microsecond)
	id, err := r.db.Dialect.InsertID(ctx, r.db,
		"INSERT INTO users (name, email, password, created_at) VALUES (?, ?, ?, ?)",
		name, email, passwordHash, now)
	if database.IsUniqueViolation(err) {
		logger.Log.Infow("Email already registered", "email", email)
		return models.User{}, ErrDuplicate
	}
	if err != nil {
		logger.Log.Errorw("Failed to insert user", "error", err, "email", email)
		return models.User{}, fmt.Errorf("createUser: %w", err)
	}

	logger.Log.Infow("User created", "user_id", id)
	return models.User{ID: id, Name: name, Email: email, CreatedAt: &now}, nil
}

// GetUserByID queries for the user with the specified ID
func (r *Repository) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	var created time.Time

	row := r.db.QueryRowContext(ctx, r.q("SELECT id, name, email, created_at FROM users WHERE id = ?"), id)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user, ErrNotFound
		}
		logger.Log.Errorw("Failed to load user", "user_id", id, "error", err)
		return user, fmt.Errorf("getUserByID %d: %w", id, err)
	}
	user.CreatedAt = &created
	return user, nil
}

// GetCredentialsByEmail loads the user row including its password hash
func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (models.Credentials, error) {
	var c models.Credentials
	var created time.Time

	row := r.db.QueryRowContext(ctx, r.q("SELECT id, name, email, password, created_at FROM users WHERE email = ?"), email)
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, ErrNotFound
		}
		logger.Log.Errorw("Failed to load credentials", "error", err)
		return c, fmt.Errorf("getCredentialsByEmail: %w", err)
	}
	c.CreatedAt = &created
	return c, nil
}

// UpdateUser overwrites name and email and returns the stored record
func (r *Repository) UpdateUser(ctx context.Context, id int64, name, email string) (models.User, error) {
	_, err := r.db.ExecContext(ctx, r.q("UPDATE users SET name = ?, email = ? WHERE id = ?"), name, email, id)
	if database.IsUniqueViolation(err) {
		return models.User{}, ErrDuplicate
	}
	if err != nil {
		logger.Log.Errorw("Failed to update user", "user_id", id, "error", err)
		return models.User{}, fmt.Errorf("updateUser %d: %w", id, err)
	}
	logger.Log.Infow("User updated", "user_id", id)
	return r.GetUserByID(ctx, id)
}
