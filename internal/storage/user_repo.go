package storage

import (
	"context"
	"errors"
	"fmt"

	"researchhub/internal/models"

	"github.com/jackc/pgx/v5"
)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u models.User, hashedPassword string) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO users (user_id, email, username, hashed_password)
VALUES ($1, $2, $3, $4)`, u.UserID, u.Email, u.Username, hashedPassword)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, bool, error) {
	var u models.User
	err := r.db.Pool.QueryRow(ctx, `
SELECT user_id::text, email, username, created_at FROM users WHERE email=$1`, email).
		Scan(&u.UserID, &u.Email, &u.Username, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("get user by email: %w", err)
	}
	return u, true, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (models.User, error) {
	var u models.User
	err := r.db.Pool.QueryRow(ctx, `
SELECT user_id::text, email, username, created_at FROM users WHERE user_id=$1`, userID).
		Scan(&u.UserID, &u.Email, &u.Username, &u.CreatedAt)
	if err != nil {
		return models.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}
