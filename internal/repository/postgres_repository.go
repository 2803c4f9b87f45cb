package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"story-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DBTX - общий интерфейс пула и транзакции pgx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	getUserQuery     = `SELECT email, data FROM users WHERE email = $1`
	getAllUsersQuery = `SELECT email, data FROM users ORDER BY email`
	upsertUserQuery  = `
        INSERT INTO users (email, data, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (email) DO UPDATE SET
            data = EXCLUDED.data,
            updated_at = EXCLUDED.updated_at
    `
	getSharedStoryQuery    = `SELECT id, data FROM shared_stories WHERE id = $1`
	insertSharedStoryQuery = `INSERT INTO shared_stories (id, data, created_at) VALUES ($1, $2, $3)`
)

type userRow struct {
	Email string `db:"email"`
	Data  []byte `db:"data"`
}

type sharedRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

// PostgresRepository хранит агрегат пользователя одной JSONB-строкой.
type PostgresRepository struct {
	db     DBTX
	logger *zap.Logger
}

var (
	_ UserRepository        = (*PostgresRepository)(nil)
	_ SharedStoryRepository = (*PostgresRepository)(nil)
)

// NewPostgresRepository создает репозиторий поверх пула или транзакции.
func NewPostgresRepository(db DBTX, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: logger.Named("PgRepo")}
}

// GetUser читает пользователя по email.
func (r *PostgresRepository) GetUser(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	if err := pgxscan.Get(ctx, r.db, &row, getUserQuery, email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found", zap.String("email", email))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get user from postgres", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get user from postgres: %w", err)
	}

	user := &models.User{}
	if err := json.Unmarshal(row.Data, user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", email, err)
	}
	return user, nil
}

// SaveUser делает upsert агрегата.
func (r *PostgresRepository) SaveUser(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user %s: %w", user.Email, err)
	}
	if _, err := r.db.Exec(ctx, upsertUserQuery, user.Email, data, time.Now().UTC()); err != nil {
		r.logger.Error("Failed to save user to postgres", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to save user to postgres: %w", err)
	}
	return nil
}

// GetAllUsers читает всех пользователей.
func (r *PostgresRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	var rows []userRow
	if err := pgxscan.Select(ctx, r.db, &rows, getAllUsersQuery); err != nil {
		r.logger.Error("Failed to list users from postgres", zap.Error(err))
		return nil, fmt.Errorf("failed to list users from postgres: %w", err)
	}

	users := make([]*models.User, 0, len(rows))
	for _, row := range rows {
		user := &models.User{}
		if err := json.Unmarshal(row.Data, user); err != nil {
			return nil, fmt.Errorf("failed to decode user %s: %w", row.Email, err)
		}
		users = append(users, user)
	}
	return users, nil
}

// GetSharedStory читает снимок по id.
func (r *PostgresRepository) GetSharedStory(ctx context.Context, id string) (*models.SharedStory, error) {
	var row sharedRow
	if err := pgxscan.Get(ctx, r.db, &row, getSharedStoryQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get shared story from postgres", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get shared story from postgres: %w", err)
	}

	shared := &models.SharedStory{}
	if err := json.Unmarshal(row.Data, shared); err != nil {
		return nil, fmt.Errorf("failed to decode shared story %s: %w", id, err)
	}
	return shared, nil
}

// SaveSharedStory вставляет снимок.
func (r *PostgresRepository) SaveSharedStory(ctx context.Context, shared *models.SharedStory) error {
	data, err := json.Marshal(shared)
	if err != nil {
		return fmt.Errorf("failed to encode shared story %s: %w", shared.ID, err)
	}
	if _, err := r.db.Exec(ctx, insertSharedStoryQuery, shared.ID, data, shared.CreatedAt); err != nil {
		r.logger.Error("Failed to save shared story to postgres", zap.String("id", shared.ID), zap.Error(err))
		return fmt.Errorf("failed to save shared story to postgres: %w", err)
	}
	return nil
}
