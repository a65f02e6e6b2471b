package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MuellerConstantin/taskcare-service/internal/domain"
)

// UserRepository реализует repository.UserRepository для PostgreSQL
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository создает новый экземпляр UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create создает пользователя; занятое имя возвращает ErrUserExists
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, display_name, password_hash)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.Exec(ctx, query, user.Username, user.DisplayName, user.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
			return fmt.Errorf("%w: %s", domain.ErrUserExists, user.Username)
		}
		return err
	}

	return nil
}

// CreateOrUpdate создает нового пользователя или обновляет отображаемое имя существующего
func (r *UserRepository) CreateOrUpdate(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, display_name, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query, user.Username, user.DisplayName, user.PasswordHash)
	return err
}

// GetByUsername получает пользователя по имени
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT username, display_name, password_hash
		FROM users
		WHERE username = $1
	`

	var user domain.User
	err := r.db.QueryRow(ctx, query, username).Scan(&user.Username, &user.DisplayName, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// Exists проверяет существование пользователя
func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// txUserFinder ищет пользователей в рамках той же транзакции, что и запись доски
type txUserFinder struct {
	q querier
}

// FindUser реализует userFinder
func (f txUserFinder) FindUser(ctx context.Context, username string) (*userRecord, bool, error) {
	return findUser(ctx, f.q, username)
}

func findUser(ctx context.Context, q querier, username string) (*userRecord, bool, error) {
	query := `
		SELECT username, display_name
		FROM users
		WHERE username = $1
	`

	var rec userRecord
	err := q.QueryRow(ctx, query, username).Scan(&rec.Username, &rec.DisplayName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &rec, true, nil
}
