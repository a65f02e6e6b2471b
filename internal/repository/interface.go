package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/MuellerConstantin/taskcare-service/internal/domain"
)

// UserRepository определяет методы для работы с данными пользователей
type UserRepository interface {
	// Create создает пользователя; занятое имя возвращает ErrUserExists
	Create(ctx context.Context, user *domain.User) error

	// CreateOrUpdate создает нового пользователя или обновляет отображаемое имя существующего.
	// Хэш пароля существующего пользователя не меняется.
	CreateOrUpdate(ctx context.Context, user *domain.User) error

	// GetByUsername получает пользователя по имени
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Exists проверяет существование пользователя
	Exists(ctx context.Context, username string) (bool, error)
}

// BoardRepository определяет методы для работы с агрегатом доски.
// Отсутствие доски не считается ошибкой: методы возвращают false или пустую страницу.
type BoardRepository interface {
	// HasMember проверяет членство пользователя без загрузки агрегата
	HasMember(ctx context.Context, boardID uuid.UUID, username string) (bool, error)

	// HasMemberWithRole проверяет членство пользователя с точным совпадением имени роли
	HasMemberWithRole(ctx context.Context, boardID uuid.UUID, username string, role domain.Role) (bool, error)

	// FindAllWithMembership возвращает страницу досок, в которых состоит пользователь
	FindAllWithMembership(ctx context.Context, username string, settings domain.PageSettings) (*domain.Page[*domain.Board], error)

	// FindByID получает доску по ID; второй результат false если доски нет
	FindByID(ctx context.Context, boardID uuid.UUID) (*domain.Board, bool, error)

	// FindAll возвращает страницу всех досок
	FindAll(ctx context.Context, settings domain.PageSettings) (*domain.Page[*domain.Board], error)

	// ExistsByID проверяет существование доски
	ExistsByID(ctx context.Context, boardID uuid.UUID) (bool, error)

	// DeleteByID удаляет доску вместе с участниками и задачами; true если доска существовала
	DeleteByID(ctx context.Context, boardID uuid.UUID) (bool, error)

	// Save атомарно сохраняет доску, ее участников и задачи
	Save(ctx context.Context, board *domain.Board) error
}
