package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MuellerConstantin/taskcare-service/internal/domain"
	"github.com/MuellerConstantin/taskcare-service/internal/timestamp"
)

// boardRecord представляет строку таблицы boards вместе с дочерними строками
type boardRecord struct {
	ID              uuid.UUID
	Name            string
	CreatedBy       string
	CreatedAt       *time.Time
	CreatedAtOffset *string

	Members []memberRecord
	Tasks   []taskRecord
}

// memberRecord представляет строку таблицы board_members со ссылкой на пользователя
type memberRecord struct {
	BoardID uuid.UUID
	User    userRecord
	Role    string
}

// taskRecord представляет строку таблицы tasks
type taskRecord struct {
	ID              uuid.UUID
	BoardID         uuid.UUID
	Name            string
	Description     string
	Priority        int
	Status          string
	CreatedBy       string
	CreatedAt       *time.Time
	CreatedAtOffset *string
	ExpiresAt       *time.Time
	ExpiresAtOffset *string
}

// userRecord представляет строку таблицы users
type userRecord struct {
	Username    string
	DisplayName string
}

// userFinder ищет пользователя, на которого ссылается участник доски
type userFinder interface {
	FindUser(ctx context.Context, username string) (*userRecord, bool, error)
}

// boardMapper переводит агрегат доски в записи БД и обратно
type boardMapper struct{}

// mapToRecord строит запись доски в два прохода: сначала базовую запись,
// затем дочерние строки участников и задач со ссылкой на нее
func (m boardMapper) mapToRecord(ctx context.Context, board *domain.Board, users userFinder) (*boardRecord, error) {
	createdAt, createdAtOffset := timestamp.Encode(&board.CreatedAt)

	rec := &boardRecord{
		ID:              board.ID,
		Name:            board.Name,
		CreatedBy:       board.CreatedBy,
		CreatedAt:       createdAt,
		CreatedAtOffset: createdAtOffset,
		Members:         make([]memberRecord, 0, len(board.Members)),
		Tasks:           make([]taskRecord, 0, len(board.Tasks)),
	}

	for _, member := range board.Members {
		user, found, err := users.FindUser(ctx, member.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to look up member user %s: %w", member.Username, err)
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", domain.ErrMemberUserNotFound, member.Username)
		}

		rec.Members = append(rec.Members, memberRecord{
			BoardID: rec.ID,
			User:    *user,
			Role:    member.Role.Name(),
		})
	}

	for _, task := range board.Tasks {
		taskCreatedAt, taskCreatedAtOffset := timestamp.Encode(&task.CreatedAt)
		expiresAt, expiresAtOffset := timestamp.Encode(task.ExpiresAt)

		rec.Tasks = append(rec.Tasks, taskRecord{
			ID:              task.ID,
			BoardID:         rec.ID,
			Name:            task.Name,
			Description:     task.Description,
			Priority:        task.Priority,
			Status:          task.Status.Name(),
			CreatedBy:       task.CreatedBy,
			CreatedAt:       taskCreatedAt,
			CreatedAtOffset: taskCreatedAtOffset,
			ExpiresAt:       expiresAt,
			ExpiresAtOffset: expiresAtOffset,
		})
	}

	return rec, nil
}

// mapToDomain восстанавливает агрегат из записи БД
func (m boardMapper) mapToDomain(rec *boardRecord) (*domain.Board, error) {
	createdAt, err := timestamp.Decode(rec.CreatedAt, rec.CreatedAtOffset)
	if err != nil {
		return nil, fmt.Errorf("board %s created_at: %w", rec.ID, err)
	}

	board := &domain.Board{
		ID:        rec.ID,
		Name:      rec.Name,
		CreatedBy: rec.CreatedBy,
		Members:   make([]domain.Member, 0, len(rec.Members)),
		Tasks:     make([]domain.Task, 0, len(rec.Tasks)),
	}
	if createdAt != nil {
		board.CreatedAt = *createdAt
	}

	for _, mr := range rec.Members {
		member, err := m.mapMemberToDomain(mr)
		if err != nil {
			return nil, fmt.Errorf("board %s: %w", rec.ID, err)
		}
		board.Members = append(board.Members, member)
	}

	for _, tr := range rec.Tasks {
		task, err := m.mapTaskToDomain(tr)
		if err != nil {
			return nil, fmt.Errorf("board %s: %w", rec.ID, err)
		}
		board.Tasks = append(board.Tasks, task)
	}

	return board, nil
}

func (m boardMapper) mapMemberToDomain(rec memberRecord) (domain.Member, error) {
	role, err := domain.ParseRole(rec.Role)
	if err != nil {
		return domain.Member{}, fmt.Errorf("member %s: %w", rec.User.Username, err)
	}

	return domain.Member{
		Username: rec.User.Username,
		Role:     role,
	}, nil
}

func (m boardMapper) mapTaskToDomain(rec taskRecord) (domain.Task, error) {
	status, err := domain.ParseTaskStatus(rec.Status)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %s: %w", rec.ID, err)
	}

	createdAt, err := timestamp.Decode(rec.CreatedAt, rec.CreatedAtOffset)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %s created_at: %w", rec.ID, err)
	}

	expiresAt, err := timestamp.Decode(rec.ExpiresAt, rec.ExpiresAtOffset)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %s expires_at: %w", rec.ID, err)
	}

	task := domain.Task{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Priority:    rec.Priority,
		Status:      status,
		CreatedBy:   rec.CreatedBy,
		ExpiresAt:   expiresAt,
	}
	if createdAt != nil {
		task.CreatedAt = *createdAt
	}

	return task, nil
}

// mapPageToDomain переводит страницу записей в страницу агрегатов, сохраняя номер и размер страницы
func (m boardMapper) mapPageToDomain(records []*boardRecord, settings domain.PageSettings, total int64) (*domain.Page[*domain.Board], error) {
	boards := make([]*domain.Board, 0, len(records))
	for _, rec := range records {
		board, err := m.mapToDomain(rec)
		if err != nil {
			return nil, err
		}
		boards = append(boards, board)
	}

	return domain.NewPage(boards, settings, total), nil
}
