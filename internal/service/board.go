package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MuellerConstantin/taskcare-service/internal/domain"
	"github.com/MuellerConstantin/taskcare-service/internal/events"
	"github.com/MuellerConstantin/taskcare-service/internal/repository"
)

// Clock returns the current time; replaced in tests
type Clock func() time.Time

// BoardService implements board use cases: authorization checks, aggregate mutation,
// persistence and handing raised events to the publisher
type BoardService struct {
	boardRepo repository.BoardRepository
	userRepo  repository.UserRepository
	publisher events.Publisher
	logger    *slog.Logger
	now       Clock
}

// NewBoardService creates a new BoardService
func NewBoardService(
	boardRepo repository.BoardRepository,
	userRepo repository.UserRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) *BoardService {
	return &BoardService{
		boardRepo: boardRepo,
		userRepo:  userRepo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source
func (s *BoardService) WithClock(clock Clock) *BoardService {
	s.now = clock
	return s
}

// NewTaskInput holds the fields a caller supplies for a new task
type NewTaskInput struct {
	Name        string
	Description string
	Priority    int
	Status      domain.TaskStatus
	ExpiresAt   *time.Time
}

// CreateBoard creates a board owned by the creator
func (s *BoardService) CreateBoard(ctx context.Context, creator, name string) (*domain.Board, error) {
	exists, err := s.userRepo.Exists(ctx, creator)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	board := domain.NewBoard(uuid.New(), name, creator, s.now())

	if err := s.save(ctx, board); err != nil {
		return nil, err
	}

	return board, nil
}

// GetBoard returns a board visible to the actor
func (s *BoardService) GetBoard(ctx context.Context, actor string, boardID uuid.UUID) (*domain.Board, error) {
	if err := s.requireMember(ctx, actor, boardID); err != nil {
		return nil, err
	}

	board, found, err := s.boardRepo.FindByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrBoardNotFound
	}

	return board, nil
}

// ListBoards returns the boards the actor is a member of
func (s *BoardService) ListBoards(ctx context.Context, actor string, settings domain.PageSettings) (*domain.Page[*domain.Board], error) {
	return s.boardRepo.FindAllWithMembership(ctx, actor, settings)
}

// DeleteBoard removes a board; only owners may do this. BoardDeletedEvent is raised here
// because the aggregate is gone once the repository returns.
func (s *BoardService) DeleteBoard(ctx context.Context, actor string, boardID uuid.UUID) error {
	if err := s.requireRole(ctx, actor, boardID, domain.RoleOwner); err != nil {
		return err
	}

	deleted, err := s.boardRepo.DeleteByID(ctx, boardID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrBoardNotFound
	}

	s.publish(ctx, domain.NewBoardDeletedEvent(boardID, s.now()))
	return nil
}

// AddMember adds an existing user to the board; only owners may do this
func (s *BoardService) AddMember(ctx context.Context, actor string, boardID uuid.UUID, username string, role domain.Role) (*domain.Board, error) {
	if err := s.requireRole(ctx, actor, boardID, domain.RoleOwner); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.Exists(ctx, username)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	board, err := s.load(ctx, boardID)
	if err != nil {
		return nil, err
	}

	if err := board.AddMember(username, role, s.now()); err != nil {
		return nil, err
	}

	if err := s.save(ctx, board); err != nil {
		return nil, err
	}

	return board, nil
}

// RemoveMember removes a member; only owners may do this
func (s *BoardService) RemoveMember(ctx context.Context, actor string, boardID uuid.UUID, username string) (*domain.Board, error) {
	if err := s.requireRole(ctx, actor, boardID, domain.RoleOwner); err != nil {
		return nil, err
	}

	board, err := s.load(ctx, boardID)
	if err != nil {
		return nil, err
	}

	if err := board.RemoveMember(username); err != nil {
		return nil, err
	}

	if err := s.save(ctx, board); err != nil {
		return nil, err
	}

	return board, nil
}

// AddTask creates a task on the board; visitors may not do this
func (s *BoardService) AddTask(ctx context.Context, actor string, boardID uuid.UUID, input NewTaskInput) (*domain.Task, error) {
	if input.Priority < domain.MinPriority || input.Priority > domain.MaxPriority {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidPriority, input.Priority)
	}

	board, err := s.loadForWrite(ctx, actor, boardID)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.StatusOpen
	}

	task := domain.Task{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Priority:    input.Priority,
		Status:      status,
		CreatedBy:   actor,
		CreatedAt:   s.now(),
		ExpiresAt:   input.ExpiresAt,
	}

	if err := board.AddTask(task); err != nil {
		return nil, err
	}

	if err := s.save(ctx, board); err != nil {
		return nil, err
	}

	return &task, nil
}

// RemoveTask deletes a task from the board; visitors may not do this
func (s *BoardService) RemoveTask(ctx context.Context, actor string, boardID, taskID uuid.UUID) error {
	board, err := s.loadForWrite(ctx, actor, boardID)
	if err != nil {
		return err
	}

	if err := board.RemoveTask(taskID, s.now()); err != nil {
		return err
	}

	return s.save(ctx, board)
}

func (s *BoardService) loadForWrite(ctx context.Context, actor string, boardID uuid.UUID) (*domain.Board, error) {
	if err := s.requireMember(ctx, actor, boardID); err != nil {
		return nil, err
	}

	board, err := s.load(ctx, boardID)
	if err != nil {
		return nil, err
	}

	if board.HasMemberWithRole(actor, domain.RoleVisitor) {
		return nil, domain.ErrForbidden
	}

	return board, nil
}

func (s *BoardService) load(ctx context.Context, boardID uuid.UUID) (*domain.Board, error) {
	board, found, err := s.boardRepo.FindByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrBoardNotFound
	}
	return board, nil
}

// save persists the aggregate and publishes its events once the write is committed
func (s *BoardService) save(ctx context.Context, board *domain.Board) error {
	if err := s.boardRepo.Save(ctx, board); err != nil {
		return fmt.Errorf("failed to save board %s: %w", board.ID, err)
	}

	for _, ev := range board.PullEvents() {
		s.publish(ctx, ev)
	}
	return nil
}

// publish hands an event to the publisher; delivery failures do not undo the committed change
func (s *BoardService) publish(ctx context.Context, ev domain.DomainEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish domain event", "topic", ev.Topic, "error", err)
	}
}

// requireMember hides boards the actor cannot see behind ErrBoardNotFound
func (s *BoardService) requireMember(ctx context.Context, actor string, boardID uuid.UUID) error {
	ok, err := s.boardRepo.HasMember(ctx, boardID, actor)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrBoardNotFound
	}
	return nil
}

func (s *BoardService) requireRole(ctx context.Context, actor string, boardID uuid.UUID, role domain.Role) error {
	if err := s.requireMember(ctx, actor, boardID); err != nil {
		return err
	}

	ok, err := s.boardRepo.HasMemberWithRole(ctx, boardID, actor, role)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}
