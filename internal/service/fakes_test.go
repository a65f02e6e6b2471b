package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/MuellerConstantin/taskcare-service/internal/domain"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUserRepo(usernames ...string) *memUserRepo {
	r := &memUserRepo{users: map[string]domain.User{}}
	for _, name := range usernames {
		r.users[name] = domain.User{Username: name, DisplayName: name}
	}
	return r
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return fmt.Errorf("%w: %s", domain.ErrUserExists, user.Username)
	}
	r.users[user.Username] = *user
	return nil
}

func (r *memUserRepo) CreateOrUpdate(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *user
	if existing, ok := r.users[user.Username]; ok {
		stored.PasswordHash = existing.PasswordHash
	}
	r.users[user.Username] = stored
	return nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *memUserRepo) Exists(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok, nil
}

// memBoardRepo keeps deep copies so tests observe only what was saved
type memBoardRepo struct {
	mu      sync.Mutex
	boards  map[uuid.UUID]domain.Board
	saveErr error
	saves   int
}

func newMemBoardRepo() *memBoardRepo {
	return &memBoardRepo{boards: map[uuid.UUID]domain.Board{}}
}

func cloneBoard(b *domain.Board) domain.Board {
	return domain.Board{
		ID:        b.ID,
		Name:      b.Name,
		CreatedBy: b.CreatedBy,
		CreatedAt: b.CreatedAt,
		Members:   append([]domain.Member{}, b.Members...),
		Tasks:     append([]domain.Task{}, b.Tasks...),
	}
}

func (r *memBoardRepo) HasMember(_ context.Context, boardID uuid.UUID, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.boards[boardID]
	return ok && b.HasMember(username), nil
}

func (r *memBoardRepo) HasMemberWithRole(_ context.Context, boardID uuid.UUID, username string, role domain.Role) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.boards[boardID]
	return ok && b.HasMemberWithRole(username, role), nil
}

func (r *memBoardRepo) FindAllWithMembership(_ context.Context, username string, settings domain.PageSettings) (*domain.Page[*domain.Board], error) {
	return r.page(settings, func(b *domain.Board) bool { return b.HasMember(username) })
}

func (r *memBoardRepo) FindByID(_ context.Context, boardID uuid.UUID) (*domain.Board, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.boards[boardID]
	if !ok {
		return nil, false, nil
	}
	c := cloneBoard(&b)
	return &c, true, nil
}

func (r *memBoardRepo) FindAll(_ context.Context, settings domain.PageSettings) (*domain.Page[*domain.Board], error) {
	return r.page(settings, func(*domain.Board) bool { return true })
}

func (r *memBoardRepo) ExistsByID(_ context.Context, boardID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.boards[boardID]
	return ok, nil
}

func (r *memBoardRepo) DeleteByID(_ context.Context, boardID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.boards[boardID]
	delete(r.boards, boardID)
	return ok, nil
}

func (r *memBoardRepo) Save(_ context.Context, board *domain.Board) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if err := board.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boards[board.ID] = cloneBoard(board)
	r.saves++
	return nil
}

func (r *memBoardRepo) page(settings domain.PageSettings, keep func(*domain.Board) bool) (*domain.Page[*domain.Board], error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var all []*domain.Board
	for _, b := range r.boards {
		c := cloneBoard(&b)
		if keep(&c) {
			all = append(all, &c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := min(settings.Offset(), len(all))
	end := min(start+settings.PerPage, len(all))
	return domain.NewPage(all[start:end], settings, total), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) kinds() []domain.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]domain.EventKind, 0, len(p.events))
	for _, ev := range p.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}
