package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Member представляет участника доски с его ролью
type Member struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Board представляет агрегат доски: саму доску, ее участников и задачи
type Board struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	Members   []Member  `json:"members"`
	Tasks     []Task    `json:"tasks"`

	events []DomainEvent
}

// NewBoard создает доску; создатель становится владельцем
func NewBoard(id uuid.UUID, name, createdBy string, createdAt time.Time) *Board {
	b := &Board{
		ID:        id,
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: createdAt,
		Members:   []Member{},
		Tasks:     []Task{},
	}

	// Доска только что создана, дубликата быть не может
	_ = b.AddMember(createdBy, RoleOwner, createdAt)

	return b
}

// AddMember добавляет участника и порождает MemberCreatedEvent.
// Существование пользователя проверяет вызывающая сторона.
func (b *Board) AddMember(username string, role Role, now time.Time) error {
	if !role.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	if b.HasMember(username) {
		return fmt.Errorf("%w: %s", ErrDuplicateMember, username)
	}

	b.Members = append(b.Members, Member{Username: username, Role: role})
	b.raise(NewMemberCreatedEvent(b.ID, username, now))
	return nil
}

// RemoveMember удаляет участника с доски
func (b *Board) RemoveMember(username string) error {
	for i, m := range b.Members {
		if m.Username == username {
			b.Members = append(b.Members[:i], b.Members[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrMemberNotFound, username)
}

// AddTask добавляет задачу на доску
func (b *Board) AddTask(task Task) error {
	if !task.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownTaskStatus, task.Status)
	}
	if _, ok := b.Task(task.ID); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.ID)
	}

	b.Tasks = append(b.Tasks, task)
	return nil
}

// RemoveTask удаляет задачу и порождает TaskDeletedEvent
func (b *Board) RemoveTask(taskID uuid.UUID, now time.Time) error {
	for i, t := range b.Tasks {
		if t.ID == taskID {
			b.Tasks = append(b.Tasks[:i], b.Tasks[i+1:]...)
			b.raise(NewTaskDeletedEvent(b.ID, taskID, now))
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
}

// Member возвращает участника по имени пользователя
func (b *Board) Member(username string) (Member, bool) {
	for _, m := range b.Members {
		if m.Username == username {
			return m, true
		}
	}
	return Member{}, false
}

// Task возвращает задачу по ID
func (b *Board) Task(taskID uuid.UUID) (Task, bool) {
	for _, t := range b.Tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return Task{}, false
}

// HasMember проверяет, является ли пользователь участником доски
func (b *Board) HasMember(username string) bool {
	_, ok := b.Member(username)
	return ok
}

// HasMemberWithRole проверяет, есть ли у пользователя указанная роль на доске
func (b *Board) HasMemberWithRole(username string, role Role) bool {
	m, ok := b.Member(username)
	return ok && m.Role == role
}

// Validate проверяет инварианты агрегата перед сохранением
func (b *Board) Validate() error {
	seenMembers := make(map[string]struct{}, len(b.Members))
	for _, m := range b.Members {
		if _, dup := seenMembers[m.Username]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, m.Username)
		}
		seenMembers[m.Username] = struct{}{}

		if !m.Role.IsValid() {
			return fmt.Errorf("%w: %q", ErrUnknownRole, m.Role)
		}
	}

	seenTasks := make(map[uuid.UUID]struct{}, len(b.Tasks))
	for _, t := range b.Tasks {
		if _, dup := seenTasks[t.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTask, t.ID)
		}
		seenTasks[t.ID] = struct{}{}

		if !t.Status.IsValid() {
			return fmt.Errorf("%w: %q", ErrUnknownTaskStatus, t.Status)
		}
	}

	return nil
}

// PullEvents возвращает накопленные события в порядке возникновения и очищает очередь
func (b *Board) PullEvents() []DomainEvent {
	events := b.events
	b.events = nil
	return events
}

func (b *Board) raise(ev DomainEvent) {
	b.events = append(b.events, ev)
}
