package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MuellerConstantin/taskcare-service/internal/timestamp"
)

// EventKind различает варианты доменных событий
type EventKind string

// Виды событий доски; значение совпадает с последним сегментом топика
const (
	KindBoardDeleted  EventKind = "board-deleted"
	KindMemberCreated EventKind = "member-created"
	KindTaskDeleted   EventKind = "task-deleted"
)

// topicTemplate задает формат топика: board.<boardId>.<kind>
const topicTemplate = "board.%s.%s"

// DomainEvent представляет неизменяемую запись об изменении доски.
// Поля полезной нагрузки, не относящиеся к виду события, остаются нулевыми.
type DomainEvent struct {
	Kind     EventKind `json:"kind"`
	Topic    string    `json:"topic"`
	RaisedAt time.Time `json:"raised_at"`
	BoardID  uuid.UUID `json:"board_id"`
	Username string    `json:"username,omitempty"`
	TaskID   uuid.UUID `json:"task_id,omitzero"`
}

func newEvent(kind EventKind, boardID uuid.UUID, raisedAt time.Time) DomainEvent {
	return DomainEvent{
		Kind:     kind,
		Topic:    Topic(boardID, kind),
		RaisedAt: raisedAt,
		BoardID:  boardID,
	}
}

// Topic формирует топик события для доски
func Topic(boardID uuid.UUID, kind EventKind) string {
	return fmt.Sprintf(topicTemplate, boardID, kind)
}

// NewBoardDeletedEvent создает событие удаления доски
func NewBoardDeletedEvent(boardID uuid.UUID, raisedAt time.Time) DomainEvent {
	return newEvent(KindBoardDeleted, boardID, raisedAt)
}

// NewMemberCreatedEvent создает событие добавления участника
func NewMemberCreatedEvent(boardID uuid.UUID, username string, raisedAt time.Time) DomainEvent {
	ev := newEvent(KindMemberCreated, boardID, raisedAt)
	ev.Username = username
	return ev
}

// NewTaskDeletedEvent создает событие удаления задачи
func NewTaskDeletedEvent(boardID, taskID uuid.UUID, raisedAt time.Time) DomainEvent {
	ev := newEvent(KindTaskDeleted, boardID, raisedAt)
	ev.TaskID = taskID
	return ev
}

// Equal сравнивает события по значению, включая смещение RaisedAt
func (e DomainEvent) Equal(other DomainEvent) bool {
	return e.Kind == other.Kind &&
		e.Topic == other.Topic &&
		timestamp.Equal(e.RaisedAt, other.RaisedAt) &&
		e.BoardID == other.BoardID &&
		e.Username == other.Username &&
		e.TaskID == other.TaskID
}

// String возвращает структурное представление события
func (e DomainEvent) String() string {
	raisedAt := e.RaisedAt.Format(time.RFC3339Nano)

	switch e.Kind {
	case KindMemberCreated:
		return fmt.Sprintf("MemberCreatedEvent(topic=%s, raisedAt=%s, boardId=%s, username=%s)",
			e.Topic, raisedAt, e.BoardID, e.Username)
	case KindTaskDeleted:
		return fmt.Sprintf("TaskDeletedEvent(topic=%s, raisedAt=%s, boardId=%s, taskId=%s)",
			e.Topic, raisedAt, e.BoardID, e.TaskID)
	case KindBoardDeleted:
		return fmt.Sprintf("BoardDeletedEvent(topic=%s, raisedAt=%s, boardId=%s)",
			e.Topic, raisedAt, e.BoardID)
	default:
		return fmt.Sprintf("DomainEvent(kind=%s, topic=%s, raisedAt=%s)", e.Kind, e.Topic, raisedAt)
	}
}
