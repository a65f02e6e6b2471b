package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus представляет состояние задачи в рабочем процессе
type TaskStatus string

// Возможные статусы задачи
const (
	StatusOpen       TaskStatus = "OPEN"        // Задача создана
	StatusInProgress TaskStatus = "IN_PROGRESS" // Задача в работе
	StatusFinished   TaskStatus = "FINISHED"    // Задача завершена
)

// Границы шкалы приоритета
const (
	MinPriority = 1
	MaxPriority = 5
)

// Name возвращает каноническое имя статуса
func (s TaskStatus) Name() string {
	return string(s)
}

// IsValid проверяет, что статус входит в закрытый перечень
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusFinished:
		return true
	}
	return false
}

// ParseTaskStatus разбирает имя статуса с учетом регистра
func ParseTaskStatus(name string) (TaskStatus, error) {
	status := TaskStatus(name)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTaskStatus, name)
	}
	return status, nil
}

// Task представляет задачу на доске
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Priority    int        `json:"priority"`
	Status      TaskStatus `json:"status"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// IsExpired возвращает true если срок задачи истек к моменту now
func (t *Task) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
