package domain

import (
	"fmt"
	"math"
)

// PageSettings описывает запрошенную страницу (нумерация с 0)
type PageSettings struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Validate проверяет, что параметры страницы применимы как есть и смещение не переполняется
func (s PageSettings) Validate() error {
	if s.Page < 0 || s.PerPage <= 0 {
		return fmt.Errorf("%w: page=%d per_page=%d", ErrInvalidPageSettings, s.Page, s.PerPage)
	}
	if s.Page > math.MaxInt/s.PerPage {
		return fmt.Errorf("%w: offset overflows for page=%d per_page=%d", ErrInvalidPageSettings, s.Page, s.PerPage)
	}
	return nil
}

// Offset возвращает число пропускаемых записей; вызывать после Validate
func (s PageSettings) Offset() int {
	return s.Page * s.PerPage
}

// Page представляет страницу результатов
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	PerPage       int   `json:"per_page"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

// NewPage собирает страницу; пустое содержимое становится пустым срезом, а не nil
func NewPage[T any](content []T, settings PageSettings, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}

	totalPages := 0
	if settings.PerPage > 0 {
		totalPages = int((total + int64(settings.PerPage) - 1) / int64(settings.PerPage))
	}

	return &Page[T]{
		Content:       content,
		Page:          settings.Page,
		PerPage:       settings.PerPage,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}
