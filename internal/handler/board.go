package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MuellerConstantin/taskcare-service/internal/domain"
	"github.com/MuellerConstantin/taskcare-service/internal/middleware"
	"github.com/MuellerConstantin/taskcare-service/internal/service"
)

// BoardHandler обрабатывает эндпоинты досок, участников и задач
type BoardHandler struct {
	boardService *service.BoardService
}

// NewBoardHandler создает новый BoardHandler
func NewBoardHandler(boardService *service.BoardService) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
	}
}

// CreateBoardRequest представляет тело запроса на создание доски
type CreateBoardRequest struct {
	Name string `json:"name"`
}

// AddMemberRequest представляет тело запроса на добавление участника
type AddMemberRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// AddTaskRequest представляет тело запроса на создание задачи.
// Метки времени принимаются в RFC 3339, смещение сохраняется как есть.
type AddTaskRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Priority    int        `json:"priority"`
	Status      string     `json:"status"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// CreateBoard обрабатывает POST /boards
func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var req CreateBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	if req.Name == "" {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "name is required")
		return
	}

	board, err := h.boardService.CreateBoard(r.Context(), middleware.GetUsernameFromContext(r.Context()), req.Name)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, board)
}

// ListBoards обрабатывает GET /boards?page=...&per_page=...
func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	settings, ok := pageSettings(w, r)
	if !ok {
		return
	}

	page, err := h.boardService.ListBoards(r.Context(), middleware.GetUsernameFromContext(r.Context()), settings)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, page)
}

// GetBoard обрабатывает GET /boards/{boardID}
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	boardID, ok := uuidParam(w, r, "boardID")
	if !ok {
		return
	}

	board, err := h.boardService.GetBoard(r.Context(), middleware.GetUsernameFromContext(r.Context()), boardID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, board)
}

// DeleteBoard обрабатывает DELETE /boards/{boardID}
func (h *BoardHandler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	boardID, ok := uuidParam(w, r, "boardID")
	if !ok {
		return
	}

	if err := h.boardService.DeleteBoard(r.Context(), middleware.GetUsernameFromContext(r.Context()), boardID); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddMember обрабатывает POST /boards/{boardID}/members
func (h *BoardHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	boardID, ok := uuidParam(w, r, "boardID")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	if req.Username == "" {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "username is required")
		return
	}

	// Роль из запроса проверяем здесь: неизвестная роль от клиента это ошибка запроса, а не данных
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	board, err := h.boardService.AddMember(r.Context(), middleware.GetUsernameFromContext(r.Context()), boardID, req.Username, role)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, board)
}

// RemoveMember обрабатывает DELETE /boards/{boardID}/members/{username}
func (h *BoardHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	boardID, ok := uuidParam(w, r, "boardID")
	if !ok {
		return
	}

	board, err := h.boardService.RemoveMember(r.Context(), middleware.GetUsernameFromContext(r.Context()), boardID, chi.URLParam(r, "username"))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, board)
}

// AddTask обрабатывает POST /boards/{boardID}/tasks
func (h *BoardHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	boardID, ok := uuidParam(w, r, "boardID")
	if !ok {
		return
	}

	var req AddTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	if req.Name == "" {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "name is required")
		return
	}

	var status domain.TaskStatus
	if req.Status != "" {
		parsed, err := domain.ParseTaskStatus(req.Status)
		if err != nil {
			RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		}
		status = parsed
	}

	task, err := h.boardService.AddTask(r.Context(), middleware.GetUsernameFromContext(r.Context()), boardID, service.NewTaskInput{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      status,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, task)
}

// RemoveTask обрабатывает DELETE /boards/{boardID}/tasks/{taskID}
func (h *BoardHandler) RemoveTask(w http.ResponseWriter, r *http.Request) {
	boardID, ok := uuidParam(w, r, "boardID")
	if !ok {
		return
	}
	taskID, ok := uuidParam(w, r, "taskID")
	if !ok {
		return
	}

	if err := h.boardService.RemoveTask(r.Context(), middleware.GetUsernameFromContext(r.Context()), boardID, taskID); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// uuidParam разбирает UUID из параметра пути; при ошибке ответ уже отправлен
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// Значения пагинации HTTP API по умолчанию
const (
	defaultPerPage = 25
	maxPerPage     = 100
)

// pageSettings читает параметры page и per_page, подставляет значения по умолчанию
// и ограничивает размер страницы; при ошибке ответ уже отправлен
func pageSettings(w http.ResponseWriter, r *http.Request) (domain.PageSettings, bool) {
	settings := domain.PageSettings{Page: 0, PerPage: defaultPerPage}

	for name, dst := range map[string]*int{"page": &settings.Page, "per_page": &settings.PerPage} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", name+" must be a non-negative integer")
			return domain.PageSettings{}, false
		}
		*dst = n
	}

	if settings.PerPage == 0 {
		settings.PerPage = defaultPerPage
	}
	settings.PerPage = min(settings.PerPage, maxPerPage)

	if err := settings.Validate(); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return domain.PageSettings{}, false
	}

	return settings, true
}
