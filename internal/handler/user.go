package handler

import (
	"encoding/json"
	"net/http"

	"github.com/MuellerConstantin/taskcare-service/internal/domain"
	"github.com/MuellerConstantin/taskcare-service/internal/service"
)

// UserHandler обрабатывает эндпоинты пользователей
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler создает новый UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// RegisterRequest представляет тело запроса на регистрацию
type RegisterRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// RegisterResponse представляет ответ на регистрацию пользователя
type RegisterResponse struct {
	User *domain.User `json:"user"`
}

// Register обрабатывает POST /users. Регистрация только создает пользователя:
// занятое имя возвращает 409, существующая запись не меняется.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	if req.Username == "" {
		RespondWithError(w, r, http.StatusBadRequest, "BAD_REQUEST", "username is required")
		return
	}

	user, err := h.userService.Register(r.Context(), req.Username, req.DisplayName, req.Password)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, RegisterResponse{User: user})
}
