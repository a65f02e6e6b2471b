package handler

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/MuellerConstantin/taskcare-service/internal/domain"
)

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail содержит код и описание ошибки
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithError отправляет ответ с ошибкой
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// HandleError преобразует доменные ошибки в HTTP ответы
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.MapErrorToCode(err)

	switch code {
	case domain.CodeNotFound:
		RespondWithError(w, r, http.StatusNotFound, string(code), err.Error())
	case domain.CodeDuplicateMember, domain.CodeDuplicateTask, domain.CodeUserExists:
		RespondWithError(w, r, http.StatusConflict, string(code), err.Error())
	case domain.CodeUnknownUser, domain.CodeInvalidInput:
		RespondWithError(w, r, http.StatusUnprocessableEntity, string(code), err.Error())
	case domain.CodeForbidden:
		RespondWithError(w, r, http.StatusForbidden, string(code), "forbidden")
	case domain.CodeUnauthorized:
		RespondWithError(w, r, http.StatusUnauthorized, string(code), "unauthorized")
	default:
		// Детали внутренних ошибок и поврежденных данных наружу не отдаем
		RespondWithError(w, r, http.StatusInternalServerError, string(code), "internal server error")
	}
}
