package domain

import (
	"errors"

	"github.com/MuellerConstantin/taskcare-service/internal/timestamp"
)

// Доменные ошибки
var (
	// ErrBoardNotFound возвращается когда доска не найдена
	ErrBoardNotFound = errors.New("board not found")

	// ErrUserNotFound возвращается когда пользователь не найден
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists возвращается при повторной регистрации занятого имени пользователя
	ErrUserExists = errors.New("user already exists")

	// ErrWeakPassword возвращается когда пароль короче MinPasswordLength
	ErrWeakPassword = errors.New("password is too short")

	// ErrMemberUserNotFound возвращается при сохранении доски с участником, для которого нет пользователя
	ErrMemberUserNotFound = errors.New("member references unknown user")

	// ErrDuplicateMember возвращается при повторном добавлении участника с тем же именем
	ErrDuplicateMember = errors.New("member already exists on board")

	// ErrMemberNotFound возвращается когда участник доски не найден
	ErrMemberNotFound = errors.New("member not found")

	// ErrDuplicateTask возвращается при повторном добавлении задачи с тем же ID
	ErrDuplicateTask = errors.New("task already exists on board")

	// ErrTaskNotFound возвращается когда задача не найдена
	ErrTaskNotFound = errors.New("task not found")

	// ErrUnknownRole возвращается при чтении неизвестного имени роли
	ErrUnknownRole = errors.New("unknown role")

	// ErrUnknownTaskStatus возвращается при чтении неизвестного статуса задачи
	ErrUnknownTaskStatus = errors.New("unknown task status")

	// ErrInvalidPageSettings возвращается для страницы с неположительным размером или переполнением смещения
	ErrInvalidPageSettings = errors.New("invalid page settings")

	// ErrInvalidPriority возвращается когда приоритет задачи вне шкалы
	ErrInvalidPriority = errors.New("priority out of range")

	// ErrInvalidOffset возвращается когда сохраненное смещение метки времени повреждено
	ErrInvalidOffset = timestamp.ErrInvalidOffset

	// ErrForbidden возвращается когда у пользователя нет нужной роли на доске
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized возвращается при неудачной аутентификации
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken возвращается когда JWT токен невалиден
	ErrInvalidToken = errors.New("invalid token")
)

// ErrorCode представляет коды ошибок API
type ErrorCode string

// Коды ошибок API
const (
	CodeNotFound        ErrorCode = "NOT_FOUND"        // Ресурс не найден
	CodeDuplicateMember ErrorCode = "DUPLICATE_MEMBER" // Участник уже есть на доске
	CodeDuplicateTask   ErrorCode = "DUPLICATE_TASK"   // Задача уже есть на доске
	CodeUnknownUser     ErrorCode = "UNKNOWN_USER"     // Участник ссылается на несуществующего пользователя
	CodeUserExists      ErrorCode = "USER_EXISTS"      // Имя пользователя уже занято
	CodeForbidden       ErrorCode = "FORBIDDEN"        // Недостаточно прав
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"     // Не аутентифицирован
	CodeInvalidInput    ErrorCode = "INVALID_INPUT"    // Некорректные данные запроса
	CodeDataIntegrity   ErrorCode = "DATA_INTEGRITY"   // Поврежденные данные в хранилище
	CodeInternal        ErrorCode = "INTERNAL_ERROR"   // Внутренняя ошибка
)

// MapErrorToCode преобразует доменные ошибки в коды ошибок API
func MapErrorToCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrBoardNotFound), errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrMemberNotFound), errors.Is(err, ErrTaskNotFound):
		return CodeNotFound
	case errors.Is(err, ErrDuplicateMember):
		return CodeDuplicateMember
	case errors.Is(err, ErrDuplicateTask):
		return CodeDuplicateTask
	case errors.Is(err, ErrUserExists):
		return CodeUserExists
	case errors.Is(err, ErrMemberUserNotFound):
		return CodeUnknownUser
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken):
		return CodeUnauthorized
	case errors.Is(err, ErrInvalidPriority), errors.Is(err, ErrInvalidPageSettings), errors.Is(err, ErrWeakPassword):
		return CodeInvalidInput
	case errors.Is(err, ErrInvalidOffset), errors.Is(err, ErrUnknownRole), errors.Is(err, ErrUnknownTaskStatus):
		return CodeDataIntegrity
	default:
		return CodeInternal
	}
}
