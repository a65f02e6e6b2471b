package domain

// MinPasswordLength минимальная длина пароля при регистрации
const MinPasswordLength = 8

// User представляет зарегистрированного пользователя, на которого ссылаются участники досок
type User struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`

	// PasswordHash хранит bcrypt хэш и никогда не сериализуется
	PasswordHash string `json:"-"`
}
