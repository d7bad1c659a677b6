package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultCountry используется, когда страна в профиле не указана
const DefaultCountry = "US"

// Identity - аутентифицированный пользователь, от имени которого выполняется действие
type Identity struct {
	UserID  uuid.UUID `json:"id"`
	Email   string    `json:"email,omitempty"`
	TokenID string    `json:"-"`
	Expires time.Time `json:"-"`
}

// User представляет учётную запись пользователя
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	TelegramID   *int64    `json:"telegram_id,omitempty"`
	Username     *string   `json:"username,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile хранит страну и почтовый индекс пользователя
type Profile struct {
	ID      uuid.UUID `json:"id"`
	Country *string   `json:"country"`
	Zip     *string   `json:"zip"`
}

// ResolvedCountry возвращает страну профиля, по умолчанию US.
// Отсутствующий профиль тоже считается US.
func (p *Profile) ResolvedCountry() string {
	if p == nil || p.Country == nil || strings.TrimSpace(*p.Country) == "" {
		return DefaultCountry
	}
	return strings.ToUpper(strings.TrimSpace(*p.Country))
}
