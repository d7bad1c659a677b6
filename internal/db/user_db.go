package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rajivgeraev/puzzleswap-api/internal/models"
)

const userColumns = `id, email, password_hash, telegram_id, username, created_at`

// CreateUser добавляет пользователя; дубликат email или telegram_id даёт ErrDuplicate
func (p *PgQueries) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := p.q.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, telegram_id, username)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, u.ID, u.Email, u.PasswordHash, u.TelegramID, u.Username).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при создании пользователя: %w", mapErr(err))
	}
	return nil
}

// GetUserByID получает пользователя по ID
func (p *PgQueries) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return p.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByEmail получает пользователя по email без учёта регистра
func (p *PgQueries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return p.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

// GetUserByTelegramID получает пользователя по ID Telegram
func (p *PgQueries) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return p.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
}

func (p *PgQueries) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(p.q.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapErr(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var email, username pgtype.Text
	var telegramID pgtype.Int8

	if err := row.Scan(&user.ID, &email, &user.PasswordHash, &telegramID, &username, &user.CreatedAt); err != nil {
		return nil, err
	}

	// Преобразуем nullable поля
	if email.Valid {
		user.Email = &email.String
	}
	if username.Valid {
		user.Username = &username.String
	}
	if telegramID.Valid {
		user.TelegramID = &telegramID.Int64
	}
	return &user, nil
}

// UpsertProfile создаёт профиль или перезаписывает страну и индекс
func (p *PgQueries) UpsertProfile(ctx context.Context, prof *models.Profile) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO profiles (id, country, zip)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET country = EXCLUDED.country, zip = EXCLUDED.zip
	`, prof.ID, prof.Country, prof.Zip)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении профиля: %w", mapErr(err))
	}
	return nil
}

// GetProfile получает профиль пользователя
func (p *PgQueries) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var prof models.Profile
	var country, zip pgtype.Text

	err := p.q.QueryRow(ctx, `SELECT id, country, zip FROM profiles WHERE id = $1`, id).
		Scan(&prof.ID, &country, &zip)
	if err != nil {
		return nil, mapErr(err)
	}

	if country.Valid {
		prof.Country = &country.String
	}
	if zip.Valid {
		prof.Zip = &zip.String
	}
	return &prof, nil
}
