package auth

import "errors"

var (
	ErrNotAuthenticated    = errors.New("Please log in.")
	ErrInvalidEmail        = errors.New("Enter a valid email address.")
	ErrWeakPassword        = errors.New("Password must be at least 8 characters.")
	ErrZipRequired         = errors.New("ZIP code is required.")
	ErrEmailTaken          = errors.New("An account with that email already exists.")
	ErrInvalidCredentials  = errors.New("Invalid email or password.")
	ErrTelegramDisabled    = errors.New("Telegram sign-in is not configured.")
	ErrInvalidTelegramData = errors.New("Invalid Telegram data")
)
