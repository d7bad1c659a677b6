package listing

import "errors"

var (
	ErrNotAuthenticated = errors.New("Please log in first.")
	ErrTitleRequired    = errors.New("Title is required.")
	ErrInvalidPieces    = errors.New("Pieces must be a positive whole number.")
	ErrListingNotFound  = errors.New("Puzzle not found.")
	ErrNotOwner         = errors.New("Only the owner can remove this puzzle.")
)
