package rating

import "errors"

var (
	ErrNotAuthenticated = errors.New("Please log in.")
	ErrTradeNotFound    = errors.New("Trade not found.")
	ErrNotParty         = errors.New("Only people in this trade can rate it.")
	ErrAlreadyRated     = errors.New("You already rated this trade.")
	ErrInvalidRating    = errors.New("Scores must be 1-5 and pieces included must be yes, no or unknown.")
)
