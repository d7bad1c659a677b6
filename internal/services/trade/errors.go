package trade

import "errors"

var (
	ErrNotAuthenticated   = errors.New("Please log in to propose a trade.")
	ErrLoginRequired      = errors.New("Please log in.")
	ErrNoOfferSelected    = errors.New("Pick one of your puzzles to offer.")
	ErrListingNotFound    = errors.New("Puzzle not found.")
	ErrSelfTrade          = errors.New("That's your puzzle. (Nice try.)")
	ErrOfferNotOwned      = errors.New("You can only offer one of your own puzzles.")
	ErrResidency          = errors.New("US-only swaps for now.")
	ErrTradeNotFound      = errors.New("Trade not found.")
	ErrNotParty           = errors.New("You're not part of this trade.")
	ErrInvalidStatus      = errors.New("Unknown trade status.")
	ErrIllegalTransition  = errors.New("That status change isn't allowed right now.")
	ErrTransitionConflict = errors.New("This trade just changed. Refresh and try again.")
)
