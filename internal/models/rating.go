package models

import (
	"time"

	"github.com/google/uuid"
)

// PiecesIncluded - ответ на вопрос "все ли детали на месте"
type PiecesIncluded string

const (
	PiecesYes     PiecesIncluded = "yes"
	PiecesNo      PiecesIncluded = "no"
	PiecesUnknown PiecesIncluded = "unknown"
)

// IsValid проверяет допустимость значения
func (p PiecesIncluded) IsValid() bool {
	switch p {
	case PiecesYes, PiecesNo, PiecesUnknown:
		return true
	}
	return false
}

// Rating представляет отзыв одного участника обмена о другом
type Rating struct {
	ID             uuid.UUID      `json:"id"`
	TradeID        uuid.UUID      `json:"trade_id"`
	RaterID        uuid.UUID      `json:"rater_id"`
	RateeID        uuid.UUID      `json:"ratee_id"`
	Cleanliness    int            `json:"cleanliness"`
	PuzzleReady    int            `json:"puzzle_ready"`
	PiecesIncluded PiecesIncluded `json:"pieces_included"`
	ShipSpeed      int            `json:"ship_speed"`
	Comment        *string        `json:"comment"`
	CreatedAt      time.Time      `json:"created_at"`
}
