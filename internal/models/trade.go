package models

import (
	"time"

	"github.com/google/uuid"
)

// ShipByWindow - срок отправки пазла с момента предложения обмена
const ShipByWindow = 3 * 24 * time.Hour

// TradeStatus - статус обмена
type TradeStatus string

const (
	StatusPending   TradeStatus = "pending"
	StatusAccepted  TradeStatus = "accepted"
	StatusDeclined  TradeStatus = "declined"
	StatusCountered TradeStatus = "countered" // объявлен, но ни один переход его не создаёт
	StatusShipped   TradeStatus = "shipped"
	StatusDelivered TradeStatus = "delivered"
	StatusCompleted TradeStatus = "completed"
)

// IsValid проверяет, что статус входит в словарь
func (s TradeStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCountered,
		StatusShipped, StatusDelivered, StatusCompleted:
		return true
	}
	return false
}

// IsTerminal сообщает, что из статуса нет переходов
func (s TradeStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Role - роль пользователя в обмене
type Role string

const (
	RoleNone      Role = ""
	RoleRequester Role = "requester"
	RoleResponder Role = "responder"
)

type transition struct {
	to            TradeStatus
	responderOnly bool
}

// transitions описывает допустимые переходы; ключи без записей - терминальные статусы
var transitions = map[TradeStatus][]transition{
	StatusPending: {
		{to: StatusAccepted, responderOnly: true},
		{to: StatusDeclined, responderOnly: true},
	},
	StatusAccepted: {
		{to: StatusShipped},
		{to: StatusPending},
	},
	StatusShipped: {
		{to: StatusDelivered},
	},
	StatusDelivered: {
		{to: StatusCompleted},
	},
}

// AllowedTransitions возвращает статусы, в которые участник с ролью role
// может перевести обмен из статуса from
func AllowedTransitions(from TradeStatus, role Role) []TradeStatus {
	if role == RoleNone {
		return nil
	}
	var out []TradeStatus
	for _, t := range transitions[from] {
		if t.responderOnly && role != RoleResponder {
			continue
		}
		out = append(out, t.to)
	}
	return out
}

// CanTransition проверяет конкретный переход
func CanTransition(from, to TradeStatus, role Role) bool {
	for _, s := range AllowedTransitions(from, role) {
		if s == to {
			return true
		}
	}
	return false
}

// Trade представляет предложение обмена одного пазла на другой
type Trade struct {
	ID                 uuid.UUID   `json:"id"`
	RequesterID        uuid.UUID   `json:"requester_id"`
	ResponderID        uuid.UUID   `json:"responder_id"`
	RequestedListingID uuid.UUID   `json:"requested_listing_id"`
	OfferedListingID   uuid.UUID   `json:"offered_listing_id"`
	Status             TradeStatus `json:"status"`
	RequesterTracking  *string     `json:"requester_tracking"`
	ResponderTracking  *string     `json:"responder_tracking"`
	ShipBy             time.Time   `json:"ship_by"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// RoleOf определяет роль пользователя в обмене
func (t *Trade) RoleOf(userID uuid.UUID) Role {
	switch userID {
	case t.RequesterID:
		return RoleRequester
	case t.ResponderID:
		return RoleResponder
	}
	return RoleNone
}

// Counterparty возвращает второго участника обмена для userID
func (t *Trade) Counterparty(userID uuid.UUID) uuid.UUID {
	if t.RequesterID == userID {
		return t.ResponderID
	}
	return t.RequesterID
}
