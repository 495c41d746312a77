// Package event defines the notifications emitted after reconciliation
// cycles. Consumed by sinks; never by core domain logic.
package event

import "whisper-bridge/domain"

type DomainEvent interface{}

// MessagesRefreshed carries the full visible history after a refresh.
type MessagesRefreshed struct {
	GroupName string
	Messages  []domain.Message
}

// PresenceChanged carries the current online set after a refresh.
type PresenceChanged struct {
	GroupName string
	Users     []domain.Presence
}

// ConnectivityChanged flips when the store becomes (un)reachable.
type ConnectivityChanged struct {
	Connected bool
}

// MessagePosted signals a locally sent message was persisted.
type MessagePosted struct {
	Message domain.Message
}
