// Package domain contains core concepts of the multilingual chat core.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"strings"

	"whisper-bridge/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Session identifies one participant inside a group for the lifetime of a
// join. It is immutable; leaving discards it.
type Session struct {
	UserName  string
	GroupName string
	Language  string
}

type JoinRequest struct {
	UserName  string `validate:"required,max=50"`
	GroupName string `validate:"required,max=50"`
	Language  string `validate:"required,min=2,max=35"`
}

// ValidateJoin rejects blank identities before any I/O happens.
func ValidateJoin(req JoinRequest) (Session, error) {
	session := Session{
		UserName:  strings.TrimSpace(req.UserName),
		GroupName: strings.TrimSpace(req.GroupName),
		Language:  NormalizeLanguage(req.Language),
	}
	err := validate.Struct(JoinRequest{
		UserName:  session.UserName,
		GroupName: session.GroupName,
		Language:  session.Language,
	})
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

// ValidateText rejects empty outbound messages before any I/O happens.
func ValidateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", errors.ErrEmptyMessage
	}
	return trimmed, nil
}
