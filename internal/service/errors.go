package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("user with this email already exists.")
	ErrInactiveUser       = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("token is invalid or expired")
	ErrIssueNotFound      = errors.New("issue not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrAlreadyLiked       = errors.New("already liked")
	ErrIssueIDRequired    = errors.New("issue_id required")
	ErrCommentIncomplete  = errors.New("issue_id and text are required")
	ErrRefreshTokenAbsent = errors.New("refresh token not found")
)

// ValidationError maps request fields to their messages.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Merge(fields map[string][]string) {
	for f, msgs := range fields {
		for _, m := range msgs {
			e.Add(f, m)
		}
	}
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func fieldError(field, message string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, message)
	return e
}

// FieldError is a single-message error keyed by field, rendered as {field: message}.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}
