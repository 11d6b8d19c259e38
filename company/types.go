// Package company manages the companies an administrator has registered,
// each with the custom-fields API token used on its behalf.
package company

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("company: not found")
	ErrDuplicate = errors.New("company: name already exists")
	ErrInvalid   = errors.New("company: invalid input")
)

// Company is a registered company and its API token
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AccountID int64     `json:"accountId,omitempty"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateInput holds the fields accepted when registering a company
type CreateInput struct {
	Name      string `json:"name" validate:"required,min=3,max=200"`
	Token     string `json:"token" validate:"required,min=6"`
	AccountID int64  `json:"accountId" validate:"min=0"`
}

// UpdateInput changes only the non-nil fields
type UpdateInput struct {
	Name      *string `json:"name" validate:"omitempty,min=3,max=200"`
	Token     *string `json:"token" validate:"omitempty,min=6"`
	AccountID *int64  `json:"accountId" validate:"omitempty,min=0"`
}
