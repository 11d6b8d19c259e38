// Package customfields reads custom-field definitions and account details from
// the custom-fields API, with a built-in dataset for when the API is
// unreachable or rate limited.
package customfields

import (
	"time"
)

// Field type codes used by the API
const (
	TypeText     = "0"
	TypeNumber   = "1"
	TypeDate     = "2"
	TypeList     = "3"
	TypeCheckbox = "4"
	TypeLongText = "5"
	TypeSystem   = "-1"
)

var typeNames = map[string]string{
	TypeText:     "text",
	TypeNumber:   "number",
	TypeDate:     "date",
	TypeList:     "list",
	TypeCheckbox: "checkbox",
	TypeLongText: "long text",
	TypeSystem:   "system",
}

// FieldTypeName returns the label for a type code, or "unknown".
func FieldTypeName(code string) string {
	if name, ok := typeNames[code]; ok {
		return name
	}
	return "unknown"
}

// Field is a custom-field definition of an account
type Field struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"accountId"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Options     []string  `json:"options,omitempty"`
	Required    bool      `json:"required"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	HasValue    bool      `json:"hasValue"`
	// Value is the field's current value when the API includes one. Its
	// shape depends on Type.
	Value any `json:"value,omitempty"`
}

// TypeName is FieldTypeName for f.Type
func (f Field) TypeName() string {
	return FieldTypeName(f.Type)
}

// Account is the owner of an access token
type Account struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Source tells where a field list came from
type Source string

const (
	SourceAPI  Source = "api"
	SourceMock Source = "mock"
)
