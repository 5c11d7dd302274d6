package dto

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SubjectRef normalizes the loosely typed identifiers used by assignment
// payloads. Clients send a numeric id, a bare name, or an object carrying
// either; the union is resolved once here so downstream code only ever sees
// ID or Name.
type SubjectRef struct {
	ID   string
	Name string
}

// UnmarshalJSON accepts a JSON number, string, or object with id/name keys.
func (r *SubjectRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*r = SubjectRef{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = SubjectRef{Name: s}
		return nil
	case '{':
		var obj struct {
			ID   json.RawMessage `json:"id"`
			Name string          `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("subject ref object: %w", err)
		}
		id, err := refID(obj.ID)
		if err != nil {
			return fmt.Errorf("subject ref object: %w", err)
		}
		*r = SubjectRef{ID: id, Name: obj.Name}
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("subject ref: %w", err)
		}
		*r = SubjectRef{ID: n.String()}
		return nil
	}
}

// refID accepts the id key as either a JSON number or string.
func refID(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// MarshalJSON renders the canonical object form.
func (r SubjectRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	}{ID: r.ID, Name: r.Name})
}

// IsZero reports whether the ref carries no identifier at all.
func (r SubjectRef) IsZero() bool {
	return r.ID == "" && r.Name == ""
}

// NumericID returns the id as an int when the client sent a number.
func (r SubjectRef) NumericID() (int, bool) {
	if r.ID == "" {
		return 0, false
	}
	n, err := strconv.Atoi(r.ID)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CreateRoleRequest captures the role form payload.
type CreateRoleRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

// CreatePermissionRequest captures the permission form payload.
type CreatePermissionRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

// AssignPermissionRequest links a permission to a role.
type AssignPermissionRequest struct {
	Role       SubjectRef `json:"role" validate:"required"`
	Permission SubjectRef `json:"permission" validate:"required"`
}

// AssignRoleRequest links a role to a user.
type AssignRoleRequest struct {
	User SubjectRef `json:"user" validate:"required"`
	Role SubjectRef `json:"role" validate:"required"`
}
