package client

import (
	"encoding/json"
	"time"
)

// Object holds the fields shared by every API resource.
type Object struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Customer is a site customer. Fields not modelled here (site specific
// custom fields) are collected in CustomFields.
type Customer struct {
	Object
	Email             string     `json:"email"`
	Firstname         string     `json:"firstname"`
	Lastname          string     `json:"lastname"`
	Name              string     `json:"name"`
	Language          string     `json:"language"`
	Number            string     `json:"number"`
	Status            string     `json:"status"`
	SessionToken      string     `json:"session_token,omitempty"`
	VerifiedEmail     *bool      `json:"verified_email,omitempty"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	Suspended         *bool      `json:"suspended,omitempty"`
	SuspendedAt       *time.Time `json:"suspended_at,omitempty"`
	PasswordUpdatedAt *time.Time `json:"password_updated_at,omitempty"`

	CustomFields map[string]any `json:"-"`
}

// CurrentCustomer is the customer returned by a login; SessionToken is
// always present.
type CurrentCustomer struct {
	Customer
}

var customerFields = map[string]struct{}{
	"id": {}, "slug": {}, "url": {}, "created_at": {}, "updated_at": {},
	"email": {}, "firstname": {}, "lastname": {}, "name": {}, "language": {},
	"number": {}, "status": {}, "session_token": {}, "verified_email": {},
	"verified_at": {}, "suspended": {}, "suspended_at": {}, "password_updated_at": {},
}

func (c *Customer) UnmarshalJSON(data []byte) error {
	type plain Customer
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range customerFields {
		delete(raw, key)
	}
	if len(raw) > 0 {
		decoded.CustomFields = raw
	}

	*c = Customer(decoded)
	return nil
}

func (c Customer) MarshalJSON() ([]byte, error) {
	type plain Customer
	data, err := json.Marshal(plain(c))
	if err != nil || len(c.CustomFields) == 0 {
		return data, err
	}

	merged := make(map[string]any, len(c.CustomFields))
	for key, value := range c.CustomFields {
		merged[key] = value
	}
	var known map[string]any
	if err := json.Unmarshal(data, &known); err != nil {
		return nil, err
	}
	for key, value := range known {
		merged[key] = value
	}
	return json.Marshal(merged)
}
