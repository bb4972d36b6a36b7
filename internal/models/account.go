package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Account is a saved set of portal credentials under a friendly name,
// so repeated wizard runs and bulk syncs don't need retyping.
type Account struct {
	base
	name       string
	portal     string
	username   string
	password   string
	includeVOD bool
}

// NewAccount creates an account with fresh timestamps. The ID is
// assigned by the repository on insert.
func NewAccount(sequence int, name, portal, username, password string) *Account {
	return &Account{
		base:     newBase(sequence),
		name:     name,
		portal:   portal,
		username: username,
		password: password,
	}
}

func (a *Account) Name() string     { return a.name }
func (a *Account) Portal() string   { return a.portal }
func (a *Account) Username() string { return a.username }
func (a *Account) Password() string { return a.password }
func (a *Account) IncludeVOD() bool { return a.includeVOD }

func (a *Account) SetName(name string)  { a.name = name }
func (a *Account) SetIncludeVOD(v bool) { a.includeVOD = v }

// Validate checks that the account has a name and complete credentials.
func (a *Account) Validate() error {
	if a.name == "" {
		return fmt.Errorf("account name is required")
	}
	if a.portal == "" {
		return fmt.Errorf("portal url is required")
	}
	if a.username == "" {
		return fmt.Errorf("username is required")
	}
	if a.password == "" {
		return fmt.Errorf("password is required")
	}

	return nil
}

// MarshalJSON renders the account for CLI output. The password never
// appears in serialized form.
func (a *Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string    `json:"id"`
		Sequence   int       `json:"sequence"`
		Name       string    `json:"name"`
		Portal     string    `json:"portal"`
		Username   string    `json:"username"`
		IncludeVOD bool      `json:"include_vod"`
		CreatedAt  time.Time `json:"created_at"`
		UpdatedAt  time.Time `json:"updated_at"`
	}{
		ID:         a.id,
		Sequence:   a.sequence,
		Name:       a.name,
		Portal:     a.portal,
		Username:   a.username,
		IncludeVOD: a.includeVOD,
		CreatedAt:  a.createdAt,
		UpdatedAt:  a.updatedAt,
	})
}
