package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads credentials from INSTA_USERNAME and
// INSTA_PASSWORD. Read-only.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	envUser := os.Getenv("INSTA_USERNAME")
	envPass := os.Getenv("INSTA_PASSWORD")
	if envUser == "" || envPass == "" {
		return nil, ErrCredentialsNotFound
	}
	if username != "" && username != envUser {
		return nil, ErrCredentialsNotFound
	}
	return &Account{
		Username:     envUser,
		Password:     envPass,
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(username string) bool {
	account, err := e.Retrieve(username)
	return err == nil && account != nil
}
