package store

import (
	"context"

	"github.com/MKhiriev/go-multimatrix/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// AccountRepository persists the credential handles of logged-in accounts.
// Access tokens are sealed before they are written.
type AccountRepository interface {
	SaveAccount(ctx context.Context, account models.SavedAccount) error
	ListAccounts(ctx context.Context) ([]models.SavedAccount, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// CursorRepository persists the sync position of every account.
type CursorRepository interface {
	SaveCursor(ctx context.Context, userID, cursor string) error
	// LoadCursor returns an empty cursor when none was saved.
	LoadCursor(ctx context.Context, userID string) (string, error)
	DeleteCursor(ctx context.Context, userID string) error
}

// PreferencesRepository persists favorites and the sort mode.
type PreferencesRepository interface {
	SavePreferences(ctx context.Context, prefs models.Preferences) error
	LoadPreferences(ctx context.Context) (models.Preferences, error)
}
