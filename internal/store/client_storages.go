// Package store persists the client's local state in a sqlite file: saved
// accounts with sealed tokens, sync cursors, favorites and settings.
package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/crypto"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
)

// sealCheckMarker is sealed once per store and opened on every start to
// detect a wrong passphrase before any token is touched.
const sealCheckMarker = "go-multimatrix"

// ClientStorages groups all client-side repositories into a single value
// that can be passed around the service layer.
type ClientStorages struct {
	Accounts    AccountRepository
	Cursors     CursorRepository
	Preferences PreferencesRepository

	db     *DB
	sealer *crypto.TokenSealer
}

// NewClientStorages initialises the client storage layer. It performs the
// following steps:
//  1. Opens the sqlite file at cfg.DB.DSN, creating it if it does not exist.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Loads the key-derivation salt, generating it on first start, and
//     derives the token sealing key from passphrase.
//  4. Verifies the passphrase against the stored check value.
//
// Returns [ErrWrongPassphrase] when the passphrase differs from the one the
// store was created with.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, passphrase string, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("opening local store...")

	db, err := NewConnectSQLite(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err = db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	sealer, err := unlock(ctx, db, crypto.NewKeyChain(), passphrase)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ClientStorages{
		Accounts:    NewAccountRepository(db, sealer, logger),
		Cursors:     NewCursorRepository(db, logger),
		Preferences: NewPreferencesRepository(db, logger),
		db:          db,
		sealer:      sealer,
	}, nil
}

// unlock derives the sealing key and checks it against the store.
func unlock(ctx context.Context, db *DB, keyChain *crypto.KeyChain, passphrase string) (*crypto.TokenSealer, error) {
	salt, err := loadOrCreateSalt(ctx, db, keyChain)
	if err != nil {
		return nil, err
	}

	sealer, err := keyChain.NewSealer(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}

	check, ok, err := getSetting(ctx, db, settingSealCheck)
	if err != nil {
		sealer.Close()
		return nil, err
	}

	if !ok {
		sealed, err := sealer.Seal([]byte(sealCheckMarker))
		if err == nil {
			err = putSetting(ctx, db, settingSealCheck, sealed)
		}
		if err != nil {
			sealer.Close()
			return nil, fmt.Errorf("store seal check: %w", err)
		}
		return sealer, nil
	}

	plain, err := sealer.Open(check)
	if err != nil || string(plain) != sealCheckMarker {
		sealer.Close()
		return nil, ErrWrongPassphrase
	}

	return sealer, nil
}

func loadOrCreateSalt(ctx context.Context, db *DB, keyChain *crypto.KeyChain) ([]byte, error) {
	encoded, ok, err := getSetting(ctx, db, settingKDFSalt)
	if err != nil {
		return nil, err
	}
	if ok {
		salt, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode stored salt: %w", err)
		}
		return salt, nil
	}

	salt, err := keyChain.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if err = putSetting(ctx, db, settingKDFSalt, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, err
	}
	return salt, nil
}

// Close wipes the sealing key and closes the database.
func (s *ClientStorages) Close() error {
	return errors.Join(s.sealer.Close(), s.db.Close())
}
