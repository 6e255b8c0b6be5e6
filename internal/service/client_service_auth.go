package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
	"github.com/MKhiriev/go-multimatrix/internal/validators"
	"github.com/MKhiriev/go-multimatrix/models"
)

// AddAccount logs in with a password, persists the sealed token and starts
// syncing. creds.Password is zeroed before AddAccount returns.
func (e *Engine) AddAccount(ctx context.Context, creds models.Credentials) (models.Account, error) {
	defer clear(creds.Password)

	if err := e.validator.Validate(ctx, creds); err != nil {
		return models.Account{}, err
	}

	client, err := e.newClient(creds.Homeserver)
	if err != nil {
		return models.Account{}, err
	}

	handle, err := client.Login(ctx, creds)
	if err != nil {
		e.log.Warn().Err(err).Str("func", "Engine.AddAccount").Str("homeserver", creds.Homeserver).Msg("login failed")
		return models.Account{}, mapLoginError(err)
	}

	existing, err := e.session(handle.UserID)
	if err == nil && existing.Status() != models.StatusLoggedOut {
		if logoutErr := client.Logout(ctx); logoutErr != nil {
			e.log.Warn().Err(logoutErr).Str("func", "Engine.AddAccount").Msg("failed to revoke duplicate login")
		}
		return models.Account{}, fmt.Errorf("%w: %s", ErrAccountExists, handle.UserID)
	}

	saved := models.SavedAccount{
		Homeserver:  creds.Homeserver,
		UserID:      handle.UserID,
		DeviceID:    handle.DeviceID,
		AccessToken: handle.AccessToken,
	}
	if err = e.storages.Accounts.SaveAccount(ctx, saved); err != nil {
		e.log.Err(err).Str("func", "Engine.AddAccount").Str("user_id", handle.UserID).Msg("failed to persist account")
		return models.Account{}, fmt.Errorf("save account: %w", err)
	}

	if existing != nil {
		if err = existing.Reauthenticate(e.ctx, saved, client); err != nil {
			if logoutErr := client.Logout(ctx); logoutErr != nil {
				e.log.Warn().Err(logoutErr).Str("func", "Engine.AddAccount").Msg("failed to revoke duplicate login")
			}
			return models.Account{}, err
		}
		e.log.Info().Str("user_id", handle.UserID).Str("device_id", handle.DeviceID).Msg("account signed in again")
		return existing.Account(), nil
	}

	s, err := e.register(saved.Account(), client)
	if err != nil {
		return models.Account{}, err
	}
	s.Start(e.ctx)

	e.log.Info().Str("user_id", handle.UserID).Str("device_id", handle.DeviceID).Msg("account added")
	return s.Account(), nil
}

// RestoreAccounts loads preferences and saved accounts and registers one
// Connecting session per account. Each session checks its token and starts
// syncing on its own goroutine; a rejected token leaves it LoggedOut so the
// user can sign in again with AddAccount.
func (e *Engine) RestoreAccounts(ctx context.Context) ([]models.Account, error) {
	prefs, err := e.storages.Preferences.LoadPreferences(ctx)
	if err != nil {
		e.log.Warn().Err(err).Str("func", "Engine.RestoreAccounts").Msg("failed to load preferences, using defaults")
	} else {
		e.index.LoadPreferences(prefs)
	}

	saved, err := e.storages.Accounts.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list saved accounts: %w", err)
	}

	var errs []error
	for _, account := range saved {
		client, err := e.newClient(account.Homeserver)
		if err != nil {
			if errors.Is(err, ErrResourceExhausted) {
				return e.Accounts(), err
			}
			errs = append(errs, err)
			continue
		}

		s, err := e.register(account.Account(), client)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.StartRestored(e.ctx, account)
	}

	e.log.Info().Int("accounts", len(saved)).Msg("accounts restoring")
	return e.Accounts(), errors.Join(errs...)
}

// RemoveAccount stops the account, revokes its token, erases it with its
// cursor and favorites, cancels its media and abandons its verifications.
func (e *Engine) RemoveAccount(ctx context.Context, accountID string) error {
	e.mu.Lock()
	s, ok := e.sessions[accountID]
	if ok {
		delete(e.sessions, accountID)
		e.order = slices.DeleteFunc(e.order, func(id string) bool { return id == accountID })
	}
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, accountID)
	}

	log := e.log.With().Str("func", "Engine.RemoveAccount").Str("user_id", accountID).Logger()

	if s.Status() != models.StatusLoggedOut {
		if err := s.Logout(ctx); err != nil {
			log.Warn().Err(err).Msg("token not revoked on the server, erasing it locally")
		}
	}
	s.Close()

	cancelled := e.media.CancelAccount(accountID)
	abandoned := e.verifications.AbandonAccount(ctx, accountID)

	e.index.DropAccountFavorites(accountID)
	e.dispatcher.Publish(models.DomainEvent{Kind: models.EventAccountRemoved, AccountID: accountID})

	var errs []error
	if err := e.storages.Accounts.DeleteAccount(ctx, accountID); err != nil {
		log.Err(err).Msg("failed to erase account")
		errs = append(errs, fmt.Errorf("erase account: %w", err))
	}
	if err := e.savePreferences(ctx); err != nil {
		errs = append(errs, err)
	}

	log.Info().Int("media_cancelled", cancelled).Int("verifications_abandoned", abandoned).Msg("account removed")
	return errors.Join(errs...)
}

// newClient builds a protocol client. The homeserver is validated first, so
// a factory failure means the process cannot allocate another session.
func (e *Engine) newClient(homeserver string) (adapter.ProtocolClient, error) {
	if err := e.validator.Validate(e.ctx, models.Credentials{Homeserver: homeserver}, validators.FieldHomeserver); err != nil {
		return nil, err
	}
	client, err := e.factory(homeserver)
	if err != nil {
		e.log.Error().Err(err).Str("homeserver", homeserver).Msg("failed to create protocol client")
		return nil, fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}
	return client, nil
}

// register adds a session for account and announces it.
func (e *Engine) register(account models.Account, client adapter.ProtocolClient) (*AccountSession, error) {
	s := NewAccountSession(account, client, e.storages.Cursors, e.dispatcher, e.sessionConfig(), e.log)
	s.onVerificationRequest = e.registerIncomingVerification

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	if _, exists := e.sessions[account.UserID]; exists {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, account.UserID)
	}
	e.sessions[account.UserID] = s
	e.order = append(e.order, account.UserID)
	e.mu.Unlock()

	e.dispatcher.Publish(models.DomainEvent{
		Kind:      models.EventAccountStatusChanged,
		AccountID: account.UserID,
		Status:    s.Status(),
	})
	return s, nil
}
