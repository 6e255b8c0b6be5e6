package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-multimatrix/internal/crypto"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/models"
)

// accountRepository is the sqlite-backed implementation of
// [AccountRepository]. Tokens pass through the sealer on the way in and out.
type accountRepository struct {
	db     *DB
	sealer crypto.Sealer
	logger *logger.Logger
}

// NewAccountRepository constructs an [AccountRepository].
func NewAccountRepository(db *DB, sealer crypto.Sealer, logger *logger.Logger) AccountRepository {
	return &accountRepository{
		db:     db,
		sealer: sealer,
		logger: logger,
	}
}

// SaveAccount inserts the account or replaces the stored handle of the same
// user id.
func (r *accountRepository) SaveAccount(ctx context.Context, account models.SavedAccount) error {
	sealed, err := r.sealer.Seal([]byte(account.AccessToken.Reveal()))
	if err != nil {
		r.logger.Err(err).Str("func", "accountRepository.SaveAccount").Str("user_id", account.UserID).Msg("failed to seal access token")
		return fmt.Errorf("seal access token: %w", err)
	}

	query, args, err := builder.Insert("accounts").
		Columns("user_id", "homeserver", "device_id", "sealed_token").
		Values(account.UserID, account.Homeserver, account.DeviceID, sealed).
		Suffix("ON CONFLICT(user_id) DO UPDATE SET homeserver = excluded.homeserver, " +
			"device_id = excluded.device_id, sealed_token = excluded.sealed_token").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Err(err).Str("func", "accountRepository.SaveAccount").Str("user_id", account.UserID).Msg("failed to upsert account")
		return fmt.Errorf("%w: save account: %w", ErrExecutingStatement, err)
	}

	return nil
}

// ListAccounts returns every saved account in the order they were added.
func (r *accountRepository) ListAccounts(ctx context.Context) ([]models.SavedAccount, error) {
	query, args, err := builder.Select("user_id", "homeserver", "device_id", "sealed_token").
		From("accounts").
		OrderBy("created_at", "user_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).Str("func", "accountRepository.ListAccounts").Msg("failed to query accounts")
		return nil, fmt.Errorf("%w: list accounts: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var accounts []models.SavedAccount
	for rows.Next() {
		var (
			account models.SavedAccount
			sealed  string
		)
		if err = rows.Scan(&account.UserID, &account.Homeserver, &account.DeviceID, &sealed); err != nil {
			r.logger.Err(err).Str("func", "accountRepository.ListAccounts").Msg("failed to scan account row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}

		token, err := r.sealer.Open(sealed)
		if err != nil {
			r.logger.Err(err).Str("func", "accountRepository.ListAccounts").Str("user_id", account.UserID).Msg("failed to open sealed token")
			return nil, fmt.Errorf("%w: %s", ErrTokenUnreadable, account.UserID)
		}
		account.AccessToken = models.AccessToken(token)
		clear(token)

		accounts = append(accounts, account)
	}

	if err = rows.Err(); err != nil {
		r.logger.Err(err).Str("func", "accountRepository.ListAccounts").Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return accounts, nil
}

// DeleteAccount removes the account together with its cursor and favorites.
func (r *accountRepository) DeleteAccount(ctx context.Context, userID string) error {
	log := r.logger.With().Str("func", "accountRepository.DeleteAccount").Str("user_id", userID).Logger()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck

	deletes := []sq.DeleteBuilder{
		builder.Delete("favorites").Where(sq.Eq{"account_id": userID}),
		builder.Delete("sync_cursors").Where(sq.Eq{"user_id": userID}),
	}
	for _, del := range deletes {
		query, args, err := del.ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			log.Err(err).Msg("failed to delete account data")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	query, args, err := builder.Delete("accounts").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Msg("failed to delete account")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrAccountNotFound
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}
