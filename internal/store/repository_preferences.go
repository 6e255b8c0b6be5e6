package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/models"
)

type preferencesRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewPreferencesRepository constructs a [PreferencesRepository].
func NewPreferencesRepository(db *DB, logger *logger.Logger) PreferencesRepository {
	return &preferencesRepository{db: db, logger: logger}
}

// SavePreferences replaces the stored favorites and sort mode atomically.
func (r *preferencesRepository) SavePreferences(ctx context.Context, prefs models.Preferences) error {
	log := r.logger.With().Str("func", "preferencesRepository.SavePreferences").Logger()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck

	query, args, err := builder.Delete("favorites").ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Msg("failed to clear favorites")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if len(prefs.Favorites) > 0 {
		insert := builder.Insert("favorites").Columns("position", "account_id", "room_id")
		for pos, ref := range prefs.Favorites {
			insert = insert.Values(pos, ref.AccountID, ref.RoomID)
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			log.Err(err).Int("count", len(prefs.Favorites)).Msg("failed to insert favorites")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	if err = putSetting(ctx, tx, settingSortMode, prefs.SortMode.String()); err != nil {
		log.Err(err).Msg("failed to save sort mode")
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}

// LoadPreferences returns the stored preferences, defaults when nothing was
// saved yet.
func (r *preferencesRepository) LoadPreferences(ctx context.Context) (models.Preferences, error) {
	prefs := models.Preferences{SortMode: models.DefaultSortMode}

	mode, ok, err := getSetting(ctx, r.db, settingSortMode)
	if err != nil {
		r.logger.Err(err).Str("func", "preferencesRepository.LoadPreferences").Msg("failed to load sort mode")
		return prefs, err
	}
	if ok {
		if prefs.SortMode, err = models.ParseSortMode(mode); err != nil {
			r.logger.Warn().Str("func", "preferencesRepository.LoadPreferences").Str("value", mode).Msg("unknown stored sort mode, using default")
		}
	}

	query, args, err := builder.Select("account_id", "room_id").From("favorites").OrderBy("position").ToSql()
	if err != nil {
		return prefs, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).Str("func", "preferencesRepository.LoadPreferences").Msg("failed to query favorites")
		return prefs, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref models.RoomRef
		if err = rows.Scan(&ref.AccountID, &ref.RoomID); err != nil {
			return prefs, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		prefs.Favorites = append(prefs.Favorites, ref)
	}
	if err = rows.Err(); err != nil {
		return prefs, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return prefs, nil
}
