package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-multimatrix/internal/logger"
)

type cursorRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewCursorRepository constructs a [CursorRepository].
func NewCursorRepository(db *DB, logger *logger.Logger) CursorRepository {
	return &cursorRepository{db: db, logger: logger}
}

func (r *cursorRepository) SaveCursor(ctx context.Context, userID, cursor string) error {
	query, args, err := builder.Insert("sync_cursors").
		Columns("user_id", "cursor").
		Values(userID, cursor).
		Suffix("ON CONFLICT(user_id) DO UPDATE SET cursor = excluded.cursor").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Err(err).Str("func", "cursorRepository.SaveCursor").Str("user_id", userID).Msg("failed to upsert cursor")
		return fmt.Errorf("%w: save cursor: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (r *cursorRepository) LoadCursor(ctx context.Context, userID string) (string, error) {
	query, args, err := builder.Select("cursor").From("sync_cursors").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var cursor string
	if err = r.db.QueryRowContext(ctx, query, args...).Scan(&cursor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		r.logger.Err(err).Str("func", "cursorRepository.LoadCursor").Str("user_id", userID).Msg("failed to query cursor")
		return "", fmt.Errorf("%w: load cursor: %w", ErrExecutingQuery, err)
	}
	return cursor, nil
}

func (r *cursorRepository) DeleteCursor(ctx context.Context, userID string) error {
	query, args, err := builder.Delete("sync_cursors").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Err(err).Str("func", "cursorRepository.DeleteCursor").Str("user_id", userID).Msg("failed to delete cursor")
		return fmt.Errorf("%w: delete cursor: %w", ErrExecutingStatement, err)
	}
	return nil
}
