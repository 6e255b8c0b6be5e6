package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveCursor(t *testing.T) {
	db, sqlMock := newTestDB(t)
	repo := NewCursorRepository(db, logger.Nop())

	sqlMock.ExpectExec(regexp.QuoteMeta("INSERT INTO sync_cursors (user_id,cursor) VALUES (?,?) ON CONFLICT(user_id) DO UPDATE SET cursor = excluded.cursor")).
		WithArgs("@a:x", "s42").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.SaveCursor(context.Background(), "@a:x", "s42"))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestLoadCursor(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(m sqlmock.Sqlmock)
		want    string
		wantErr error
	}{
		{
			name: "saved cursor",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta("SELECT cursor FROM sync_cursors WHERE user_id = ?")).
					WithArgs("@a:x").
					WillReturnRows(sqlmock.NewRows([]string{"cursor"}).AddRow("s7"))
			},
			want: "s7",
		},
		{
			name: "no cursor yet",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT cursor FROM sync_cursors").WillReturnError(sql.ErrNoRows)
			},
			want: "",
		},
		{
			name: "query failure",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery("SELECT cursor FROM sync_cursors").WillReturnError(errors.New("io"))
			},
			wantErr: ErrExecutingQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, sqlMock := newTestDB(t)
			repo := NewCursorRepository(db, logger.Nop())
			tt.setup(sqlMock)

			got, err := repo.LoadCursor(context.Background(), "@a:x")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeleteCursor(t *testing.T) {
	db, sqlMock := newTestDB(t)
	repo := NewCursorRepository(db, logger.Nop())

	sqlMock.ExpectExec(regexp.QuoteMeta("DELETE FROM sync_cursors WHERE user_id = ?")).
		WithArgs("@a:x").
		WillReturnError(errors.New("locked"))

	assert.ErrorIs(t, repo.DeleteCursor(context.Background(), "@a:x"), ErrExecutingStatement)
}
