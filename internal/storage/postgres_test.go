package storage_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jameskolean/blog-thumbs/internal/domain"
	"github.com/jameskolean/blog-thumbs/internal/storage"
)

var thumbColumns = []string{"slug", "up_count", "down_count"}

func newMockRepository(t *testing.T) (*storage.PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	return storage.NewPostgresRepository(sqlx.NewDb(mockDB, "postgres")), mock
}

func TestPostgresRepository_All(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	rows := sqlmock.NewRows(thumbColumns).
		AddRow("first-post", 3, 0).
		AddRow("second-post", 1, 2)
	mock.ExpectQuery("SELECT slug, up_count, down_count FROM thumbs ORDER BY slug").WillReturnRows(rows)

	thumbs, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(thumbs) != 2 {
		t.Fatalf("All() returned %d thumbs, want 2", len(thumbs))
	}
	if thumbs[1] != (domain.Thumb{Slug: "second-post", UpCount: 1, DownCount: 2}) {
		t.Errorf("thumbs[1] = %+v", thumbs[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_BySlug(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		want      *domain.Thumb
		wantErr   bool
	}{
		{
			name: "returns thumb when exists",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM thumbs WHERE slug").
					WithArgs("hello").
					WillReturnRows(sqlmock.NewRows(thumbColumns).AddRow("hello", 7, 1))
			},
			want: &domain.Thumb{Slug: "hello", UpCount: 7, DownCount: 1},
		},
		{
			name: "returns nil when not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM thumbs WHERE slug").
					WithArgs("hello").
					WillReturnError(sql.ErrNoRows)
			},
		},
		{
			name: "returns error on database failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM thumbs WHERE slug").
					WithArgs("hello").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo, mock := newMockRepository(t)
			tc.setupMock(mock)

			got, err := repo.BySlug(context.Background(), "hello")
			if (err != nil) != tc.wantErr {
				t.Fatalf("BySlug() error = %v, wantErr %v", err, tc.wantErr)
			}
			switch {
			case tc.want == nil && got != nil:
				t.Errorf("BySlug() = %+v, want nil", got)
			case tc.want != nil && (got == nil || *got != *tc.want):
				t.Errorf("BySlug() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPostgresRepository_ApplyDeltas(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO thumbs").
		WithArgs("alpha", int64(2), int64(0)).
		WillReturnRows(sqlmock.NewRows(thumbColumns).AddRow("alpha", 12, 3))
	mock.ExpectQuery("INSERT INTO thumbs").
		WithArgs("beta", int64(0), int64(1)).
		WillReturnRows(sqlmock.NewRows(thumbColumns).AddRow("beta", 0, 1))
	mock.ExpectCommit()

	thumbs, err := repo.ApplyDeltas(context.Background(), []domain.Delta{
		{Slug: "alpha", Up: 2},
		{Slug: "beta", Down: 1},
	})
	if err != nil {
		t.Fatalf("ApplyDeltas() error = %v", err)
	}
	if len(thumbs) != 2 || thumbs[0].UpCount != 12 || thumbs[1].DownCount != 1 {
		t.Errorf("ApplyDeltas() = %+v", thumbs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_ApplyDeltasRollsBack(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO thumbs").
		WithArgs("alpha", int64(1), int64(0)).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	if _, err := repo.ApplyDeltas(context.Background(), []domain.Delta{{Slug: "alpha", Up: 1}}); err == nil {
		t.Fatal("ApplyDeltas() error = nil, want error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_ApplyDeltasEmpty(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)

	thumbs, err := repo.ApplyDeltas(context.Background(), nil)
	if err != nil || thumbs != nil {
		t.Errorf("ApplyDeltas(nil) = %v, %v; want nil, nil", thumbs, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database calls: %v", err)
	}
}
