package visits

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoUpdateBuildsPartialSet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	id := "6f1c2a8e-0000-4000-8000-000000000001"
	mock.ExpectExec(`UPDATE visits SET verticals = \$1, updated_at = now\(\) WHERE id = \$2`).
		WithArgs([]byte(`["Schools/Offices"]`), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, site_name").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "site_name", "address", "verticals", "tech_user_id", "visit_notes", "created_at", "updated_at"}).
			AddRow(id, "School", "2 Elm", []byte(`["Schools/Offices"]`), "tech-1", "", now, now))

	repo := &PGRepo{DB: db}
	verticals := []string{"Schools/Offices"}
	v, err := repo.Update(context.Background(), id, Patch{Verticals: &verticals})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if v.Verticals[0] != "Schools/Offices" {
		t.Fatalf("unexpected verticals: %v", v.Verticals)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDMapsNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT id, site_name").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "x"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
