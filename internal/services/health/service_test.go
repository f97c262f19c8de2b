package health

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStatusWithoutDatabase(t *testing.T) {
	got := NewService(nil).Status(context.Background())
	if !got.OK || got.Database != "memory" {
		t.Fatalf("unexpected status: %+v", got)
	}
}

func TestStatusPingsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectPing()
	got := NewService(db).Status(context.Background())
	if !got.OK || got.Database != "up" {
		t.Fatalf("unexpected status: %+v", got)
	}
	if _, ok := got.Pool["max_open"]; !ok {
		t.Fatalf("expected pool stats, got %+v", got.Pool)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	if got := NewService(db).Status(context.Background()); got.OK || got.Database != "down" {
		t.Fatalf("unexpected status: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
