package catalog

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoListDecodesJSONColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rows := sqlmock.NewRows([]string{"code", "name", "unit", "simple", "verticals", "why_it_matters", "compliance_refs", "underwriting_weight"}).
		AddRow("GEC-CLP", "Replace clamp", "ea", true, []byte(`["All Sites"]`), "Fault path", []byte(`["NFPA 70B"]`), "high")
	mock.ExpectQuery("SELECT code, name, unit").WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	items, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Verticals[0] != "All Sites" || items[0].ComplianceRefs[0] != "NFPA 70B" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpsertWritesEmptyArrays(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("INSERT INTO catalog_items").
		WithArgs("FSTP-PM", "Firestop", "ea", true, []byte(`["All Sites"]`), "Compartmentation", []byte(`[]`), "high").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	err = repo.Upsert(context.Background(), Item{
		Code: "FSTP-PM", Name: "Firestop", Unit: "ea", Simple: true,
		Verticals: []string{"All Sites"}, WhyItMatters: "Compartmentation", UnderwritingWeight: "high",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
