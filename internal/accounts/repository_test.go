package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestCreateMapsUniqueViolationToEmailTaken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "Ana", "ana@example.com", pgxmock.AnyArg(), RoleClient).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	user := &User{Name: "Ana", Email: "Ana@Example.com", Role: RoleClient, PasswordHash: "x"}
	if err := repo.Create(context.Background(), user); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateLowercasesEmailAndSetsCreatedAt(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewRepository(mock)
	created := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "Ana", "ana@example.com", "hash", RoleTherapist).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	user := &User{Name: "Ana", Email: "ANA@example.com", Role: RoleTherapist, PasswordHash: "hash"}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected generated id")
	}
	if !user.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %s, want %s", user.CreatedAt, created)
	}
}

func TestGetByEmailNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	repo := NewRepository(mock)

	mock.ExpectQuery("SELECT id, name, email, password_hash, role, created_at").
		WithArgs("missing@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}))

	if _, err := repo.GetByEmail(context.Background(), "missing@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
