package mysql

import (
	"context"
	"errors"
	"testing"

	userDomain "budget-portal/internal/domain/user"
	"budget-portal/pkg/id"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &userDomain.User{UserID: id.NewID32(), Name: "Fin", Email: " Finance@Budget.gov ", PasswordHash: "h", Role: userDomain.RoleFinance}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Email != "finance@budget.gov" {
		t.Fatalf("email not normalised: %q", u.Email)
	}

	byID, err := repo.GetByUserID(ctx, u.UserID)
	if err != nil || byID.Role != userDomain.RoleFinance {
		t.Fatalf("GetByUserID: %+v err=%v", byID, err)
	}
	byEmail, err := repo.GetByEmail(ctx, "FINANCE@budget.gov")
	if err != nil || byEmail.UserID != u.UserID {
		t.Fatalf("GetByEmail: %+v err=%v", byEmail, err)
	}

	dup := &userDomain.User{UserID: id.NewID32(), Name: "Other", Email: "finance@budget.gov", PasswordHash: "h", Role: userDomain.RoleUser}
	if err := repo.Create(ctx, dup); !errors.Is(err, userDomain.ErrAlreadyExists) {
		t.Fatalf("duplicate email: want ErrAlreadyExists, got %v", err)
	}
}

func TestUserRepository_NotFoundAndLastLogin(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByUserID(ctx, "nope"); !errors.Is(err, userDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "nobody@budget.gov"); !errors.Is(err, userDomain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	u := seedUser(t, db, "carol", userDomain.RoleAdmin)
	if err := repo.TouchLastLogin(ctx, u.UserID); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	got, _ := repo.GetByUserID(ctx, u.UserID)
	if got.LastLogin == nil || got.LastLogin.IsZero() {
		t.Fatalf("last login not recorded")
	}
}
