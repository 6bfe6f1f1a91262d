package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"budget-portal/internal/adapter/repository/mysql"
	"budget-portal/internal/auth"
	"budget-portal/internal/domain/user"
	"budget-portal/internal/infrastructure/db"
)

// sqliteEnv points the CLI at a fresh sqlite file and returns its path.
func sqliteEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portal.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	sqliteEnv(t)
	out, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "schema up to date") {
		t.Fatalf("output = %q", out)
	}
	// second run is a no-op
	if _, err := run(t, "migrate"); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestMigrate_BadDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	if _, err := run(t, "migrate"); err == nil || !strings.Contains(err.Error(), "DB_DRIVER") {
		t.Fatalf("expected DB_DRIVER error, got %v", err)
	}
}

func TestUserCreate(t *testing.T) {
	path := sqliteEnv(t)
	out, err := run(t, "user", "create",
		"--name", "Finance Desk", "--email", "Finance@Budget.gov",
		"--password", "change-me-now", "--role", "finance", "--department", "Treasury")
	if err != nil {
		t.Fatalf("user create: %v", err)
	}
	if !strings.Contains(out, "created finance user finance@budget.gov") {
		t.Fatalf("output = %q", out)
	}

	gdb, err := db.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeDB(gdb)
	u, err := mysql.NewUserRepository(gdb).GetByEmail(context.Background(), "finance@budget.gov")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if u.Role != user.RoleFinance || u.Department != "Treasury" || len(u.UserID) != 32 {
		t.Fatalf("unexpected user: %+v", u)
	}
	if err := auth.CheckPassword(u.PasswordHash, "change-me-now"); err != nil {
		t.Fatalf("stored hash does not match: %v", err)
	}

	// duplicate email
	if _, err := run(t, "user", "create", "--name", "Again", "--email", "finance@budget.gov", "--password", "change-me-now"); err == nil {
		t.Fatal("expected duplicate email error")
	}
}

func TestUserCreate_Validation(t *testing.T) {
	sqliteEnv(t)
	_, err := run(t, "user", "create", "--name", "", "--email", "nope", "--password", "short", "--role", "root")
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"--name", "--email", "--password", "--role"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %s", err, want)
		}
	}
}
