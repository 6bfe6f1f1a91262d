package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "budget-portal/internal/domain/program"
	userDomain "budget-portal/internal/domain/user"
	"budget-portal/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB creates an in-memory sqlite DB with the full schema.
// A single connection keeps every query on the same in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role userDomain.Role) *userDomain.User {
	t.Helper()
	u := &userDomain.User{
		UserID:       id.NewID32(),
		Name:         name,
		Email:        name + "@budget.gov",
		PasswordHash: "x",
		Role:         role,
	}
	if err := NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func makeProgram(owner string) *domain.Program {
	return &domain.Program{
		ProgramID:       id.NewID32(),
		Name:            "Clinic Upgrade",
		Budget:          decimal.NewFromInt(50000),
		RecipientName:   "Dr. A",
		ReferenceLetter: "REF-1",
		Status:          domain.StatusDraft,
		CreatedBy:       owner,
	}
}

func TestCreateAndGetByProgramID(t *testing.T) {
	db := openTestDB(t)
	repo := NewProgramRepository(db)
	ctx := context.Background()
	owner := seedUser(t, db, "alice", userDomain.RoleUser)

	p := makeProgram(owner.UserID)
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == 0 {
		t.Fatalf("Create did not set auto-increment ID")
	}
	if p.Version != 1 {
		t.Fatalf("new program version = %d, want 1", p.Version)
	}

	got, err := repo.GetByProgramID(ctx, p.ProgramID)
	if err != nil {
		t.Fatalf("GetByProgramID: %v", err)
	}
	if got.Name != "Clinic Upgrade" || !got.Budget.Equal(decimal.NewFromInt(50000)) || got.Status != domain.StatusDraft {
		t.Fatalf("unexpected program: %+v", got)
	}
	if len(got.Documents) != 0 || len(got.History) != 0 {
		t.Fatalf("fresh program should have no children: %+v", got)
	}
	if got.Owner == nil || got.Owner.Email != "alice@budget.gov" {
		t.Fatalf("owner not preloaded: %+v", got.Owner)
	}
}

func TestGetByProgramID_NotFound(t *testing.T) {
	repo := NewProgramRepository(openTestDB(t))

	_, err := repo.GetByProgramID(context.Background(), "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_, err = repo.GetByProgramIDForUpdate(context.Background(), "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ForUpdate: expected ErrNotFound, got %v", err)
	}
}

func TestSave_BumpsVersionAndRejectsStaleWrites(t *testing.T) {
	db := openTestDB(t)
	repo := NewProgramRepository(db)
	ctx := context.Background()

	p := makeProgram(id.NewID32())
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	stale := *p
	p.Status = domain.StatusUnderReview
	if err := repo.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p.Version != 2 {
		t.Fatalf("version = %d, want 2", p.Version)
	}

	stale.Name = "Overwritten"
	if err := repo.Save(ctx, &stale); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("stale Save: want ErrConflict, got %v", err)
	}

	got, err := repo.GetByProgramID(ctx, p.ProgramID)
	if err != nil {
		t.Fatalf("GetByProgramID: %v", err)
	}
	if got.Name != "Clinic Upgrade" || got.Status != domain.StatusUnderReview || got.Version != 2 {
		t.Fatalf("stale write leaked: %+v", got)
	}
}

func TestAppendHistory_KeepsOrder(t *testing.T) {
	db := openTestDB(t)
	repo := NewProgramRepository(db)
	ctx := context.Background()

	p := makeProgram(id.NewID32())
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, st := range []domain.Status{domain.StatusUnderReview, domain.StatusQuery, domain.StatusQueryAnswered} {
		e := &domain.HistoryEntry{Status: st, Message: string(st), UpdatedBy: "u", Date: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.AppendHistory(ctx, p, e); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}
	got, err := repo.GetByProgramID(ctx, p.ProgramID)
	if err != nil {
		t.Fatalf("GetByProgramID: %v", err)
	}
	if len(got.History) != 3 {
		t.Fatalf("history len = %d, want 3", len(got.History))
	}
	if got.History[0].Status != domain.StatusUnderReview || got.History[2].Status != domain.StatusQueryAnswered {
		t.Fatalf("history out of order: %+v", got.History)
	}
}

func TestAddAndRemoveDocuments(t *testing.T) {
	db := openTestDB(t)
	repo := NewProgramRepository(db)
	ctx := context.Background()

	p := makeProgram(id.NewID32())
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	now := time.Now().UTC()
	docs := []domain.Document{
		{DocumentID: id.NewID32(), Filename: "documents-1-a.pdf", OriginalName: "a.pdf", Path: "/uploads/documents/x/documents-1-a.pdf", UploadedAt: now},
		{DocumentID: id.NewID32(), Filename: "documents-2-b.pdf", OriginalName: "b.pdf", Path: "/uploads/documents/x/documents-2-b.pdf", UploadedAt: now},
	}
	if err := repo.AddDocuments(ctx, p, docs); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if len(p.Documents) != 2 {
		t.Fatalf("in-memory documents = %d, want 2", len(p.Documents))
	}

	if err := repo.RemoveDocument(ctx, p, docs[0].DocumentID); err != nil {
		t.Fatalf("RemoveDocument: %v", err)
	}
	if err := repo.RemoveDocument(ctx, p, docs[0].DocumentID); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("second RemoveDocument: want ErrDocumentNotFound, got %v", err)
	}

	got, err := repo.GetByProgramID(ctx, p.ProgramID)
	if err != nil {
		t.Fatalf("GetByProgramID: %v", err)
	}
	if len(got.Documents) != 1 || got.Documents[0].DocumentID != docs[1].DocumentID {
		t.Fatalf("unexpected documents: %+v", got.Documents)
	}
}

func TestList_FiltersByOwnerAndStatusCaseInsensitive(t *testing.T) {
	db := openTestDB(t)
	repo := NewProgramRepository(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice", userDomain.RoleUser)
	bob := seedUser(t, db, "bob", userDomain.RoleUser)

	a1 := makeProgram(alice.UserID)
	a2 := makeProgram(alice.UserID)
	a2.Status = domain.StatusUnderReview
	b1 := makeProgram(bob.UserID)
	for _, p := range []*domain.Program{a1, a2, b1} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	all, err := repo.List(ctx, domain.ListFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("List all: n=%d err=%v", len(all), err)
	}

	mine, err := repo.List(ctx, domain.ListFilter{OwnerID: alice.UserID})
	if err != nil || len(mine) != 2 {
		t.Fatalf("List alice: n=%d err=%v", len(mine), err)
	}
	for _, p := range mine {
		if p.Owner == nil || p.Owner.Name != "alice" {
			t.Fatalf("owner not resolved: %+v", p.Owner)
		}
	}

	review, err := repo.List(ctx, domain.ListFilter{Status: "under review"})
	if err != nil || len(review) != 1 || review[0].ProgramID != a2.ProgramID {
		t.Fatalf("List status: %+v err=%v", review, err)
	}
}

func TestDelete_RemovesChildren(t *testing.T) {
	db := openTestDB(t)
	repo := NewProgramRepository(db)
	ctx := context.Background()

	p := makeProgram(id.NewID32())
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = repo.AppendHistory(ctx, p, &domain.HistoryEntry{Status: domain.StatusDraft, UpdatedBy: "u", Date: time.Now()})
	_ = repo.AddDocuments(ctx, p, []domain.Document{{DocumentID: id.NewID32(), Filename: "f.pdf", OriginalName: "f.pdf", Path: "/p", UploadedAt: time.Now()}})

	if err := repo.Delete(ctx, p); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByProgramID(ctx, p.ProgramID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("program still present: %v", err)
	}
	var docs, hist int64
	db.Model(&domain.Document{}).Count(&docs)
	db.Model(&domain.HistoryEntry{}).Count(&hist)
	if docs != 0 || hist != 0 {
		t.Fatalf("orphans left: docs=%d history=%d", docs, hist)
	}
}
