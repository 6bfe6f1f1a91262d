package mysql

import (
	programDomain "budget-portal/internal/domain/program"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgramRepository struct{ db *gorm.DB }

func NewProgramRepository(db *gorm.DB) *ProgramRepository { return &ProgramRepository{db: db} }

func (r *ProgramRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

// Create inserts the program row; documents and history are written through
// AddDocuments/AppendHistory so that every child row gets the numeric FK.
func (r *ProgramRepository) Create(ctx context.Context, p *programDomain.Program) error {
	if p.Version == 0 {
		p.Version = 1
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *ProgramRepository) GetByProgramID(ctx context.Context, programID string) (*programDomain.Program, error) {
	var out programDomain.Program
	res := r.withChildren(ctx).Preload("Owner").Where("program_id = ?", programID).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, programDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}

// GetByProgramIDForUpdate takes a row lock (SELECT ... FOR UPDATE). The sqlite
// dialect drops the locking clause, which is fine because sqlite serialises writers.
func (r *ProgramRepository) GetByProgramIDForUpdate(ctx context.Context, programID string) (*programDomain.Program, error) {
	var out programDomain.Program
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("program_id = ?", programID).
		First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, programDomain.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	// children are loaded after the lock is held
	if err := r.db.WithContext(ctx).Where("program_id = ?", out.ID).Order("id ASC").Find(&out.Documents).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("program_id = ?", out.ID).Order("id ASC").Find(&out.History).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ProgramRepository) List(ctx context.Context, f programDomain.ListFilter) ([]programDomain.Program, error) {
	q := r.withChildren(ctx).Preload("Owner")
	if f.OwnerID != "" {
		q = q.Where("created_by = ?", f.OwnerID)
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		q = q.Where("LOWER(status) = ?", strings.ToLower(s))
	}
	var out []programDomain.Program
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProgramRepository) Save(ctx context.Context, p *programDomain.Program) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&programDomain.Program{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]any{
			"name":             p.Name,
			"budget":           p.Budget,
			"recipient_name":   p.RecipientName,
			"reference_letter": p.ReferenceLetter,
			"status":           p.Status,
			"version":          p.Version + 1,
			"updated_at":       now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: program %s at version %d", programDomain.ErrConflict, p.ProgramID, p.Version)
	}
	p.Version++
	p.UpdatedAt = now
	return nil
}

func (r *ProgramRepository) AppendHistory(ctx context.Context, p *programDomain.Program, e *programDomain.HistoryEntry) error {
	e.ID = 0
	e.ProgramRef = p.ID
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return err
	}
	p.History = append(p.History, *e)
	return nil
}

func (r *ProgramRepository) AddDocuments(ctx context.Context, p *programDomain.Program, docs []programDomain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	for i := range docs {
		docs[i].ID = 0
		docs[i].ProgramRef = p.ID
	}
	if err := r.db.WithContext(ctx).Create(&docs).Error; err != nil {
		return err
	}
	p.Documents = append(p.Documents, docs...)
	return nil
}

func (r *ProgramRepository) RemoveDocument(ctx context.Context, p *programDomain.Program, documentID string) error {
	res := r.db.WithContext(ctx).
		Where("program_id = ? AND document_id = ?", p.ID, documentID).
		Delete(&programDomain.Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return programDomain.ErrDocumentNotFound
	}
	if i := p.FindDocument(documentID); i >= 0 {
		p.Documents = append(p.Documents[:i], p.Documents[i+1:]...)
	}
	return nil
}

// Delete removes the program with its document and history rows.
func (r *ProgramRepository) Delete(ctx context.Context, p *programDomain.Program) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("program_id = ?", p.ID).Delete(&programDomain.Document{}).Error; err != nil {
		return err
	}
	if err := db.Where("program_id = ?", p.ID).Delete(&programDomain.HistoryEntry{}).Error; err != nil {
		return err
	}
	res := db.Delete(&programDomain.Program{}, p.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return programDomain.ErrNotFound
	}
	return nil
}
