package programmock

import (
	domain "budget-portal/internal/domain/program"
	"context"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset mutators succeed; unset readers return domain.ErrNotFound.
type Repo struct {
	CreateFn                  func(ctx context.Context, p *domain.Program) error
	GetByProgramIDFn          func(ctx context.Context, programID string) (*domain.Program, error)
	GetByProgramIDForUpdateFn func(ctx context.Context, programID string) (*domain.Program, error)
	ListFn                    func(ctx context.Context, f domain.ListFilter) ([]domain.Program, error)
	SaveFn                    func(ctx context.Context, p *domain.Program) error
	AppendHistoryFn           func(ctx context.Context, p *domain.Program, e *domain.HistoryEntry) error
	AddDocumentsFn            func(ctx context.Context, p *domain.Program, docs []domain.Document) error
	RemoveDocumentFn          func(ctx context.Context, p *domain.Program, documentID string) error
	DeleteFn                  func(ctx context.Context, p *domain.Program) error
}

func (m *Repo) Create(ctx context.Context, p *domain.Program) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *Repo) GetByProgramID(ctx context.Context, programID string) (*domain.Program, error) {
	if m.GetByProgramIDFn != nil {
		return m.GetByProgramIDFn(ctx, programID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByProgramIDForUpdate(ctx context.Context, programID string) (*domain.Program, error) {
	if m.GetByProgramIDForUpdateFn != nil {
		return m.GetByProgramIDForUpdateFn(ctx, programID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.Program, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, nil
}

func (m *Repo) Save(ctx context.Context, p *domain.Program) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, p)
	}
	p.Version++
	return nil
}

// AppendHistory and AddDocuments mirror the real repository by growing p.
func (m *Repo) AppendHistory(ctx context.Context, p *domain.Program, e *domain.HistoryEntry) error {
	if m.AppendHistoryFn != nil {
		return m.AppendHistoryFn(ctx, p, e)
	}
	p.History = append(p.History, *e)
	return nil
}

func (m *Repo) AddDocuments(ctx context.Context, p *domain.Program, docs []domain.Document) error {
	if m.AddDocumentsFn != nil {
		return m.AddDocumentsFn(ctx, p, docs)
	}
	p.Documents = append(p.Documents, docs...)
	return nil
}

func (m *Repo) RemoveDocument(ctx context.Context, p *domain.Program, documentID string) error {
	if m.RemoveDocumentFn != nil {
		return m.RemoveDocumentFn(ctx, p, documentID)
	}
	i := p.FindDocument(documentID)
	if i < 0 {
		return domain.ErrDocumentNotFound
	}
	p.Documents = append(p.Documents[:i], p.Documents[i+1:]...)
	return nil
}

func (m *Repo) Delete(ctx context.Context, p *domain.Program) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, p)
	}
	return nil
}
