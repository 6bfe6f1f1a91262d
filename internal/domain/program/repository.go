package program

import "context"

// ListFilter narrows List results. Empty fields do not filter.
type ListFilter struct {
	OwnerID string
	// Status is compared case-insensitively.
	Status string
}

type Repository interface {
	Create(ctx context.Context, p *Program) error
	GetByProgramID(ctx context.Context, programID string) (*Program, error)
	// Locks the program row for the rest of the transaction where the backend supports it.
	GetByProgramIDForUpdate(ctx context.Context, programID string) (*Program, error)
	List(ctx context.Context, f ListFilter) ([]Program, error)

	// Save writes scalar columns only if the stored version still equals p.Version,
	// then bumps p.Version. Returns ErrConflict otherwise.
	Save(ctx context.Context, p *Program) error
	AppendHistory(ctx context.Context, p *Program, e *HistoryEntry) error
	AddDocuments(ctx context.Context, p *Program, docs []Document) error
	RemoveDocument(ctx context.Context, p *Program, documentID string) error
	Delete(ctx context.Context, p *Program) error
}
