package programmock

import (
	domain "budget-portal/internal/domain/program"
)

var _ domain.DocumentStore = (*Store)(nil)

// Store is a function-backed domain.DocumentStore. Calls are recorded so tests can
// assert on compensation (Restore/Discard) as well as the happy path.
type Store struct {
	AttachFn  func(programID string, staged []domain.StagedUpload) ([]domain.Document, error)
	RestoreFn func(programID string, docs []domain.Document) error
	RemoveFn  func(programID, filename string) error
	PurgeFn   func(programID string) error

	Attached  []string
	Restored  []string
	Discarded []string
	Removed   []string
	Purged    []string
}

// Attach defaults to one record per staged file, named after it.
func (m *Store) Attach(programID string, staged []domain.StagedUpload) ([]domain.Document, error) {
	if m.AttachFn != nil {
		return m.AttachFn(programID, staged)
	}
	docs := make([]domain.Document, 0, len(staged))
	for _, s := range staged {
		m.Attached = append(m.Attached, s.Filename)
		docs = append(docs, domain.Document{
			DocumentID:   "doc-" + s.Filename,
			Filename:     s.Filename,
			OriginalName: s.OriginalName,
			Path:         "/uploads/documents/" + programID + "/" + s.Filename,
		})
	}
	return docs, nil
}

func (m *Store) Restore(programID string, docs []domain.Document) error {
	for _, d := range docs {
		m.Restored = append(m.Restored, d.Filename)
	}
	if m.RestoreFn != nil {
		return m.RestoreFn(programID, docs)
	}
	return nil
}

func (m *Store) Discard(staged []domain.StagedUpload) {
	for _, s := range staged {
		m.Discarded = append(m.Discarded, s.Filename)
	}
}

func (m *Store) Remove(programID, filename string) error {
	m.Removed = append(m.Removed, filename)
	if m.RemoveFn != nil {
		return m.RemoveFn(programID, filename)
	}
	return nil
}

func (m *Store) Purge(programID string) error {
	m.Purged = append(m.Purged, programID)
	if m.PurgeFn != nil {
		return m.PurgeFn(programID)
	}
	return nil
}
