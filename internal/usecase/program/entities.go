package program

import (
	"time"

	domain "budget-portal/internal/domain/program"

	"github.com/shopspring/decimal"
)

func init() {
	// budgets are written as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// CreateInput carries raw form values. Budget is parsed by the usecase.
type CreateInput struct {
	Name            string
	Budget          string
	RecipientName   string
	ReferenceLetter string
	// Status is optional; empty means Draft.
	Status  string
	Message string
	Files   []domain.StagedUpload
}

// UpdateInput is a partial patch: empty strings leave the stored value alone.
type UpdateInput struct {
	Name            string
	Budget          string
	RecipientName   string
	ReferenceLetter string
	Status          string
	Message         string
	Files           []domain.StagedUpload
}

type ListInput struct {
	UserID string
	Status string
}

type OwnerDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type DocumentDTO struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	Path         string    `json:"path"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

type HistoryDTO struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	UpdatedBy string    `json:"updatedBy"`
	Date      time.Time `json:"date"`
}

type ProgramDTO struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Budget          decimal.Decimal `json:"budget"`
	RecipientName   string          `json:"recipientName"`
	ReferenceLetter string          `json:"referenceLetter"`
	Status          string          `json:"status"`
	Documents       []DocumentDTO   `json:"documents"`
	History         []HistoryDTO    `json:"history"`
	CreatedBy       OwnerDTO        `json:"createdBy"`
	Version         uint64          `json:"version"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func toDTO(p *domain.Program) *ProgramDTO {
	dto := &ProgramDTO{
		ID:              p.ProgramID,
		Name:            p.Name,
		Budget:          p.Budget,
		RecipientName:   p.RecipientName,
		ReferenceLetter: p.ReferenceLetter,
		Status:          string(p.Status),
		Documents:       make([]DocumentDTO, 0, len(p.Documents)),
		History:         make([]HistoryDTO, 0, len(p.History)),
		CreatedBy:       OwnerDTO{ID: p.CreatedBy},
		Version:         p.Version,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.Owner != nil {
		dto.CreatedBy.Name = p.Owner.Name
		dto.CreatedBy.Email = p.Owner.Email
	}
	for _, d := range p.Documents {
		dto.Documents = append(dto.Documents, DocumentDTO{
			ID:           d.DocumentID,
			Filename:     d.Filename,
			OriginalName: d.OriginalName,
			Path:         d.Path,
			UploadedAt:   d.UploadedAt,
		})
	}
	for _, h := range p.History {
		dto.History = append(dto.History, HistoryDTO{
			Status:    string(h.Status),
			Message:   h.Message,
			UpdatedBy: h.UpdatedBy,
			Date:      h.Date,
		})
	}
	return dto
}
