package program

import (
	"time"

	"budget-portal/internal/domain/user"

	"github.com/shopspring/decimal"
)

// The budget column is decimal(18,2).
const (
	BudgetIntegerDigits = 16
	BudgetScale         = 2
)

var budgetCeiling = decimal.New(1, BudgetIntegerDigits)

// BudgetFits reports whether b is stored without rounding or overflow.
func BudgetFits(b decimal.Decimal) bool {
	return b.Abs().LessThan(budgetCeiling) && b.Equal(b.Truncate(BudgetScale))
}

// Table: programs
type Program struct {
	// Internal numeric PK
	ID uint64 `gorm:"primaryKey;column:id"`
	// Public identifier (32-char lowercase hex), also names the document directory
	ProgramID       string          `gorm:"column:program_id;size:32;not null;uniqueIndex:ux_programs_program_id"`
	Name            string          `gorm:"column:name;size:255;not null"`
	Budget          decimal.Decimal `gorm:"column:budget;type:decimal(18,2);not null"`
	RecipientName   string          `gorm:"column:recipient_name;size:255;not null"`
	ReferenceLetter string          `gorm:"column:reference_letter;size:255;not null"`
	Status          Status          `gorm:"column:status;size:32;not null;default:'Draft';index:idx_programs_status"`
	CreatedBy       string          `gorm:"column:created_by;size:32;not null;index:idx_programs_created_by"`
	Owner           *user.User      `gorm:"foreignKey:CreatedBy;references:UserID"`
	Documents       []Document      `gorm:"foreignKey:ProgramRef"`
	History         []HistoryEntry  `gorm:"foreignKey:ProgramRef"`
	Version         uint64          `gorm:"column:version;not null;default:1"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime"`
}

func (Program) TableName() string { return "programs" }

// Table: program_documents
type Document struct {
	ID           uint64    `gorm:"primaryKey;column:id"`
	DocumentID   string    `gorm:"column:document_id;size:32;not null;uniqueIndex:ux_program_documents_document_id"`
	ProgramRef   uint64    `gorm:"column:program_id;not null;index:idx_program_documents_program"`
	Filename     string    `gorm:"column:filename;size:255;not null;uniqueIndex:ux_program_documents_filename"`
	OriginalName string    `gorm:"column:original_name;size:255;not null"`
	Path         string    `gorm:"column:path;type:text;not null"`
	UploadedAt   time.Time `gorm:"column:uploaded_at;not null"`
}

func (Document) TableName() string { return "program_documents" }

// Table: program_history. Rows are only ever inserted.
type HistoryEntry struct {
	ID         uint64    `gorm:"primaryKey;column:id"`
	ProgramRef uint64    `gorm:"column:program_id;not null;index:idx_program_history_program"`
	Status     Status    `gorm:"column:status;size:32;not null"`
	Message    string    `gorm:"column:message;type:text"`
	UpdatedBy  string    `gorm:"column:updated_by;size:32;not null"`
	Date       time.Time `gorm:"column:date;not null"`
}

func (HistoryEntry) TableName() string { return "program_history" }

// FindDocument returns the index of the document with the given public id, or -1.
func (p *Program) FindDocument(documentID string) int {
	for i := range p.Documents {
		if p.Documents[i].DocumentID == documentID {
			return i
		}
	}
	return -1
}

// LastHistoryStatus is the status of the newest history entry, if any.
func (p *Program) LastHistoryStatus() (Status, bool) {
	if len(p.History) == 0 {
		return "", false
	}
	return p.History[len(p.History)-1].Status, true
}
