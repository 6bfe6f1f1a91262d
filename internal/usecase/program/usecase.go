package program

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"budget-portal/internal/auth"
	domain "budget-portal/internal/domain/program"
	"budget-portal/internal/domain/uow"
	"budget-portal/pkg/id"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultMaxAttempts = 3

// Recorder receives lifecycle events after they are committed.
type Recorder interface {
	ProgramCreated()
	ProgramDeleted()
	StatusChanged(from, to domain.Status)
	HistoryAppended()
	DocumentsAttached(n int)
	DocumentDetached()
	WriteConflict()
}

type nopRecorder struct{}

func (nopRecorder) ProgramCreated()                  {}
func (nopRecorder) ProgramDeleted()                  {}
func (nopRecorder) StatusChanged(_, _ domain.Status) {}
func (nopRecorder) HistoryAppended()                 {}
func (nopRecorder) DocumentsAttached(int)            {}
func (nopRecorder) DocumentDetached()                {}
func (nopRecorder) WriteConflict()                   {}

type Usecase struct {
	programs domain.Repository
	uow      uow.UnitOfWork
	store    domain.DocumentStore
	metrics  Recorder
	log      zerolog.Logger
	now      func() time.Time
	attempts int
}

type Option func(*Usecase)

func WithRecorder(r Recorder) Option { return func(u *Usecase) { u.metrics = r } }

func WithLogger(l zerolog.Logger) Option { return func(u *Usecase) { u.log = l } }

// WithMaxAttempts bounds how often a write that lost a version race is replayed.
func WithMaxAttempts(n int) Option {
	return func(u *Usecase) {
		if n > 0 {
			u.attempts = n
		}
	}
}

func NewUsecase(programs domain.Repository, tx uow.UnitOfWork, store domain.DocumentStore, opts ...Option) *Usecase {
	u := &Usecase{
		programs: programs,
		uow:      tx,
		store:    store,
		metrics:  nopRecorder{},
		log:      zerolog.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
		attempts: defaultMaxAttempts,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func parseBudget(raw string) (decimal.Decimal, error) {
	b, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, invalid("budget must be a number")
	}
	if b.IsNegative() {
		return decimal.Decimal{}, invalid("budget must not be negative")
	}
	if !domain.BudgetFits(b) {
		return decimal.Decimal{}, invalid("budget must have at most %d integer digits and %d decimal places",
			domain.BudgetIntegerDigits, domain.BudgetScale)
	}
	return b, nil
}

func parseStatus(raw string) (domain.Status, error) {
	s, ok := domain.ParseStatus(strings.TrimSpace(raw))
	if !ok {
		return "", invalid("unknown status %q", raw)
	}
	return s, nil
}

func statusMessage(s domain.Status) string { return "Status updated to " + string(s) }

// retry replays fn while it fails with ErrConflict.
func (u *Usecase) retry(ctx context.Context, op, programID string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= u.attempts; attempt++ {
		if err = fn(); !errors.Is(err, domain.ErrConflict) {
			return err
		}
		u.metrics.WriteConflict()
		u.log.Warn().Str("op", op).Str("program_id", programID).Int("attempt", attempt).Msg("stale program write, retrying")
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

// restore puts attached files back into staging after a failed write.
func (u *Usecase) restore(programID string, docs []domain.Document) {
	if len(docs) == 0 {
		return
	}
	if err := u.store.Restore(programID, docs); err != nil {
		u.log.Error().Err(err).Str("program_id", programID).Msg("restore documents")
	}
}

func (u *Usecase) Create(ctx context.Context, caller auth.Caller, in CreateInput) (dto *ProgramDTO, err error) {
	defer func() {
		if err != nil {
			u.store.Discard(in.Files)
		}
	}()

	if err := auth.CanAct(caller, auth.ActionCreate, auth.Target{}); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	recipient := strings.TrimSpace(in.RecipientName)
	ref := strings.TrimSpace(in.ReferenceLetter)
	if name == "" || recipient == "" || ref == "" || strings.TrimSpace(in.Budget) == "" {
		return nil, invalid("name, budget, recipientName and referenceLetter are required")
	}
	budget, err := parseBudget(in.Budget)
	if err != nil {
		return nil, err
	}
	status := domain.StatusDraft
	if strings.TrimSpace(in.Status) != "" {
		if status, err = parseStatus(in.Status); err != nil {
			return nil, err
		}
		if err := auth.CanTarget(caller.Role, status); err != nil {
			return nil, err
		}
	}

	programID := id.NewID32()
	err = u.retry(ctx, "create", programID, func() error {
		p := &domain.Program{
			ProgramID:       programID,
			Name:            name,
			Budget:          budget,
			RecipientName:   recipient,
			ReferenceLetter: ref,
			Status:          status,
			CreatedBy:       caller.UserID,
		}
		docs, err := u.store.Attach(programID, in.Files)
		if err != nil {
			return err
		}
		err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
			if err := r.Programs.Create(ctx, p); err != nil {
				return err
			}
			if err := r.Programs.AddDocuments(ctx, p, docs); err != nil {
				return err
			}
			if status != domain.StatusDraft {
				msg := strings.TrimSpace(in.Message)
				if msg == "" {
					msg = statusMessage(status)
				}
				e := &domain.HistoryEntry{Status: status, Message: msg, UpdatedBy: caller.UserID, Date: u.now()}
				if err := r.Programs.AppendHistory(ctx, p, e); err != nil {
					return err
				}
			}
			out, err := r.Programs.GetByProgramID(ctx, programID)
			if err != nil {
				return err
			}
			dto = toDTO(out)
			return nil
		})
		if err != nil {
			u.restore(programID, docs)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	u.metrics.ProgramCreated()
	u.metrics.DocumentsAttached(len(in.Files))
	if status != domain.StatusDraft {
		u.metrics.StatusChanged("", status)
		u.metrics.HistoryAppended()
	}
	u.log.Info().Str("program_id", programID).Str("actor", caller.UserID).Str("status", string(status)).
		Int("documents", len(in.Files)).Msg("program created")
	return dto, nil
}

func (u *Usecase) Get(ctx context.Context, caller auth.Caller, programID string) (*ProgramDTO, error) {
	p, err := u.programs.GetByProgramID(ctx, programID)
	if err != nil {
		return nil, err
	}
	if err := auth.CanAct(caller, auth.ActionView, auth.Target{OwnerID: p.CreatedBy, Status: p.Status}); err != nil {
		return nil, err
	}
	return toDTO(p), nil
}

// List restricts plain users to their own programs; staff may filter by owner.
func (u *Usecase) List(ctx context.Context, caller auth.Caller, in ListInput) ([]ProgramDTO, error) {
	owner := strings.TrimSpace(in.UserID)
	if !caller.Staff() && owner == "" {
		owner = caller.UserID
	}
	if err := auth.CanAct(caller, auth.ActionList, auth.Target{OwnerID: owner}); err != nil {
		return nil, err
	}
	ps, err := u.programs.List(ctx, domain.ListFilter{OwnerID: owner, Status: in.Status})
	if err != nil {
		return nil, err
	}
	out := make([]ProgramDTO, 0, len(ps))
	for i := range ps {
		out = append(out, *toDTO(&ps[i]))
	}
	return out, nil
}

type patch struct {
	name, recipient, ref string
	budget               *decimal.Decimal
	status               domain.Status
	message              string
	files                []domain.StagedUpload
}

func (pt patch) fieldEdit() bool {
	return pt.name != "" || pt.recipient != "" || pt.ref != "" || pt.budget != nil
}

// actions lists every guarded action the patch performs.
func (pt patch) actions() []auth.Action {
	var out []auth.Action
	if pt.fieldEdit() {
		out = append(out, auth.ActionEdit)
	}
	if pt.status != "" {
		out = append(out, auth.ActionTransition)
	} else if pt.message != "" {
		out = append(out, auth.ActionComment)
	}
	if len(pt.files) > 0 {
		out = append(out, auth.ActionAttach)
	}
	if len(out) == 0 {
		out = append(out, auth.ActionEdit)
	}
	return out
}

func parsePatch(in UpdateInput) (patch, error) {
	pt := patch{
		name:      strings.TrimSpace(in.Name),
		recipient: strings.TrimSpace(in.RecipientName),
		ref:       strings.TrimSpace(in.ReferenceLetter),
		message:   strings.TrimSpace(in.Message),
		files:     in.Files,
	}
	if strings.TrimSpace(in.Budget) != "" {
		b, err := parseBudget(in.Budget)
		if err != nil {
			return patch{}, err
		}
		pt.budget = &b
	}
	if strings.TrimSpace(in.Status) != "" {
		s, err := parseStatus(in.Status)
		if err != nil {
			return patch{}, err
		}
		pt.status = s
	}
	return pt, nil
}

// Update applies field edits, a status change or comment, and new documents as one write.
func (u *Usecase) Update(ctx context.Context, caller auth.Caller, programID string, in UpdateInput) (dto *ProgramDTO, err error) {
	defer func() {
		if err != nil {
			u.store.Discard(in.Files)
		}
	}()

	pt, err := parsePatch(in)
	if err != nil {
		return nil, err
	}

	var from domain.Status
	var entry *domain.HistoryEntry
	err = u.retry(ctx, "update", programID, func() error {
		var docs []domain.Document
		entry = nil
		err := u.uow.WithinProgramTx(ctx, programID, func(r uow.Repos, p *domain.Program) error {
			target := auth.Target{OwnerID: p.CreatedBy, Status: p.Status}
			for _, a := range pt.actions() {
				if err := auth.CanAct(caller, a, target); err != nil {
					return err
				}
			}
			if pt.status != "" && pt.status != p.Status {
				if err := auth.CanTarget(caller.Role, pt.status); err != nil {
					return err
				}
			}

			from = p.Status
			if pt.name != "" {
				p.Name = pt.name
			}
			if pt.budget != nil {
				p.Budget = *pt.budget
			}
			if pt.recipient != "" {
				p.RecipientName = pt.recipient
			}
			if pt.ref != "" {
				p.ReferenceLetter = pt.ref
			}
			switch {
			case pt.status != "":
				p.Status = pt.status
				msg := pt.message
				if msg == "" {
					msg = statusMessage(pt.status)
				}
				entry = &domain.HistoryEntry{Status: pt.status, Message: msg, UpdatedBy: caller.UserID, Date: u.now()}
			case pt.message != "":
				entry = &domain.HistoryEntry{Status: p.Status, Message: pt.message, UpdatedBy: caller.UserID, Date: u.now()}
			}

			if err := r.Programs.Save(ctx, p); err != nil {
				return err
			}
			if len(pt.files) > 0 {
				var err error
				if docs, err = u.store.Attach(p.ProgramID, pt.files); err != nil {
					return err
				}
				if err := r.Programs.AddDocuments(ctx, p, docs); err != nil {
					return err
				}
			}
			if entry != nil {
				if err := r.Programs.AppendHistory(ctx, p, entry); err != nil {
					return err
				}
			}
			out, err := r.Programs.GetByProgramID(ctx, programID)
			if err != nil {
				return err
			}
			dto = toDTO(out)
			return nil
		})
		if err != nil {
			u.restore(programID, docs)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		u.metrics.HistoryAppended()
		if pt.status != "" && pt.status != from {
			u.metrics.StatusChanged(from, pt.status)
		}
	}
	u.metrics.DocumentsAttached(len(pt.files))
	u.log.Info().Str("program_id", programID).Str("actor", caller.UserID).Str("from", string(from)).
		Str("status", dto.Status).Int("documents", len(pt.files)).Msg("program updated")
	return dto, nil
}

// DetachDocument removes one document row and its file. A file error rolls the row back.
func (u *Usecase) DetachDocument(ctx context.Context, caller auth.Caller, programID, documentID string) (*ProgramDTO, error) {
	var dto *ProgramDTO
	err := u.retry(ctx, "detach", programID, func() error {
		return u.uow.WithinProgramTx(ctx, programID, func(r uow.Repos, p *domain.Program) error {
			if err := auth.CanAct(caller, auth.ActionDetach, auth.Target{OwnerID: p.CreatedBy, Status: p.Status}); err != nil {
				return err
			}
			i := p.FindDocument(documentID)
			if i < 0 {
				return domain.ErrDocumentNotFound
			}
			filename := p.Documents[i].Filename

			if err := r.Programs.Save(ctx, p); err != nil {
				return err
			}
			if err := r.Programs.RemoveDocument(ctx, p, documentID); err != nil {
				return err
			}
			if err := u.store.Remove(p.ProgramID, filename); err != nil {
				return err
			}
			out, err := r.Programs.GetByProgramID(ctx, programID)
			if err != nil {
				return err
			}
			dto = toDTO(out)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	u.metrics.DocumentDetached()
	u.log.Info().Str("program_id", programID).Str("document_id", documentID).Str("actor", caller.UserID).Msg("document detached")
	return dto, nil
}

// Delete removes the program rows, then its directory once the rows are gone.
func (u *Usecase) Delete(ctx context.Context, caller auth.Caller, programID string) error {
	err := u.uow.WithinProgramTx(ctx, programID, func(r uow.Repos, p *domain.Program) error {
		if err := auth.CanAct(caller, auth.ActionDelete, auth.Target{OwnerID: p.CreatedBy, Status: p.Status}); err != nil {
			return err
		}
		return r.Programs.Delete(ctx, p)
	})
	if err != nil {
		return err
	}
	u.metrics.ProgramDeleted()
	if err := u.store.Purge(programID); err != nil {
		u.log.Error().Err(err).Str("program_id", programID).Msg("purge program documents")
		return fmt.Errorf("program %s removed but its documents remain: %w", programID, err)
	}
	u.log.Info().Str("program_id", programID).Str("actor", caller.UserID).Msg("program deleted")
	return nil
}
