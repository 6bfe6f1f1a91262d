package uowmock

import (
	"context"
	"errors"

	"budget-portal/internal/domain/program"
	"budget-portal/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn        func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinProgramTxFn func(ctx context.Context, programID string, fn func(r uow.Repos, p *program.Program) error) error
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinProgramTx(fn func(context.Context, string, func(uow.Repos, *program.Program) error) error) *UoW {
	m.WithinProgramTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Passthrough runs every transaction body directly against repos. WithinProgramTx
// loads the program through GetByProgramIDForUpdate like the gorm implementation.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinProgramTxFn: func(ctx context.Context, programID string, fn func(uow.Repos, *program.Program) error) error {
			p, err := repos.Programs.GetByProgramIDForUpdate(ctx, programID)
			if err != nil {
				return err
			}
			return fn(repos, p)
		},
	}
}

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinProgramTx(ctx context.Context, programID string, fn func(r uow.Repos, p *program.Program) error) error {
	if m.WithinProgramTxFn != nil {
		return m.WithinProgramTxFn(ctx, programID, fn)
	}
	return errUnimplemented
}
