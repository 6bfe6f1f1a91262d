package mysql

import (
	"budget-portal/internal/domain/program"
	"budget-portal/internal/domain/uow"
	"budget-portal/internal/domain/user"
	"context"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinProgramTx(ctx context.Context, programID string, fn func(r uow.Repos, p *program.Program) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the program row up-front to prevent races
		p, err := r.Programs.GetByProgramIDForUpdate(ctx, programID)
		if err != nil {
			return err
		}
		return fn(r, p)
	})
}

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Programs: &ProgramRepository{db: tx},
		Users:    &UserRepository{db: tx},
	}
}

// Migrate creates or updates every table the portal owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&program.Program{},
		&program.Document{},
		&program.HistoryEntry{},
	)
}
