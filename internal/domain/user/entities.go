package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

type Role string

const (
	RoleUser    Role = "user"
	RoleFinance Role = "finance"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleFinance, RoleAdmin:
		return true
	}
	return false
}

// Staff roles review and adjudicate programs they do not own.
func (r Role) Staff() bool { return r == RoleFinance || r == RoleAdmin }

type User struct {
	ID           uint64     `gorm:"primaryKey;column:id" json:"-"`
	UserID       string     `gorm:"column:user_id;size:32;uniqueIndex:ux_users_user_id" json:"id"`
	Name         string     `gorm:"column:name;size:255;not null" json:"name"`
	Email        string     `gorm:"column:email;size:255;not null;uniqueIndex:ux_users_email" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;size:255;not null" json:"-"`
	Role         Role       `gorm:"column:role;size:16;not null;default:'user'" json:"role"`
	Department   string     `gorm:"column:department;size:255" json:"department,omitempty"`
	LastLogin    *time.Time `gorm:"column:last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string { return "users" }
