// Package models содержит доменные структуры песочницы: пользователей, кошельки,
// транзакции и подписки, а также ошибки, общие для сервисов и хранилища.
package models

import "time"

const (
	// RoleUser — роль обычного пользователя.
	RoleUser = "user"
	// RoleAdmin — роль администратора.
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin сообщает, имеет ли пользователь роль администратора.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NewUser — данные для создания пользователя. Password приходит в открытом виде
// и хэшируется сервисом до попадания в хранилище.
type NewUser struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName,omitempty" validate:"max=100"`
	LastName  string `json:"lastName,omitempty" validate:"max=100"`
}

// UserPatch — частичное обновление пользователя, nil означает «не менять».
type UserPatch struct {
	Username  *string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
	IsActive  *bool   `json:"isActive,omitempty"`
}
