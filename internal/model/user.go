package model

import (
	"time"

	"github.com/lib/pq"
)

const (
	RoleUser    = "USER"
	RoleManager = "MANAGER"
	RoleAdmin   = "ADMIN"
)

type User struct {
	UUID         string         `db:"uuid" json:"uuid"`
	Username     string         `db:"username" json:"username"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Nickname     string         `db:"nickname" json:"nickname"`
	Email        string         `db:"email" json:"email"`
	Roles        pq.StringArray `db:"roles" json:"roles"`
	// JWTValidator: персистентная отсечка отзыва в epoch-мс, 0 если не задана.
	JWTValidator int64     `db:"jwt_validator" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// RevokedBefore сообщает, отозваны ли токены, выпущенные в issuedAt.
func (u *User) RevokedBefore(issuedAt time.Time) bool {
	return u.JWTValidator > 0 && issuedAt.UnixMilli() <= u.JWTValidator
}
