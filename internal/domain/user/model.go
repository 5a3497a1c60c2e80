package user

import (
	"time"

	"github.com/google/uuid"
)

// User maps to the app_user table. Password material never leaves the
// auth layer and is not part of this model.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Age       *int      `db:"age" json:"age,omitempty"`
	Gender    *string   `db:"gender" json:"gender,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ProfilePatch carries optional profile updates. Nil fields are left as-is.
type ProfilePatch struct {
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Age      *int    `json:"age,omitempty"`
	Gender   *string `json:"gender,omitempty"`
	Address  *string `json:"address,omitempty"`
}
