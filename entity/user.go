package entity

import (
	"net/http"
	"strings"

	"rbreg/lib/validate"
)

// Role describes what a user primarily does at events.
type Role string

const (
	RoleStudent   Role = "student"
	RoleMentor    Role = "mentor"
	RoleOrganiser Role = "event_organiser"
	RoleOther     Role = "other"
	RoleGuest     Role = "guest"
)

// User is a registered account. The Uid is issued by the identity provider
// and never changes; Token is the opaque credential presented on requests.
type User struct {
	Uid           string `json:"uid" bson:"uid" validate:"required"`
	FirstName     string `json:"first_name" bson:"first_name"`
	LastName      string `json:"last_name" bson:"last_name"`
	Role          Role   `json:"role" bson:"role"`
	Email         string `json:"email" bson:"email" validate:"omitempty,email"`
	Affiliation   string `json:"affiliation" bson:"affiliation"`
	Promotion     bool   `json:"promotion" bson:"promotion"`
	EmailVerified bool   `json:"email_verified" bson:"email_verified"`
	Token         string `json:"-" bson:"token"`
	CreatedAt     int64  `json:"created_at" bson:"created_at"`
}

// Guest is the identity rendered for unauthenticated check-in flows.
var Guest = User{
	Uid:       "guest",
	FirstName: "Guest",
	LastName:  "User",
	Email:     "guest@user.com",
	Role:      RoleGuest,
}

// ProfileComplete reports whether the account has finished profile setup.
// Accounts exist as soon as the identity provider issues a token; name and
// role arrive later through the profile form.
func (u *User) ProfileComplete() bool {
	return u.FirstName != "" && u.LastName != "" && u.Role != ""
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ProfileForm carries the profile completion payload.
type ProfileForm struct {
	FirstName string `json:"first_name" validate:"required,max=16"`
	LastName  string `json:"last_name" validate:"required,max=16"`
	Role      Role   `json:"role" validate:"required,oneof=student mentor event_organiser other"`
	Email     string `json:"email" validate:"omitempty,email"`
	Promotion bool   `json:"promotion"`
}

func (f *ProfileForm) Bind(_ *http.Request) error {
	return validate.Struct(f)
}
