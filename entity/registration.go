package entity

import (
	"net/http"
	"strings"
)

// RoleComp is the competitive/team registration role. It is the only role
// subject to the event capacity limit.
const RoleComp = "comp"

// CheckinData marks attendance on the public half of a registration.
type CheckinData struct {
	CheckedIn bool  `json:"checked_in" bson:"checked_in"`
	Time      int64 `json:"time" bson:"time"`
}

// Registration is the public half of a registration entry, stored under
// events/{event}/registered/{uid}. Entity is the display string
// "{contact name} | {REPNAME}" shown on check-in lists; private contact
// details never appear here.
type Registration struct {
	Role        string          `json:"role" bson:"role"`
	Marker      AdmissionMarker `json:"marker" bson:"marker"`
	Entity      string          `json:"entity" bson:"entity"`
	CheckinData CheckinData     `json:"checkin_data" bson:"checkin_data"`
}

// RegistrationForm is the private half, stored under
// registered_data/{event}/{uid}. Only the event owner may read it back.
type RegistrationForm struct {
	RepName      string   `json:"rep_name" bson:"rep_name"`
	Teams        []string `json:"teams,omitempty" bson:"teams,omitempty"`
	NumPeople    int      `json:"num_people,omitempty" bson:"num_people,omitempty"`
	NumStudents  int      `json:"num_students,omitempty" bson:"num_students,omitempty"`
	NumMentors   int      `json:"num_mentors,omitempty" bson:"num_mentors,omitempty"`
	NumAdults    int      `json:"num_adults,omitempty" bson:"num_adults,omitempty"`
	ContactName  string   `json:"contact_name" bson:"contact_name"`
	ContactEmail string   `json:"contact_email" bson:"contact_email"`
	ContactPhone string   `json:"contact_phone,omitempty" bson:"contact_phone,omitempty"`
}

// Complete reports whether every field the given role requires is present.
// All roles need a representing name and contact name/email; the competitive
// role additionally needs headcounts and at least one non-empty team entry.
func (f *RegistrationForm) Complete(role string) bool {
	if role == "" || f.RepName == "" || f.ContactName == "" || f.ContactEmail == "" {
		return false
	}
	if role != RoleComp {
		return true
	}
	if f.NumPeople <= 0 || f.NumStudents <= 0 || f.NumMentors <= 0 {
		return false
	}
	if len(f.Teams) == 0 {
		return false
	}
	for _, team := range f.Teams {
		if strings.TrimSpace(team) == "" {
			return false
		}
	}
	return true
}

// EntityName derives the public display string for this registration.
func (f *RegistrationForm) EntityName() string {
	return f.ContactName + " | " + strings.ToUpper(f.RepName)
}

// RegisterForm is the inbound registration payload.
type RegisterForm struct {
	Role string           `json:"role"`
	Form RegistrationForm `json:"form"`
}

func (f *RegisterForm) Bind(_ *http.Request) error {
	return nil
}

// AnonCheckin is an append-only walk-in attendance record kept under an
// event's private data. There is no dedup: the same walk-in submitting twice
// produces two records.
type AnonCheckin struct {
	Affiliation string `json:"affiliation" bson:"affiliation"`
	Name        string `json:"name" bson:"name"`
	Time        int64  `json:"time" bson:"time"`
}
