package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testEvent() *Event {
	return &Event{
		Uid:       "scrimmage-20260601",
		Name:      "Scrimmage",
		Date:      "2026-06-01",
		StartTime: "10:00",
		EndTime:   "16:00",
		Timezone:  "UTC",
		Limit:     2,
		Creator:   "owner",
	}
}

func at(hour, min int) time.Time {
	return time.Date(2026, 6, 1, hour, min, 0, 0, time.UTC)
}

func TestRunningWindowInclusive(t *testing.T) {
	e := testEvent()
	assert.False(t, e.Running(at(9, 59)))
	assert.True(t, e.Running(at(10, 0)))
	assert.True(t, e.Running(at(12, 30)))
	assert.True(t, e.Running(at(16, 0)))
	assert.False(t, e.Running(at(16, 1)))
}

func TestEnded(t *testing.T) {
	e := testEvent()
	assert.False(t, e.Ended(at(16, 0)))
	assert.True(t, e.Ended(at(16, 1)))
}

func TestMalformedEventFailsClosed(t *testing.T) {
	e := testEvent()
	e.Timezone = "Nowhere/Invalid"
	assert.True(t, e.Ended(at(12, 0)))
	assert.False(t, e.Running(at(12, 0)))
}

func TestAdmittedTeams(t *testing.T) {
	e := testEvent()
	e.Registered = map[string]Registration{
		"a": {Role: RoleComp, Marker: Admitted(1)},
		"b": {Role: RoleComp, Marker: Waitlisted(2)},
		"c": {Role: "volunteer", Marker: Admitted(3)},
	}
	assert.Equal(t, 1, e.AdmittedTeams())
}

func TestWaitlistOrder(t *testing.T) {
	e := testEvent()
	e.Registered = map[string]Registration{
		"late":  {Role: RoleComp, Marker: Waitlisted(30)},
		"early": {Role: RoleComp, Marker: Waitlisted(10)},
		"tie-b": {Role: RoleComp, Marker: Waitlisted(20)},
		"tie-a": {Role: RoleComp, Marker: Waitlisted(20)},
		"in":    {Role: RoleComp, Marker: Admitted(5)},
	}
	assert.Equal(t, []string{"early", "tie-a", "tie-b", "late"}, e.Waitlist())
}

func TestEntityUid(t *testing.T) {
	e := testEvent()
	e.Registered = map[string]Registration{
		"u1": {Entity: "Ada Lovelace | ROBOHAWKS"},
	}
	assert.Equal(t, "u1", e.EntityUid("Ada Lovelace | ROBOHAWKS"))
	assert.Equal(t, "", e.EntityUid("Nobody | NOWHERE"))
}

func TestPendingEntities(t *testing.T) {
	e := testEvent()
	e.Registered = map[string]Registration{
		"u1": {Entity: "Bea | BRAVO", CheckinData: CheckinData{CheckedIn: true}},
		"u2": {Entity: "Ada | ALPHA"},
		"u3": {Entity: "Cal | CHARLIE"},
	}
	assert.Equal(t, []string{"Ada | ALPHA", "Cal | CHARLIE"}, e.PendingEntities())
}

func TestUnlimited(t *testing.T) {
	e := testEvent()
	assert.False(t, e.Unlimited())
	e.Limit = UnlimitedCapacity
	assert.True(t, e.Unlimited())
}

func TestRegistrationFormComplete(t *testing.T) {
	form := RegistrationForm{
		RepName:      "RoboHawks",
		ContactName:  "Ada Lovelace",
		ContactEmail: "ada@example.com",
		Teams:        []string{"12345"},
		NumPeople:    10,
		NumStudents:  6,
		NumMentors:   2,
	}
	assert.True(t, form.Complete(RoleComp))
	assert.False(t, form.Complete(""))

	blankTeam := form
	blankTeam.Teams = []string{"  "}
	assert.False(t, blankTeam.Complete(RoleComp))

	noCounts := form
	noCounts.NumStudents = 0
	assert.False(t, noCounts.Complete(RoleComp))
	assert.True(t, noCounts.Complete("volunteer"))
}

func TestEntityName(t *testing.T) {
	form := RegistrationForm{RepName: "RoboHawks", ContactName: "Ada Lovelace"}
	assert.Equal(t, "Ada Lovelace | ROBOHAWKS", form.EntityName())
}

func TestProfileComplete(t *testing.T) {
	u := User{FirstName: "Ada", LastName: "Lovelace", Role: RoleMentor}
	assert.True(t, u.ProfileComplete())
	u.Role = ""
	assert.False(t, u.ProfileComplete())
}

func TestFullName(t *testing.T) {
	u := User{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", u.FullName())
	assert.Equal(t, "Ada", (&User{FirstName: "Ada"}).FullName())
}
