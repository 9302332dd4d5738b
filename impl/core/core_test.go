package core

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbreg/entity"
	"rbreg/impl/admission"
	"rbreg/impl/auth"
	"rbreg/impl/checkin"
	"rbreg/impl/registry"
	"rbreg/internal/database"
	"rbreg/internal/gatepass"
)

func testCore() (*Core, database.Store) {
	db := database.NewMemory()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(db, log)
	adm := admission.New(db, log)
	ci := checkin.New(db, log)
	au := auth.New(db, reg, log)
	gate := gatepass.New("test-secret", 15*time.Minute)
	return New(reg, adm, ci, au, gate, "https://reg.example.com", log), db
}

func runningEvent() *entity.Event {
	now := time.Now()
	return &entity.Event{
		Uid:         "scrimmage",
		Name:        "Scrimmage",
		Date:        now.Format("2006-01-02"),
		StartTime:   "00:00",
		EndTime:     "23:59",
		Timezone:    "UTC",
		Limit:       entity.UnlimitedCapacity,
		Creator:     "owner-1",
		CheckinCode: "1234",
		Settings:    entity.EventSettings{Visible: true, Regis: true, Checkin: true},
		Registered: map[string]entity.Registration{
			"u1": {Role: entity.RoleComp, Marker: entity.Admitted(1), Entity: "Ada | ALPHA"},
		},
	}
}

func TestGatePassFlow(t *testing.T) {
	c, db := testCore()
	ctx := context.Background()
	event := runningEvent()

	_, status, err := c.IssueGatePass(event, "0000")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCiInvalid, status)

	token, status, err := c.IssueGatePass(event, "1234")
	require.NoError(t, err)
	require.Nil(t, status)
	assert.True(t, c.VerifyGatePass(token, event.Uid))
	assert.False(t, c.VerifyGatePass(token, "other-event"))

	status, err = c.DynamicCheckin(ctx, event, token, &checkin.DynamicForm{Entity: "Ada | ALPHA"})
	require.NoError(t, err)
	require.Nil(t, status)

	var data entity.CheckinData
	found, err := db.Get(ctx, "events/scrimmage/registered/u1/checkin_data", &data)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, data.CheckedIn)

	// The pass was spent by the successful submission.
	status, err = c.DynamicCheckin(ctx, event, token, &checkin.DynamicForm{
		Entity:      checkin.AnonEntity,
		Affiliation: "School",
		Name:        "Cal",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCiInvalid, status)
}

func TestGatePassSurvivesFailedSubmission(t *testing.T) {
	c, _ := testCore()
	ctx := context.Background()
	event := runningEvent()

	token, status, err := c.IssueGatePass(event, "1234")
	require.NoError(t, err)
	require.Nil(t, status)

	status, err = c.DynamicCheckin(ctx, event, token, &checkin.DynamicForm{Entity: "Zed | ZULU"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCiInvalid, status)

	// The rejected submission did not spend the pass.
	assert.True(t, c.VerifyGatePass(token, event.Uid))
}

func TestEventQr(t *testing.T) {
	c, db := testCore()
	ctx := context.Background()

	event := runningEvent()
	require.NoError(t, db.Set(ctx, "events/scrimmage", event))

	_, status, err := c.EventQr(ctx, "scrimmage", "stranger", "register", "small")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusForbidden, status)

	png, status, err := c.EventQr(ctx, "scrimmage", "owner-1", "register", "small")
	require.NoError(t, err)
	require.Nil(t, status)
	assert.True(t, bytes.HasPrefix(png, []byte{0x89, 'P', 'N', 'G'}))

	_, status, err = c.EventQr(ctx, "missing", "owner-1", "register", "small")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusNotFound, status)
}

func TestEventQrEndedEvent(t *testing.T) {
	c, db := testCore()
	ctx := context.Background()

	event := runningEvent()
	event.Date = "2020-01-01"
	require.NoError(t, db.Set(ctx, "events/scrimmage", event))

	_, status, err := c.EventQr(ctx, "scrimmage", "owner-1", "register", "small")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusQrGenFail, status)
}
