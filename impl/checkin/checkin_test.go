package checkin

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbreg/entity"
	"rbreg/internal/database"
)

var midEvent = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func testCheckin() (*Checkin, database.Store) {
	db := database.NewMemory()
	c := New(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.now = func() time.Time { return midEvent }
	return c, db
}

func testEvent() *entity.Event {
	return &entity.Event{
		Uid:         "scrimmage-20260601",
		Date:        "2026-06-01",
		StartTime:   "10:00",
		EndTime:     "16:00",
		Timezone:    "UTC",
		Creator:     "owner-1",
		CheckinCode: "1234",
		Settings:    entity.EventSettings{Visible: true, Regis: true, Checkin: true},
		Registered: map[string]entity.Registration{
			"u1": {Role: entity.RoleComp, Marker: entity.Admitted(1), Entity: "Ada | ALPHA"},
			"u2": {
				Role:        entity.RoleComp,
				Marker:      entity.Admitted(2),
				Entity:      "Bea | BRAVO",
				CheckinData: entity.CheckinData{CheckedIn: true, Time: 5},
			},
		},
	}
}

func TestGateWindow(t *testing.T) {
	event := testEvent()

	before := time.Date(2026, 6, 1, 9, 59, 0, 0, time.UTC)
	assert.Equal(t, entity.StatusNotRunning, Gate(event, before))

	assert.Nil(t, Gate(event, time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)))
	assert.Nil(t, Gate(event, time.Date(2026, 6, 1, 16, 0, 0, 0, time.UTC)))

	after := time.Date(2026, 6, 1, 16, 1, 0, 0, time.UTC)
	assert.Equal(t, entity.StatusNotRunning, Gate(event, after))
}

func TestGateDisabledTakesPrecedence(t *testing.T) {
	event := testEvent()
	event.Settings.Checkin = false

	// Disabled wins even outside the window.
	outside := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, entity.StatusCiDisabled, Gate(event, outside))
	assert.Equal(t, entity.StatusCiDisabled, Gate(event, midEvent))
}

func TestSubmitCode(t *testing.T) {
	c, _ := testCheckin()
	event := testEvent()

	assert.Nil(t, c.SubmitCode(event, "1234"))
	assert.Equal(t, entity.StatusCiInvalid, c.SubmitCode(event, "9999"))
	assert.Equal(t, entity.StatusCiInvalid, c.SubmitCode(event, ""))
}

func TestDynamicEntity(t *testing.T) {
	c, db := testCheckin()
	ctx := context.Background()
	event := testEvent()

	status, err := c.Dynamic(ctx, event, "1234", &DynamicForm{Entity: "Ada | ALPHA"})
	require.NoError(t, err)
	assert.Nil(t, status)

	var data entity.CheckinData
	found, err := db.Get(ctx, "events/scrimmage-20260601/registered/u1/checkin_data", &data)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, data.CheckedIn)
	assert.Equal(t, midEvent.Unix(), data.Time)
}

func TestDynamicRejections(t *testing.T) {
	c, _ := testCheckin()
	ctx := context.Background()

	t.Run("stale pass code", func(t *testing.T) {
		status, err := c.Dynamic(ctx, testEvent(), "0000", &DynamicForm{Entity: "Ada | ALPHA"})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCiInvalid, status)
	})

	t.Run("unknown entity", func(t *testing.T) {
		status, err := c.Dynamic(ctx, testEvent(), "1234", &DynamicForm{Entity: "Zed | ZULU"})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCiInvalid, status)
	})

	t.Run("empty entity", func(t *testing.T) {
		status, err := c.Dynamic(ctx, testEvent(), "1234", &DynamicForm{})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCiInvalid, status)
	})

	t.Run("already checked in", func(t *testing.T) {
		status, err := c.Dynamic(ctx, testEvent(), "1234", &DynamicForm{Entity: "Bea | BRAVO"})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCiInvalid, status)
	})
}

func TestDynamicAnon(t *testing.T) {
	c, db := testCheckin()
	ctx := context.Background()
	event := testEvent()

	status, err := c.Dynamic(ctx, event, "1234", &DynamicForm{
		Entity:      AnonEntity,
		Affiliation: "Visiting school",
		Name:        "Cal",
	})
	require.NoError(t, err)
	assert.Nil(t, status)

	var records map[string]entity.AnonCheckin
	found, err := db.Get(ctx, "registered_data/scrimmage-20260601/anon", &records)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, records, 1)
	for _, rec := range records {
		assert.Equal(t, "Visiting school", rec.Affiliation)
		assert.Equal(t, "Cal", rec.Name)
		assert.Equal(t, midEvent.Unix(), rec.Time)
	}
}

func TestDynamicAnonRequiresBothFields(t *testing.T) {
	c, _ := testCheckin()
	ctx := context.Background()

	status, err := c.Dynamic(ctx, testEvent(), "1234", &DynamicForm{Entity: AnonEntity, Name: "Cal"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCiInvalid, status)

	status, err = c.Dynamic(ctx, testEvent(), "1234", &DynamicForm{Entity: AnonEntity, Affiliation: "School"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCiInvalid, status)
}

func TestDynamicAnonNeverDedups(t *testing.T) {
	c, db := testCheckin()
	ctx := context.Background()
	event := testEvent()
	form := &DynamicForm{Entity: AnonEntity, Affiliation: "School", Name: "Cal"}

	_, err := c.Dynamic(ctx, event, "1234", form)
	require.NoError(t, err)
	_, err = c.Dynamic(ctx, event, "1234", form)
	require.NoError(t, err)

	var records map[string]entity.AnonCheckin
	_, err = db.Get(ctx, "registered_data/scrimmage-20260601/anon", &records)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestManual(t *testing.T) {
	c, db := testCheckin()
	ctx := context.Background()
	event := testEvent()

	status, err := c.Manual(ctx, event, &entity.User{Uid: "owner-1"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusEventOwner, status)

	status, err = c.Manual(ctx, event, &entity.User{Uid: "stranger"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusNoAffil, status)

	status, err = c.Manual(ctx, event, &entity.User{Uid: "u1"})
	require.NoError(t, err)
	assert.Nil(t, status)

	var data entity.CheckinData
	found, err := db.Get(ctx, "events/scrimmage-20260601/registered/u1/checkin_data", &data)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, data.CheckedIn)
}
