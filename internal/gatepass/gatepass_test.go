package gatepass

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	now := time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC)
	s := New("test-secret", 15*time.Minute)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestIssueRedeem(t *testing.T) {
	s, _ := testService(t)

	token, err := s.Issue("scrimmage-20260601", "1234")
	require.NoError(t, err)

	pass, err := s.Redeem(token, "scrimmage-20260601")
	require.NoError(t, err)
	assert.Equal(t, "scrimmage-20260601", pass.Event)
	assert.Equal(t, "1234", pass.Code)
	assert.NotEmpty(t, pass.Id)
}

func TestRedeemWrongEvent(t *testing.T) {
	s, _ := testService(t)

	token, err := s.Issue("scrimmage-20260601", "1234")
	require.NoError(t, err)

	_, err = s.Redeem(token, "other-event")
	assert.Error(t, err)
}

func TestRedeemExpired(t *testing.T) {
	s, now := testService(t)

	token, err := s.Issue("scrimmage-20260601", "1234")
	require.NoError(t, err)

	*now = now.Add(16 * time.Minute)
	_, err = s.Redeem(token, "scrimmage-20260601")
	assert.Error(t, err)
}

func TestRedeemGarbage(t *testing.T) {
	s, _ := testService(t)
	_, err := s.Redeem("not-a-token", "scrimmage-20260601")
	assert.Error(t, err)
}

func TestSpendIsSingleUse(t *testing.T) {
	s, _ := testService(t)

	token, err := s.Issue("scrimmage-20260601", "1234")
	require.NoError(t, err)

	pass, err := s.Redeem(token, "scrimmage-20260601")
	require.NoError(t, err)
	s.Spend(pass)

	_, err = s.Redeem(token, "scrimmage-20260601")
	assert.Error(t, err)
}

func TestSpentSetPurged(t *testing.T) {
	s, now := testService(t)

	token, err := s.Issue("scrimmage-20260601", "1234")
	require.NoError(t, err)
	pass, err := s.Redeem(token, "scrimmage-20260601")
	require.NoError(t, err)
	s.Spend(pass)

	*now = now.Add(time.Hour)
	_, err = s.Issue("scrimmage-20260601", "1234")
	require.NoError(t, err)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	assert.Empty(t, s.spent)
}
