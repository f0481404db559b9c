package poller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedule_FirstPollIsDue(t *testing.T) {
	var s Schedule
	assert.True(t, s.PollDue(time.Now()))
	assert.False(t, s.NotifyDue(time.Now()))
}

func TestSchedule_Rearm(t *testing.T) {
	now := time.Unix(1723450000, 0)

	tests := []struct {
		name     string
		notifyAt time.Time
		want     time.Time
	}{
		{"nothing armed", time.Time{}, now.Add(time.Hour)},
		{"notification later than interval", now.Add(2 * time.Hour), now.Add(time.Hour)},
		{"notification sooner than interval", now.Add(10 * time.Minute), now.Add(10 * time.Minute)},
		{"notification already due", now.Add(-time.Minute), now.Add(time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Schedule{NotifyAt: tt.notifyAt}
			s.Rearm(now, time.Hour)
			assert.True(t, s.NextPoll.Equal(tt.want), "NextPoll = %v, want %v", s.NextPoll, tt.want)
		})
	}
}

func TestSchedule_ArmAndFire(t *testing.T) {
	now := time.Unix(1723450000, 0)
	event := now.Add(time.Hour)
	var s Schedule

	assert.True(t, s.Arm(event, 10*time.Minute, now))
	assert.True(t, s.NotifyAt.Equal(event.Add(-10*time.Minute)))
	assert.False(t, s.NotifyDue(now))
	assert.True(t, s.NotifyDue(s.NotifyAt))

	fired := s.Fire()
	assert.True(t, fired.Equal(event))
	assert.True(t, s.NotifyAt.IsZero())
	assert.False(t, s.NotifyDue(event))

	assert.False(t, s.Arm(event, 10*time.Minute, now), "notified event must not re-arm")
	assert.True(t, s.NotifyAt.IsZero())
}

func TestSchedule_ArmRejectsPast(t *testing.T) {
	now := time.Unix(1723450000, 0)
	var s Schedule

	assert.False(t, s.Arm(now, time.Minute, now))
	assert.False(t, s.Arm(now.Add(-time.Second), time.Minute, now))
	assert.True(t, s.EventAt.IsZero())
}
