package poller

import "time"

// Schedule tracks when the next poll and the next notification are due.
//
// A zero NextPoll means the first poll has not happened yet and is due
// immediately. A zero NotifyAt means no notification is armed.
type Schedule struct {
	// NextPoll is when the next request should be issued.
	NextPoll time.Time

	// NotifyAt is when the armed notification fires.
	NotifyAt time.Time

	// EventAt is the event NotifyAt was derived from.
	EventAt time.Time

	// Notified is the last event a notification fired for.
	Notified time.Time
}

// PollDue reports whether a poll should start at now.
func (s *Schedule) PollDue(now time.Time) bool {
	return s.NextPoll.IsZero() || !now.Before(s.NextPoll)
}

// NotifyDue reports whether the armed notification should fire at now.
func (s *Schedule) NotifyDue(now time.Time) bool {
	return !s.NotifyAt.IsZero() && !now.Before(s.NotifyAt)
}

// Arm schedules a notification lead before event. It returns false, leaving
// the schedule unchanged, when event is not in the future or has already been
// notified.
func (s *Schedule) Arm(event time.Time, lead time.Duration, now time.Time) bool {
	if !event.After(now) || event.Equal(s.Notified) {
		return false
	}
	s.EventAt = event
	s.NotifyAt = event.Add(-lead)
	return true
}

// Rearm sets the next poll to now+interval, or to the armed notification if
// that comes first.
func (s *Schedule) Rearm(now time.Time, interval time.Duration) {
	next := now.Add(interval)
	if !s.NotifyAt.IsZero() && s.NotifyAt.After(now) && s.NotifyAt.Before(next) {
		next = s.NotifyAt
	}
	s.NextPoll = next
}

// Fire clears the armed notification and returns the event it was for.
func (s *Schedule) Fire() time.Time {
	event := s.EventAt
	s.Notified = event
	s.NotifyAt = time.Time{}
	return event
}
