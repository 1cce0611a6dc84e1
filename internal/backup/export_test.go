package backup

import "time"

// SetClock overrides the snapshot timestamp source in tests.
func SetClock(m *Manager, now func() time.Time) {
	m.now = now
}
