// Package security implements the password-and-recovery-question access
// gate as an explicit state machine. The UI renders whichever state is
// current and never computes transitions itself.
package security

import (
	"fmt"
	"sync"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/hash"
	"github.com/starford/dagaz/internal/models"
)

// State is the gate's current position in its lifecycle.
type State string

// Gate states.
const (
	// StateUnset means no password is stored; the gate has no effect.
	StateUnset State = "unset"
	// StateLocked means a password is stored and has not been presented.
	StateLocked State = "locked"
	// StateRecovering means the user is answering the recovery questions.
	StateRecovering State = "recovering"
	// StateUnlocked means access is granted.
	StateUnlocked State = "unlocked"
)

// Store is the persistence surface the gate depends on.
type Store interface {
	SecurityRecord() (models.SecurityRecord, error)
	SaveSecurityRecord(models.SecurityRecord) error
}

// Gate owns the access-control state machine.
type Gate struct {
	mu           sync.Mutex
	store        Store
	scheduleWipe func() error

	state     State
	rec       models.SecurityRecord
	recovered bool
}

// New loads the security record and derives the initial state: Unset (and
// therefore open) when no password hash is stored, Locked otherwise.
// scheduleWipe persists the deferred reset marker; it may be nil when the
// destructive reset action is not offered.
func New(store Store, scheduleWipe func() error) (*Gate, error) {
	rec, err := store.SecurityRecord()
	if err != nil {
		return nil, fmt.Errorf("security: load record: %w", err)
	}
	g := &Gate{store: store, scheduleWipe: scheduleWipe, rec: rec}
	if rec.HasPassword() {
		g.state = StateLocked
	} else {
		g.state = StateUnset
	}
	return g, nil
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// CheckPassword compares a candidate against the stored hash. With no
// password stored the gate is open and any candidate passes. Success
// transitions to Unlocked; failure stays Locked and reports nothing beyond
// the boolean.
func (g *Gate) CheckPassword(candidate string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.rec.HasPassword() {
		g.state = StateUnset
		return true
	}
	if hash.Sum(candidate) != g.rec.PasswordHash {
		return false
	}
	g.state = StateUnlocked
	g.recovered = false
	return true
}

// Lock withdraws access at any time. Persisted data is untouched; only the
// UI surfaces lose visibility. With no password stored this is a no-op.
func (g *Gate) Lock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rec.HasPassword() {
		g.state = StateLocked
		g.recovered = false
	}
}

// BeginRecovery moves from Locked to Recovering and returns the two stored
// questions for display. They are not modifiable in this state.
func (g *Gate) BeginRecovery() (q1, q2 string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateLocked {
		return "", "", fmt.Errorf("security: recovery from %s: %w", g.state, apperr.ErrConstraint)
	}
	g.state = StateRecovering
	return g.rec.Question1, g.rec.Question2, nil
}

// CancelRecovery returns from Recovering to Locked.
func (g *Gate) CancelRecovery() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateRecovering {
		g.state = StateLocked
		g.recovered = false
	}
}

// CheckAnswers verifies the recovery answers, each trimmed and lowercased
// before hashing. The second answer matches when no second hash is stored.
// Success permits setting a new password without the old one.
func (g *Gate) CheckAnswers(a1, a2 string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rec.Answer1Hash == "" || hash.SumAnswer(a1) != g.rec.Answer1Hash {
		return false
	}
	if g.rec.Answer2Hash != "" && hash.SumAnswer(a2) != g.rec.Answer2Hash {
		return false
	}
	if g.state == StateRecovering {
		g.recovered = true
	}
	return true
}

// Questions returns the stored recovery questions.
func (g *Gate) Questions() (string, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rec.Question1, g.rec.Question2
}

// Update describes a change to the stored credentials. A nil field retains
// the previously stored value (or hash); a pointer to the empty string
// clears that field.
type Update struct {
	Password  *string
	Question1 *string
	Answer1   *string
	Question2 *string
	Answer2   *string
}

// SetPasswordAndQuestions applies an Update. It is permitted from Unset and
// Unlocked, and from Recovering once the answers have been verified. When
// the resulting record holds no password hash the gate clears to Unset;
// otherwise the caller ends up Unlocked.
func (g *Gate) SetPasswordAndQuestions(u Update) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case StateLocked:
		return fmt.Errorf("security: set credentials while locked: %w", apperr.ErrAuth)
	case StateRecovering:
		if !g.recovered {
			return fmt.Errorf("security: answers not verified: %w", apperr.ErrAuth)
		}
	}

	rec := g.rec
	if u.Password != nil {
		rec.PasswordHash = hash.Sum(*u.Password)
	}
	if u.Question1 != nil {
		rec.Question1 = *u.Question1
	}
	if u.Answer1 != nil {
		rec.Answer1Hash = hash.SumAnswer(*u.Answer1)
	}
	if u.Question2 != nil {
		rec.Question2 = *u.Question2
	}
	if u.Answer2 != nil {
		rec.Answer2Hash = hash.SumAnswer(*u.Answer2)
	}
	if !rec.HasPassword() && rec.Answer1Hash == "" && rec.Answer2Hash == "" {
		// Empty password together with empty answers clears the gate.
		rec = models.SecurityRecord{}
	}

	if err := g.store.SaveSecurityRecord(rec); err != nil {
		return err
	}
	g.rec = rec
	g.recovered = false
	if rec.HasPassword() {
		g.state = StateUnlocked
	} else {
		g.state = StateUnset
	}
	return nil
}

// ScheduleReset persists the single-shot full-wipe marker, consumed on the
// next process start. It is reachable while Locked or Recovering but is not
// a gate transition: the current state is left as is.
func (g *Gate) ScheduleReset() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.scheduleWipe == nil {
		return fmt.Errorf("security: reset not configured: %w", apperr.ErrConstraint)
	}
	return g.scheduleWipe()
}
