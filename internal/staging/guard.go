package staging

import (
	"log/slog"
	"sync"

	"github.com/Veraticus/scribe/internal/model"
)

// Scope identifies the patient context a piece of work started under.
type Scope struct {
	Patient    model.PatientID
	Generation uint64
}

// Guard ties a Store to the active patient. Switching patients, including to
// no patient, clears everything staged for the previous one.
type Guard struct {
	store      *Store
	logger     *slog.Logger
	active     model.PatientID
	generation uint64
	mu         sync.RWMutex
}

// NewGuard creates a guard over store with initial as the active patient.
func NewGuard(store *Store, initial model.PatientID) *Guard {
	return &Guard{
		store:  store,
		active: initial,
		logger: slog.Default(),
	}
}

// SetActivePatient switches the active patient. It returns false when id is
// already active, in which case nothing is cleared.
func (g *Guard) SetActivePatient(id model.PatientID) bool {
	g.mu.Lock()
	if g.active == id {
		g.mu.Unlock()
		return false
	}
	previous := g.active
	g.active = id
	g.generation++
	generation := g.generation
	// The store is emptied before the new scope can be observed.
	snap := g.store.clear()
	g.mu.Unlock()

	g.store.notify(snap)
	g.logger.Debug("patient scope changed",
		"previous", previous.String(),
		"active", id.String(),
		"generation", generation)
	return true
}

// Active returns the active patient.
func (g *Guard) Active() model.PatientID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

// Scope captures the current patient context.
func (g *Guard) Scope() Scope {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Scope{Patient: g.active, Generation: g.generation}
}

// IsCurrent reports whether s is still the active context.
func (g *Guard) IsCurrent(s Scope) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return s.Generation == g.generation && s.Patient == g.active
}

// Store returns the guarded store.
func (g *Guard) Store() *Store {
	return g.store
}
