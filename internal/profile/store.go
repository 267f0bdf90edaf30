// Package profile holds the per-user facts inferred across turns. Records
// live for the process lifetime; fields only move forward (a later "unknown"
// never erases an earlier answer).
package profile

import "sync"

// Unknown is the sentinel the extraction model emits for fields it could not
// find. It is compared literally, as the model is instructed to emit it.
const Unknown = "unknown"

// EnrichedLocation is the geocode result kept alongside the raw location
// string the user gave us.
type EnrichedLocation struct {
	OriginalQuery string
	DisplayName   string
	Source        string
	BoundingBox   []string
	Latitude      float64
	Longitude     float64
	Found         bool
}

// Facts is everything we currently believe about one user.
type Facts struct {
	Location         string
	BodyType         string
	StylePreferences string
	Budget           string
	EnhancedLocation *EnrichedLocation
}

// Update carries freshly extracted values. Empty or Unknown fields are
// ignored during merge.
type Update struct {
	Location         string
	BodyType         string
	StylePreferences string
	Budget           string
}

type Store struct {
	mu    sync.RWMutex
	users map[string]*Facts
}

func NewStore() *Store {
	return &Store{users: make(map[string]*Facts)}
}

// Get returns a copy of the user's facts, creating nothing.
func (s *Store) Get(userID string) Facts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f, ok := s.users[userID]; ok {
		return *f
	}
	return Facts{}
}

// Apply merges the update into the user's record and returns the merged
// result. Last write wins per field; Unknown and empty values are discarded.
func (s *Store) Apply(userID string, u Update) Facts {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.users[userID]
	if !ok {
		f = &Facts{}
		s.users[userID] = f
	}
	if keep(u.Location) {
		f.Location = u.Location
	}
	if keep(u.BodyType) {
		f.BodyType = u.BodyType
	}
	if keep(u.StylePreferences) {
		f.StylePreferences = u.StylePreferences
	}
	if keep(u.Budget) {
		f.Budget = u.Budget
	}
	return *f
}

// SetEnhancedLocation attaches a geocode result to the user's record.
func (s *Store) SetEnhancedLocation(userID string, loc EnrichedLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.users[userID]
	if !ok {
		f = &Facts{}
		s.users[userID] = f
	}
	f.EnhancedLocation = &loc
}

func keep(v string) bool {
	return v != "" && v != Unknown
}
