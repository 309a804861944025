package feed

import (
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"postfeed/domain"
)

// PerPage is the fixed pagination window for ListPosts.
const PerPage = 2

// PublicImagePath is the read-only URL prefix stored assets are served
// under.
const PublicImagePath = "/images/"

// Publisher receives a change event after each committed feed mutation.
type Publisher interface {
	Publish(evt domain.ChangeEvent)
}

// Releaser disposes of orphaned media assets, best effort.
type Releaser interface {
	Release(storageKey string)
}

var sanitizerStrict = bluemonday.StrictPolicy()

// Store owns Account and Post records in the durable store. Mutations are
// serialized per entity id; reads run concurrently. Every committed
// mutation publishes exactly one change event, after the commit.
type Store struct {
	db     *sql.DB
	media  Releaser
	events Publisher
	logger domain.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(db *sql.DB, media Releaser, events Publisher, logger domain.Logger) *Store {
	if logger == nil {
		logger = domain.DefaultLogger{}
	}
	return &Store{
		db:     db,
		media:  media,
		events: events,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// entity returns the mutex serializing mutations of one entity id.
// Mutexes are never removed; the id space is small enough in practice.
func (s *Store) entity(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lk, ok := s.locks[id]
	if !ok {
		lk = &sync.Mutex{}
		s.locks[id] = lk
	}
	return lk
}

func (s *Store) publish(evt domain.ChangeEvent) {
	if s.events != nil {
		s.events.Publish(evt)
	}
}

func (s *Store) release(storageKey string) {
	if s.media != nil {
		s.media.Release(storageKey)
	}
}

// clean strips any markup from free-text input before it is persisted.
func clean(input string) string {
	return strings.TrimSpace(sanitizerStrict.Sanitize(input))
}

// checkFields folds per-field validation results into a single
// ValidationError, with fields reported in a stable order.
func checkFields(checks map[string]error) error {
	fields := make([]string, 0, len(checks))
	for field, err := range checks {
		if err != nil {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	sort.Strings(fields)

	ve := &domain.ValidationError{}
	for _, field := range fields {
		ve.Add(field, checks[field].Error())
	}
	return ve
}
