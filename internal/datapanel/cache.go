package datapanel

import (
	"github.com/rebeliceyang/lazychart/internal/models"
)

// ResultState is everything the panel knows about one result kind
type ResultState struct {
	// Rows is nil until the first successful fetch
	Rows    []models.Record
	Loading bool
	Err     string
	Pending bool

	generation uint64
}

// HasRows reports whether a fetch has ever populated Rows
func (s ResultState) HasRows() bool {
	return s.Rows != nil
}

// Cache holds exactly one ResultState per kind
type Cache struct {
	results ResultState
	samples ResultState
}

// NewCache returns a cache in its initial state: both kinds loading and
// pending, no rows
func NewCache() Cache {
	initial := ResultState{Loading: true, Pending: true}
	return Cache{results: initial, samples: initial}
}

// Get returns a copy of the state for kind
func (c *Cache) Get(kind models.ResultKind) ResultState {
	return *c.ref(kind)
}

func (c *Cache) ref(kind models.ResultKind) *ResultState {
	if kind == models.KindSamples {
		return &c.samples
	}
	return &c.results
}

func (c *Cache) SetRows(kind models.ResultKind, rows []models.Record) {
	c.ref(kind).Rows = rows
}

func (c *Cache) SetLoading(kind models.ResultKind, loading bool) {
	c.ref(kind).Loading = loading
}

func (c *Cache) SetError(kind models.ResultKind, msg string) {
	c.ref(kind).Err = msg
}

func (c *Cache) SetPending(kind models.ResultKind, pending bool) {
	c.ref(kind).Pending = pending
}

// bump advances the kind's fetch generation and returns the new value
func (c *Cache) bump(kind models.ResultKind) uint64 {
	s := c.ref(kind)
	s.generation++
	return s.generation
}

func (c *Cache) generation(kind models.ResultKind) uint64 {
	return c.ref(kind).generation
}
