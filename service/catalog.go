package service

import (
	"sync"

	"clipstream/video-api/model"
)

// VideoStore is the catalog of uploaded videos backing the read-path
// endpoints. The process-local implementation below is the source of truth
// at runtime; durability comes from the object tags (see rebuild.go), not
// from this store.
type VideoStore interface {
	Get(id string) (model.VideoRecord, bool)
	Put(rec model.VideoRecord)
	// Scan visits every record until fn returns false. Visit order is
	// unspecified.
	Scan(fn func(rec model.VideoRecord) bool)
	Len() int

	AddView(id string) (int64, bool)
	AddDownload(id string) (int64, bool)
	AddShare(id string) (int64, bool)

	// MarkNotified flips the notification sentinel for a record and
	// reports whether this call was the one that flipped it. Guarantees
	// at most one webhook notification per video id.
	MarkNotified(id string) bool
}

type catalogEntry struct {
	rec      model.VideoRecord
	notified bool
}

type memoryCatalog struct {
	mu      sync.RWMutex
	entries map[string]*catalogEntry
}

// NewCatalog returns an empty in-memory video catalog
func NewCatalog() VideoStore {
	return &memoryCatalog{
		entries: make(map[string]*catalogEntry),
	}
}

func (c *memoryCatalog) Get(id string) (model.VideoRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok {
		return model.VideoRecord{}, false
	}
	return e.rec, true
}

func (c *memoryCatalog) Put(rec model.VideoRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[rec.ID]; ok {
		e.rec = rec
		return
	}
	c.entries[rec.ID] = &catalogEntry{rec: rec}
}

func (c *memoryCatalog) Scan(fn func(rec model.VideoRecord) bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		if !fn(e.rec) {
			return
		}
	}
}

func (c *memoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *memoryCatalog) AddView(id string) (int64, bool) {
	return c.bump(id, func(r *model.VideoRecord) *int64 { return &r.Views })
}

func (c *memoryCatalog) AddDownload(id string) (int64, bool) {
	return c.bump(id, func(r *model.VideoRecord) *int64 { return &r.DownloadCount })
}

func (c *memoryCatalog) AddShare(id string) (int64, bool) {
	return c.bump(id, func(r *model.VideoRecord) *int64 { return &r.ShareCount })
}

func (c *memoryCatalog) bump(id string, counter func(*model.VideoRecord) *int64) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return 0, false
	}

	n := counter(&e.rec)
	*n++
	return *n, true
}

func (c *memoryCatalog) MarkNotified(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok || e.notified {
		return false
	}
	e.notified = true
	return true
}
