package configstore

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by FindOne when no document matches the filter.
var ErrNotFound = errors.New("configstore: document not found")

// MemoryStore is the single-process, in-memory backend selected by
// config_store.backend=MEM. It is grounded on the teacher's
// internal/storage.MemoryStore: one map per collection guarded by a single
// RWMutex, safe for concurrent access from every request goroutine.
//
// MEM requires server.workers == 1 (enforced in internal/config/validation.go)
// since nothing here is shared across processes.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]interface{}),
	}
}

func (s *MemoryStore) collection(name string) map[string]map[string]interface{} {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]map[string]interface{})
		s.collections[name] = c
	}
	return c
}

func docKey(collection string, doc map[string]interface{}) string {
	if collection == CollectionSubscriptions {
		user, _ := doc["user_id"].(string)
		name, _ := doc["api_name"].(string)
		version, _ := doc["api_version"].(string)
		if user != "" {
			return user + "/" + name + "/" + version
		}
	}
	for _, idField := range []string{"_id", "api_id", "endpoint_id", "user_id", "role_name", "group_name", "credit_group"} {
		if v, ok := doc[idField]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func matches(doc, filter map[string]interface{}) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// FindOne returns the first document in collection matching every key in filter.
func (s *MemoryStore) FindOne(ctx context.Context, collection string, filter map[string]interface{}) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			return cloneDoc(doc), nil
		}
	}
	return nil, ErrNotFound
}

// Find returns a cursor over every matching document, to be paginated via ToList.
func (s *MemoryStore) Find(ctx context.Context, collection string, filter map[string]interface{}, skip, limit int) (Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []map[string]interface{}
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			matched = append(matched, cloneDoc(doc))
		}
	}
	if skip < 0 {
		skip = 0
	}
	if skip >= len(matched) {
		matched = nil
	} else {
		matched = matched[skip:]
	}
	return &memoryCursor{docs: matched, limit: limit}, nil
}

type memoryCursor struct {
	docs  []map[string]interface{}
	limit int
}

func (c *memoryCursor) ToList(ctx context.Context, limit int) ([]map[string]interface{}, error) {
	effective := limit
	if c.limit > 0 && (effective <= 0 || c.limit < effective) {
		effective = c.limit
	}
	if effective <= 0 || effective >= len(c.docs) {
		return c.docs, nil
	}
	return c.docs[:effective], nil
}

// InsertOne adds a document to a collection, keyed by its identifying field.
func (s *MemoryStore) InsertOne(ctx context.Context, collection string, doc map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := docKey(collection, doc)
	if key == "" {
		return errors.New("configstore: document has no identifying field")
	}
	c := s.collection(collection)
	c[key] = cloneDoc(doc)
	return nil
}

// UpdateOne merges update into the first document matching filter.
func (s *MemoryStore) UpdateOne(ctx context.Context, collection string, filter map[string]interface{}, update map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(collection)
	for key, doc := range c {
		if matches(doc, filter) {
			for k, v := range update {
				doc[k] = v
			}
			c[key] = doc
			return nil
		}
	}
	return ErrNotFound
}

// DeleteOne removes the first document matching filter.
func (s *MemoryStore) DeleteOne(ctx context.Context, collection string, filter map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(collection)
	for key, doc := range c {
		if matches(doc, filter) {
			delete(c, key)
			return nil
		}
	}
	return ErrNotFound
}

// Dump serializes every collection for encrypted snapshotting.
func (s *MemoryStore) Dump(ctx context.Context) (map[string][]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]map[string]interface{}, len(s.collections))
	for name, docs := range s.collections {
		list := make([]map[string]interface{}, 0, len(docs))
		for _, doc := range docs {
			list = append(list, cloneDoc(doc))
		}
		out[name] = list
	}
	return out, nil
}

// Restore replaces every collection's contents from a prior Dump.
func (s *MemoryStore) Restore(ctx context.Context, data map[string][]map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = make(map[string]map[string]map[string]interface{}, len(data))
	for name, docs := range data {
		c := s.collection(name)
		for _, doc := range docs {
			key := docKey(name, doc)
			if key == "" {
				continue
			}
			c[key] = cloneDoc(doc)
		}
	}
	return nil
}

// Close is a no-op for MemoryStore; nothing to release.
func (s *MemoryStore) Close() error { return nil }

func cloneDoc(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
