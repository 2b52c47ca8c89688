package schema

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cuemby/vexdb/pkg/entity"
	"github.com/cuemby/vexdb/pkg/storage"
	"github.com/cuemby/vexdb/pkg/types"
)

// descriptor is the persisted record for one entity: its name, its
// on-disk path relative to the schema's directory, and its column
// definitions (needed to reopen the entity without a separate catalog).
type descriptor struct {
	name    string
	path    string
	columns []types.ColumnDef
}

var descriptorSerializer = storage.Serializer[descriptor]{
	Marshal:   encodeDescriptor,
	Unmarshal: decodeDescriptor,
}

// header is the schema's record at types.HeaderTupleID.
type header struct {
	created      int64
	modified     int64
	entityRecIDs []int64
}

var headerSerializer = storage.Serializer[header]{
	Marshal:   encodeHeader,
	Unmarshal: decodeHeader,
}

// Schema is a named registry of entities, persisted in its own record
// store (spec §4.4).
type Schema struct {
	name string
	dir  string

	mu    sync.RWMutex
	store *storage.Store

	entities  map[string]*entity.Entity
	recIDByName map[string]int64
	opts      storage.Options
}

// Open opens (creating if absent) the schema at dir, replaying its
// catalog and opening every entity it names.
func Open(dir, name string, opts storage.Options) (*Schema, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.NewError(types.ErrStorageIO, "create schema directory", err)
	}
	st, err := storage.Open(filepath.Join(dir, "schema.catalog"), opts)
	if err != nil {
		return nil, err
	}
	s := &Schema{
		name:        name,
		dir:         dir,
		store:       st,
		entities:    make(map[string]*entity.Entity),
		recIDByName: make(map[string]int64),
		opts:        opts,
	}

	h, ok, err := storage.Get(st, headerSerializer, types.HeaderTupleID)
	if err != nil {
		st.Close()
		return nil, err
	}
	if !ok {
		h = header{created: nowNano(), modified: nowNano()}
		if err := storage.PutAt(st, headerSerializer, types.HeaderTupleID, h); err != nil {
			st.Close()
			return nil, err
		}
		if err := st.Commit(); err != nil {
			st.Close()
			return nil, err
		}
	}

	for _, recID := range h.entityRecIDs {
		desc, ok, err := storage.Get(st, descriptorSerializer, recID)
		if err != nil || !ok {
			st.Close()
			return nil, types.NewError(types.ErrDataCorruption, "entity descriptor missing", err)
		}
		ent, err := entity.Open(dir, desc.path, desc.columns, opts)
		if err != nil {
			st.Close()
			return nil, err
		}
		s.entities[desc.name] = ent
		s.recIDByName[desc.name] = recID
	}
	return s, nil
}

// CreateEntity creates and registers a new entity with the given column
// definitions. Duplicate names fail with EntityAlreadyExists.
func (s *Schema) CreateEntity(name string, defs []types.ColumnDef) (*entity.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entities[name]; exists {
		return nil, types.NewError(types.ErrEntityAlreadyExists, "entity "+name+" already exists", nil)
	}

	ent, err := entity.Open(s.dir, name, defs, s.opts)
	if err != nil {
		return nil, err
	}

	desc := descriptor{name: name, path: name, columns: defs}
	recID, err := storage.Put(s.store, descriptorSerializer, desc)
	if err != nil {
		ent.Close()
		os.RemoveAll(filepath.Join(s.dir, name))
		s.store.Rollback()
		return nil, err
	}

	h, _, err := storage.Get(s.store, headerSerializer, types.HeaderTupleID)
	if err != nil {
		ent.Close()
		os.RemoveAll(filepath.Join(s.dir, name))
		s.store.Rollback()
		return nil, err
	}
	h.entityRecIDs = append(h.entityRecIDs, recID)
	h.modified = nowNano()
	if err := storage.Update(s.store, headerSerializer, types.HeaderTupleID, h); err != nil {
		ent.Close()
		os.RemoveAll(filepath.Join(s.dir, name))
		s.store.Rollback()
		return nil, err
	}
	if err := s.store.Commit(); err != nil {
		ent.Close()
		os.RemoveAll(filepath.Join(s.dir, name))
		return nil, err
	}

	s.entities[name] = ent
	s.recIDByName[name] = recID
	return ent, nil
}

// DropEntity closes and removes the named entity.
func (s *Schema) DropEntity(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, exists := s.entities[name]
	if !exists {
		return types.NewError(types.ErrEntityDoesNotExist, "entity "+name+" does not exist", nil)
	}
	recID := s.recIDByName[name]

	if err := s.store.Delete(recID); err != nil {
		return err
	}
	h, _, err := storage.Get(s.store, headerSerializer, types.HeaderTupleID)
	if err != nil {
		s.store.Rollback()
		return err
	}
	h.entityRecIDs = removeID(h.entityRecIDs, recID)
	h.modified = nowNano()
	if err := storage.Update(s.store, headerSerializer, types.HeaderTupleID, h); err != nil {
		s.store.Rollback()
		return err
	}
	if err := s.store.Commit(); err != nil {
		return err
	}

	ent.Close()
	delete(s.entities, name)
	delete(s.recIDByName, name)
	return os.RemoveAll(filepath.Join(s.dir, name))
}

func removeID(ids []int64, target int64) []int64 {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Entity returns the named entity, or (nil, false) if not registered.
func (s *Schema) Entity(name string) (*entity.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[name]
	return e, ok
}

// EntityNames returns every registered entity's name.
func (s *Schema) EntityNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.entities))
	for name := range s.entities {
		names = append(names, name)
	}
	return names
}

// Name returns the schema's name.
func (s *Schema) Name() string { return s.name }

// Checkpoint truncates the schema's own WAL and every entity's columns'.
func (s *Schema) Checkpoint() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var firstErr error
	if err := s.store.Checkpoint(); err != nil {
		firstErr = err
	}
	for _, ent := range s.entities {
		if err := ent.Checkpoint(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every entity and the schema's own store.
func (s *Schema) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, ent := range s.entities {
		if err := ent.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
