package catalog

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cuemby/vexdb/pkg/log"
	"github.com/cuemby/vexdb/pkg/schema"
	"github.com/cuemby/vexdb/pkg/storage"
	"github.com/cuemby/vexdb/pkg/types"
)

type schemaDescriptor struct {
	name string
	path string
}

var schemaDescSerializer = storage.Serializer[schemaDescriptor]{
	Marshal:   encodeSchemaDescriptor,
	Unmarshal: decodeSchemaDescriptor,
}

// catalogHeader omits the count field of §6's {count, created, modified,
// schemaRecIds[]}: it's redundant with len(schemaRecIDs) and encodeCatalogHeader
// writes the slice length itself, so there is nothing a stored count would
// let the decoder do that deriving it on read doesn't already do.
type catalogHeader struct {
	created      int64
	modified     int64
	schemaRecIDs []int64
}

var catalogHeaderSerializer = storage.Serializer[catalogHeader]{
	Marshal:   encodeCatalogHeader,
	Unmarshal: decodeCatalogHeader,
}

// Catalog is the root of a vexdb data directory: the registry of every
// open schema (spec §4.4).
type Catalog struct {
	root string
	opts storage.Options

	mu    sync.RWMutex
	store *storage.Store

	schemas     map[string]*schema.Schema
	recIDByName map[string]int64
}

// Open opens (creating if absent) the catalogue rooted at dir.
func Open(dir string, opts storage.Options) (*Catalog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.NewError(types.ErrStorageIO, "create catalog directory", err)
	}
	st, err := storage.Open(filepath.Join(dir, "catalog"), opts)
	if err != nil {
		return nil, err
	}
	c := &Catalog{
		root:        dir,
		opts:        opts,
		store:       st,
		schemas:     make(map[string]*schema.Schema),
		recIDByName: make(map[string]int64),
	}

	h, ok, err := storage.Get(st, catalogHeaderSerializer, types.HeaderTupleID)
	if err != nil {
		st.Close()
		return nil, err
	}
	if !ok {
		now := time.Now().UnixNano()
		h = catalogHeader{created: now, modified: now}
		if err := storage.PutAt(st, catalogHeaderSerializer, types.HeaderTupleID, h); err != nil {
			st.Close()
			return nil, err
		}
		if err := st.Commit(); err != nil {
			st.Close()
			return nil, err
		}
	}

	for _, recID := range h.schemaRecIDs {
		desc, ok, err := storage.Get(st, schemaDescSerializer, recID)
		if err != nil || !ok {
			st.Close()
			return nil, types.NewError(types.ErrDataCorruption, "schema descriptor missing", err)
		}
		schemaDir := filepath.Join(dir, desc.path)
		if _, statErr := os.Stat(schemaDir); statErr != nil {
			st.Close()
			return nil, types.NewError(types.ErrDataCorruption, "schema folder missing for "+desc.name, statErr)
		}
		sc, err := schema.Open(schemaDir, desc.name, opts)
		if err != nil {
			st.Close()
			return nil, err
		}
		c.schemas[desc.name] = sc
		c.recIDByName[desc.name] = recID
	}
	return c, nil
}

// CreateSchema requires a SIMPLE name, rejects duplicates, creates the
// schema's folder and store, and commits the updated catalogue header.
// Any failure rolls back the store and deletes the partial folder.
func (c *Catalog) CreateSchema(name types.Name) (*schema.Schema, error) {
	if name.Kind() != types.KindSimple {
		return nil, types.NewError(types.ErrSimpleNameRequired, "createSchema requires a simple name", nil)
	}
	simple := name.String()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.schemas[simple]; exists {
		return nil, types.NewError(types.ErrSchemaAlreadyExists, "schema "+simple+" already exists", nil)
	}

	schemaDir := filepath.Join(c.root, simple)
	sc, err := schema.Open(schemaDir, simple, c.opts)
	if err != nil {
		os.RemoveAll(schemaDir)
		return nil, err
	}

	desc := schemaDescriptor{name: simple, path: simple}
	recID, err := storage.Put(c.store, schemaDescSerializer, desc)
	if err != nil {
		sc.Close()
		os.RemoveAll(schemaDir)
		c.store.Rollback()
		return nil, err
	}

	h, _, err := storage.Get(c.store, catalogHeaderSerializer, types.HeaderTupleID)
	if err != nil {
		sc.Close()
		os.RemoveAll(schemaDir)
		c.store.Rollback()
		return nil, err
	}
	h.schemaRecIDs = append(h.schemaRecIDs, recID)
	h.modified = time.Now().UnixNano()
	if err := storage.Update(c.store, catalogHeaderSerializer, types.HeaderTupleID, h); err != nil {
		sc.Close()
		os.RemoveAll(schemaDir)
		c.store.Rollback()
		return nil, err
	}
	if err := c.store.Commit(); err != nil {
		sc.Close()
		os.RemoveAll(schemaDir)
		c.store.Rollback()
		return nil, err
	}

	c.schemas[simple] = sc
	c.recIDByName[simple] = recID
	log.WithSchema(simple).Info().Msg("schema created")
	return sc, nil
}

// DropSchema closes the in-memory schema, removes its catalog entry,
// commits, then recursively deletes its folder.
func (c *Catalog) DropSchema(name types.Name) error {
	if name.Kind() != types.KindSimple {
		return types.NewError(types.ErrSimpleNameRequired, "dropSchema requires a simple name", nil)
	}
	simple := name.String()

	c.mu.Lock()
	defer c.mu.Unlock()
	sc, exists := c.schemas[simple]
	if !exists {
		return types.NewError(types.ErrSchemaDoesNotExist, "schema "+simple+" does not exist", nil)
	}
	recID := c.recIDByName[simple]

	if err := sc.Close(); err != nil {
		return err
	}
	if err := c.store.Delete(recID); err != nil {
		return err
	}
	h, _, err := storage.Get(c.store, catalogHeaderSerializer, types.HeaderTupleID)
	if err != nil {
		c.store.Rollback()
		return err
	}
	h.schemaRecIDs = removeID(h.schemaRecIDs, recID)
	h.modified = time.Now().UnixNano()
	if err := storage.Update(c.store, catalogHeaderSerializer, types.HeaderTupleID, h); err != nil {
		c.store.Rollback()
		return err
	}
	if err := c.store.Commit(); err != nil {
		return err
	}

	delete(c.schemas, simple)
	delete(c.recIDByName, simple)
	log.WithSchema(simple).Info().Msg("schema dropped")
	return os.RemoveAll(filepath.Join(c.root, simple))
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

// Schema returns the named schema, or (nil, false) if not registered.
func (c *Catalog) Schema(name string) (*schema.Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[name]
	return s, ok
}

// SchemaNames returns every registered schema's name.
func (c *Catalog) SchemaNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	return names
}

// Checkpoint truncates the catalogue's own WAL and every schema's.
func (c *Catalog) Checkpoint() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var firstErr error
	if err := c.store.Checkpoint(); err != nil {
		firstErr = err
	}
	for _, sc := range c.schemas {
		if err := sc.Checkpoint(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every schema and the catalogue's own store.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for _, s := range c.schemas {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := c.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
