package rpc

import (
	"github.com/cuemby/vexdb/pkg/exec"
	"github.com/cuemby/vexdb/pkg/types"
)

// IndexType names a secondary index kind (spec §1, §9). Only
// IndexKNNScan has a backing implementation in this engine — every
// other kind is named by the spec but intentionally left unspecified,
// and CreateIndex rejects them rather than silently accepting a no-op.
type IndexType string

const (
	IndexKNNScan IndexType = "knn_scan"
	IndexHash    IndexType = "hash"
	IndexBTree   IndexType = "btree"
	IndexLucene  IndexType = "lucene"
	IndexVAFile  IndexType = "va_file"
	IndexPQ      IndexType = "product_quantization"
	IndexLSH     IndexType = "lsh"
)

// IndexDef describes one registered index.
type IndexDef struct {
	Name    string
	Type    IndexType
	Columns []string
}

// EntityDescriptor is the DDL view of one entity: its name and column
// definitions, plus any registered indexes.
type EntityDescriptor struct {
	Schema  string
	Name    string
	Columns []types.ColumnDef
	Indexes []IndexDef
}

// DDL is the schema/entity/index definition service (spec §6).
type DDL interface {
	ListSchemas() ([]string, error)
	CreateSchema(name string) error
	DropSchema(name string) error
	ListEntities(schemaName string) ([]string, error)
	CreateEntity(schemaName, entityName string, columnDefs []types.ColumnDef) error
	DropEntity(schemaName, entityName string) error
	EntityDetails(schemaName, entityName string) (EntityDescriptor, error)
	CreateIndex(schemaName, entityName, indexName string, kind IndexType, columns []string) error
	DropIndex(schemaName, entityName, indexName string) error
}

// DML is the row-mutation service (spec §6).
type DML interface {
	Insert(schemaName, entityName string, values []types.Value) (int64, error)
	InsertBatch(schemaName, entityName string, rows [][]types.Value) ([]int64, error)
}

// DQL is the query service (spec §6): Query submits a pre-built plan
// (the transport layer's job is translating a query message into one)
// and streams back recordset chunks no larger than maxChunkRows each,
// mirroring the wire's messageSize bound without depending on it. Ping
// is the liveness probe also named in §6.
type DQL interface {
	Query(plan *exec.Plan, maxChunkRows int) (<-chan QueryChunk, error)
	Ping() error
}

// QueryChunk is one bounded slice of a Query response stream.
type QueryChunk struct {
	Rows []types.Record
	Err  error
}
