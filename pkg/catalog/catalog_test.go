package catalog

import (
	"testing"

	"github.com/cuemby/vexdb/pkg/storage"
	"github.com/cuemby/vexdb/pkg/types"
	"github.com/stretchr/testify/assert"
)

func testOpts() storage.Options {
	return storage.Options{VolumeFactory: storage.HeapVolumeFactory}
}

func mustSimpleName(t *testing.T, s string) types.Name {
	t.Helper()
	n, err := types.SimpleName(s)
	assert.NoError(t, err)
	return n
}

func TestCreateAndDropSchema(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, testOpts())
	assert.NoError(t, err)
	defer c.Close()

	name := mustSimpleName(t, "shop")
	_, err = c.CreateSchema(name)
	assert.NoError(t, err)
	assert.Contains(t, c.SchemaNames(), "shop")

	assert.NoError(t, c.DropSchema(name))
	assert.NotContains(t, c.SchemaNames(), "shop")
}

func TestCreateSchemaDuplicateRejected(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, testOpts())
	assert.NoError(t, err)
	defer c.Close()

	name := mustSimpleName(t, "shop")
	_, err = c.CreateSchema(name)
	assert.NoError(t, err)
	_, err = c.CreateSchema(name)
	assert.Error(t, err)
}

func TestCreateSchemaRequiresSimpleName(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, testOpts())
	assert.NoError(t, err)
	defer c.Close()

	fqn, err := types.ParseName("shop.widgets")
	assert.NoError(t, err)
	_, err = c.CreateSchema(fqn)
	assert.Error(t, err)
}

func TestDropSchemaDoesNotExist(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, testOpts())
	assert.NoError(t, err)
	defer c.Close()

	err = c.DropSchema(mustSimpleName(t, "nope"))
	assert.Error(t, err)
}

func TestReopenCatalogReplaysSchemas(t *testing.T) {
	dir := t.TempDir()
	opts := storage.Options{VolumeFactory: storage.MmapVolumeFactory}

	c, err := Open(dir, opts)
	assert.NoError(t, err)
	_, err = c.CreateSchema(mustSimpleName(t, "shop"))
	assert.NoError(t, err)
	assert.NoError(t, c.Close())

	c2, err := Open(dir, opts)
	assert.NoError(t, err)
	defer c2.Close()

	_, ok := c2.Schema("shop")
	assert.True(t, ok)
}
