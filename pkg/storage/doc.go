/*
Package storage implements vexdb's record store: a persistent map from
int64 record-id to an opaque byte blob, durable via a write-ahead log, with
pluggable heap or mmap-backed data volumes.

Every column, schema and catalogue (pkg/column, pkg/schema, pkg/catalog)
owns exactly one record store. Callers supply their own serializer per
record type; the store itself only moves bytes.

# Architecture

	┌──────────────────── RECORD STORE ──────────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐         │
	│  │                Store                         │         │
	│  │  - File: <path>/data.vdb + <path>/wal.log   │         │
	│  │  - put/get/update/CAS/delete/preallocate    │         │
	│  │  - commit/rollback/close                    │         │
	│  └──────────────────┬─────────────────────────┘         │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐         │
	│  │           Write-Ahead Log                    │         │
	│  │  - Append-only: {op, recid, checksum, data} │         │
	│  │  - fsync'd on commit                        │         │
	│  │  - replayed on open to recover the committed│         │
	│  │    prefix after a crash                     │         │
	│  └──────────────────┬─────────────────────────┘         │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐         │
	│  │              Volume                          │         │
	│  │  - heapVolume: process-resident byte slices │         │
	│  │  - mmapVolume: edsrzf/mmap-go backed pages   │         │
	│  └──────────────────┬─────────────────────────┘         │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐         │
	│  │            File lock (gofrs/flock)           │         │
	│  │  - bounded by lockTimeout; concurrent opens  │         │
	│  │    of the same file fail with StorageLocked  │         │
	│  └────────────────────────────────────────────┘          │
	└────────────────────────────────────────────────────────┘

# Durability contract

A successful Commit fsyncs the WAL segment covering the transaction before
returning; a Rollback discards the in-memory diff without touching the WAL.
A crash between two Put calls within an uncommitted transaction leaves no
trace on reopen — WAL replay only applies segments terminated by a commit
record, so exactly the committed prefix becomes visible (spec §8, scenario
2).

# Error kinds

StorageCorruption (checksum or size mismatch on replay), StorageIO
(read/write/fsync failure), StorageLocked (lockTimeout exceeded acquiring
the store's file lock).
*/
package storage
