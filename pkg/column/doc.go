/*
Package column implements a single typed column: a storage.Store of
encoded types.Value records plus the transaction state machine that
guards access to it.

Each column carries two locks. A global read-write lock guards
open/close: every transaction holds its read-side for the transaction's
whole lifetime, and Close takes the write-side, so Close can't complete
while a transaction is still in flight. A per-column tx lock is also
read-write, but at transaction granularity: reads take the read-side, and
the first mutating call of a transaction takes the write-side and holds
it until commit or rollback — single-writer-many-readers per column.

A transaction moves CLEAN → DIRTY → CLEAN on commit or rollback, and
finally CLOSED on Close; any unrecoverable failure moves it to ERROR,
from which only Rollback or Close are legal.
*/
package column
