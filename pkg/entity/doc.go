/*
Package entity composes an ordered set of column.Column under one shared
tuple-id space. An entity transaction bundles one column transaction per
column and fans commit and rollback out to all of them: if any column's
commit fails, the whole entity transaction moves to ERROR and the rest
are rolled back, while columns that committed before the failure stay
committed. Row insertion allocates a single tuple-id from the
entity's designated pivot column and reuses it as the insert target for
every column, so a successful commit always leaves either a value or an
allocated null at that tuple-id in every column.
*/
package entity
