/*
Package catalog is the persistent root of a vexdb data directory. At open
it reads the header record (creation time, last-modified time, and the
array of schema record-ids), loads each schema descriptor, verifies its
on-disk folder exists, and populates an in-memory registry guarded by a
sync.RWMutex: enumeration and lookup take the read side, create and drop
take the write side. The lock is not reentrant: a goroutine holding it
cannot acquire it again.
*/
package catalog
