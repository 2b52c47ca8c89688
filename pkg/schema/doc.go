/*
Package schema persists an ordered list of entity descriptors (name and
on-disk path) in its own record store. createEntity and dropEntity mirror
the catalogue's createSchema/dropSchema: duplicate names fail with
EntityAlreadyExists, unknown names fail with EntityDoesNotExist.
*/
package schema
