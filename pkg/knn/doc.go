/*
Package knn implements the engine's nearest-neighbor operator (spec
§4.7): given a source column of fixed-width numeric vectors, a query
vector of the same element type and length, a distance function, and an
integer k, it returns up to k rows ordered ascending by distance, ties
broken by lower tuple-id.

The tuple-id space is partitioned into p roughly-equal blocks (p is the
requested parallelism). Each block keeps a bounded max-heap of size k
keyed by distance; candidates that beat the heap's current worst pop it
and push in. Once every block finishes, the p heaps are merged into a
single size-k selection and sorted ascending — the "scoped nursery"
structured-concurrency pattern spec §5 calls for: p worker goroutines,
joined before the task returns.
*/
package knn
