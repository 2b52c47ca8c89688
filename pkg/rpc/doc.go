/*
Package rpc defines the engine's external interface (spec §6): Go
interfaces for the DDL, DML, and DQL services, and a concrete Engine that
implements them over pkg/catalog and pkg/exec. Concrete wire messages are
explicitly out of scope (spec §1) — callers in-process use Engine
directly, and a future transport adapter would translate wire requests
into these same method calls.

The one piece of the RPC surface spec.md does ask the engine to expose
over real wire bytes is liveness: Server wraps Engine with the standard
grpc_health_v1 service plus HTTP /health and /ready handlers from
pkg/metrics, following the teacher's server.go TLS-listener shape.
*/
package rpc
