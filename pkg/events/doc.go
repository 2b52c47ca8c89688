/*
Package events is an in-memory, topic-agnostic event broker: a single
bus that fans out published events to every subscriber's own buffered
channel. Publish never blocks on a slow subscriber — a full subscriber
buffer just drops the event.

It defines event types for schema and entity DDL (created/dropped) and
for task completion/failure. pkg/exec's scheduler publishes the task
events; no engine package publishes the DDL events, and none subscribes
to the broker, which is left for observers outside the engine.
*/
package events
