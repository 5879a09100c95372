// Package workflow advances queue items through the content pipeline:
// transcribe, generate, validate, render, publish.
//
// The Manager runs a pool of identical workers. Each worker walks the stage
// table in pipeline order and atomically claims the oldest waiting item,
// so two workers never own the same item. While a handler executes, a
// heartbeat loop keeps the claim fresh; items whose heartbeat expires roll
// back to their stage's start status and are picked up again.
//
// The manager is the sole writer of item status. It appends an audit record
// for every transition, which makes an item's history replayable from the
// audit log alone.
package workflow
