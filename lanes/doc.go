// Package lanes provides a key-partitioned executor.
//
// An Executor owns a fixed number of lanes. Each lane is a single goroutine
// draining its own unbounded FIFO queue, so it runs exactly one task at a
// time. Every task is submitted under an int64 key and the key alone picks
// the lane (sign bit masked, modulo the lane count). As a consequence:
//
//   - tasks submitted under the same key run one after another, in
//     submission order, always on the same lane;
//   - tasks whose keys land on different lanes run in parallel;
//   - tasks whose keys collide on one lane are ordered relative to each
//     other, which is a side effect of hashing and nothing more.
//
// A failing or panicking task only fails its own future; the lane moves on
// to the next queued task.
//
// Shutdown stops intake and lets queued work finish. ShutdownNow also
// cancels the context handed to running tasks and returns the tasks that
// never started, in lane order.
package lanes
