// Package strategy provides the execution strategies used to fan watcher
// notifications out.
//
// Every registry mutation turns into zero or more Tasks, one per watcher
// that must hear about it. An ExecutionStrategy decides where those tasks
// run:
//
//   - SameThread: inline on the serializer goroutine
//   - Serialized: on one dedicated goroutine, in submission order
//   - Parallel: one goroutine per task, optionally bounded by a semaphore
//
// In all strategies a failing or panicking watcher is logged and recorded on
// its Task; it never reaches the mutator and never stops the other tasks of
// the batch. A Task always completes, including when a closed strategy
// abandons it, so pending-task bookkeeping cannot leak.
//
// Execute waits for the batch up to a timeout. Expiry is reported as an
// *api.TimeoutError that callers log; the tasks keep running.
package strategy
