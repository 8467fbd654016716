// Package jobpool is the background job-execution facility the resource
// manager submits load work to.
//
// A Pool owns one FIFO queue per tag (the empty tag is the default queue) and a
// fixed set of worker goroutines per queue. Queues are unbounded so that a job
// may submit further jobs without ever blocking on a full channel, which is
// exactly what a load job does when it discovers nested dependencies.
//
// Besides the workers, any goroutine may "help": Help pops one queued job from
// any queue and runs it inline, and HelpWhileWaiting keeps helping until a
// Counter drains. Waiting code uses this instead of idling.
//
// Submitted jobs always run to completion; Stop drains every queue before the
// workers exit.
package jobpool
