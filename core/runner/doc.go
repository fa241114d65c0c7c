// Package runner provides a bounded-concurrency executor that drains a
// priority-ordered backlog of corrective work.
//
// Workers always prefer the highest non-empty priority and process items of
// one priority in submission order. Lower priorities can starve while a
// higher queue keeps refilling; priorities order categories of corrective
// work (security groups before profiles before ports) and make no fairness
// promise.
//
// Submission never blocks. A failing or panicking handler is logged and the
// worker moves on; drift left behind by a failed item is re-detected by the
// next reconciliation sweep.
package runner
