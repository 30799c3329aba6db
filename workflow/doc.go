// Package workflow runs the ticket-to-PR pipeline: fetch a ticket,
// analyze the repository, then design, code, test, and review the change
// before opening a pull request and writing run notes.
//
// The Engine owns the stage order. Coding, Test, and Review form a
// retryable group: when tests fail or the reviewer rejects, all three
// re-run together until the gate passes or the retry budget is spent.
// Providers produce each stage's output; deterministic stubs stand in
// when no model backend is configured, so the full pipeline is runnable
// offline.
package workflow
