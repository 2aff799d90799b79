// Package core provides the FraudGuard business logic.
//
// This package has no UI dependencies. Web handlers use it to score
// transactions, browse and export history, and compute dashboard
// statistics; tests use it with the in-memory history.
//
// # Architecture
//
//   - Service: entry point for prediction, history and dashboard queries.
//   - History: transaction persistence, with in-memory, SQLite and
//     PostgreSQL implementations.
//   - HealthMonitor: polls the scoring API in the background and caches
//     the result for page rendering.
//   - MapError: maps technical errors to user messages with support codes.
//
// # Owners
//
// Transactions belong to an owner, the browser session that submitted
// them. Every query is scoped to one owner.
package core
