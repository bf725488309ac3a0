// Package operations coordinates the planning pipeline as a set of
// dependency-ordered steps. Each step wraps one stage of the workflow
// (input validation, forecasting, aggregate planning, hour assignment,
// master planning, material requirements, scheduling and export) and
// reports its progress through a status broadcaster so WebSocket
// clients can follow a run in real time.
package operations
