// Package domain contains the core domain entities and value objects for errship.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (HTTP, file system, logging) and
// contains only pure business logic.
//
// # Entities
//
//   - [Record]: A single accumulated error with its occurrence count
//   - [Aggregate]: The in-memory dedup map with serialized-size accounting
//   - [Snapshot]: A captured key-to-record mapping handed to sinks and mirrors
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
