// Package domain contains the core domain entities and value objects for airship.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (serial ports, HTTP, file system,
// logging) and contains only pure business logic.
//
// # Entities
//
//   - [Record]: A single sensor reading parsed from one JSON object on the wire
//   - [Payload]: The fixed-shape body relayed to the remote endpoint
//   - [Event]: One item of the extractor's output sequence (record, parse error, overflow)
//   - [Status]: Counters and the latest reading, persisted for external pollers
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
