// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [StreamSource]: Reads raw chunks from the sensor (serial port or replay file)
//   - [RecordLog]: Appends records to the durable, append-only log
//   - [PayloadSender]: Posts delivery payloads to the remote endpoint
//   - [StatusRepository]: Persists the forwarder status for external pollers
//   - [EventEmitter]: Observes records, parse errors and delivery outcomes
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) and the frame extractor
// (internal/frame) depend only on these interfaces. Infrastructure adapters
// (internal/adapters) implement them with concrete implementations
// (go.bug.st/serial, the file system, net/http, zerolog, prometheus).
package ports
