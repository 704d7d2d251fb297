// Package http delivers payloads to the remote sensor-data endpoint.
package http
