// Package server provides the HTTP server of a UFTP participant.
//
// the server is configured through environment variables
// (see internal/config/config.go for details)
//
// The package wires the protocol components (participant directory, sealer, validator chain,
// receive processor, sender and outbox) and registers the handlers for
//   - the UFTP message endpoint other participants post to
//   - the application API used by local systems to send messages
//   - common infrastructure handlers (health, version, jwks, metrics, docs etc)
//
// middleware is in internal/server/middleware
package server
