// Package integration contains end-to-end tests for the UFTP server.
//
// These tests verify the server handles UFTP traffic correctly (expected responses,
// error handling, database persistence, responses sent to the other participant etc).
// Each test runs against a temporary database with migrations applied, and the server is started in-process.
//
// These tests assume the uftp, crypto and validation packages are working correctly (tested separately).
// If bugs are introduced in lower-level packages, there will be cascading failures here -
// fix the low-level problems first.
package integration
