// Package handlers provides the HTTP handlers of the UFTP server:
// the UFTP message endpoint, the local submit endpoint and the common
// infrastructure handlers (health, version, jwks, docs).
package handlers
