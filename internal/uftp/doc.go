// Package uftp holds the UFTP protocol data model shared by the engine packages.
//
// **messages**
// Every payload kind is a concrete struct (FlexRequest, FlexOffer, ...) that implements the
// sealed Message interface. Messages are passed by pointer and treated as immutable once built.
// Code that needs kind-specific fields uses a type switch or a checked type assertion;
// MessageType is the runtime tag used to decide which validators apply.
//
// **envelopes**
// An Envelope pairs a payload with the participant that sent it and its Origin:
// Incoming (received from a peer, keeps the raw signed and payload XML for audit) or Outgoing.
//
// **references**
// ReferenceTo builds the MessageReference used to look up the other side of a conversation.
// The referenced message travelled in the opposite direction, so direction is inverted and
// sender/recipient domains are swapped.
//
// **collaborators**
// MessageStore, ParticipantDirectory, ErrorSink and PayloadHandler are implemented by the
// surrounding application (see internal/store, internal/directory and internal/dispatch).
package uftp
