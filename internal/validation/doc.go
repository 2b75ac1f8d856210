// Package validation implements the ordered validator chain applied to incoming and
// outgoing UFTP messages.
//
// **phases**
// Every validator belongs to a phase, a numeric band in steps of 100:
//
//	OrderBeforeSpec          100  user checks that must run first
//	OrderSpecBase            200  header well-formedness (ids, version, domains, roles)
//	OrderAfterSpecBase       300
//	OrderSpecFlexMessage     400  flex header and ISP layout
//	OrderSpecMessageSpecific 500  per-type business rules and cross-message checks
//	OrderAfterSpec           600  default for user validators
//
// Values inside a band (e.g. OrderSpecFlexMessage+10) place a validator between phases.
// The chain sorts once by (order, name), so the first rejection is deterministic regardless of
// registration order.
//
// **rejections**
// A validator's Reason is sent verbatim to the peer in the rejected response. Reasons are
// fixed strings, see reasons.go.
//
// **lookups**
// Validators that compare against earlier messages use FindReferenced, which shapes the query
// with uftp.ReferenceTo and narrows the result to the expected variant. An absent or
// differently typed message is "not found"; store failures surface as errors from Validate.
package validation
