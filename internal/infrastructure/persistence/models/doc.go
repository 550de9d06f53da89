// Package models contains the GORM persistence models of the ledger. Domain
// aggregates stay free of ORM tags; each model converts to and from its
// aggregate with ToDomain and FromDomain.
//
// Tables:
//   - sales, sale_items, sale_payments
//   - receivables (kind column discriminates manual and card installment terms)
//   - memberships, membership_suspensions, membership_adjustments
//   - clients, class_enrollments
//   - outbox_events
package models
