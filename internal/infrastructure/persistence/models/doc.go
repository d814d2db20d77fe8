// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of GORM tags; each model converts to and from its
// entity with ToDomain/FromDomain.
//
//   - base.go: shared columns
//   - store.go: stores
//   - sync.go: sync accounts and the audit trail (summaries, chunks, details)
package models
