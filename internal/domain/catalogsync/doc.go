// Package catalogsync contains the catalog synchronization bounded context.
// It reconciles a locally prepared stock dataset against the live catalog of
// a remote storefront and keeps an audit trail of every applied sync.
//
// Key concepts:
//   - LocalStockRecord / RemoteCatalogItem: the two sides of a reconciliation
//   - Classify: pure diff producing ToUpdate, UpToDate and NotFound items
//   - SyncPreview: the human-reviewable changeset plus its update payload
//   - CatalogGateway: port implemented once per e-commerce platform
//   - SyncAccount: aggregate owning the remaining-sync quota
//   - SyncHistorySummary / SyncDetailRecord: persisted audit records
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package catalogsync
