// Package models contains GORM persistence models that map to database tables.
// They are kept apart from the domain entities so the domain layer stays free
// of ORM concerns; each model converts with ToDomain / FromDomain.
//
// Files:
// - base.go: BaseModel (id and timestamps)
// - catalog.go: catalog_products
// - import_run.go: import_runs
package models
