// Package plandok provides a catalog of municipal planning documents.
// It ingests document records, rejects duplicates by content fingerprint,
// indexes entries for free-text search, and runs concurrent link-liveness
// sweeps against the documents' source URLs.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, http/, yaml/).
package plandok
