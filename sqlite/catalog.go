package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/plandok"
	"github.com/fwojciec/plandok/dedup"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ plandok.CatalogService = (*CatalogService)(nil)

// CatalogService implements plandok.CatalogService using SQLite.
//
// Fingerprint uniqueness is enforced by a UNIQUE constraint on the
// documents table, so a duplicate check can never race an insert: the
// check is atomic with the write.
type CatalogService struct {
	db *DB
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(db *DB) *CatalogService {
	return &CatalogService{db: db}
}

const documentColumns = `id, title, description, category, subcategory, department, url,
	fingerprint, tags, status, verification_status, last_verified_at, created_at`

// Insert creates a new document. The id, creation timestamp, fingerprint,
// and initial verification status are assigned here; caller-provided
// values for those fields are ignored.
func (s *CatalogService) Insert(ctx context.Context, doc *plandok.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	doc.ID = uuid.New().String()
	doc.CreatedAt = time.Now().UTC()
	doc.ContentFingerprint = dedup.Fingerprint(doc.Title, doc.URL, doc.Category)
	doc.VerificationStatus = plandok.VerificationUnverified
	doc.LastVerifiedAt = time.Time{}
	if doc.Status == "" {
		doc.Status = plandok.StatusDraft
	}

	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, description, category, subcategory, department, url,
			fingerprint, tags, status, verification_status, last_verified_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Title, doc.Description, doc.Category, doc.Subcategory, doc.Department,
		doc.URL, doc.ContentFingerprint, tags, doc.Status, doc.VerificationStatus,
		nullableTime(doc.LastVerifiedAt), formatTime(doc.CreatedAt))

	if isUniqueViolation(err, "documents.fingerprint") {
		// Report what we collided with so operators can investigate
		// rather than guess.
		existing, lookupErr := s.FindByFingerprint(ctx, doc.ContentFingerprint)
		if lookupErr != nil {
			return plandok.Errorf(plandok.ECONFLICT, "duplicate document")
		}
		return plandok.Errorf(plandok.ECONFLICT, "duplicate document, existing id %s", existing.ID)
	}

	return err
}

// FindByFingerprint retrieves the document holding a content fingerprint.
func (s *CatalogService) FindByFingerprint(ctx context.Context, fingerprint string) (*plandok.Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE fingerprint = ?", fingerprint)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, plandok.Errorf(plandok.ENOTFOUND, "no document with fingerprint %q", fingerprint)
	}
	return doc, err
}

// Get retrieves a document by id.
func (s *CatalogService) Get(ctx context.Context, id string) (*plandok.Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, plandok.Errorf(plandok.ENOTFOUND, "document %q not found", id)
	}
	return doc, err
}

// rowScanner abstracts sql.Row and sql.Rows for scanDocument.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*plandok.Document, error) {
	var doc plandok.Document
	var tags string
	var lastVerifiedAt sql.NullString
	var createdAt string

	if err := row.Scan(&doc.ID, &doc.Title, &doc.Description, &doc.Category, &doc.Subcategory,
		&doc.Department, &doc.URL, &doc.ContentFingerprint, &tags, &doc.Status,
		&doc.VerificationStatus, &lastVerifiedAt, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if doc.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	if doc.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if lastVerifiedAt.Valid {
		if doc.LastVerifiedAt, err = parseRFC3339(lastVerifiedAt.String, "last_verified_at"); err != nil {
			return nil, err
		}
	}

	return &doc, nil
}

// List retrieves documents matching the filter. Predicates combine with
// logical AND. Results are ordered by creation time then id for
// deterministic output.
func (s *CatalogService) List(ctx context.Context, filter plandok.DocumentFilter) ([]*plandok.Document, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + documentColumns + " FROM documents WHERE 1=1")

	if filter.Category != nil {
		query.WriteString(" AND category = ?")
		args = append(args, *filter.Category)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, *filter.Status)
	}
	if filter.VerificationStatus != nil {
		query.WriteString(" AND verification_status = ?")
		args = append(args, *filter.VerificationStatus)
	}

	query.WriteString(" ORDER BY created_at ASC, id ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	return s.queryDocuments(ctx, query.String(), args...)
}

// ListDue retrieves documents due for verification: never verified, or
// last verified before olderThan. Oldest attempts come first so the
// stalest links are rechecked soonest.
func (s *CatalogService) ListDue(ctx context.Context, olderThan time.Time, limit int) ([]*plandok.Document, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + documentColumns + ` FROM documents
		WHERE last_verified_at IS NULL OR last_verified_at < ?
		ORDER BY last_verified_at ASC NULLS FIRST, created_at ASC, id ASC`)
	args = append(args, formatTime(olderThan))

	appendPagination(&query, &args, limit, 0)

	return s.queryDocuments(ctx, query.String(), args...)
}

func (s *CatalogService) queryDocuments(ctx context.Context, query string, args ...any) ([]*plandok.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*plandok.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// Update updates mutable fields of an existing document. The fingerprint
// is part of the document's identity and is never recomputed here; a
// catalog that drifted out of sync with its fingerprints is repaired by
// the reconciliation pass, not by edits.
func (s *CatalogService) Update(ctx context.Context, id string, upd plandok.DocumentUpdate) (*plandok.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		doc.Title = *upd.Title
	}
	if upd.Description != nil {
		doc.Description = *upd.Description
	}
	if upd.Category != nil {
		doc.Category = *upd.Category
	}
	if upd.Subcategory != nil {
		doc.Subcategory = *upd.Subcategory
	}
	if upd.Department != nil {
		doc.Department = *upd.Department
	}
	if upd.URL != nil {
		doc.URL = *upd.URL
	}
	if upd.Tags != nil {
		doc.Tags = *upd.Tags
	}
	if upd.Status != nil {
		doc.Status = *upd.Status
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	tags, err := encodeTags(doc.Tags)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE documents
		SET title = ?, description = ?, category = ?, subcategory = ?, department = ?,
			url = ?, tags = ?, status = ?
		WHERE id = ?
	`, doc.Title, doc.Description, doc.Category, doc.Subcategory, doc.Department,
		doc.URL, tags, doc.Status, id)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// immutableColumns are the document fields that cannot change after
// creation.
var immutableColumns = map[string]string{
	"id":                 "id",
	"contentFingerprint": "contentFingerprint",
	"fingerprint":        "contentFingerprint",
	"createdAt":          "createdAt",
	"created_at":         "createdAt",
}

// UpdateFields applies a loosely-typed field map, the shape import and
// admin tooling produce. Attempts to set an immutable field fail with
// EIMMUTABLE before anything is written.
func (s *CatalogService) UpdateFields(ctx context.Context, id string, fields map[string]any) (*plandok.Document, error) {
	var upd plandok.DocumentUpdate

	for key, value := range fields {
		if canonical, ok := immutableColumns[key]; ok {
			return nil, plandok.Errorf(plandok.EIMMUTABLE, "field %s cannot be changed", canonical)
		}

		switch key {
		case "title":
			v, err := stringField(key, value)
			if err != nil {
				return nil, err
			}
			upd.Title = &v
		case "description":
			v, err := stringField(key, value)
			if err != nil {
				return nil, err
			}
			upd.Description = &v
		case "category":
			v, err := stringField(key, value)
			if err != nil {
				return nil, err
			}
			upd.Category = &v
		case "subcategory":
			v, err := stringField(key, value)
			if err != nil {
				return nil, err
			}
			upd.Subcategory = &v
		case "department":
			v, err := stringField(key, value)
			if err != nil {
				return nil, err
			}
			upd.Department = &v
		case "url":
			v, err := stringField(key, value)
			if err != nil {
				return nil, err
			}
			upd.URL = &v
		case "status":
			v, err := stringField(key, value)
			if err != nil {
				return nil, err
			}
			status := plandok.DocumentStatus(v)
			upd.Status = &status
		case "tags":
			tags, err := stringSliceField(key, value)
			if err != nil {
				return nil, err
			}
			upd.Tags = &tags
		default:
			return nil, plandok.Errorf(plandok.EINVALID, "unknown field %q", key)
		}
	}

	return s.Update(ctx, id, upd)
}

func stringField(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", plandok.Errorf(plandok.EINVALID, "field %q must be a string", key)
	}
	return s, nil
}

func stringSliceField(key string, value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, plandok.Errorf(plandok.EINVALID, "field %q must be a list of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, plandok.Errorf(plandok.EINVALID, "field %q must be a list of strings", key)
	}
}

// Delete removes a document and its verification records. The records go
// first so a crash between statements never leaves orphans. Deleting a
// non-existent id is not an error.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM verification_log WHERE document_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}

// Analytics computes catalog rollups on demand.
func (s *CatalogService) Analytics(ctx context.Context) (*plandok.Rollup, error) {
	rollup := &plandok.Rollup{
		ByCategory:           make(map[string]int),
		ByStatus:             make(map[plandok.DocumentStatus]int),
		ByVerificationStatus: make(map[plandok.VerificationStatus]int),
		ByDepartment:         make(map[string]int),
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&rollup.Total); err != nil {
		return nil, err
	}

	if err := s.countBy(ctx, "category", func(key string, n int) {
		rollup.ByCategory[key] = n
	}); err != nil {
		return nil, err
	}
	if err := s.countBy(ctx, "status", func(key string, n int) {
		rollup.ByStatus[plandok.DocumentStatus(key)] = n
	}); err != nil {
		return nil, err
	}
	if err := s.countBy(ctx, "verification_status", func(key string, n int) {
		rollup.ByVerificationStatus[plandok.VerificationStatus(key)] = n
	}); err != nil {
		return nil, err
	}
	if err := s.countBy(ctx, "department", func(key string, n int) {
		rollup.ByDepartment[key] = n
	}); err != nil {
		return nil, err
	}

	return rollup, nil
}

// countBy runs a GROUP BY rollup over one document column. The column
// name comes from a fixed caller-provided set, never user input.
func (s *CatalogService) countBy(ctx context.Context, column string, record func(key string, n int)) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM documents GROUP BY "+column)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		record(key, n)
	}

	return rows.Err()
}
