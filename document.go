package plandok

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// DocumentStatus tracks a document through the catalog-management
// lifecycle. It drives display and analytics, not link verification.
type DocumentStatus string

// DocumentStatus values.
const (
	StatusDraft       DocumentStatus = "draft"
	StatusUnderReview DocumentStatus = "under_review"
	StatusApproved    DocumentStatus = "approved"
	StatusRejected    DocumentStatus = "rejected"
	StatusExpired     DocumentStatus = "expired"
)

// VerificationStatus reflects the outcome of the most recently completed
// link-liveness check. It is owned exclusively by the verification
// scheduler and only ever written through CatalogService.RecordVerification.
type VerificationStatus string

// VerificationStatus values.
const (
	VerificationUnverified  VerificationStatus = "unverified"
	VerificationVerified    VerificationStatus = "verified"
	VerificationUnreachable VerificationStatus = "unreachable"
	VerificationError       VerificationStatus = "error"
)

// Document represents one catalog entry for a municipal planning document.
type Document struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Category           string             `json:"category"`
	Subcategory        string             `json:"subcategory"`
	Department         string             `json:"department"`
	URL                string             `json:"url"`
	ContentFingerprint string             `json:"contentFingerprint"`
	Tags               []string           `json:"tags"`
	Status             DocumentStatus     `json:"status"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	LastVerifiedAt     time.Time          `json:"lastVerifiedAt"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return Errorf(EINVALID, "document title required")
	}
	if d.Category == "" {
		return Errorf(EINVALID, "document category required")
	}
	if err := ValidateURL(d.URL); err != nil {
		return err
	}
	return nil
}

// ValidateURL returns an EINVALID error unless raw is an absolute
// http(s) URL.
func ValidateURL(raw string) error {
	if raw == "" {
		return Errorf(EINVALID, "document URL required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Errorf(EINVALID, "invalid URL %q", raw)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Errorf(EINVALID, "URL %q must be absolute http or https", raw)
	}
	return nil
}

// DocumentFilter represents a filter for List. Non-nil predicates are
// combined with logical AND.
type DocumentFilter struct {
	Category           *string             `json:"category"`
	Status             *DocumentStatus     `json:"status"`
	VerificationStatus *VerificationStatus `json:"verificationStatus"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// DocumentUpdate represents fields that can be updated on a document.
// Identity fields (id, contentFingerprint, createdAt) have no
// representation here and cannot be changed after creation.
type DocumentUpdate struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Category    *string         `json:"category"`
	Subcategory *string         `json:"subcategory"`
	Department  *string         `json:"department"`
	URL         *string         `json:"url"`
	Tags        *[]string       `json:"tags"`
	Status      *DocumentStatus `json:"status"`
}

// Rollup holds on-demand analytics counts computed from the catalog.
type Rollup struct {
	Total                int                        `json:"total"`
	ByCategory           map[string]int             `json:"byCategory"`
	ByStatus             map[DocumentStatus]int     `json:"byStatus"`
	ByVerificationStatus map[VerificationStatus]int `json:"byVerificationStatus"`
	ByDepartment         map[string]int             `json:"byDepartment"`
}

// CatalogService is the single write authority over documents. All
// mutation goes through its transactional operations; other components
// (ingestion, verification, search) only ever call through this API.
type CatalogService interface {
	// Insert creates a new document. The document's fingerprint must be
	// unique catalog-wide; a collision returns ECONFLICT carrying the
	// existing document's id.
	Insert(ctx context.Context, doc *Document) error

	// Update updates mutable fields of an existing document.
	// Returns ENOTFOUND if the document does not exist. The fingerprint
	// is fixed at insert and never recomputed here; drift between a
	// document's fields and its fingerprint is repaired by the dedup
	// reconciliation pass.
	Update(ctx context.Context, id string, upd DocumentUpdate) (*Document, error)

	// Get retrieves a document by id.
	// Returns ENOTFOUND if the document does not exist.
	Get(ctx context.Context, id string) (*Document, error)

	// FindByFingerprint retrieves the document holding a content
	// fingerprint. Returns ENOTFOUND if no document has it.
	FindByFingerprint(ctx context.Context, fingerprint string) (*Document, error)

	// List retrieves documents matching the filter.
	List(ctx context.Context, filter DocumentFilter) ([]*Document, error)

	// ListDue retrieves documents whose last verification attempt is
	// older than olderThan (or that were never verified), oldest first.
	ListDue(ctx context.Context, olderThan time.Time, limit int) ([]*Document, error)

	// RecordVerification atomically appends a verification record and
	// updates the parent document's verification status and
	// lastVerifiedAt. Returns ENOTFOUND if the document no longer exists.
	RecordVerification(ctx context.Context, documentID string, rec *VerificationRecord) error

	// Records retrieves the verification history for a document,
	// oldest attempt first.
	Records(ctx context.Context, documentID string) ([]*VerificationRecord, error)

	// Delete removes a document and its verification records.
	// Deleting a non-existent id is not an error.
	Delete(ctx context.Context, id string) error

	// Analytics computes catalog rollups on demand.
	Analytics(ctx context.Context) (*Rollup, error)
}
