package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fwojciec/plandok"
	"github.com/google/uuid"
)

// RecordVerification atomically appends a verification record and updates
// the parent document's verification status and lastVerifiedAt in one
// transaction. The document's status always reflects this attempt, while
// lastVerifiedAt never moves backwards even if a slow attempt lands after
// a newer one.
func (s *CatalogService) RecordVerification(ctx context.Context, documentID string, rec *plandok.VerificationRecord) error {
	if rec.Outcome == "" {
		return plandok.Errorf(plandok.EINVALID, "verification outcome required")
	}
	if rec.AttemptedAt.IsZero() {
		rec.AttemptedAt = time.Now().UTC()
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.DocumentID = documentID

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var lastVerifiedAt sql.NullString
	err = tx.QueryRowContext(ctx,
		"SELECT last_verified_at FROM documents WHERE id = ?", documentID).Scan(&lastVerifiedAt)
	if err == sql.ErrNoRows {
		// Document deleted while the check was in flight.
		return plandok.Errorf(plandok.ENOTFOUND, "document %q not found", documentID)
	}
	if err != nil {
		return err
	}

	newLast := rec.AttemptedAt
	if lastVerifiedAt.Valid {
		prev, err := parseRFC3339(lastVerifiedAt.String, "last_verified_at")
		if err != nil {
			return err
		}
		if prev.After(newLast) {
			newLast = prev
		}
	}

	var httpStatus any
	if rec.HTTPStatus != nil {
		httpStatus = *rec.HTTPStatus
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO verification_log (id, document_id, attempted_at, http_status, outcome, note)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, documentID, formatTime(rec.AttemptedAt), httpStatus, rec.Outcome, rec.Note); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE documents SET verification_status = ?, last_verified_at = ? WHERE id = ?
	`, rec.Outcome.Status(), formatTime(newLast), documentID); err != nil {
		return err
	}

	return tx.Commit()
}

// Records retrieves the verification history for a document, oldest
// attempt first.
func (s *CatalogService) Records(ctx context.Context, documentID string) ([]*plandok.VerificationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, attempted_at, http_status, outcome, note
		FROM verification_log
		WHERE document_id = ?
		ORDER BY attempted_at ASC, id ASC
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*plandok.VerificationRecord
	for rows.Next() {
		var rec plandok.VerificationRecord
		var attemptedAt string
		var httpStatus sql.NullInt64

		if err := rows.Scan(&rec.ID, &rec.DocumentID, &attemptedAt, &httpStatus,
			&rec.Outcome, &rec.Note); err != nil {
			return nil, err
		}

		if rec.AttemptedAt, err = parseRFC3339(attemptedAt, "attempted_at"); err != nil {
			return nil, err
		}
		if httpStatus.Valid {
			status := int(httpStatus.Int64)
			rec.HTTPStatus = &status
		}

		records = append(records, &rec)
	}

	return records, rows.Err()
}
