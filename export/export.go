// Package export serializes read-only catalog snapshots for reporting
// collaborators. It holds no formatting logic beyond serialization of the
// document and category entities.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/fwojciec/plandok"
)

// Supported export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXML  = "xml"
)

// Snapshot is one point-in-time serialization of the catalog.
type Snapshot struct {
	GeneratedAt time.Time           `json:"generatedAt"`
	Categories  []plandok.Category  `json:"categories"`
	Documents   []*plandok.Document `json:"documents"`
}

// Exporter reads the catalog and renders snapshots.
type Exporter struct {
	Catalog    plandok.CatalogService
	Categories plandok.CategoryService
}

// Export serializes the current catalog in the requested format.
// Returns EINVALID for unknown formats.
func (e *Exporter) Export(ctx context.Context, format string) ([]byte, error) {
	snapshot, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case FormatJSON:
		return renderJSON(snapshot)
	case FormatCSV:
		return renderCSV(snapshot)
	case FormatXML:
		return renderXML(snapshot)
	default:
		return nil, plandok.Errorf(plandok.EINVALID, "unknown export format %q", format)
	}
}

func (e *Exporter) snapshot(ctx context.Context) (*Snapshot, error) {
	docs, err := e.Catalog.List(ctx, plandok.DocumentFilter{})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	categories, err := e.Categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return &Snapshot{
		GeneratedAt: time.Now().UTC(),
		Categories:  categories,
		Documents:   docs,
	}, nil
}

func renderJSON(snapshot *Snapshot) ([]byte, error) {
	return json.MarshalIndent(snapshot, "", "  ")
}

// csvHeader is the column layout of CSV exports. Verification timestamps
// render as RFC3339 or empty when the document was never checked.
var csvHeader = []string{
	"id", "title", "category", "subcategory", "department", "url",
	"status", "verification_status", "last_verified_at", "created_at", "tags",
}

func renderCSV(snapshot *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	for _, doc := range snapshot.Documents {
		lastVerified := ""
		if !doc.LastVerifiedAt.IsZero() {
			lastVerified = doc.LastVerifiedAt.Format(time.RFC3339)
		}
		record := []string{
			doc.ID, doc.Title, doc.Category, doc.Subcategory, doc.Department, doc.URL,
			string(doc.Status), string(doc.VerificationStatus), lastVerified,
			doc.CreatedAt.Format(time.RFC3339), strings.Join(doc.Tags, ";"),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderXML(snapshot *Snapshot) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("catalog")
	root.CreateAttr("generatedAt", snapshot.GeneratedAt.Format(time.RFC3339))

	categories := root.CreateElement("categories")
	for _, c := range snapshot.Categories {
		el := categories.CreateElement("category")
		el.CreateAttr("name", c.Name)
		el.CreateAttr("displayOrder", strconv.Itoa(c.DisplayOrder))
		if c.Description != "" {
			el.SetText(c.Description)
		}
	}

	documents := root.CreateElement("documents")
	for _, d := range snapshot.Documents {
		el := documents.CreateElement("document")
		el.CreateAttr("id", d.ID)
		el.CreateElement("title").SetText(d.Title)
		el.CreateElement("category").SetText(d.Category)
		if d.Subcategory != "" {
			el.CreateElement("subcategory").SetText(d.Subcategory)
		}
		if d.Department != "" {
			el.CreateElement("department").SetText(d.Department)
		}
		el.CreateElement("url").SetText(d.URL)
		el.CreateElement("status").SetText(string(d.Status))
		el.CreateElement("verificationStatus").SetText(string(d.VerificationStatus))
		if !d.LastVerifiedAt.IsZero() {
			el.CreateElement("lastVerifiedAt").SetText(d.LastVerifiedAt.Format(time.RFC3339))
		}
		el.CreateElement("createdAt").SetText(d.CreatedAt.Format(time.RFC3339))
		if len(d.Tags) > 0 {
			tags := el.CreateElement("tags")
			for _, tag := range d.Tags {
				tags.CreateElement("tag").SetText(tag)
			}
		}
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}
