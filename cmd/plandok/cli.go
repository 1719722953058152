package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fwojciec/plandok"
	"github.com/fwojciec/plandok/dedup"
	"github.com/fwojciec/plandok/export"
	"github.com/fwojciec/plandok/fs"
	"github.com/fwojciec/plandok/ingest"
	"github.com/fwojciec/plandok/search"
	"github.com/fwojciec/plandok/verify"
	"github.com/fwojciec/plandok/yaml"
)

// fieldUpdater applies loosely-typed field maps, rejecting immutable
// fields. Satisfied by the sqlite catalog service.
type fieldUpdater interface {
	UpdateFields(ctx context.Context, id string, fields map[string]any) (*plandok.Document, error)
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	Catalog    plandok.CatalogService
	Updater    fieldUpdater
	Categories plandok.CategoryService
	Ingester   *ingest.Ingester
	Searcher   *search.Searcher
	Sweeper    *verify.Sweeper
	Reconciler *dedup.Reconciler
	Exporter   *export.Exporter
}

// IngestCmd ingests a batch of proposed documents from a JSON file.
type IngestCmd struct {
	File string `arg:"" help:"JSON file holding an array of proposed documents."`
}

func (c *IngestCmd) Run(deps *Dependencies) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}

	var proposed []*plandok.Document
	if err := json.Unmarshal(data, &proposed); err != nil {
		return fmt.Errorf("parse batch file: %w", err)
	}

	results, err := deps.Ingester.Batch(deps.Ctx, proposed)
	if err != nil {
		return err
	}

	accepted := 0
	for _, result := range results {
		if result.Accepted {
			accepted++
			fmt.Fprintf(deps.Stdout, "accepted  %s  %s\n", result.ID, result.Title)
			continue
		}
		if result.ExistingID != "" {
			fmt.Fprintf(deps.Stdout, "rejected  %s (%s, existing id %s)\n", result.Title, result.Code, result.ExistingID)
			continue
		}
		fmt.Fprintf(deps.Stdout, "rejected  %s (%s: %s)\n", result.Title, result.Code, result.Message)
	}
	fmt.Fprintf(deps.Stdout, "\n%d of %d accepted\n", accepted, len(results))
	return nil
}

// ListCmd lists catalog documents.
type ListCmd struct {
	Category           string `help:"Filter by category."`
	Status             string `help:"Filter by document status."`
	VerificationStatus string `help:"Filter by verification status."`
}

func (c *ListCmd) Run(deps *Dependencies) error {
	var filter plandok.DocumentFilter
	if c.Category != "" {
		filter.Category = &c.Category
	}
	if c.Status != "" {
		status := plandok.DocumentStatus(c.Status)
		filter.Status = &status
	}
	if c.VerificationStatus != "" {
		status := plandok.VerificationStatus(c.VerificationStatus)
		filter.VerificationStatus = &status
	}

	docs, err := deps.Catalog.List(deps.Ctx, filter)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		fmt.Fprintf(deps.Stdout, "%s  %-14s  %-12s  %s\n",
			doc.ID, doc.Category, doc.VerificationStatus, doc.Title)
	}
	fmt.Fprintf(deps.Stdout, "\n%d documents\n", len(docs))
	return nil
}

// GetCmd shows one document as JSON.
type GetCmd struct {
	ID string `arg:"" help:"Document id."`
}

func (c *GetCmd) Run(deps *Dependencies) error {
	doc, err := deps.Catalog.Get(deps.Ctx, c.ID)
	if err != nil {
		return err
	}
	return printJSON(deps.Stdout, doc)
}

// UpdateCmd updates fields of a document from field=value pairs.
type UpdateCmd struct {
	ID  string   `arg:"" help:"Document id."`
	Set []string `arg:"" help:"field=value pairs (e.g. status=approved)."`
}

func (c *UpdateCmd) Run(deps *Dependencies) error {
	fields := make(map[string]any, len(c.Set))
	for _, pair := range c.Set {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return plandok.Errorf(plandok.EINVALID, "expected field=value, got %q", pair)
		}
		if key == "tags" {
			fields[key] = strings.Split(value, ",")
			continue
		}
		fields[key] = value
	}

	doc, err := deps.Updater.UpdateFields(deps.Ctx, c.ID, fields)
	if err != nil {
		return err
	}
	return printJSON(deps.Stdout, doc)
}

// DeleteCmd deletes a document and its verification history.
type DeleteCmd struct {
	ID string `arg:"" help:"Document id."`
}

func (c *DeleteCmd) Run(deps *Dependencies) error {
	if err := deps.Catalog.Delete(deps.Ctx, c.ID); err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "deleted %s\n", c.ID)
	return nil
}

// SearchCmd searches documents by free text.
type SearchCmd struct {
	Query    string `arg:"" help:"Free-text query."`
	Category string `help:"Restrict results to one category."`
}

func (c *SearchCmd) Run(deps *Dependencies) error {
	var category *string
	if c.Category != "" {
		category = &c.Category
	}

	results, err := deps.Searcher.Search(deps.Ctx, c.Query, category)
	if err != nil {
		return err
	}

	for _, result := range results {
		fmt.Fprintf(deps.Stdout, "%6.1f  %s  %s\n",
			result.Score, result.Document.ID, result.Document.Title)
	}
	fmt.Fprintf(deps.Stdout, "\n%d results\n", len(results))
	return nil
}

// SweepCmd runs a link-verification sweep.
type SweepCmd struct {
	Staleness   time.Duration `default:"24h" help:"Re-check documents last verified longer ago than this."`
	Concurrency int           `short:"c" default:"8" help:"Concurrent link checks."`
	Deadline    time.Duration `help:"Stop dispatching new checks after this long (0 = no deadline)."`
}

func (c *SweepCmd) Run(deps *Dependencies) error {
	summary, err := deps.Sweeper.RunSweep(deps.Ctx, verify.SweepOptions{
		Staleness:   c.Staleness,
		Concurrency: c.Concurrency,
		Deadline:    c.Deadline,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "due: %d  checked: %d  verified: %d  unreachable: %d  errors: %d  skipped: %d  elapsed: %s\n",
		summary.Due, summary.Checked, summary.Verified, summary.Unreachable,
		summary.Errors, summary.Skipped, summary.Elapsed.Round(time.Millisecond))
	return nil
}

// VerifyCmd verifies a single document's link now.
type VerifyCmd struct {
	ID string `arg:"" help:"Document id."`
}

func (c *VerifyCmd) Run(deps *Dependencies) error {
	rec, err := deps.Sweeper.VerifyOne(deps.Ctx, c.ID)
	if err != nil {
		return err
	}
	return printJSON(deps.Stdout, rec)
}

// RecordsCmd shows a document's verification history.
type RecordsCmd struct {
	ID string `arg:"" help:"Document id."`
}

func (c *RecordsCmd) Run(deps *Dependencies) error {
	records, err := deps.Catalog.Records(deps.Ctx, c.ID)
	if err != nil {
		return err
	}
	return printJSON(deps.Stdout, records)
}

// ReconcileCmd removes duplicates that predate fingerprint enforcement.
type ReconcileCmd struct{}

func (c *ReconcileCmd) Run(deps *Dependencies) error {
	result, err := deps.Reconciler.Reconcile(deps.Ctx)
	if err != nil {
		return err
	}

	for _, id := range result.Removed {
		fmt.Fprintf(deps.Stdout, "removed %s\n", id)
	}
	fmt.Fprintf(deps.Stdout, "\nscanned %d, removed %d duplicates\n", result.Scanned, len(result.Removed))
	return nil
}

// AnalyticsCmd shows catalog rollups.
type AnalyticsCmd struct{}

func (c *AnalyticsCmd) Run(deps *Dependencies) error {
	rollup, err := deps.Catalog.Analytics(deps.Ctx)
	if err != nil {
		return err
	}
	return printJSON(deps.Stdout, rollup)
}

// ExportCmd exports a catalog snapshot.
type ExportCmd struct {
	Format string `arg:"" default:"json" enum:"json,csv,xml" help:"Snapshot format."`
	Output string `short:"o" help:"Write to this file instead of stdout."`
}

func (c *ExportCmd) Run(deps *Dependencies) error {
	data, err := deps.Exporter.Export(deps.Ctx, c.Format)
	if err != nil {
		return err
	}

	if c.Output == "" {
		_, err := deps.Stdout.Write(data)
		return err
	}
	return fs.WriteSnapshot(c.Output, data)
}

// CategoriesCmd manages the category configuration.
type CategoriesCmd struct {
	Seed CategoriesSeedCmd `cmd:"" help:"Seed categories from a YAML file."`
	List CategoriesListCmd `cmd:"" help:"List configured categories."`
}

// CategoriesSeedCmd seeds categories from a YAML file.
type CategoriesSeedCmd struct {
	File string `arg:"" help:"YAML file defining the category enumeration."`
}

func (c *CategoriesSeedCmd) Run(deps *Dependencies) error {
	categories, err := yaml.LoadCategories(c.File)
	if err != nil {
		return err
	}
	if err := deps.Categories.Seed(deps.Ctx, categories); err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "seeded %d categories\n", len(categories))
	return nil
}

// CategoriesListCmd lists configured categories.
type CategoriesListCmd struct{}

func (c *CategoriesListCmd) Run(deps *Dependencies) error {
	categories, err := deps.Categories.List(deps.Ctx)
	if err != nil {
		return err
	}
	for _, category := range categories {
		fmt.Fprintf(deps.Stdout, "%3d  %s\n", category.DisplayOrder, category.Name)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
