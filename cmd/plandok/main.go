package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/plandok"
	"github.com/fwojciec/plandok/dedup"
	"github.com/fwojciec/plandok/export"
	plandokhttp "github.com/fwojciec/plandok/http"
	"github.com/fwojciec/plandok/ingest"
	"github.com/fwojciec/plandok/search"
	plandokslog "github.com/fwojciec/plandok/slog"
	"github.com/fwojciec/plandok/sqlite"
	"github.com/fwojciec/plandok/verify"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("plandok"),
		kong.Description("Municipal planning document catalog and link verification"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	db := sqlite.NewDB(cli.DB)
	if err := db.Open(); err != nil {
		return err
	}
	defer db.Close()

	store := sqlite.NewCatalogService(db)
	categories := sqlite.NewCategoryService(db)

	var catalog plandok.CatalogService = store
	var checker plandok.LinkChecker = plandokhttp.NewChecker(
		plandokhttp.WithTimeout(cli.Timeout),
	)

	if cli.Verbose {
		logger := slog.New(slog.NewTextHandler(stderr, nil))
		catalog = plandokslog.NewLoggingCatalog(store, logger)
		checker = plandokslog.NewLoggingChecker(checker, logger)
	}

	deps := &Dependencies{
		Ctx:        ctx,
		Stdout:     stdout,
		Stderr:     stderr,
		Catalog:    catalog,
		Updater:    store,
		Categories: categories,
		Ingester:   &ingest.Ingester{Catalog: catalog},
		Searcher:   &search.Searcher{Catalog: catalog},
		Reconciler: &dedup.Reconciler{Catalog: catalog},
		Exporter:   &export.Exporter{Catalog: catalog, Categories: categories},
		Sweeper: &verify.Sweeper{
			Catalog: catalog,
			Checker: checker,
			Limiter: verify.NewHostLimiter(cli.RPS),
		},
	}

	return kctx.Run(deps)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB      string        `help:"Path to the catalog database." default:"plandok.db"`
	Timeout time.Duration `short:"t" default:"10s" help:"Timeout per link check."`
	RPS     float64       `default:"1.0" help:"Max link checks per second per host."`
	Verbose bool          `short:"v" help:"Log operations to stderr."`

	Ingest     IngestCmd     `cmd:"" help:"Ingest a batch of proposed documents from a JSON file."`
	List       ListCmd       `cmd:"" help:"List catalog documents."`
	Get        GetCmd        `cmd:"" help:"Show one document."`
	Update     UpdateCmd     `cmd:"" help:"Update fields of a document."`
	Delete     DeleteCmd     `cmd:"" help:"Delete a document and its verification history."`
	Search     SearchCmd     `cmd:"" help:"Search documents by free text."`
	Sweep      SweepCmd      `cmd:"" help:"Run a link-verification sweep."`
	Verify     VerifyCmd     `cmd:"" help:"Verify a single document's link now."`
	Records    RecordsCmd    `cmd:"" help:"Show a document's verification history."`
	Reconcile  ReconcileCmd  `cmd:"" help:"Remove duplicates that predate fingerprint enforcement."`
	Analytics  AnalyticsCmd  `cmd:"" help:"Show catalog rollups."`
	Export     ExportCmd     `cmd:"" help:"Export a catalog snapshot."`
	Categories CategoriesCmd `cmd:"" help:"Manage the category configuration."`
}
