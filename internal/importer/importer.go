package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"product-import-service/internal/models"
)

// Importer drives one import run end-to-end: lifecycle transitions,
// transaction policy, row routing, and the final summary.
type Importer struct {
	catalog Catalog
	jobs    Jobs
	fetcher Fetcher
	audit   AuditTrail
	logger  *logrus.Logger
}

// New wires an importer. audit may be nil when no event sink is configured.
func New(catalog Catalog, jobs Jobs, fetcher Fetcher, audit AuditTrail, logger *logrus.Logger) *Importer {
	return &Importer{
		catalog: catalog,
		jobs:    jobs,
		fetcher: fetcher,
		audit:   audit,
		logger:  logger,
	}
}

// RunSummary is the success result of one run.
type RunSummary struct {
	RowsProcessed   int    `json:"rowsProcessed"`
	ProductsCreated int    `json:"productsCreated"`
	VariantsCreated int    `json:"variantsCreated"`
	VariantsUpdated int    `json:"variantsUpdated"`
	RowsSkipped     int    `json:"rowsSkipped"`
	Message         string `json:"message"`
}

// run carries the per-run state: the catalog view (transactional or not),
// the job being mutated, and the pre-import name snapshot.
type run struct {
	ctx      context.Context
	catalog  Catalog
	settings Settings
	fetcher  Fetcher
	audit    AuditTrail
	log      *logrus.Logger
	job      *models.ImportJob
	names    map[string]struct{}
	stats    RunSummary
}

func (r *run) warn(msg, key, value string, err error) {
	entry := r.log.WithField(key, value)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(msg)
}

// Run executes the job. On any unrecovered failure the job transitions to
// failed and the error surfaces as *ImportError; job state is persisted
// outside the catalog transaction so the failed record survives a rollback.
func (imp *Importer) Run(ctx context.Context, job *models.ImportJob, settings Settings) (*RunSummary, error) {
	if err := job.Start(); err != nil {
		return nil, &models.ImportError{Message: err.Error(), Err: err}
	}
	if snapshot, err := settings.Snapshot(); err != nil {
		imp.logger.WithError(err).Warn("could not snapshot run settings")
	} else {
		job.SettingsSnapshot = &snapshot
	}
	if err := imp.jobs.Save(job); err != nil {
		return nil, &models.ImportError{Message: "could not persist job start", Err: err}
	}
	if imp.audit != nil {
		imp.audit.ImportStarted(ctx, job)
	}

	summary, err := imp.execute(ctx, job, settings)
	if err != nil {
		if failErr := job.Fail(); failErr != nil {
			imp.logger.WithError(failErr).Error("could not transition job to failed")
		}
		if saveErr := imp.jobs.Save(job); saveErr != nil {
			imp.logger.WithError(saveErr).Error("could not persist failed job")
		}
		if imp.audit != nil {
			imp.audit.ImportFailed(ctx, job, err.Error())
		}
		var importErr *models.ImportError
		if errors.As(err, &importErr) {
			return nil, err
		}
		return nil, &models.ImportError{Message: err.Error(), Err: err}
	}

	job.Summary = &summary.Message
	if err := job.Complete(); err != nil {
		return nil, &models.ImportError{Message: err.Error(), Err: err}
	}
	if err := imp.jobs.Save(job); err != nil {
		return nil, &models.ImportError{Message: "could not persist completed job", Err: err}
	}
	if imp.audit != nil {
		imp.audit.ImportCompleted(ctx, job, summary.Message)
	}
	return summary, nil
}

// runLogger resolves the logger for one run. With LogTo set the run gets its
// own logrus logger appending to that file; otherwise the service logger is
// shared and the returned close is a no-op.
func (imp *Importer) runLogger(settings Settings) (*logrus.Logger, func()) {
	if settings.LogTo == "" {
		return imp.logger, func() {}
	}
	f, err := os.OpenFile(settings.LogTo, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		imp.logger.WithError(err).WithField("path", settings.LogTo).Warn("could not open run log file, using service logger")
		return imp.logger, func() {}
	}
	log := logrus.New()
	log.SetOutput(f)
	log.SetLevel(imp.logger.GetLevel())
	log.SetFormatter(imp.logger.Formatter)
	return log, func() { f.Close() }
}

func (imp *Importer) execute(ctx context.Context, job *models.ImportJob, settings Settings) (*RunSummary, error) {
	records, err := readCSV(job.DataFilePath)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("data file %s is empty", job.DataFileName)
	}

	// Snapshot the catalog before touching it: pre-existing names drive the
	// duplicate-skip rule, pre-existing ids drive full-replace mode.
	existing, err := imp.catalog.AllProducts()
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(existing))
	originalIDs := make([]uuid.UUID, 0, len(existing))
	for _, p := range existing {
		names[p.Name] = struct{}{}
		originalIDs = append(originalIDs, p.ID)
	}

	var mapping map[string]int
	if settings.FirstRowIsHeadings {
		mapping = MapColumns(records[0])
	} else {
		mapping = settings.ColumnMappings
	}

	dataRows := records
	if settings.RowsToSkip > 0 {
		if settings.RowsToSkip >= len(records) {
			dataRows = nil
		} else {
			dataRows = records[settings.RowsToSkip:]
		}
	}

	runLog, closeLog := imp.runLogger(settings)
	defer closeLog()

	r := &run{
		ctx:      ctx,
		settings: settings,
		fetcher:  imp.fetcher,
		audit:    imp.audit,
		log:      runLog,
		job:      job,
		names:    names,
	}

	process := func(catalog Catalog) error {
		r.catalog = catalog
		for _, record := range dataRows {
			if err := r.processRow(buildRow(mapping, record)); err != nil {
				return err
			}
		}
		if settings.DestroyOriginalProducts {
			return catalog.DeleteProducts(originalIDs)
		}
		return nil
	}

	if settings.Transaction {
		err = imp.catalog.WithTransaction(process)
	} else {
		err = process(imp.catalog)
	}
	if err != nil {
		return nil, err
	}

	r.stats.Message = fmt.Sprintf(
		"Imported %d rows: %d products and %d variants created, %d variants updated, %d rows skipped",
		r.stats.RowsProcessed, r.stats.ProductsCreated, r.stats.VariantsCreated, r.stats.VariantsUpdated, r.stats.RowsSkipped,
	)
	return &r.stats, nil
}

// processRow routes one attribute bag: a comparator match imports the row as
// a variant of the matched product, anything else becomes a new product.
func (r *run) processRow(row map[string]string) error {
	r.stats.RowsProcessed++

	if r.settings.CreateVariants && r.settings.VariantComparatorField != "" {
		if value := row[r.settings.VariantComparatorField]; value != "" {
			product, err := r.catalog.ProductByAttribute(r.settings.VariantComparatorField, value)
			if err != nil {
				return err
			}
			if product != nil {
				r.log.WithFields(logrus.Fields{
					"product": product.Name,
					"sku":     row["sku"],
				}).Info("matched existing product, importing row as variant")
				if err := r.catalog.RestoreProduct(product); err != nil {
					return err
				}
				outcome, err := r.createVariantFor(product, row)
				if err != nil {
					return err
				}
				switch outcome {
				case variantCreated:
					r.stats.VariantsCreated++
				case variantUpdated:
					r.stats.VariantsUpdated++
				default:
					r.stats.RowsSkipped++
				}
				return nil
			}
		}
	}

	return r.createProductUsing(row)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing data file: %w", err)
	}
	return records, nil
}
