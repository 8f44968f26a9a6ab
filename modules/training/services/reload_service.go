package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/iota-uz/training-sdk/modules/training/domain"
	"github.com/iota-uz/training-sdk/modules/training/infrastructure/spreadsheet"
	"github.com/iota-uz/training-sdk/pkg/composables"
)

const (
	sourceWorkbook      = "workbook"
	sourceCompetencies  = "competencies"
	sourceRelationships = "relationships"

	defaultMaxRejectionsLogged = 20
)

// Options carries everything a reload needs besides the store.
type Options struct {
	Logger *logrus.Entry
	// DefaultPassword is the credential given to auto-provisioned accounts.
	DefaultPassword     string
	BcryptCost          int
	Fields              *Registry
	MaxRejectionsLogged int
	Now                 func() time.Time
}

type ReloadService struct {
	store domain.Store
	opts  Options
}

func NewReloadService(store domain.Store, opts Options) *ReloadService {
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = logrus.NewEntry(l)
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Fields == nil {
		opts.Fields = DefaultRegistry()
	}
	if opts.MaxRejectionsLogged <= 0 {
		opts.MaxRejectionsLogged = defaultMaxRejectionsLogged
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ReloadService{store: store, opts: opts}
}

func (s *ReloadService) log() *logrus.Entry {
	return s.opts.Logger
}

type SheetCounts struct {
	Sheet    string       `json:"sheet"`
	Table    domain.Table `json:"table"`
	Rows     int          `json:"rows"`
	Inserted int64        `json:"inserted"`
	Skipped  int          `json:"skipped"`
}

type WorkbookResult struct {
	RunID      uuid.UUID              `json:"run_id"`
	Sheets     []SheetCounts          `json:"sheets"`
	Deleted    map[domain.Table]int64 `json:"deleted"`
	Verified   map[domain.Table]int64 `json:"verified,omitempty"`
	Rejections []domain.Rejection     `json:"rejections,omitempty"`
	Warnings   []domain.Warning       `json:"warnings,omitempty"`
	Resequence ResequenceReport       `json:"resequence"`
}

// Inserted returns the number of records written to table.
func (r *WorkbookResult) Inserted(table domain.Table) int64 {
	for _, s := range r.Sheets {
		if s.Table == table {
			return s.Inserted
		}
	}
	return 0
}

// Skipped returns the number of rejected rows on a sheet.
func (r *WorkbookResult) Skipped(sheet string) int {
	for _, s := range r.Sheets {
		if s.Sheet == sheet {
			return s.Skipped
		}
	}
	return 0
}

type sheetPlan struct {
	name    string
	extract func(*extractor, *spreadsheet.Sheet) sheetBatch
}

var (
	workbookPlan = []sheetPlan{
		{name: SheetTrainers, extract: (*extractor).trainers},
		{name: SheetTrainings, extract: (*extractor).trainings},
		{name: SheetCompetencies, extract: (*extractor).competencies},
	}
	competencyPlan = []sheetPlan{
		{name: SheetCompetencies, extract: (*extractor).competencies},
	}
)

// ReloadFromWorkbook replaces trainers, training details and employee competencies
// with the contents of the workbook.
func (s *ReloadService) ReloadFromWorkbook(ctx context.Context, workbook io.Reader) (*WorkbookResult, error) {
	res, err := s.reloadWorkbook(ctx, sourceWorkbook, workbookPlan, workbook)
	recordRun(sourceWorkbook, err)
	return res, err
}

// ReloadCompetenciesFromWorkbook replaces only employee competencies.
func (s *ReloadService) ReloadCompetenciesFromWorkbook(ctx context.Context, workbook io.Reader) (*WorkbookResult, error) {
	res, err := s.reloadWorkbook(ctx, sourceCompetencies, competencyPlan, workbook)
	recordRun(sourceCompetencies, err)
	return res, err
}

func (s *ReloadService) reloadWorkbook(ctx context.Context, source string, plan []sheetPlan, workbook io.Reader) (*WorkbookResult, error) {
	result := &WorkbookResult{
		RunID:   uuid.New(),
		Deleted: map[domain.Table]int64{},
	}
	log := s.log().WithFields(logrus.Fields{"run_id": result.RunID, "source": source})

	wb, err := spreadsheet.OpenWorkbook(workbook)
	if err != nil {
		return nil, &domain.FatalImportError{Kind: domain.KindStructural, Message: "cannot read workbook", Err: err}
	}
	defer func() { _ = wb.Close() }()

	batches, err := s.extractWorkbook(wb, plan, log)
	if err != nil {
		log.WithError(err).Error("workbook rejected")
		return nil, err
	}

	var records []domain.Record
	targets := make([]domain.Table, 0, len(batches))
	for _, b := range batches {
		records = append(records, b.Records...)
		targets = append(targets, b.Table)
		result.Rejections = append(result.Rejections, b.Rejections...)
	}
	if len(records) == 0 {
		err := domain.NewEmptyResultError()
		log.WithError(err).Error("workbook rejected")
		return nil, err
	}

	var inserted map[domain.Table]int64
	err = composables.InTx[domain.Tx](ctx, s.store, func(ctx context.Context, tx domain.Tx) error {
		for _, t := range PlanDeletion(targets...) {
			n, err := tx.DeleteAll(ctx, t)
			if err != nil {
				return gerrors.Wrapf(err, "delete %s", t)
			}
			result.Deleted[t] = n
		}
		for _, t := range targets {
			if w := restartSequence(ctx, tx, t, 1); w != nil {
				result.Warnings = append(result.Warnings, *w)
				log.WithField("table", t).Warn(w.Message)
			}
		}
		counts, err := tx.Insert(ctx, records)
		if err != nil {
			return gerrors.Wrap(err, "insert records")
		}
		inserted = counts
		return nil
	})
	if err != nil {
		fatal := domain.ClassifyStoreError("reload rolled back", err)
		log.WithError(fatal).Error("reload rolled back")
		return nil, fatal
	}

	for _, b := range batches {
		result.Sheets = append(result.Sheets, SheetCounts{
			Sheet:    b.Sheet,
			Table:    b.Table,
			Rows:     b.Rows,
			Inserted: inserted[b.Table],
			Skipped:  len(b.Rejections),
		})
	}
	log.WithFields(sheetFields(result.Sheets)).Info("reload committed")

	result.Resequence = s.Resequence(ctx, targets...)
	result.Warnings = append(result.Warnings, result.Resequence.Warnings...)
	result.Verified = s.verify(ctx, log, targets)
	importLastSuccess.WithLabelValues(source).SetToCurrentTime()
	return result, nil
}

func (s *ReloadService) extractWorkbook(wb *spreadsheet.Workbook, plan []sheetPlan, log *logrus.Entry) ([]sheetBatch, error) {
	sheets := make([]*spreadsheet.Sheet, len(plan))
	expected := make([]string, len(plan))
	var missing []string
	for i, p := range plan {
		expected[i] = p.name
		sheet, err := wb.Sheet(p.name)
		if gerrors.Is(err, spreadsheet.ErrSheetNotFound) {
			missing = append(missing, p.name)
			continue
		}
		if err != nil {
			return nil, &domain.FatalImportError{
				Kind:    domain.KindStructural,
				Message: fmt.Sprintf("cannot read sheet %q", p.name),
				Err:     err,
			}
		}
		sheets[i] = sheet
	}
	if len(missing) > 0 {
		found := wb.SheetNames()
		return nil, domain.NewStructuralError(
			fmt.Sprintf("workbook is missing sheet(s) %s", describeMissing(missing, found)),
			expected, found,
		)
	}

	ex := &extractor{fields: s.opts.Fields}
	batches := make([]sheetBatch, 0, len(plan))
	for i, p := range plan {
		b := p.extract(ex, sheets[i])
		s.logBatch(log, b)
		recordSheetRows(b)
		batches = append(batches, b)
	}
	return batches, nil
}

func (s *ReloadService) logBatch(log *logrus.Entry, b sheetBatch) {
	entry := log.WithFields(logrus.Fields{
		"sheet":    b.Sheet,
		"rows":     b.Rows,
		"records":  len(b.Records),
		"rejected": len(b.Rejections),
	})
	entry.Info("sheet extracted")
	for i, r := range b.Rejections {
		if i == s.opts.MaxRejectionsLogged {
			entry.Warnf("%d more rejected rows not logged", len(b.Rejections)-i)
			break
		}
		entry.WithFields(logrus.Fields{
			"line":   r.Line,
			"reason": r.Reason,
			"fields": strings.Join(r.Fields, ","),
		}).Warn("row rejected")
	}
}

// verify reads back row counts after commit. Failures are only logged.
func (s *ReloadService) verify(ctx context.Context, log *logrus.Entry, tables []domain.Table) map[domain.Table]int64 {
	counts := make(map[domain.Table]int64, len(tables))
	err := composables.InTx[domain.Tx](ctx, s.store, func(ctx context.Context, tx domain.Tx) error {
		for _, t := range tables {
			n, err := tx.Count(ctx, t)
			if err != nil {
				return gerrors.Wrapf(err, "count %s", t)
			}
			counts[t] = n
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("post-commit verification failed")
		return nil
	}
	fields := logrus.Fields{}
	for t, n := range counts {
		fields[string(t)] = n
	}
	log.WithFields(fields).Info("post-commit verification")
	return counts
}

func sheetFields(sheets []SheetCounts) logrus.Fields {
	fields := logrus.Fields{}
	for _, s := range sheets {
		fields[string(s.Table)+"_inserted"] = s.Inserted
		fields[string(s.Table)+"_skipped"] = s.Skipped
	}
	return fields
}

func asFatal(err error) (*domain.FatalImportError, bool) {
	var fatal *domain.FatalImportError
	if gerrors.As(err, &fatal) {
		return fatal, true
	}
	return nil, false
}
