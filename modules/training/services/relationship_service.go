package services

import (
	"context"
	"io"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/iota-uz/training-sdk/modules/training/domain"
	"github.com/iota-uz/training-sdk/modules/training/infrastructure/spreadsheet"
	"github.com/iota-uz/training-sdk/pkg/composables"
)

// manager_is_trainer and employee_is_trainer are optional and default to false.
var relationshipRequired = []string{"manager_empid", "manager_name", "employee_empid", "employee_name"}

type RelationshipResult struct {
	RunID       uuid.UUID          `json:"run_id"`
	Rows        int                `json:"rows"`
	Inserted    int64              `json:"inserted"`
	Provisioned int                `json:"provisioned"`
	Skipped     int                `json:"skipped"`
	Deleted     int64              `json:"deleted"`
	Rejections  []domain.Rejection `json:"rejections,omitempty"`
}

// ReloadRelationshipsFromCSV replaces manager/employee pairs. Employee ids without an
// account get one with the default credential; existing accounts are left untouched.
func (s *ReloadService) ReloadRelationshipsFromCSV(ctx context.Context, csv io.Reader) (*RelationshipResult, error) {
	res, err := s.reloadRelationships(ctx, csv)
	recordRun(sourceRelationships, err)
	return res, err
}

func (s *ReloadService) reloadRelationships(ctx context.Context, csv io.Reader) (*RelationshipResult, error) {
	result := &RelationshipResult{RunID: uuid.New()}
	log := s.log().WithFields(logrus.Fields{"run_id": result.RunID, "source": sourceRelationships})

	sheet, err := spreadsheet.ReadCSV(SheetRelationships, csv)
	if err != nil {
		fatal := &domain.FatalImportError{Kind: domain.KindStructural, Message: "cannot read relationship file", Err: err}
		log.WithError(fatal).Error("relationship file rejected")
		return nil, fatal
	}
	if err := requireColumns(sheet.Header, relationshipRequired); err != nil {
		log.WithError(err).Error("relationship file rejected")
		return nil, err
	}

	batch := extractRelationships(sheet)
	s.logBatch(log, batch)
	recordSheetRows(batch)
	result.Rows = batch.Rows
	result.Skipped = len(batch.Rejections)
	result.Rejections = batch.Rejections
	if len(batch.Records) == 0 {
		err := domain.NewEmptyResultError()
		log.WithError(err).Error("relationship file rejected")
		return nil, err
	}

	provisioned, err := s.provisionIdentities(ctx, relationshipEmpIDs(batch.Records))
	if err != nil {
		fatal := domain.ClassifyStoreError("identity provisioning rolled back", err)
		log.WithError(fatal).Error("identity provisioning rolled back")
		return nil, fatal
	}
	result.Provisioned = provisioned
	recordProvisioned(provisioned)

	err = composables.InTx[domain.Tx](ctx, s.store, func(ctx context.Context, tx domain.Tx) error {
		n, err := tx.DeleteAll(ctx, domain.TableManagerEmployee)
		if err != nil {
			return gerrors.Wrap(err, "delete manager_employee")
		}
		result.Deleted = n
		counts, err := tx.Insert(ctx, batch.Records)
		if err != nil {
			return gerrors.Wrap(err, "insert relationships")
		}
		result.Inserted = counts[domain.TableManagerEmployee]
		return nil
	})
	if err != nil {
		fatal := domain.ClassifyStoreError("relationship reload rolled back", err)
		log.WithError(fatal).Error("relationship reload rolled back")
		return nil, fatal
	}

	log.WithFields(logrus.Fields{
		"inserted":    result.Inserted,
		"provisioned": result.Provisioned,
		"skipped":     result.Skipped,
	}).Info("relationship reload committed")
	importLastSuccess.WithLabelValues(sourceRelationships).SetToCurrentTime()
	return result, nil
}

func requireColumns(header, required []string) error {
	normalized := NormalizeHeaders(header)
	present := make(map[string]struct{}, len(normalized))
	for _, h := range normalized {
		present[h] = struct{}{}
	}
	var missing []string
	for _, col := range required {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return domain.NewStructuralError("missing required column(s) "+describeMissing(missing, normalized), required, normalized)
}

func extractRelationships(sheet *spreadsheet.Sheet) sheetBatch {
	seen := map[[2]string]struct{}{}
	return extractSheet(sheet, domain.TableManagerEmployee, func(row RawRow) Outcome[domain.RelationshipRecord] {
		out := relationshipRow(sheet.Name, row)
		if !out.Accepted() {
			return out
		}
		key := [2]string{out.Value.ManagerEmpID, out.Value.EmployeeEmpID}
		if _, dup := seen[key]; dup {
			return reject[domain.RelationshipRecord](sheet.Name, row.Line, domain.ReasonDuplicate, "manager_empid", "employee_empid")
		}
		seen[key] = struct{}{}
		return out
	}, func(r domain.RelationshipRecord) []domain.Record { return []domain.Record{r} })
}

func relationshipRow(sheet string, row RawRow) Outcome[domain.RelationshipRecord] {
	cell := func(key string) domain.Value {
		v, _ := row.Get(key)
		return v
	}
	manager, _ := idOf(cell("manager_empid"))
	employee, _ := idOf(cell("employee_empid"))
	rec := domain.RelationshipRecord{
		ManagerEmpID:      manager,
		ManagerName:       optionalText(cell("manager_name")),
		EmployeeEmpID:     employee,
		EmployeeName:      optionalText(cell("employee_name")),
		ManagerIsTrainer:  truthy(cell("manager_is_trainer")),
		EmployeeIsTrainer: truthy(cell("employee_is_trainer")),
	}
	if missing := missingRequired(rec); len(missing) > 0 {
		return reject[domain.RelationshipRecord](sheet, row.Line, domain.ReasonMissingRequired, missing...)
	}
	return accept(rec)
}

// relationshipEmpIDs returns every employee id on either side, first appearance first.
func relationshipEmpIDs(records []domain.Record) []string {
	seen := map[string]struct{}{}
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, r := range records {
		rel, ok := r.(domain.RelationshipRecord)
		if !ok {
			continue
		}
		add(rel.ManagerEmpID)
		add(rel.EmployeeEmpID)
	}
	return ids
}

// provisionIdentities creates accounts for unknown ids in its own committed unit of work.
// The default credential is hashed once and shared by every new account.
func (s *ReloadService) provisionIdentities(ctx context.Context, empids []string) (int, error) {
	created := 0
	err := composables.InTx[domain.Tx](ctx, s.store, func(ctx context.Context, tx domain.Tx) error {
		existing, err := tx.ExistingUsernames(ctx, empids)
		if err != nil {
			return gerrors.Wrap(err, "load existing users")
		}
		var missing []string
		for _, id := range empids {
			if _, ok := existing[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) == 0 {
			return nil
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(s.opts.DefaultPassword), s.opts.BcryptCost)
		if err != nil {
			return gerrors.Wrap(err, "hash default credential")
		}
		now := s.opts.Now().UTC()
		records := make([]domain.Record, len(missing))
		for i, id := range missing {
			records[i] = domain.Identity{Username: id, HashedPassword: string(hash), CreatedAt: now}
		}
		if _, err := tx.Insert(ctx, records); err != nil {
			return gerrors.Wrap(err, "insert users")
		}
		created = len(missing)
		return nil
	})
	return created, err
}
