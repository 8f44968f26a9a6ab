package services

import (
	"github.com/iota-uz/training-sdk/modules/training/domain"
	"github.com/iota-uz/training-sdk/modules/training/infrastructure/spreadsheet"
)

const (
	SheetTrainers      = "Trainers Details"
	SheetTrainings     = "Training Details"
	SheetCompetencies  = "Employee Competency"
	SheetRelationships = "manager_employee"
)

// sheetBatch is everything one sheet contributes to a reload.
type sheetBatch struct {
	Sheet      string
	Table      domain.Table
	Rows       int
	Records    []domain.Record
	Rejections []domain.Rejection
}

func extractSheet[T any](sheet *spreadsheet.Sheet, table domain.Table, transform func(RawRow) Outcome[T], emit func(T) []domain.Record) sheetBatch {
	batch := sheetBatch{Sheet: sheet.Name, Table: table}
	for _, r := range sheet.Rows {
		row := NewRawRow(r.Line, sheet.Header, r.Cells)
		if row.IsBlank() {
			continue
		}
		batch.Rows++
		out := safeTransform(sheet.Name, row, transform)
		if !out.Accepted() {
			batch.Rejections = append(batch.Rejections, *out.Rejection)
			continue
		}
		batch.Records = append(batch.Records, emit(out.Value)...)
	}
	return batch
}

// safeTransform turns a panic while reading one row into an invalid_value rejection
// so a single malformed row cannot abort the sheet.
func safeTransform[T any](sheet string, row RawRow, transform func(RawRow) Outcome[T]) (out Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = reject[T](sheet, row.Line, domain.ReasonInvalidValue)
		}
	}()
	return transform(row)
}

type extractor struct {
	fields *Registry
}

func (e *extractor) text(id FieldID, row RawRow) *string {
	return optionalText(e.fields.Field(id).Resolve(row))
}

func (e *extractor) str(id FieldID, row RawRow) string {
	s, _ := textOf(e.fields.Field(id).Resolve(row))
	return s
}

func (e *extractor) trainers(sheet *spreadsheet.Sheet) sheetBatch {
	return extractSheet(sheet, domain.TableTrainers, func(row RawRow) Outcome[domain.TrainerRecord] {
		return e.trainerRow(sheet.Name, row)
	}, func(r domain.TrainerRecord) []domain.Record { return []domain.Record{r} })
}

func (e *extractor) trainerRow(sheet string, row RawRow) Outcome[domain.TrainerRecord] {
	name, ok := textOf(firstPresent(
		e.fields.Field(FieldRosterTrainerName).Resolve(row),
		e.fields.Field(FieldTrainerName).Resolve(row),
	))
	if !ok || name == "" {
		name = domain.NotAssigned
	}
	rec := domain.TrainerRecord{
		Skill:          e.str(FieldSkill, row),
		Competency:     e.str(FieldCompetency, row),
		TrainerName:    name,
		ExpertiseLevel: e.str(FieldExpertiseLevel, row),
	}
	if missing := missingRequired(rec); len(missing) > 0 {
		return reject[domain.TrainerRecord](sheet, row.Line, domain.ReasonMissingRequired, missing...)
	}
	return accept(rec)
}

func (e *extractor) trainings(sheet *spreadsheet.Sheet) sheetBatch {
	return extractSheet(sheet, domain.TableTrainingDetails, func(row RawRow) Outcome[[]domain.TrainingRecord] {
		return e.trainingRow(sheet.Name, row)
	}, func(rs []domain.TrainingRecord) []domain.Record {
		out := make([]domain.Record, len(rs))
		for i, r := range rs {
			out[i] = r
		}
		return out
	})
}

func (e *extractor) trainingRow(sheet string, row RawRow) Outcome[[]domain.TrainingRecord] {
	base := domain.TrainingRecord{
		Division:          e.text(FieldDivision, row),
		Department:        e.text(FieldDepartment, row),
		Competency:        e.text(FieldCompetency, row),
		Skill:             e.text(FieldSkill, row),
		TrainingName:      e.str(FieldTrainingName, row),
		TrainingTopics:    e.text(FieldTrainingTopics, row),
		Prerequisites:     e.text(FieldPrerequisites, row),
		SkillCategory:     e.text(FieldSkillCategory, row),
		TrainerName:       domain.NotAssigned,
		TrainingDate:      dateOf(e.fields.Field(FieldTrainingDate).Resolve(row)),
		Duration:          e.text(FieldDuration, row),
		Time:              e.text(FieldTime, row),
		TrainingType:      e.text(FieldTrainingType, row),
		Seats:             e.text(FieldSeats, row),
		AssessmentDetails: e.text(FieldAssessmentDetails, row),
	}
	if missing := missingRequired(base); len(missing) > 0 {
		return reject[[]domain.TrainingRecord](sheet, row.Line, domain.ReasonMissingRequired, missing...)
	}

	trainers, _ := textOf(firstPresent(
		resolveExact(row, directTrainerAliases),
		e.fields.Field(FieldTrainerName).Resolve(row),
	))
	emails, _ := textOf(e.fields.Field(FieldEmail).Resolve(row))
	return accept(expandTraining(base, trainers, emails))
}

func (e *extractor) competencies(sheet *spreadsheet.Sheet) sheetBatch {
	return extractSheet(sheet, domain.TableEmployeeCompetency, func(row RawRow) Outcome[domain.CompetencyRecord] {
		return e.competencyRow(sheet.Name, row)
	}, func(r domain.CompetencyRecord) []domain.Record { return []domain.Record{r} })
}

func (e *extractor) competencyRow(sheet string, row RawRow) Outcome[domain.CompetencyRecord] {
	empid, _ := idOf(e.fields.Field(FieldEmployeeEmpID).Resolve(row))
	rec := domain.CompetencyRecord{
		EmployeeEmpID:    empid,
		EmployeeName:     e.text(FieldEmployeeName, row),
		Department:       e.text(FieldDepartment, row),
		Division:         e.text(FieldDivision, row),
		Project:          e.text(FieldProject, row),
		RoleSpecificComp: e.text(FieldRoleSpecificComp, row),
		Destination:      e.text(FieldDestination, row),
		Competency:       e.text(FieldCompetency, row),
		Skill:            e.text(FieldSkill, row),
		CurrentExpertise: e.text(FieldCurrentExpertise, row),
		TargetExpertise:  e.text(FieldTargetExpertise, row),
		Comments:         e.text(FieldComments, row),
		TargetDate:       dateOf(e.fields.Field(FieldTargetDate).Resolve(row)),
	}
	if missing := missingRequired(rec); len(missing) > 0 {
		return reject[domain.CompetencyRecord](sheet, row.Line, domain.ReasonMissingRequired, missing...)
	}
	return accept(rec)
}
