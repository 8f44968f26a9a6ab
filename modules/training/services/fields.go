package services

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	gerrors "github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

type FieldID string

const (
	FieldSkill             FieldID = "skill"
	FieldCompetency        FieldID = "competency"
	FieldRosterTrainerName FieldID = "roster_trainer_name"
	FieldTrainerName       FieldID = "trainer_name"
	FieldExpertiseLevel    FieldID = "expertise_level"

	FieldDivision          FieldID = "division"
	FieldDepartment        FieldID = "department"
	FieldTrainingName      FieldID = "training_name"
	FieldTrainingTopics    FieldID = "training_topics"
	FieldPrerequisites     FieldID = "prerequisites"
	FieldSkillCategory     FieldID = "skill_category"
	FieldEmail             FieldID = "email"
	FieldTrainingDate      FieldID = "training_date"
	FieldDuration          FieldID = "duration"
	FieldTime              FieldID = "time"
	FieldTrainingType      FieldID = "training_type"
	FieldSeats             FieldID = "seats"
	FieldAssessmentDetails FieldID = "assessment_details"

	FieldEmployeeEmpID    FieldID = "employee_empid"
	FieldEmployeeName     FieldID = "employee_name"
	FieldProject          FieldID = "project"
	FieldRoleSpecificComp FieldID = "role_specific_comp"
	FieldDestination      FieldID = "destination"
	FieldCurrentExpertise FieldID = "current_expertise"
	FieldTargetExpertise  FieldID = "target_expertise"
	FieldComments         FieldID = "comments"
	FieldTargetDate       FieldID = "target_date"
)

// CanonicalField is a logical field and its accepted header spellings, most specific first.
type CanonicalField struct {
	ID      FieldID
	Aliases []string
}

// Registry maps every canonical field to its alias list.
type Registry struct {
	fields map[FieldID]CanonicalField
}

// roster trainer names live under a misspelled "Copmetency" header in the source workbooks.
var defaultFields = []CanonicalField{
	{FieldSkill, []string{"skill"}},
	{FieldCompetency, []string{"competency", "competence"}},
	{FieldRosterTrainerName, []string{"copmetency"}},
	{FieldTrainerName, []string{"trainer_name", "trainername", "trainer", "name"}},
	{FieldExpertiseLevel, []string{"expertise_level", "expertiselevel", "expertise", "level"}},

	{FieldDivision, []string{"division"}},
	{FieldDepartment, []string{"department"}},
	{FieldTrainingName, []string{
		"trainingname_program", "training_name_program", "training_name", "trainingname",
		"program", "training",
	}},
	{FieldTrainingTopics, []string{
		"trainingtopics__material", "training_topics_material", "training_topics", "trainingtopics",
		"topics", "material",
	}},
	{FieldPrerequisites, []string{"perquisites", "prerequisites", "prerequisite"}},
	{FieldSkillCategory, []string{"skill_category_(l1_-_l5)", "skill_category", "skillcategory", "category"}},
	{FieldEmail, []string{"email_id", "emailid", "email", "email_address"}},
	{FieldTrainingDate, []string{"training_dates", "training_date", "date", "dates"}},
	{FieldDuration, []string{"duration_(in_hrs)", "duration_in_hrs", "duration", "duration_in_hours", "hours"}},
	{FieldTime, []string{"time", "training_time"}},
	{FieldTrainingType, []string{"training_type", "trainingtype", "type"}},
	{FieldSeats, []string{"no._of_seats", "no_of_seats", "seats", "number_of_seats", "numberofseats"}},
	{FieldAssessmentDetails, []string{"assessment_details", "assessmentdetails", "assessment", "assessment_detail"}},

	{FieldEmployeeEmpID, []string{"employee_id", "employeeid", "empid", "employee_empid"}},
	{FieldEmployeeName, []string{"employee_name", "employeename", "name"}},
	{FieldProject, []string{"project"}},
	{FieldRoleSpecificComp, []string{
		"role_specific_competency_(mhs)", "role_specific_competency", "role_specific_comp",
	}},
	{FieldDestination, []string{"designation", "destination", "desination"}},
	{FieldCurrentExpertise, []string{"current_expertise_level", "current_expertise"}},
	{FieldTargetExpertise, []string{"target_expertise_level", "target_expertise"}},
	{FieldComments, []string{"comments", "comment"}},
	{FieldTargetDate, []string{"target_date"}},
}

// training sheets try these exact spellings before the flexible trainer lookup.
var directTrainerAliases = []string{"trainer_name", "trainername", "trainer"}

func DefaultRegistry() *Registry {
	r := &Registry{fields: make(map[FieldID]CanonicalField, len(defaultFields))}
	for _, f := range defaultFields {
		aliases := make([]string, len(f.Aliases))
		copy(aliases, f.Aliases)
		r.fields[f.ID] = CanonicalField{ID: f.ID, Aliases: aliases}
	}
	return r
}

func (r *Registry) Field(id FieldID) CanonicalField {
	return r.fields[id]
}

// AliasOverrides extends alias lists. Extra aliases are tried after the built-in ones and
// are normalized like headers, so "Staff No" and "staff_no" are the same alias.
type AliasOverrides struct {
	Fields map[FieldID][]string `yaml:"fields" toml:"fields"`
}

// LoadAliasOverrides reads an alias override file. A .toml extension selects TOML,
// anything else is read as YAML.
func LoadAliasOverrides(path string) (*AliasOverrides, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, gerrors.Wrap(err, "read alias overrides")
	}
	unmarshal := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		unmarshal = toml.Unmarshal
	}
	var o AliasOverrides
	if err := unmarshal(b, &o); err != nil {
		return nil, gerrors.Wrapf(err, "parse alias overrides %s", path)
	}
	return &o, nil
}

// Apply appends override aliases to known fields.
func (r *Registry) Apply(o *AliasOverrides) error {
	if o == nil {
		return nil
	}
	for id, extra := range o.Fields {
		f, ok := r.fields[id]
		if !ok {
			return gerrors.Errorf("unknown field %q in alias overrides", id)
		}
		for _, a := range extra {
			a = NormalizeHeader(a)
			if a == "" {
				continue
			}
			f.Aliases = append(f.Aliases, a)
		}
		r.fields[id] = f
	}
	return nil
}

// Resolve returns the first non-absent cell matching the field's aliases.
// Tiers: exact token in alias order, then case-insensitive, then substring in either
// direction for aliases longer than three characters. A later tier only runs when no
// alias named a column in the earlier ones, so a blank cell under the field's own
// column never borrows a sibling column's value.
func (f CanonicalField) Resolve(row RawRow) domain.Value {
	return resolveAliases(row, f.Aliases)
}

// ResolveExact only applies the first tier.
func (f CanonicalField) ResolveExact(row RawRow) domain.Value {
	return resolveExact(row, f.Aliases)
}

func resolveExact(row RawRow, aliases []string) domain.Value {
	v, _ := firstMatch(aliases, row.Get)
	return v
}

// firstMatch returns the first non-absent cell among the columns lookup finds, and
// whether any alias named a column at all.
func firstMatch(aliases []string, lookup func(string) (domain.Value, bool)) (domain.Value, bool) {
	matched := false
	for _, alias := range aliases {
		v, ok := lookup(alias)
		if !ok {
			continue
		}
		matched = true
		if !v.IsAbsent() {
			return v, true
		}
	}
	return domain.Absent(), matched
}

func resolveAliases(row RawRow, aliases []string) domain.Value {
	if v, matched := firstMatch(aliases, row.Get); matched {
		return v
	}
	if v, matched := firstMatch(aliases, row.getFolded); matched {
		return v
	}
	for _, alias := range aliases {
		name := strings.ToLower(alias)
		for i, key := range row.keys {
			key = strings.ToLower(key)
			if key == "" {
				continue
			}
			if !strings.Contains(key, name) && !strings.Contains(name, key) {
				continue
			}
			if len(name) <= 3 && name != key {
				continue
			}
			if v := row.values[i]; !v.IsAbsent() {
				return v
			}
		}
	}
	return domain.Absent()
}

// firstPresent returns the first non-absent value.
func firstPresent(values ...domain.Value) domain.Value {
	for _, v := range values {
		if !v.IsAbsent() {
			return v
		}
	}
	return domain.Absent()
}
