package domain

// Table names a destination table.
type Table string

const (
	TableUsers                      Table = "users"
	TableManagerEmployee            Table = "manager_employee"
	TableTrainers                   Table = "trainers"
	TableTrainingDetails            Table = "training_details"
	TableEmployeeCompetency         Table = "employee_competency"
	TableTrainingAssignments        Table = "training_assignments"
	TableTrainingAttendance         Table = "training_attendance"
	TableTrainingRequests           Table = "training_requests"
	TableSharedAssignments          Table = "shared_assignments"
	TableSharedFeedback             Table = "shared_feedback"
	TableAssignmentSubmissions      Table = "assignment_submissions"
	TableFeedbackSubmissions        Table = "feedback_submissions"
	TableManagerPerformanceFeedback Table = "manager_performance_feedback"
	TableTrainingQuestionFiles      Table = "training_question_files"
	TableTrainingSolutionFiles      Table = "training_solution_files"
)

// ForeignKey is a single-column reference from one table to another.
type ForeignKey struct {
	Column           string
	References       Table
	ReferencedColumn string
}

// TableSpec describes the parts of a destination table the pipeline touches.
// Columns lists insertable columns in Record.Values order; the surrogate id is never listed.
type TableSpec struct {
	Name        Table
	Columns     []string
	AutoID      bool
	ForeignKeys []ForeignKey
}

// SequenceName is the conventional name of the table's id sequence.
func (s TableSpec) SequenceName() string {
	return string(s.Name) + "_id_seq"
}

func trainingFK() ForeignKey { return ForeignKey{"training_id", TableTrainingDetails, "id"} }

func userFK(column string) ForeignKey { return ForeignKey{column, TableUsers, "username"} }

// schema is declared children-first; PlanDeletion relies on it only for tie-breaking.
var schema = []TableSpec{
	{
		Name:    TableFeedbackSubmissions,
		Columns: []string{"training_id", "shared_feedback_id", "employee_empid"},
		AutoID:  true,
		ForeignKeys: []ForeignKey{
			trainingFK(),
			{"shared_feedback_id", TableSharedFeedback, "id"},
			userFK("employee_empid"),
		},
	},
	{
		Name:    TableAssignmentSubmissions,
		Columns: []string{"training_id", "shared_assignment_id", "employee_empid"},
		AutoID:  true,
		ForeignKeys: []ForeignKey{
			trainingFK(),
			{"shared_assignment_id", TableSharedAssignments, "id"},
			userFK("employee_empid"),
		},
	},
	{
		Name:        TableSharedFeedback,
		Columns:     []string{"training_id", "trainer_username"},
		AutoID:      true,
		ForeignKeys: []ForeignKey{trainingFK(), userFK("trainer_username")},
	},
	{
		Name:        TableSharedAssignments,
		Columns:     []string{"training_id", "trainer_username"},
		AutoID:      true,
		ForeignKeys: []ForeignKey{trainingFK(), userFK("trainer_username")},
	},
	{
		Name:        TableManagerPerformanceFeedback,
		Columns:     []string{"training_id", "employee_empid", "manager_empid"},
		AutoID:      true,
		ForeignKeys: []ForeignKey{trainingFK(), userFK("employee_empid"), userFK("manager_empid")},
	},
	{
		Name:        TableTrainingAttendance,
		Columns:     []string{"training_id", "employee_empid"},
		AutoID:      true,
		ForeignKeys: []ForeignKey{trainingFK(), userFK("employee_empid")},
	},
	{
		Name:        TableTrainingQuestionFiles,
		Columns:     []string{"training_id", "trainer_username"},
		AutoID:      true,
		ForeignKeys: []ForeignKey{trainingFK(), userFK("trainer_username")},
	},
	{
		Name:        TableTrainingSolutionFiles,
		Columns:     []string{"training_id", "employee_empid"},
		AutoID:      true,
		ForeignKeys: []ForeignKey{trainingFK(), userFK("employee_empid")},
	},
	{
		Name:        TableTrainingRequests,
		Columns:     []string{"training_id", "employee_empid", "manager_empid"},
		AutoID:      true,
		ForeignKeys: []ForeignKey{trainingFK(), userFK("employee_empid"), userFK("manager_empid")},
	},
	{
		Name:        TableTrainingAssignments,
		Columns:     []string{"training_id", "employee_empid", "manager_empid"},
		AutoID:      true,
		ForeignKeys: []ForeignKey{trainingFK(), userFK("employee_empid"), userFK("manager_empid")},
	},
	{
		Name: TableTrainingDetails,
		Columns: []string{
			"division", "department", "competency", "skill", "training_name", "training_topics",
			"prerequisites", "skill_category", "trainer_name", "email", "training_date", "duration",
			"time", "training_type", "seats", "assessment_details",
		},
		AutoID: true,
	},
	{
		Name: TableEmployeeCompetency,
		Columns: []string{
			"employee_empid", "employee_name", "department", "division", "project", "role_specific_comp",
			"destination", "competency", "skill", "current_expertise", "target_expertise", "comments",
			"target_date",
		},
		AutoID: true,
	},
	{
		Name:    TableTrainers,
		Columns: []string{"skill", "competency", "trainer_name", "expertise_level"},
		AutoID:  true,
	},
	{
		Name: TableManagerEmployee,
		Columns: []string{
			"manager_empid", "manager_name", "employee_empid", "employee_name",
			"manager_is_trainer", "employee_is_trainer",
		},
		ForeignKeys: []ForeignKey{userFK("manager_empid"), userFK("employee_empid")},
	},
	{
		Name:    TableUsers,
		Columns: []string{"username", "hashed_password", "created_at"},
		AutoID:  true,
	},
}

var schemaIndex = func() map[Table]int {
	m := make(map[Table]int, len(schema))
	for i, s := range schema {
		m[s.Name] = i
	}
	return m
}()

// Schema returns the declared destination tables.
func Schema() []TableSpec {
	out := make([]TableSpec, len(schema))
	copy(out, schema)
	return out
}

// Spec looks up a table declaration.
func Spec(t Table) (TableSpec, bool) {
	i, ok := schemaIndex[t]
	if !ok {
		return TableSpec{}, false
	}
	return schema[i], true
}

// Dependents returns the tables holding a foreign key to t, in declaration order.
func Dependents(t Table) []Table {
	var out []Table
	for _, s := range schema {
		for _, fk := range s.ForeignKeys {
			if fk.References == t && s.Name != t {
				out = append(out, s.Name)
				break
			}
		}
	}
	return out
}
