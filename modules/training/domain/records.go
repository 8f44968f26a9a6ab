package domain

import "time"

// NotAssigned is the trainer name used when a row names no trainer.
const NotAssigned = "Not Assigned"

// Record is a typed row bound for one destination table.
// Values are aligned with the table's TableSpec.Columns.
type Record interface {
	Table() Table
	Values() []any
}

type TrainerRecord struct {
	Skill          string `db:"skill" validate:"required"`
	Competency     string `db:"competency" validate:"required"`
	TrainerName    string `db:"trainer_name" validate:"required"`
	ExpertiseLevel string `db:"expertise_level" validate:"required"`
}

func (r TrainerRecord) Table() Table { return TableTrainers }

func (r TrainerRecord) Values() []any {
	return []any{r.Skill, r.Competency, r.TrainerName, r.ExpertiseLevel}
}

type TrainingRecord struct {
	Division          *string    `db:"division"`
	Department        *string    `db:"department"`
	Competency        *string    `db:"competency"`
	Skill             *string    `db:"skill"`
	TrainingName      string     `db:"training_name" validate:"required"`
	TrainingTopics    *string    `db:"training_topics"`
	Prerequisites     *string    `db:"prerequisites"`
	SkillCategory     *string    `db:"skill_category"`
	TrainerName       string     `db:"trainer_name" validate:"required"`
	Email             *string    `db:"email"`
	TrainingDate      *time.Time `db:"training_date"`
	Duration          *string    `db:"duration"`
	Time              *string    `db:"time"`
	TrainingType      *string    `db:"training_type"`
	Seats             *string    `db:"seats"`
	AssessmentDetails *string    `db:"assessment_details"`
}

func (r TrainingRecord) Table() Table { return TableTrainingDetails }

func (r TrainingRecord) Values() []any {
	return []any{
		r.Division, r.Department, r.Competency, r.Skill, r.TrainingName, r.TrainingTopics,
		r.Prerequisites, r.SkillCategory, r.TrainerName, r.Email, r.TrainingDate, r.Duration,
		r.Time, r.TrainingType, r.Seats, r.AssessmentDetails,
	}
}

type CompetencyRecord struct {
	EmployeeEmpID    string     `db:"employee_empid" validate:"required"`
	EmployeeName     *string    `db:"employee_name"`
	Department       *string    `db:"department"`
	Division         *string    `db:"division"`
	Project          *string    `db:"project"`
	RoleSpecificComp *string    `db:"role_specific_comp"`
	Destination      *string    `db:"destination"`
	Competency       *string    `db:"competency"`
	Skill            *string    `db:"skill"`
	CurrentExpertise *string    `db:"current_expertise"`
	TargetExpertise  *string    `db:"target_expertise"`
	Comments         *string    `db:"comments"`
	TargetDate       *time.Time `db:"target_date"`
}

func (r CompetencyRecord) Table() Table { return TableEmployeeCompetency }

func (r CompetencyRecord) Values() []any {
	return []any{
		r.EmployeeEmpID, r.EmployeeName, r.Department, r.Division, r.Project, r.RoleSpecificComp,
		r.Destination, r.Competency, r.Skill, r.CurrentExpertise, r.TargetExpertise, r.Comments,
		r.TargetDate,
	}
}

type RelationshipRecord struct {
	ManagerEmpID      string  `db:"manager_empid" validate:"required"`
	ManagerName       *string `db:"manager_name"`
	EmployeeEmpID     string  `db:"employee_empid" validate:"required"`
	EmployeeName      *string `db:"employee_name"`
	ManagerIsTrainer  bool    `db:"manager_is_trainer"`
	EmployeeIsTrainer bool    `db:"employee_is_trainer"`
}

func (r RelationshipRecord) Table() Table { return TableManagerEmployee }

func (r RelationshipRecord) Values() []any {
	return []any{
		r.ManagerEmpID, r.ManagerName, r.EmployeeEmpID, r.EmployeeName,
		r.ManagerIsTrainer, r.EmployeeIsTrainer,
	}
}

// Identity is a user account keyed by employee id.
type Identity struct {
	Username       string    `db:"username" validate:"required"`
	HashedPassword string    `db:"hashed_password" validate:"required"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r Identity) Table() Table { return TableUsers }

func (r Identity) Values() []any {
	return []any{r.Username, r.HashedPassword, r.CreatedAt}
}
