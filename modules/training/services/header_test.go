package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		" Trainer Name* ":          "trainer_name",
		"Email/ID":                 "email_id",
		"No. of Seats":             "no._of_seats",
		"Skill Category (L1 - L5)": "skill_category_(l1_-_l5)",
		"Manager,EmpID":            "manager_empid",
		"EMPLOYEE_EMPID":           "employee_empid",
		"":                         "",
		"*\ta":                     "a",
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeHeader(raw), "raw=%q", raw)
	}
}

func TestNormalizeHeader_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Training Name / Program", " Duration (in Hrs) ", "Role Specific Competency (MHS)*",
		"*\ta", "a *", "Trainer,Name", "  ", "Désignation",
	}
	for _, raw := range inputs {
		once := NormalizeHeader(raw)
		assert.Equal(t, once, NormalizeHeader(once), "raw=%q", raw)
	}
}
