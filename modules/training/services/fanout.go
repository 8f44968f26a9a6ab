package services

import (
	"strings"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

// TrainerEmail is one trainer paired with an optional email.
type TrainerEmail struct {
	Trainer string
	Email   *string
}

// pairTrainersWithEmails pairs by position. A lone email is shared by every trainer;
// trainers past the end of a longer list get no email; surplus emails are dropped.
func pairTrainersWithEmails(trainers, emails []string) []TrainerEmail {
	out := make([]TrainerEmail, len(trainers))
	for i, trainer := range trainers {
		out[i].Trainer = trainer
		switch {
		case i < len(emails):
			email := emails[i]
			out[i].Email = &email
		case len(emails) == 1:
			email := emails[0]
			out[i].Email = &email
		}
	}
	return out
}

func splitTrainers(raw string) []string {
	var parts []string
	switch {
	case strings.Contains(raw, ","):
		parts = strings.Split(raw, ",")
	case strings.Contains(raw, "\n"):
		parts = strings.Split(raw, "\n")
	default:
		parts = []string{raw}
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		switch strings.ToLower(p) {
		case "", "nan", "none":
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return []string{domain.NotAssigned}
	}
	return out
}

func splitEmails(raw string) []string {
	var parts []string
	switch {
	case strings.Contains(raw, ","):
		parts = strings.Split(raw, ",")
	case strings.Contains(raw, "\n"):
		parts = strings.Split(raw, "\n")
	default:
		parts = strings.Fields(raw)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if strings.Contains(p, "@") {
			out = append(out, p)
		}
	}
	return out
}

// expandTraining emits one record per trainer; every other field is shared.
func expandTraining(base domain.TrainingRecord, trainers, emails string) []domain.TrainingRecord {
	pairs := pairTrainersWithEmails(splitTrainers(trainers), splitEmails(emails))
	out := make([]domain.TrainingRecord, len(pairs))
	for i, p := range pairs {
		rec := base
		rec.TrainerName = p.Trainer
		rec.Email = p.Email
		out[i] = rec
	}
	return out
}
