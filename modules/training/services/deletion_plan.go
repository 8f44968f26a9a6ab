package services

import (
	"github.com/iota-uz/training-sdk/modules/training/domain"
)

// PlanDeletion returns the targets plus every table that transitively references them,
// ordered so that each table comes after all tables referencing it.
func PlanDeletion(targets ...domain.Table) []domain.Table {
	included := map[domain.Table]bool{}
	queue := append([]domain.Table(nil), targets...)
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if included[t] {
			continue
		}
		if _, ok := domain.Spec(t); !ok {
			continue
		}
		included[t] = true
		queue = append(queue, domain.Dependents(t)...)
	}

	order := make([]domain.Table, 0, len(included))
	deleted := map[domain.Table]bool{}
	for len(order) < len(included) {
		progressed := false
		for _, spec := range domain.Schema() {
			t := spec.Name
			if !included[t] || deleted[t] || !dependentsCleared(t, included, deleted) {
				continue
			}
			order = append(order, t)
			deleted[t] = true
			progressed = true
			break
		}
		if !progressed {
			// a reference cycle; fall back to declaration order for the rest
			for _, spec := range domain.Schema() {
				if included[spec.Name] && !deleted[spec.Name] {
					order = append(order, spec.Name)
					deleted[spec.Name] = true
				}
			}
		}
	}
	return order
}

func dependentsCleared(t domain.Table, included, deleted map[domain.Table]bool) bool {
	for _, d := range domain.Dependents(t) {
		if included[d] && !deleted[d] {
			return false
		}
	}
	return true
}
