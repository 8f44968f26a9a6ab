package services

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

// Outcome is the result of transforming one source row: a value or a rejection.
type Outcome[T any] struct {
	Value     T
	Rejection *domain.Rejection
}

func (o Outcome[T]) Accepted() bool { return o.Rejection == nil }

func accept[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

func reject[T any](sheet string, line int, reason domain.RejectionReason, fields ...string) Outcome[T] {
	return Outcome[T]{Rejection: &domain.Rejection{Sheet: sheet, Line: line, Reason: reason, Fields: fields}}
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("db"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}()

// missingRequired returns the db column names of required fields left empty.
func missingRequired(record any) []string {
	err := validate.Struct(record)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}
