package domain

import (
	"math"
	"strings"
	"time"
)

type Kind uint8

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindTime
)

// Value is a single spreadsheet cell.
type Value struct {
	kind Kind
	str  string
	num  float64
	t    time.Time
}

func Absent() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the cell carries no usable data: unset, NaN, or blank text.
func (v Value) IsAbsent() bool {
	switch v.kind {
	case KindAbsent:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindNumber:
		return math.IsNaN(v.num)
	case KindTime:
		return v.t.IsZero()
	}
	return true
}

func (v Value) Str() string { return v.str }

func (v Value) Num() float64 { return v.num }

func (v Value) Time() time.Time { return v.t }
