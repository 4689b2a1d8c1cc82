// Package filter evaluates where-clauses ("$ne"/"$in"/"$nin" plus
// direct equality) against a vector entry's metadata map.
package filter

import "github.com/monishSR/vectordb/internal/vector"

// Operator carries the operator-form clauses for a single field.
// Zero or more of the three may be set; when more than one is set
// they combine conjunctively, per spec.
type Operator struct {
	Ne  *vector.MetadataValue
	In  []vector.MetadataValue
	Nin []vector.MetadataValue
}

// HasAny reports whether the operator carries at least one clause.
func (o Operator) HasAny() bool {
	return o.Ne != nil || o.In != nil || o.Nin != nil
}

// Value is either a direct equality value or an Operator. Exactly one
// of Direct/Op is meaningful, selected by IsOperator.
type Value struct {
	IsOperator bool
	Direct     vector.MetadataValue
	Op         Operator
}

// DirectValue builds a plain-equality filter value.
func DirectValue(v vector.MetadataValue) Value { return Value{Direct: v} }

// OperatorValue builds an operator filter value.
func OperatorValue(op Operator) Value { return Value{IsOperator: true, Op: op} }

// Where is a conjunctive set of per-field clauses. An empty Where
// matches everything.
type Where map[string]Value

// Matches evaluates filter against metadata. Evaluation is total: it
// never errors, an absent field simply fails clauses that require its
// presence.
func Matches(metadata map[string]vector.MetadataValue, where Where) bool {
	for field, clause := range where {
		if !matchesField(metadata, field, clause) {
			return false
		}
	}
	return true
}

func matchesField(metadata map[string]vector.MetadataValue, field string, clause Value) bool {
	actual, present := metadata[field]

	if !clause.IsOperator {
		return present && actual.Equal(clause.Direct)
	}

	op := clause.Op

	if op.Ne != nil {
		if !present || actual.Equal(*op.Ne) {
			return false
		}
	}

	if op.In != nil {
		if !present || !containsValue(op.In, actual) {
			return false
		}
	}

	if op.Nin != nil {
		if present && containsValue(op.Nin, actual) {
			return false
		}
	}

	return true
}

func containsValue(set []vector.MetadataValue, v vector.MetadataValue) bool {
	for _, candidate := range set {
		if candidate.Equal(v) {
			return true
		}
	}
	return false
}
