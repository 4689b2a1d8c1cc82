// Package vectordb is the public, typed in-process API for the
// embeddable cosine vector database: a cache of named collections
// backed by a pluggable PersistentStore. Everything below the cache
// (the collection itself, its IVF index, the k-means trainer, the
// filter evaluator, the distance kernel) lives under internal/ and is
// exposed here only through the types and operations a caller needs.
package vectordb

import (
	"github.com/monishSR/vectordb/internal/collection"
	"github.com/monishSR/vectordb/internal/filter"
	"github.com/monishSR/vectordb/internal/vdberrors"
	"github.com/monishSR/vectordb/internal/vector"
)

// Re-exported data-model types. Aliasing rather than wrapping keeps a
// single definition of each type while giving callers of this package
// a stable, internal-package-free import path.
type (
	Collection    = collection.Collection
	MetadataValue = vector.MetadataValue
	VectorEntry   = vector.VectorEntry
	Where         = filter.Where
	FilterValue   = filter.Value
	FilterOperator = filter.Operator
	SearchResult  = collection.SearchResult
	Stats         = collection.Stats
	IndexInfo     = collection.IndexInfo
	GetResult     = collection.GetResult
	IDSelection   = collection.IDSelection
)

// Metadata value constructors.
var (
	StringValue = vector.StringValue
	IntValue    = vector.IntValue
	FloatValue  = vector.FloatValue
	BoolValue   = vector.BoolValue
)

// Filter and id-selection constructors.
var (
	Direct    = filter.DirectValue
	ByOp      = filter.OperatorValue
	AllIDs    = collection.AllIDs
	SelectIDs = collection.SelectIDs
)

// Error taxonomy re-exports. Callers branch on kind with errors.Is
// against the sentinels or errors.As against the structured forms,
// regardless of which internal layer raised the error.
type (
	CollectionNotFoundError      = vdberrors.CollectionNotFoundError
	CollectionAlreadyExistsError = vdberrors.CollectionAlreadyExistsError
	DimensionMismatchError       = vdberrors.DimensionMismatchError
	VectorNotFoundError          = vdberrors.VectorNotFoundError
	InvalidConfigError           = vdberrors.InvalidConfigError
	IOError                      = vdberrors.IOError
	SerializationError           = vdberrors.SerializationError
)

var (
	ErrCollectionNotFound      = vdberrors.ErrCollectionNotFound
	ErrCollectionAlreadyExists = vdberrors.ErrCollectionAlreadyExists
	ErrDimensionMismatch       = vdberrors.ErrDimensionMismatch
	ErrVectorNotFound          = vdberrors.ErrVectorNotFound
	ErrInvalidConfig           = vdberrors.ErrInvalidConfig
	ErrIO                      = vdberrors.ErrIO
	ErrSerialization           = vdberrors.ErrSerialization
)
