package model

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/printdesk/printdesk/internal/store"
)

// ErrValidation is wrapped by every schema rejection.
var ErrValidation = errors.New("model: validation failed")

// ValidationError lists the offending fields by their JSON name.
type ValidationError struct {
	Collection store.Collection
	Fields     map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Collection, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Schema implements store.Schema for the print shop collections.
type Schema struct {
	validate *validator.Validate
}

var _ store.Schema = (*Schema)(nil)

// NewSchema builds the schema and registers the custom rules.
func NewSchema() *Schema {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("day", func(fl validator.FieldLevel) bool {
		d := Date(fl.Field().String())
		if d.IsZero() {
			return true
		}
		_, ok := d.Time()
		return ok
	})
	return &Schema{validate: v}
}

type defaulter interface {
	applyDefaults()
}

// Normalize decodes rec into the collection's type, fills defaults, validates
// it and writes the typed fields back over rec. Fields the type does not know
// are kept.
func (s *Schema) Normalize(c store.Collection, rec store.Record) (store.Record, error) {
	in := rec.Clone()
	for _, key := range []string{store.FieldID, store.FieldCreatedAt, store.FieldUpdatedAt} {
		delete(in, key)
	}
	coerceNumbers(in, numericFields[c])
	switch c {
	case store.Orders:
		migrated, err := migrateOrder(in)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrValidation, c, err)
		}
		return normalizeAs[Order](s, c, migrated)
	case store.Clients:
		return normalizeAs[Client](s, c, in)
	case store.Materials:
		return normalizeAs[Material](s, c, in)
	case store.Suppliers:
		return normalizeAs[Supplier](s, c, in)
	case store.Categories:
		return normalizeAs[Category](s, c, in)
	case store.Products:
		return normalizeAs[Product](s, c, in)
	case store.Services:
		return normalizeAs[Service](s, c, in)
	case store.Tasks:
		return normalizeAs[Task](s, c, in)
	case store.Notes:
		return normalizeAs[Note](s, c, in)
	case store.Tags:
		return normalizeAs[Tag](s, c, in)
	case store.Expenses:
		return normalizeAs[Expense](s, c, in)
	case store.Purchases:
		return normalizeAs[Purchase](s, c, in)
	case store.Settings:
		return normalizeAs[Setting](s, c, in)
	}
	return nil, fmt.Errorf("%w: %q", store.ErrUnknownCollection, c)
}

// Validate checks a typed value against its rules.
func (s *Schema) Validate(c store.Collection, v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %s: %v", ErrValidation, c, err)
	}
	out := &ValidationError{Collection: c, Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fieldPath(fe)] = describe(fe)
	}
	return out
}

func normalizeAs[T any, P interface {
	*T
	defaulter
}](s *Schema, c store.Collection, rec store.Record) (store.Record, error) {
	var v T
	if err := rec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrValidation, c, err)
	}
	P(&v).applyDefaults()
	if err := s.Validate(c, &v); err != nil {
		return nil, err
	}
	typed, err := store.Encode(&v)
	if err != nil {
		return nil, err
	}
	out := rec.Clone()
	for k, raw := range typed {
		switch k {
		case store.FieldID, store.FieldCreatedAt, store.FieldUpdatedAt:
			continue
		}
		out[k] = raw
	}
	return out, nil
}

// DecodeAs reads a stored record into T.
func DecodeAs[T any](rec store.Record) (T, error) {
	var v T
	err := rec.Decode(&v)
	return v, err
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "is required when " + fe.Param() + " is empty"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "email":
		return "must be a valid email"
	case "day":
		return "must be a date (YYYY-MM-DD)"
	}
	return "failed " + fe.Tag()
}

// Compile-time check that every record type carries defaults.
var _ = []defaulter{
	(*Order)(nil), (*Client)(nil), (*Material)(nil), (*Supplier)(nil),
	(*Category)(nil), (*Product)(nil), (*Service)(nil), (*Task)(nil),
	(*Note)(nil), (*Tag)(nil), (*Expense)(nil), (*Purchase)(nil), (*Setting)(nil),
}
