package chain

import (
	"fmt"
	"slices"
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface for a single validation error.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// Validate checks a level before it is committed and returns every problem
// found. A nil datasets slice means the catalog is unknown and dataset
// membership is not checked.
func Validate(index int, l Level, datasets []string) []ValidationError {
	var errs []ValidationError

	if !InRange(index) {
		errs = append(errs, ValidationError{
			Field:   "level",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxLevels, index),
		})
	}

	if l.DatasetID == "" {
		errs = append(errs, ValidationError{Field: "dataset_id", Message: "required field is empty"})
	} else if datasets != nil && !slices.Contains(datasets, l.DatasetID) {
		errs = append(errs, ValidationError{
			Field:   "dataset_id",
			Message: fmt.Sprintf("%q is not an available dataset", l.DatasetID),
		})
	}

	if l.ObjectName == "" {
		errs = append(errs, ValidationError{Field: "object_name", Message: "required field is empty"})
	}

	switch {
	case !l.ObjectType.Valid():
		errs = append(errs, ValidationError{
			Field:   "object_type",
			Message: fmt.Sprintf("must be VIEW or TABLE, got %q", l.ObjectType),
		})
	case index == 1 && l.ObjectType != ObjectView:
		errs = append(errs, ValidationError{Field: "object_type", Message: "level 1 is always VIEW"})
	}

	if l.Query == "" {
		errs = append(errs, ValidationError{Field: "query", Message: "required field is empty"})
	}

	return errs
}
