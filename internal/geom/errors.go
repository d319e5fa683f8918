package geom

import (
	"fmt"
	"strings"
)

// LoadError reports an unreadable or unsupported vector file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Path, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// MissingCoordinateColumnsError is returned for a CSV without lat/lon columns.
type MissingCoordinateColumnsError struct {
	Path    string
	Columns []string
}

func (e *MissingCoordinateColumnsError) Error() string {
	return fmt.Sprintf("csv %s: no latitude/longitude columns in [%s]", e.Path, strings.Join(e.Columns, ", "))
}
