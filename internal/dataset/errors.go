package dataset

import "fmt"

// The loader's error taxonomy. All failures surface to the caller
// unhandled; a failed access returns no partial frame list.

// ConfigError reports an invalid construction-time setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// FileAccessError reports a missing or unreadable image or table file.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// DataConsistencyError reports disagreement between the raw and label
// sequences, or a malformed track table.
type DataConsistencyError struct {
	Reason string
}

func (e *DataConsistencyError) Error() string {
	return "data consistency: " + e.Reason
}

// AugmentationError reports a transform pipeline rejecting its inputs.
type AugmentationError struct {
	Err error
}

func (e *AugmentationError) Error() string {
	return "augmentation: " + e.Err.Error()
}

func (e *AugmentationError) Unwrap() error { return e.Err }
