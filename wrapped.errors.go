package wrapped

import (
	"errors"
	"strconv"

	"github.com/itsatony/go-cuserr"
)

// NewUnterminatedWrapperError creates the strict-policy error for a
// wrapper whose prefix at pos was never closed
func NewUnterminatedWrapperError(kind WrapperKind, pos Position) error {
	return cuserr.NewValidationError(ErrCodeScan, ErrMsgUnterminatedWrapper).
		WithMetadata(MetaKeyCondition, ConditionUnterminatedWrapper).
		WithMetadata(MetaKeyWrapper, string(kind)).
		WithMetadata(MetaKeyOffset, strconv.Itoa(pos.Offset)).
		WithMetadata(MetaKeyLine, strconv.Itoa(pos.Line)).
		WithMetadata(MetaKeyColumn, strconv.Itoa(pos.Column))
}

// IsUnterminatedWrapper reports whether err is an unterminated wrapper error
func IsUnterminatedWrapper(err error) bool {
	_, _, ok := UnterminatedWrapperDetails(err)
	return ok
}

// UnterminatedWrapperDetails extracts the open wrapper kind and the byte
// offset of its prefix from an unterminated wrapper error
func UnterminatedWrapperDetails(err error) (WrapperKind, int, bool) {
	var customErr *cuserr.CustomError
	if !errors.As(err, &customErr) {
		return "", 0, false
	}

	condition, ok := customErr.GetMetadata(MetaKeyCondition)
	if !ok || condition != ConditionUnterminatedWrapper {
		return "", 0, false
	}

	kind, _ := customErr.GetMetadata(MetaKeyWrapper)
	rawOffset, _ := customErr.GetMetadata(MetaKeyOffset)
	offset, convErr := strconv.Atoi(rawOffset)
	if convErr != nil {
		return "", 0, false
	}
	return WrapperKind(kind), offset, true
}

// NewCatalogError creates a configuration error for an invalid catalog
func NewCatalogError(msg string, kind WrapperKind) error {
	return cuserr.NewValidationError(ErrCodeConfig, msg).
		WithMetadata(MetaKeyWrapper, string(kind))
}

// NewInvalidPolicyError creates a configuration error for an unknown policy
func NewInvalidPolicyError(policy Policy) error {
	return cuserr.NewValidationError(ErrCodeConfig, ErrMsgInvalidPolicy).
		WithMetadata(MetaKeyPolicy, string(policy))
}

// NewTemplateNotFoundError creates a not-found error for a stored template
func NewTemplateNotFoundError(name string) error {
	return cuserr.NewNotFoundError(MetaKeyTemplate, ErrMsgTemplateNotFound).
		WithMetadata(MetaKeyTemplateName, name)
}

// IsTemplateNotFound reports whether err means a stored template is missing
func IsTemplateNotFound(err error) bool {
	var customErr *cuserr.CustomError
	if errors.As(err, &customErr) {
		_, ok := customErr.GetMetadata(MetaKeyTemplateName)
		return ok
	}
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return storageErr.Message == ErrMsgVersionNotFound
	}
	return false
}

// NewNoStorageError creates an error for storage calls on an engine without storage
func NewNoStorageError() error {
	return cuserr.NewValidationError(ErrCodeStorage, ErrMsgNoStorage)
}

// StorageError represents a storage-related error.
type StorageError struct {
	Message string
	Name    string
	Version int
	Cause   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	msg := e.Message
	if e.Name != "" && e.Version > 0 {
		msg += ": " + e.Name + " v" + strconv.Itoa(e.Version)
	} else if e.Name != "" {
		msg += ": " + e.Name
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageDriverNotFoundError creates an error for missing storage driver.
func NewStorageDriverNotFoundError(name string) error {
	return &StorageError{
		Message: ErrMsgStorageDriverNotFound,
		Name:    name,
	}
}

// NewStorageVersionNotFoundError creates an error for version not found.
func NewStorageVersionNotFoundError(name string, version int) error {
	return &StorageError{
		Message: ErrMsgVersionNotFound,
		Name:    name,
		Version: version,
	}
}

// NewStorageClosedError creates an error for operations on closed storage.
func NewStorageClosedError() error {
	return &StorageError{
		Message: ErrMsgStorageClosed,
	}
}

// newStorageQueryError wraps a driver error
func newStorageQueryError(msg, name string, cause error) error {
	return &StorageError{
		Message: msg,
		Name:    name,
		Cause:   cause,
	}
}
