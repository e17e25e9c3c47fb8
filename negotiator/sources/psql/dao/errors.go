package dao

import "fmt"

// StorageError marks persistence failures that violate a storage
// constraint, such as writing a message against an unknown negotiation
// or reusing a message id. Callers surface it as a server-side failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
