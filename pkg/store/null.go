package store

import "context"

// NullStore is a no-op store that never keeps anything.
// Useful for testing or when result storage should be disabled.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() Store {
	return &NullStore{}
}

// Get always returns ErrNotFound.
func (s *NullStore) Get(context.Context, string) (Record, error) {
	return Record{}, ErrNotFound
}

// Put validates rec and discards it.
func (s *NullStore) Put(_ context.Context, rec Record) (bool, error) {
	return false, rec.Validate()
}

// List always returns nothing.
func (s *NullStore) List(context.Context) ([]Record, error) {
	return nil, nil
}

// Delete does nothing.
func (s *NullStore) Delete(context.Context, string) error {
	return nil
}

// Close does nothing.
func (s *NullStore) Close() error {
	return nil
}

// Ensure NullStore implements Store.
var _ Store = (*NullStore)(nil)
