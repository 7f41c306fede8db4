package services

import (
	"context"
	"fmt"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
	"clinical-note-cleaner/substitution"
)

// DictionaryStore is the read side of a database-backed dictionary
type DictionaryStore interface {
	ListEntries(ctx context.Context) ([]models.DictionaryEntry, error)
}

// PostgresDictionarySource loads the dictionary from a database table,
// retrying transient failures with backoff
type PostgresDictionarySource struct {
	store DictionaryStore
	table string
	retry *errors.RetryConfig
}

// NewPostgresDictionarySource creates a database-backed dictionary source
func NewPostgresDictionarySource(store DictionaryStore, table string, retry *errors.RetryConfig) *PostgresDictionarySource {
	if retry == nil {
		retry = errors.DatabaseRetryConfig()
	}
	return &PostgresDictionarySource{store: store, table: table, retry: retry}
}

// Describe implements DictionarySource
func (s *PostgresDictionarySource) Describe() string {
	return "postgres:" + s.table
}

// Load implements DictionarySource
func (s *PostgresDictionarySource) Load(ctx context.Context) (*substitution.Dictionary, error) {
	entries, err := errors.ExecuteWithResult(ctx, s.retry, func() ([]models.DictionaryEntry, error) {
		entries, err := s.store.ListEntries(ctx)
		if errors.IsAppError(err) {
			return nil, err
		}
		if err != nil {
			return nil, errors.NewDatabaseError(errors.ErrCodeDatabaseQuery,
				fmt.Sprintf("failed to read dictionary table %s", s.table), err)
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return substitution.NewDictionary(entries)
}
