package adapter

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	BaseSQLAdapter
}

func (f *fakeAdapter) Connect(ctx context.Context, cfg Config) error { return nil }

func (f *fakeAdapter) GetTableMetadata(ctx context.Context, table string) (*Metadata, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeAdapter) LoadCSV(ctx context.Context, tableName, filePath string) error {
	return nil
}

func TestRegisterAndGet(t *testing.T) {
	Register("fake", func(l *slog.Logger) Adapter { return &fakeAdapter{} })

	factory, ok := Get("fake")
	require.True(t, ok)
	assert.NotNil(t, factory(nil))
	assert.True(t, IsRegistered("fake"))
	assert.Contains(t, ListAdapters(), "fake")
}

func TestNewAdapter(t *testing.T) {
	Register("fake2", func(l *slog.Logger) Adapter { return &fakeAdapter{} })

	a, err := NewAdapter(Config{Type: "fake2"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestNewAdapterRequiresType(t *testing.T) {
	_, err := NewAdapter(Config{}, nil)
	require.Error(t, err)
}

func TestNewAdapterUnknownType(t *testing.T) {
	_, err := NewAdapter(Config{Type: "nope"}, nil)
	require.Error(t, err)

	var unknown *UnknownAdapterError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "nope", unknown.Type)
	assert.Contains(t, err.Error(), "unknown adapter type")
}
