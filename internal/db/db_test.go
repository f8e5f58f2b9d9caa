package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-screener/internal/types"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Backend Developer", "backend-developer"},
		{"Senior Go Engineer (Remote)", "senior-go-engineer-remote"},
		{"  C++ / C# Dev  ", "c-c-dev"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestJobSlug(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "backend-developer-6ba7b810", JobSlug("Backend Developer", id))
	assert.Equal(t, "job-6ba7b810", JobSlug("???", id))
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", unique)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(nil))
}

func TestSchema(t *testing.T) {
	schema := Schema()
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS jobs")
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS applications")
	assert.Contains(t, schema, "UNIQUE (job_id, email)")
}

func TestNonNil(t *testing.T) {
	assert.Equal(t, []string{}, nonNil(nil))
	assert.Equal(t, []string{"go"}, nonNil([]string{"go"}))
}

func TestConnect_EmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), "")
	require.Error(t, err)
}

func TestNullTime(t *testing.T) {
	assert.Nil(t, nullTime(&types.Application{}))
}
