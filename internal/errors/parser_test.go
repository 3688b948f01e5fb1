package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		wantCode string
	}{
		{
			name:     "nil error",
			err:      nil,
			wantCode: InternalServerError,
		},
		{
			name:     "record not found",
			err:      gorm.ErrRecordNotFound,
			context:  "product line",
			wantCode: ResourceNotFound,
		},
		{
			name:     "duplicate slug",
			err:      errors.New(`duplicate key value violates unique constraint "idx_product_lines_slug" (SQLSTATE 23505)`),
			wantCode: ResourceAlreadyExists,
		},
		{
			name:     "still referenced",
			err:      errors.New(`update or delete on table "options" violates foreign key constraint, still referenced (SQLSTATE 23503)`),
			wantCode: ResourceConflict,
		},
		{
			name:     "missing required column",
			err:      errors.New(`null value in column "slug" violates not-null constraint (SQLSTATE 23502)`),
			wantCode: ValidationRequired,
		},
		{
			name:     "driver failure",
			err:      errors.New(`failed to connect to host: server error (SQLSTATE 57P01)`),
			wantCode: InternalDatabaseError,
		},
		{
			name:     "closed pool",
			err:      fmt.Errorf("query failed: %w", errors.New("sql: database is closed")),
			wantCode: InternalDatabaseError,
		},
		{
			name:     "unreachable remote",
			err:      errors.New("dial tcp 10.0.0.1:8055: connection refused"),
			wantCode: InternalExternalAPI,
		},
		{
			name:     "unclassified",
			err:      errors.New("something odd"),
			wantCode: InternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestParseError_NotFoundMessages(t *testing.T) {
	assert.Equal(t, "Product line not found", ParseError(gorm.ErrRecordNotFound, "product line").Message)
	assert.Equal(t, "Configurator session not found", ParseError(gorm.ErrRecordNotFound, "session").Message)
	assert.Equal(t, "The requested record was not found", ParseError(gorm.ErrRecordNotFound, "other").Message)
}
