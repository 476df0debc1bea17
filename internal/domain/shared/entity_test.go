package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseAggregateRoot(t *testing.T) {
	a := NewBaseAggregateRoot()

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)
	assert.Equal(t, time.UTC, a.CreatedAt.Location())
	assert.Equal(t, 1, a.GetVersion())

	a.IncrementVersion()
	assert.Equal(t, 2, a.GetVersion())
}

func TestBaseEntity_Touch(t *testing.T) {
	e := NewBaseEntity()
	created := e.CreatedAt
	e.UpdatedAt = e.UpdatedAt.Add(-time.Hour)
	before := e.UpdatedAt

	e.Touch()
	assert.True(t, e.UpdatedAt.After(before))
	assert.Equal(t, created, e.CreatedAt)
}

func TestDomainError(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapDomainError("UNAVAILABLE", "Magento store unreachable", cause)

	assert.Equal(t, "Magento store unreachable", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, NewDomainError("X", "y").Unwrap())
}
