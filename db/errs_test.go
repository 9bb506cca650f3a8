package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestAsNotFound(t *testing.T) {
	assert.ErrorIs(t, asNotFound(gorm.ErrRecordNotFound), ErrNotFound)

	other := errors.New("connection refused")
	assert.Equal(t, other, asNotFound(other))
	assert.NoError(t, asNotFound(nil))
}

func TestErrorTaxonomyMatchesWithErrorsAs(t *testing.T) {
	var conflict *ConflictError
	err := fmt.Errorf("lend: %w", conflictf("item already lent or under maintenance"))
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, "item already lent or under maintenance", conflict.Reason)

	var forbidden *ForbiddenError
	err = fmt.Errorf("delete: %w", forbiddenf("cannot delete the last administrator"))
	assert.ErrorAs(t, err, &forbidden)

	var integrity *IntegrityError
	err = fmt.Errorf("return: %w", &IntegrityError{Detail: "status=lent but no open lending log"})
	assert.ErrorAs(t, err, &integrity)
	assert.Contains(t, integrity.Error(), "data integrity violation")

	// 三类互不串
	assert.False(t, errors.As(err, &conflict))
	assert.False(t, errors.As(err, &forbidden))
}

func TestConflictErrorCarriesItemCount(t *testing.T) {
	err := &ConflictError{Reason: "category still has items assigned to it", ItemCount: 3}
	assert.EqualValues(t, 3, err.ItemCount)
	assert.Equal(t, "category still has items assigned to it", err.Error())
}
