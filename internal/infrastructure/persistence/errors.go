package persistence

import (
	"errors"

	"gorm.io/gorm"
)

// translateNotFound maps gorm.ErrRecordNotFound to the domain sentinel of the
// queried entity and returns any other error untouched
func translateNotFound(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// idsOf collects primary keys for the "delete children not in" pattern
func idsOf[T any](items []T, id func(T) any) []any {
	ids := make([]any, 0, len(items))
	for _, item := range items {
		ids = append(ids, id(item))
	}
	return ids
}
