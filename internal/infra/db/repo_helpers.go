package db

import (
	"errors"
	"strings"
	"time"

	"eventbooking/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errDBUnavailable = errors.New("db unavailable")

func newID() string {
	return uuid.NewString()
}

// notFound maps gorm's missing-row error onto the domain sentinel.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
