package services

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidInput is returned for empty or whitespace-only comment text.
	ErrInvalidInput = errors.New("text is required")
	// ErrStoreUnavailable wraps read and write failures of the record store.
	ErrStoreUnavailable = errors.New("comment store unavailable")
	// ErrMalformedData marks persisted or fetched data that does not parse.
	ErrMalformedData = errors.New("malformed comment data")
	// ErrParentNotFound is returned when a reply names a parent the store does not hold.
	ErrParentNotFound = errors.New("parent comment not found")
)

// NormalizeText trims the text and rejects it when nothing is left.
func NormalizeText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrInvalidInput
	}
	return trimmed, nil
}
