package services

import (
	"errors"
	"fmt"

	"github.com/hallelx2/legal-ai-backend/internal/store"
	"github.com/hallelx2/legal-ai-backend/pkg/metrics"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream failure")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")

	ErrNotConnected = fmt.Errorf("%w: user not connected to DocuSign", ErrUnauthorized)
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func upstream(source string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, source, err)
}

// storeErr maps store sentinels onto the service taxonomy.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFoundf("%s", what)
	case errors.Is(err, store.ErrVersionConflict):
		return fmt.Errorf("%w: %s", ErrConflict, err.Error())
	}
	return err
}

func collectMetrics(mc *metrics.MetricsCollector, fn func(*metrics.MetricsCollector)) {
	if mc == nil {
		return
	}
	fn(mc)
}
