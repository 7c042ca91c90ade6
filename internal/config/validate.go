package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrInvalidPattern indicates a glob pattern that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrNoControllerPatterns indicates nothing would be indexed
	ErrNoControllerPatterns = errors.New("no controller patterns")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrEmptyTestSuffix indicates a missing test suffix
	ErrEmptyTestSuffix = errors.New("empty test suffix")

	// ErrInvalidCacheSettings indicates invalid cache configuration
	ErrInvalidCacheSettings = errors.New("invalid cache settings")

	// ErrInvalidDebounce indicates a negative debounce interval
	ErrInvalidDebounce = errors.New("invalid debounce")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if err := validateIndex(&cfg.Index); err != nil {
		errs = append(errs, err)
	}

	if cfg.Cache.MaxFiles < 0 || (cfg.Cache.Enabled && cfg.Cache.MaxFiles == 0) {
		errs = append(errs, fmt.Errorf("%w: max_files must be positive when the cache is enabled, got %d", ErrInvalidCacheSettings, cfg.Cache.MaxFiles))
	}

	if cfg.Watch.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce_ms cannot be negative, got %d", ErrInvalidDebounce, cfg.Watch.DebounceMs))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	if len(cfg.Controllers) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one pattern required", ErrNoControllerPatterns))
	}

	for _, pattern := range append(append([]string{}, cfg.Controllers...), cfg.Ignore...) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateIndex(cfg *IndexConfig) error {
	var errs []error

	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	if strings.TrimSpace(cfg.TestSuffix) == "" {
		errs = append(errs, fmt.Errorf("%w: test_suffix is required", ErrEmptyTestSuffix))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
// errors.Is still matches each of them.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return &validationError{msg: fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - ")), errs: errs}
}

type validationError struct {
	msg  string
	errs []error
}

func (e *validationError) Error() string   { return e.msg }
func (e *validationError) Unwrap() []error { return e.errs }
