package dbapi

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
)

// ErrNoDriver is returned when none of the candidate loaders produced a driver.
var ErrNoDriver = errors.New("no database driver available")

// Loader produces a Driver, or an error explaining why it cannot.
type Loader func() (Driver, error)

// DriverNotRegisteredError is returned by SQLDriverLoader when the named
// database/sql driver has not been registered (its package was not imported).
type DriverNotRegisteredError struct {
	Name       string
	Registered []string
}

func (e *DriverNotRegisteredError) Error() string {
	return fmt.Sprintf("database/sql driver %q is not registered (registered: %v)", e.Name, e.Registered)
}

// Load tries each loader in order and returns the first driver obtained.
// When every loader fails the returned error wraps ErrNoDriver and all of the
// individual failures.
func Load(loaders ...Loader) (Driver, error) {
	if len(loaders) == 0 {
		return nil, fmt.Errorf("%w: no candidate loaders", ErrNoDriver)
	}

	errs := make([]error, 0, len(loaders))
	for _, load := range loaders {
		if load == nil {
			continue
		}
		d, err := load()
		if err == nil && d != nil {
			return d, nil
		}
		if err == nil {
			err = errors.New("loader returned no driver")
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrNoDriver, errors.Join(errs...))
}

// SQLDriverLoader returns a Loader that succeeds when a database/sql driver
// with the given name is registered.
func SQLDriverLoader(name string) Loader {
	return func() (Driver, error) {
		registered := sql.Drivers()
		if !slices.Contains(registered, name) {
			return nil, &DriverNotRegisteredError{Name: name, Registered: registered}
		}
		return NewSQLDriver(name), nil
	}
}
