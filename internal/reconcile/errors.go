package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInstallPath is returned when neither an explicit install path nor
	// a store default is available.
	ErrNoInstallPath = errors.New("no install path given and no default install path configured")

	// ErrNoResolvedVersion is returned by Upgrade for records that have not
	// been through Update.
	ErrNoResolvedVersion = errors.New("no resolved version recorded, run update first")

	// ErrEnvironmentNotFound is returned when a flow needs exactly one record
	// and none matches.
	ErrEnvironmentNotFound = errors.New("environment not found")

	// ErrMissingCredential is returned when version resolution needs a
	// registry credential the store does not hold.
	ErrMissingCredential = errors.New("no credential stored for registry")
)

// Flow steps, as reported in StepError.
const (
	StepValidateName   = "validate name"
	StepParseImage     = "parse image"
	StepCredential     = "register credential"
	StepPull           = "pull image"
	StepInstallPath    = "determine install path"
	StepProvision      = "provision"
	StepPersist        = "persist record"
	StepProfile        = "register terminal profile"
	StepResolveVersion = "resolve version"
	StepRun            = "run"
)

// StepError records which environment and flow step failed.
type StepError struct {
	Env  string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	if e.Env == "" {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("environment %q: %s: %v", e.Env, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepErr(env, step string, err error) error {
	return &StepError{Env: env, Step: step, Err: err}
}
