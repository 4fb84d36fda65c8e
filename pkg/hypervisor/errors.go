package hypervisor

import "errors"

// Configuration errors
var (
	ErrMissingName    = errors.New("hypervisor: instance name is required")
	ErrInvalidName    = errors.New("hypervisor: instance name contains forbidden characters")
	ErrMissingArchive = errors.New("hypervisor: archive path is required")
	ErrMissingInstall = errors.New("hypervisor: install directory is required")
)

// Runtime errors
var (
	ErrImportFailed     = errors.New("hypervisor: import failed")
	ErrInstanceNotFound = errors.New("hypervisor: instance not found")
)

// Platform errors
var (
	ErrUnsupportedPlatform = errors.New("hypervisor: platform not supported")
)
