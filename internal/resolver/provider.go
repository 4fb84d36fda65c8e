// Package resolver finds the newest tag of a repository in a private registry.
package resolver

import (
	"context"
	"errors"
)

var (
	// ErrUnsupportedRegistry is returned when no provider handles a registry host.
	ErrUnsupportedRegistry = errors.New("resolver: unsupported registry")

	// ErrAuthenticationFailed is returned when the provider login step fails.
	ErrAuthenticationFailed = errors.New("resolver: authentication failed")

	// ErrTagResolutionFailed is returned when the newest tag cannot be determined.
	ErrTagResolutionFailed = errors.New("resolver: tag resolution failed")
)

// Credential is what a provider needs to authenticate.
type Credential struct {
	Username string
	Password string
	// Tenant is the identity-provider tenant, required by some providers.
	Tenant string
}

// Provider resolves versions for one family of registries.
type Provider interface {
	// Name identifies the provider (e.g. "acr").
	Name() string

	// Supports reports whether the provider handles registry host.
	Supports(host string) bool

	// LatestTag returns the most recently pushed tag of repository in host.
	LatestTag(ctx context.Context, host, repository string, cred Credential) (string, error)
}
