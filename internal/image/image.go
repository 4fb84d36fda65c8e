// Package image pulls container images and exports their filesystems.
package image

import (
	"context"
	"errors"
)

var (
	// ErrAuthenticationFailed is returned when a registry rejects the credentials.
	ErrAuthenticationFailed = errors.New("image: registry authentication failed")

	// ErrPullFailed is returned when the daemon reports an error while pulling.
	ErrPullFailed = errors.New("image: pull failed")
)

// Auth holds registry credentials for a single server.
type Auth struct {
	ServerAddress string
	Username      string
	Password      string
}

// Client is the image puller/exporter capability.
type Client interface {
	// Login verifies credentials against the registry.
	Login(ctx context.Context, auth Auth) error

	// Pull fetches ref. auth may be nil for public images.
	Pull(ctx context.Context, ref string, auth *Auth) error

	// Create makes a stopped container from ref and returns its id.
	Create(ctx context.Context, ref string) (string, error)

	// Export writes the container filesystem as a tarball to path.
	Export(ctx context.Context, containerID, path string) error

	// Remove deletes the container. Removing a missing container is not an error.
	Remove(ctx context.Context, containerID string) error
}
