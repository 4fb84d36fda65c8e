// Package imageref parses container image references of the form
// [registry/]repository[:tag].
package imageref

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultTag is applied by callers when a reference carries no tag.
const DefaultTag = "latest"

// ErrMalformedReference is returned when the repository segment cannot be isolated.
var ErrMalformedReference = errors.New("imageref: malformed image reference")

// Reference is a parsed image reference. Registry and Tag are empty when absent.
type Reference struct {
	Registry   string
	Repository string
	Tag        string
}

// Parse splits ref into registry, repository and tag.
//
// The registry is everything before the last slash, except when the first
// path segment is clearly a host (contains a dot or a port, or is
// "localhost"); then the registry is that host and the remaining segments
// form the repository. The tag is everything after the last colon that
// follows the final slash. No default tag is injected.
func Parse(ref string) (Reference, error) {
	if ref == "" || strings.TrimSpace(ref) != ref || strings.ContainsAny(ref, " \t@") {
		return Reference{}, fmt.Errorf("%w: %q", ErrMalformedReference, ref)
	}

	var r Reference
	rest := ref
	if i := strings.LastIndex(rest, "/"); i >= 0 {
		r.Registry, rest = rest[:i], rest[i+1:]
		if first, tail, ok := strings.Cut(r.Registry, "/"); ok && isHost(first) {
			r.Registry = first
			rest = tail + "/" + rest
		}
		if r.Registry == "" || strings.HasSuffix(r.Registry, "/") || strings.Contains(r.Registry, "//") {
			return Reference{}, fmt.Errorf("%w: %q has an empty registry", ErrMalformedReference, ref)
		}
	}

	// A colon before the last slash belongs to the registry port.
	if i := strings.LastIndex(rest, ":"); i >= 0 && i > strings.LastIndex(rest, "/") {
		rest, r.Tag = rest[:i], rest[i+1:]
		if r.Tag == "" {
			return Reference{}, fmt.Errorf("%w: %q has an empty tag", ErrMalformedReference, ref)
		}
	}

	r.Repository = rest
	if r.Repository == "" || strings.HasPrefix(r.Repository, "/") || strings.HasSuffix(r.Repository, "/") || strings.Contains(r.Repository, "//") {
		return Reference{}, fmt.Errorf("%w: %q has no repository", ErrMalformedReference, ref)
	}
	return r, nil
}

// isHost reports whether a path segment names a registry host.
func isHost(segment string) bool {
	return segment == "localhost" || strings.ContainsAny(segment, ".:")
}

// String reassembles the reference, omitting absent parts.
func (r Reference) String() string {
	var b strings.Builder
	if r.Registry != "" {
		b.WriteString(r.Registry)
		b.WriteByte('/')
	}
	b.WriteString(r.Repository)
	if r.Tag != "" {
		b.WriteByte(':')
		b.WriteString(r.Tag)
	}
	return b.String()
}

// TagOrDefault returns the tag, or DefaultTag when none is set.
func (r Reference) TagOrDefault() string {
	if r.Tag == "" {
		return DefaultTag
	}
	return r.Tag
}

// WithTag returns a copy of r carrying tag.
func (r Reference) WithTag(tag string) Reference {
	r.Tag = tag
	return r
}

// Normalize returns r with an explicit tag.
func (r Reference) Normalize() Reference {
	return r.WithTag(r.TagOrDefault())
}

// Host returns the registry host portion of the reference (the registry up
// to its first slash), or "" when that segment is not a host, as in Docker
// Hub references like "nginx" or "myuser/app".
func (r Reference) Host() string {
	host, _, _ := strings.Cut(r.Registry, "/")
	if !isHost(host) {
		return ""
	}
	return host
}
