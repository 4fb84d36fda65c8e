package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/javanstorm/dragon/internal/imageref"
)

// ValidationError represents a store document issue.
type ValidationError struct {
	Field   string
	Message string
	Fatal   bool // true = document unusable, false = tolerated
}

// ValidateDocument checks the structural invariants of a store document.
func ValidateDocument(doc *Document) []ValidationError {
	var errors []ValidationError

	seen := make(map[string]bool, len(doc.Environments))
	for i, env := range doc.Environments {
		field := fmt.Sprintf("environments[%d]", i)
		if env.Name == "" {
			errors = append(errors, ValidationError{Field: field + ".name", Message: "name is required", Fatal: true})
		} else if seen[env.Name] {
			errors = append(errors, ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate name %q", env.Name), Fatal: true})
		}
		seen[env.Name] = true

		if ref, err := imageref.Parse(env.Image); err != nil {
			errors = append(errors, ValidationError{Field: field + ".image", Message: err.Error(), Fatal: true})
		} else if ref.Tag == "" {
			errors = append(errors, ValidationError{
				Field:   field + ".image",
				Message: fmt.Sprintf("%q has no tag, %q is assumed", env.Image, imageref.DefaultTag),
			})
		}

		if _, err := uuid.Parse(env.TerminalProfileID); err != nil {
			errors = append(errors, ValidationError{Field: field + ".terminal_profile_id", Message: "not a valid UUID", Fatal: true})
		}

		if env.InstallPath == "" {
			errors = append(errors, ValidationError{Field: field + ".install_path", Message: "install path is required", Fatal: true})
		}
	}

	hosts := make(map[string]bool, len(doc.Registries))
	for i, cred := range doc.Registries {
		field := fmt.Sprintf("registries[%d]", i)
		if cred.Host == "" {
			errors = append(errors, ValidationError{Field: field + ".host", Message: "host is required", Fatal: true})
		} else if hosts[cred.Host] {
			errors = append(errors, ValidationError{Field: field + ".host", Message: fmt.Sprintf("duplicate host %q", cred.Host), Fatal: true})
		}
		hosts[cred.Host] = true

		if cred.Username == "" {
			errors = append(errors, ValidationError{Field: field + ".username", Message: "username is empty"})
		}
	}

	return errors
}

// HasFatal reports whether any error in errs is fatal.
func HasFatal(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Fatal {
			return true
		}
	}
	return false
}

// FormatValidationErrors returns human-readable error summary.
func FormatValidationErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Store problems:\n")
	for _, e := range errors {
		prefix := "Warning"
		if e.Fatal {
			prefix = "Error"
		}
		fmt.Fprintf(&b, "  %s [%s]: %s\n", prefix, e.Field, e.Message)
	}
	return b.String()
}
