package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigCorrupt is returned when the store document exists but fails
	// to parse or validate.
	ErrConfigCorrupt = errors.New("config: environment store is corrupt")

	// ErrDuplicateName is returned when an environment name is already taken.
	ErrDuplicateName = errors.New("config: environment already exists")
)

// Environment is one declared environment.
type Environment struct {
	// Name identifies the environment and prefixes its VM identity.
	Name string `yaml:"name"`

	// Image is the image reference, always stored with an explicit tag.
	Image string `yaml:"image"`

	// ResolvedVersion is the newest tag last seen in the registry.
	ResolvedVersion string `yaml:"resolved_version,omitempty"`

	// TerminalProfileID is allocated at creation and never regenerated.
	TerminalProfileID string `yaml:"terminal_profile_id"`

	// InstallPath is where the environment's VM instances live on disk.
	InstallPath string `yaml:"install_path"`
}

// Credential holds login details for one private registry.
type Credential struct {
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Tenant is only needed for registry version queries.
	Tenant string `yaml:"tenant,omitempty"`
}

// Document is the whole persisted store.
type Document struct {
	// DefaultInstallPath is joined with an environment name when no explicit path is given.
	DefaultInstallPath string `yaml:"default_install_path,omitempty"`

	// Environments are kept in display order; new entries go first.
	Environments []Environment `yaml:"environments"`

	Registries []Credential `yaml:"registries"`
}

// NewDocument returns an empty store document.
func NewDocument() *Document {
	return &Document{
		Environments: []Environment{},
		Registries:   []Credential{},
	}
}

// FindByName returns the environment called name, or nil.
// The pointer aliases the document so callers can mutate in place.
func (d *Document) FindByName(name string) *Environment {
	for i := range d.Environments {
		if d.Environments[i].Name == name {
			return &d.Environments[i]
		}
	}
	return nil
}

// FindCredential returns the credential for host, or nil.
func (d *Document) FindCredential(host string) *Credential {
	for i := range d.Registries {
		if d.Registries[i].Host == host {
			return &d.Registries[i]
		}
	}
	return nil
}

// AddCredential stores c unless a credential for the same host exists.
// It reports whether c was added.
func (d *Document) AddCredential(c Credential) bool {
	if d.FindCredential(c.Host) != nil {
		return false
	}
	d.Registries = append(d.Registries, c)
	return true
}

// AddEnvironment prepends env to the store.
func (d *Document) AddEnvironment(env Environment) error {
	if d.FindByName(env.Name) != nil {
		return fmt.Errorf("%w: %q", ErrDuplicateName, env.Name)
	}
	d.Environments = append([]Environment{env}, d.Environments...)
	return nil
}

// Store reads and writes the environment store document at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the store. A missing or empty file yields an empty document.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDocument(), nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(), nil
	}

	doc := NewDocument()
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigCorrupt, s.path, err)
	}
	if doc.Environments == nil {
		doc.Environments = []Environment{}
	}
	if doc.Registries == nil {
		doc.Registries = []Credential{}
	}

	if errs := ValidateDocument(doc); HasFatal(errs) {
		return nil, fmt.Errorf("%w: %s\n%s", ErrConfigCorrupt, s.path, FormatValidationErrors(errs))
	}

	return doc, nil
}

// Save overwrites the store with doc.
func (s *Store) Save(doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	// Write atomically; the file holds registry passwords.
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace store: %w", err)
	}

	return nil
}
