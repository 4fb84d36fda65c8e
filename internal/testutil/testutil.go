// Package testutil provides test doubles for the capabilities dragon
// orchestrates: the image client, the VM runtime, the terminal profile
// registrar and registry version providers.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/javanstorm/dragon/internal/config"
	"github.com/javanstorm/dragon/internal/image"
	"github.com/javanstorm/dragon/internal/resolver"
	"github.com/javanstorm/dragon/pkg/hypervisor"
)

// CallLog records calls across fakes in the order they happen.
type CallLog struct {
	mu    sync.Mutex
	calls []string
}

// Record appends a formatted call.
func (l *CallLog) Record(format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

// Calls returns a copy of the recorded calls.
func (l *CallLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.calls)
}

// Index returns the position of the first call equal to call, or -1.
func (l *CallLog) Index(call string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Index(l.calls, call)
}

// FakeImages implements image.Client.
type FakeImages struct {
	Log *CallLog

	LoginErr  error
	PullErr   error
	CreateErr error
	ExportErr error

	// ExportContent is written to the archive path by Export.
	ExportContent []byte

	Logins  []image.Auth
	Pulled  []string
	Removed []string

	// ExportedTo holds every archive path written.
	ExportedTo []string

	created int
}

func (f *FakeImages) Login(ctx context.Context, auth image.Auth) error {
	f.Log.Record("login %s", auth.ServerAddress)
	if f.LoginErr != nil {
		return f.LoginErr
	}
	f.Logins = append(f.Logins, auth)
	return nil
}

func (f *FakeImages) Pull(ctx context.Context, ref string, auth *image.Auth) error {
	f.Log.Record("pull %s", ref)
	if f.PullErr != nil {
		return f.PullErr
	}
	f.Pulled = append(f.Pulled, ref)
	return nil
}

func (f *FakeImages) Create(ctx context.Context, ref string) (string, error) {
	f.Log.Record("create %s", ref)
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	f.created++
	return fmt.Sprintf("container-%d", f.created), nil
}

func (f *FakeImages) Export(ctx context.Context, containerID, path string) error {
	f.Log.Record("export %s", containerID)
	if f.ExportErr != nil {
		return f.ExportErr
	}
	content := f.ExportContent
	if content == nil {
		content = []byte("rootfs")
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return err
	}
	f.ExportedTo = append(f.ExportedTo, path)
	return nil
}

func (f *FakeImages) Remove(ctx context.Context, containerID string) error {
	f.Log.Record("remove %s", containerID)
	f.Removed = append(f.Removed, containerID)
	return nil
}

// FakeDriver implements hypervisor.Driver over an in-memory instance list.
type FakeDriver struct {
	Log *CallLog

	Instances []string

	ListErr       error
	ImportErr     error
	UnregisterErr error

	Imported []hypervisor.ImportSpec
	Ran      []string

	// ArchiveSeen reports whether each import's archive existed at import time.
	ArchiveSeen []bool
}

func (f *FakeDriver) Info() hypervisor.Info { return hypervisor.Info{Name: "fake"} }

func (f *FakeDriver) List(ctx context.Context) ([]string, error) {
	f.Log.Record("list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return slices.Clone(f.Instances), nil
}

func (f *FakeDriver) Import(ctx context.Context, spec hypervisor.ImportSpec) error {
	f.Log.Record("import %s", spec.Name)
	_, statErr := os.Stat(spec.Archive)
	f.ArchiveSeen = append(f.ArchiveSeen, statErr == nil)
	if f.ImportErr != nil {
		return f.ImportErr
	}
	f.Imported = append(f.Imported, spec)
	f.Instances = append(f.Instances, spec.Name)
	return nil
}

func (f *FakeDriver) Unregister(ctx context.Context, name string) error {
	f.Log.Record("unregister %s", name)
	if f.UnregisterErr != nil {
		return f.UnregisterErr
	}
	f.Instances = slices.DeleteFunc(f.Instances, func(n string) bool { return n == name })
	return nil
}

func (f *FakeDriver) Run(ctx context.Context, name string) error {
	f.Log.Record("run %s", name)
	if !hypervisor.Contains(f.Instances, name) {
		return fmt.Errorf("%w: %s", hypervisor.ErrInstanceNotFound, name)
	}
	f.Ran = append(f.Ran, name)
	return nil
}

// Profile is a launcher entry captured by FakeProfiles.
type Profile struct {
	ID          string
	Name        string
	CommandLine string
}

// FakeProfiles records terminal profile upserts with insert-if-absent semantics.
type FakeProfiles struct {
	Log *CallLog
	Err error

	Profiles []Profile
	Calls    int
}

func (f *FakeProfiles) EnsureProfile(id, name, commandLine string) error {
	f.Log.Record("profile %s", name)
	f.Calls++
	if f.Err != nil {
		return f.Err
	}
	for _, p := range f.Profiles {
		if p.ID == id {
			return nil
		}
	}
	f.Profiles = append(f.Profiles, Profile{ID: id, Name: name, CommandLine: commandLine})
	return nil
}

// FakeProvider implements resolver.Provider for one host suffix.
type FakeProvider struct {
	Log    *CallLog
	Suffix string
	Tag    string
	Err    error

	Creds []resolver.Credential
}

func (f *FakeProvider) Name() string { return "fake" }

func (f *FakeProvider) Supports(host string) bool {
	return host != "" && len(host) >= len(f.Suffix) && host[len(host)-len(f.Suffix):] == f.Suffix
}

func (f *FakeProvider) LatestTag(ctx context.Context, host, repository string, cred resolver.Credential) (string, error) {
	f.Log.Record("resolve %s/%s", host, repository)
	f.Creds = append(f.Creds, cred)
	if f.Err != nil {
		return "", f.Err
	}
	return f.Tag, nil
}

// NewStore returns a config.Store backed by a file in a test temp dir.
func NewStore(t *testing.T) *config.Store {
	t.Helper()
	return config.NewStore(filepath.Join(t.TempDir(), "environments.yaml"))
}

// SeedStore writes doc to a new temporary store.
func SeedStore(t *testing.T, doc *config.Document) *config.Store {
	t.Helper()
	store := NewStore(t)
	if err := store.Save(doc); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return store
}

// LoadStore reads store or fails the test.
func LoadStore(t *testing.T, store *config.Store) *config.Document {
	t.Helper()
	doc, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	return doc
}
