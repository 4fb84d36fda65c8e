package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileID = "6f1c1f7e-3c1a-4b55-9a53-0d6f1b0c2a11"

func sampleDocument() *Document {
	return &Document{
		DefaultInstallPath: "/srv/wsl",
		Environments: []Environment{
			{
				Name:              "web",
				Image:             "nginx:1.25",
				TerminalProfileID: profileID,
				InstallPath:       "/srv/wsl/web",
			},
			{
				Name:              "tools",
				Image:             "myacr.azurecr.io/team/tools:2024.1",
				ResolvedVersion:   "2024.2",
				TerminalProfileID: "0b0e4f6d-8a36-4b3c-9a1e-1f4f3b2c6d7e",
				InstallPath:       "/srv/wsl/tools",
			},
		},
		Registries: []Credential{
			{Host: "myacr.azurecr.io", Username: "sp", Password: "secret", Tenant: "contoso"},
		},
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.yaml"))

	doc, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Environments)
	assert.Empty(t, doc.Registries)
	assert.Empty(t, doc.DefaultInstallPath)
}

func TestLoadEmptyFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "environments.yaml")
	require.NoError(t, os.WriteFile(path, []byte("\n  \n"), 0644))

	doc, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, NewDocument(), doc)
}

func TestSaveLoadIsFixedPoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "environments.yaml")
	store := NewStore(path)

	want := sampleDocument()
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// A second cycle must not drift.
	require.NoError(t, store.Save(got))
	again, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, got, again)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestSaveEmptyDocumentRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "environments.yaml"))
	require.NoError(t, store.Save(NewDocument()))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, NewDocument(), got)
}

func TestSaveRestrictsPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), "environments.yaml")
	require.NoError(t, NewStore(path).Save(sampleDocument()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "environments: [unclosed"},
		{"wrong shape", "environments: 42\n"},
		{"duplicate names", `environments:
  - {name: web, image: "nginx:1", terminal_profile_id: ` + profileID + `, install_path: /a}
  - {name: web, image: "nginx:2", terminal_profile_id: ` + profileID + `, install_path: /b}
`},
		{"bad profile id", `environments:
  - {name: web, image: "nginx:1", terminal_profile_id: nope, install_path: /a}
`},
		{"bad image", `environments:
  - {name: web, image: "nginx:", terminal_profile_id: ` + profileID + `, install_path: /a}
`},
		{"duplicate registry", `registries:
  - {host: a.azurecr.io, username: u, password: p}
  - {host: a.azurecr.io, username: v, password: q}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "environments.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := NewStore(path).Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfigCorrupt), "got %v", err)
		})
	}
}

func TestLoadToleratesUntaggedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "environments.yaml")
	content := `environments:
  - name: web
    image: nginx
    terminal_profile_id: ` + profileID + `
    install_path: /a
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	doc, err := NewStore(path).Load()
	require.NoError(t, err)
	require.Len(t, doc.Environments, 1)

	errs := ValidateDocument(doc)
	require.Len(t, errs, 1)
	assert.False(t, errs[0].Fatal)
	assert.Contains(t, FormatValidationErrors(errs), "Warning [environments[0].image]")
}

func TestAddEnvironmentPrependsAndRejectsDuplicates(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.AddEnvironment(Environment{Name: "first"}))
	require.NoError(t, doc.AddEnvironment(Environment{Name: "second"}))

	assert.Equal(t, "second", doc.Environments[0].Name)
	assert.Equal(t, "first", doc.Environments[1].Name)

	err := doc.AddEnvironment(Environment{Name: "first", Image: "other:1"})
	assert.True(t, errors.Is(err, ErrDuplicateName))
	assert.Len(t, doc.Environments, 2)
}

func TestFindByNameAliasesDocument(t *testing.T) {
	doc := sampleDocument()
	env := doc.FindByName("tools")
	require.NotNil(t, env)

	env.ResolvedVersion = "2024.3"
	assert.Equal(t, "2024.3", doc.Environments[1].ResolvedVersion)
	assert.Nil(t, doc.FindByName("Tools"), "lookup is exact")
}

func TestAddCredentialIsIdempotent(t *testing.T) {
	doc := sampleDocument()

	added := doc.AddCredential(Credential{Host: "myacr.azurecr.io", Username: "other", Password: "changed"})
	assert.False(t, added)
	assert.Equal(t, "sp", doc.FindCredential("myacr.azurecr.io").Username)

	added = doc.AddCredential(Credential{Host: "ghcr.io", Username: "me", Password: "tok"})
	assert.True(t, added)
	assert.Len(t, doc.Registries, 2)
	assert.Nil(t, doc.FindCredential("docker.io"))
}

func TestLoadSettingsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))

	s, err := Load(viper.New())
	require.NoError(t, err)

	defaults := DefaultSettings()
	assert.Equal(t, defaults.ConfigPath, s.ConfigPath)
	assert.Equal(t, "az", s.AzPath)
	assert.Equal(t, "wsl.exe", s.WSLPath)
	assert.NotEmpty(t, s.TempDir)
}

func TestLoadSettingsEnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	t.Setenv("DRAGON_CONFIG", "/tmp/custom.yaml")
	t.Setenv("DRAGON_AZ_PATH", "/opt/az")

	s, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.yaml", s.ConfigPath)
	assert.Equal(t, "/opt/az", s.AzPath)
}

func TestLoadSettingsFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("config dir is derived from APPDATA on windows")
	}
	home := t.TempDir()
	xdg := filepath.Join(home, "xdg")
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir := filepath.Join(xdg, "dragon")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte("wsl_path: /usr/bin/wsl\n"), 0644))

	s, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/wsl", s.WSLPath)
	assert.Equal(t, filepath.Join(dir, "environments.yaml"), s.ConfigPath)
}
