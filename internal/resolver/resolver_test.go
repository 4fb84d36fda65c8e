package resolver

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanstorm/dragon/internal/hostexec"
)

type azCall struct {
	name string
	args []string
}

// fakeAz answers az login and show-manifests with canned results.
func fakeAz(calls *[]azCall, loginCode int, tagOut string, tagCode int) hostexec.RunFunc {
	return func(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
		*calls = append(*calls, azCall{name: name, args: args})
		if len(args) > 0 && args[0] == "login" {
			if loginCode != 0 {
				return nil, []byte("AADSTS7000215: Invalid client secret provided."), loginCode, nil
			}
			return nil, nil, 0, nil
		}
		return []byte(tagOut), nil, tagCode, nil
	}
}

var spCred = Credential{Username: "sp-id", Password: "sp-secret", Tenant: "contoso"}

func TestACRLatestTag(t *testing.T) {
	var calls []azCall
	acr := NewACR(hostexec.NewRunner(fakeAz(&calls, 0, "\"2024.2\"\r\n", 0)), "/opt/az")

	tag, err := acr.LatestTag(context.Background(), "myacr.azurecr.io", "team/tools", spCred)
	require.NoError(t, err)
	assert.Equal(t, "2024.2", tag)

	require.Len(t, calls, 2)
	assert.Equal(t, "/opt/az", calls[0].name)
	assert.Equal(t, []string{
		"login", "--service-principal",
		"--username", "sp-id", "--password", "sp-secret", "--tenant", "contoso",
		"--output", "none",
	}, calls[0].args)
	assert.Equal(t, []string{
		"acr", "repository", "show-manifests",
		"-n", "myacr", "--repository", "team/tools",
		"--orderby", "time_desc", "--top", "1", "--query", "[0].tags[0]",
	}, calls[1].args)
}

func TestACRAuthenticationFailed(t *testing.T) {
	var calls []azCall
	acr := NewACR(hostexec.NewRunner(fakeAz(&calls, 1, "", 0)), "")

	_, err := acr.LatestTag(context.Background(), "myacr.azurecr.io", "tools", spCred)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
	assert.True(t, errors.Is(err, hostexec.ErrCommandFailed))
	assert.Len(t, calls, 1, "no query after a failed login")
}

func TestACRRequiresTenant(t *testing.T) {
	var calls []azCall
	acr := NewACR(hostexec.NewRunner(fakeAz(&calls, 0, "", 0)), "")

	_, err := acr.LatestTag(context.Background(), "myacr.azurecr.io", "tools", Credential{Username: "u", Password: "p"})
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
	assert.Empty(t, calls)
}

func TestACRTagResolutionFailed(t *testing.T) {
	tests := []struct {
		name string
		out  string
		code int
	}{
		{"empty output", "", 0},
		{"null", "null\n", 0},
		{"unquoted", "2024.2\n", 0},
		{"json list", "[\"a\", \"b\"]", 0},
		{"query exits non-zero", "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []azCall
			acr := NewACR(hostexec.NewRunner(fakeAz(&calls, 0, tt.out, tt.code)), "")

			_, err := acr.LatestTag(context.Background(), "myacr.azurecr.io", "tools", spCred)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTagResolutionFailed), "got %v", err)
		})
	}
}

func TestACRSupports(t *testing.T) {
	acr := NewACR(nil, "")
	assert.True(t, acr.Supports("myacr.azurecr.io"))
	assert.True(t, acr.Supports("MyACR.AzureCR.io"))
	assert.False(t, acr.Supports(".azurecr.io"))
	assert.False(t, acr.Supports("ghcr.io"))
	assert.False(t, acr.Supports(""))
}

func TestRegistryForHost(t *testing.T) {
	reg := NewRegistry(NewACR(nil, ""))

	p, err := reg.ForHost("myacr.azurecr.io")
	require.NoError(t, err)
	assert.Equal(t, "acr", p.Name())

	for _, host := range []string{"", "docker.io", "ghcr.io", "library"} {
		_, err := reg.ForHost(host)
		assert.True(t, errors.Is(err, ErrUnsupportedRegistry), "host %q", host)
		assert.False(t, reg.IsSupported(host))
	}
	assert.Equal(t, []string{"acr"}, reg.List())
}

func TestRegistryReplacesByName(t *testing.T) {
	reg := NewRegistry(NewACR(nil, "az"))
	reg.Register(NewACR(nil, "/other/az"))

	assert.Equal(t, []string{"acr"}, reg.List())
	p, err := reg.ForHost("x.azurecr.io")
	require.NoError(t, err)
	assert.Equal(t, "/other/az", p.(*ACR).azPath)
}

func TestACRChecksAzOnlyWhenResolving(t *testing.T) {
	var lookups []string
	missing := hostexec.NewDependencyChecker(func(file string) (string, error) {
		lookups = append(lookups, file)
		return "", exec.ErrNotFound
	})

	var calls []azCall
	acr := NewACR(hostexec.NewRunner(fakeAz(&calls, 0, "\"1.0\"", 0)), "az").WithDependencyCheck(missing)
	reg := NewRegistry(acr)

	_, err := reg.ForHost("docker.io")
	assert.True(t, errors.Is(err, ErrUnsupportedRegistry))
	assert.Empty(t, lookups, "unsupported hosts never look for az")

	_, err = acr.LatestTag(context.Background(), "myacr.azurecr.io", "team/app", spCred)
	require.Error(t, err)
	assert.True(t, errors.Is(err, hostexec.ErrMissingDependency))
	assert.Equal(t, []string{"az"}, lookups)
	assert.Empty(t, calls)
}

func TestACRDependencyPresent(t *testing.T) {
	found := hostexec.NewDependencyChecker(func(file string) (string, error) {
		return "/usr/bin/" + file, nil
	})

	var calls []azCall
	acr := NewACR(hostexec.NewRunner(fakeAz(&calls, 0, "\"1.4\"\n", 0)), "az").WithDependencyCheck(found)

	tag, err := acr.LatestTag(context.Background(), "myacr.azurecr.io", "team/app", spCred)
	require.NoError(t, err)
	assert.Equal(t, "1.4", tag)
	assert.Len(t, calls, 2)
}
