package resolver

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/javanstorm/dragon/internal/hostexec"
)

// ACRSuffix is the host suffix of Azure Container Registry instances.
const ACRSuffix = ".azurecr.io"

// tagOutput matches the JSON string the az CLI prints for a --query on a single tag.
var tagOutput = regexp.MustCompile(`^"([^"\s]+)"$`)

// ACR resolves tags through the Azure CLI using a service principal.
type ACR struct {
	runner *hostexec.Runner
	azPath string
	deps   *hostexec.DependencyChecker
}

// NewACR creates an ACR provider that shells out to the az executable at azPath.
func NewACR(runner *hostexec.Runner, azPath string) *ACR {
	if azPath == "" {
		azPath = "az"
	}
	return &ACR{runner: runner, azPath: azPath}
}

// WithDependencyCheck makes LatestTag verify that the az executable is
// installed before its first call. A nil checker disables the check.
func (a *ACR) WithDependencyCheck(deps *hostexec.DependencyChecker) *ACR {
	a.deps = deps
	return a
}

func (a *ACR) Name() string { return "acr" }

func (a *ACR) Supports(host string) bool {
	host = strings.ToLower(host)
	return strings.HasSuffix(host, ACRSuffix) && len(host) > len(ACRSuffix)
}

// LatestTag logs in with the service principal and asks for the tag of the
// newest manifest in repository.
func (a *ACR) LatestTag(ctx context.Context, host, repository string, cred Credential) (string, error) {
	if !a.Supports(host) {
		return "", fmt.Errorf("%w: %q is not an Azure Container Registry", ErrUnsupportedRegistry, host)
	}
	if cred.Username == "" || cred.Password == "" || cred.Tenant == "" {
		return "", fmt.Errorf("%w: service principal username, password and tenant are required for %s", ErrAuthenticationFailed, host)
	}

	if a.deps != nil {
		azure := hostexec.Dependency{
			Name:        "Azure CLI",
			Command:     a.azPath,
			Description: "resolves the newest tag in Azure Container Registry",
			Install:     "winget install Microsoft.AzureCLI",
		}
		if err := a.deps.Ensure(azure); err != nil {
			return "", err
		}
	}

	if err := a.runner.Check(ctx, a.azPath,
		"login", "--service-principal",
		"--username", cred.Username,
		"--password", cred.Password,
		"--tenant", cred.Tenant,
		"--output", "none",
	); err != nil {
		return "", fmt.Errorf("%w: az login for %s: %w", ErrAuthenticationFailed, host, err)
	}

	registryName := host[:len(host)-len(ACRSuffix)]
	out, err := a.runner.Output(ctx, a.azPath,
		"acr", "repository", "show-manifests",
		"-n", registryName,
		"--repository", repository,
		"--orderby", "time_desc",
		"--top", "1",
		"--query", "[0].tags[0]",
	)
	if err != nil {
		return "", fmt.Errorf("%w: %s/%s: %w", ErrTagResolutionFailed, host, repository, err)
	}

	return parseTagOutput(out)
}

// parseTagOutput extracts the tag from az output such as "\"1.2.3\"\r\n".
func parseTagOutput(out []byte) (string, error) {
	trimmed := strings.TrimSpace(string(out))
	m := tagOutput.FindStringSubmatch(trimmed)
	if m == nil {
		if trimmed == "" || trimmed == "null" {
			return "", fmt.Errorf("%w: repository has no tagged manifests", ErrTagResolutionFailed)
		}
		return "", fmt.Errorf("%w: unexpected az output %q", ErrTagResolutionFailed, trimmed)
	}
	return m[1], nil
}
