package image

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docker/docker/api/types/container"
	dockerimage "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
)

// DockerClient implements Client on the Docker Engine API.
type DockerClient struct {
	inner *client.Client
}

// NewDockerClient creates a client using environment defaults, optionally
// pointed at host.
func NewDockerClient(host string) (*DockerClient, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	inner, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &DockerClient{inner: inner}, nil
}

// Ping validates connectivity to the Docker daemon.
func (c *DockerClient) Ping(ctx context.Context) error {
	if c == nil || c.inner == nil {
		return fmt.Errorf("docker client not initialized")
	}
	if _, err := c.inner.Ping(ctx); err != nil {
		return fmt.Errorf("docker ping: %w", err)
	}
	return nil
}

// Close releases resources held by the Docker client.
func (c *DockerClient) Close() error {
	if c.inner == nil {
		return nil
	}
	return c.inner.Close()
}

func (c *DockerClient) Login(ctx context.Context, auth Auth) error {
	_, err := c.inner.RegistryLogin(ctx, authConfig(auth))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAuthenticationFailed, auth.ServerAddress, err)
	}
	return nil
}

func (c *DockerClient) Pull(ctx context.Context, ref string, auth *Auth) error {
	opts := dockerimage.PullOptions{}
	if auth != nil {
		encoded, err := encodeAuth(*auth)
		if err != nil {
			return err
		}
		opts.RegistryAuth = encoded
	}

	rc, err := c.inner.ImagePull(ctx, ref, opts)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPullFailed, ref, err)
	}
	defer rc.Close()

	if err := drainPullStream(rc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPullFailed, ref, err)
	}
	return nil
}

func (c *DockerClient) Create(ctx context.Context, ref string) (string, error) {
	// The container is never started; the command only satisfies images without CMD.
	cfg := &container.Config{Image: ref, Cmd: []string{"/bin/sh"}}
	resp, err := c.inner.ContainerCreate(ctx, cfg, nil, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("docker create %s: %w", ref, err)
	}
	return resp.ID, nil
}

func (c *DockerClient) Export(ctx context.Context, containerID, path string) error {
	rc, err := c.inner.ContainerExport(ctx, containerID)
	if err != nil {
		return fmt.Errorf("docker export %s: %w", shortID(containerID), err)
	}
	defer rc.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	return f.Close()
}

func (c *DockerClient) Remove(ctx context.Context, containerID string) error {
	if strings.TrimSpace(containerID) == "" {
		return fmt.Errorf("container id cannot be empty")
	}
	if err := c.inner.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
		if client.IsErrNotFound(err) {
			return nil
		}
		return fmt.Errorf("remove container: %w", err)
	}
	return nil
}

func authConfig(a Auth) registry.AuthConfig {
	return registry.AuthConfig{
		Username:      a.Username,
		Password:      a.Password,
		ServerAddress: a.ServerAddress,
	}
}

func encodeAuth(a Auth) (string, error) {
	encoded, err := registry.EncodeAuthConfig(authConfig(a))
	if err != nil {
		return "", fmt.Errorf("encode registry auth: %w", err)
	}
	return encoded, nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

type pullMessage struct {
	Status      string          `json:"status"`
	ID          string          `json:"id"`
	Error       string          `json:"error"`
	ErrorDetail pullErrorDetail `json:"errorDetail"`
}

type pullErrorDetail struct {
	Message string `json:"message"`
}

func (m pullMessage) errorMessage() string {
	if strings.TrimSpace(m.Error) != "" {
		return strings.TrimSpace(m.Error)
	}
	return strings.TrimSpace(m.ErrorDetail.Message)
}

// drainPullStream consumes the daemon's JSON progress stream, returning the
// first error message it reports.
func drainPullStream(r io.Reader) error {
	decoder := json.NewDecoder(r)
	for {
		var msg pullMessage
		if err := decoder.Decode(&msg); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("decode pull output: %w", err)
		}
		if errMsg := msg.errorMessage(); errMsg != "" {
			return fmt.Errorf("%s", errMsg)
		}
	}
}
