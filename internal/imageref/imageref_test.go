package imageref

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Reference
	}{
		{"nginx", Reference{Repository: "nginx"}},
		{"nginx:1.25", Reference{Repository: "nginx", Tag: "1.25"}},
		{"reg/repo", Reference{Registry: "reg", Repository: "repo"}},
		{"reg/repo:tag", Reference{Registry: "reg", Repository: "repo", Tag: "tag"}},
		{"reg.sub/repo:tag", Reference{Registry: "reg.sub", Repository: "repo", Tag: "tag"}},
		{"myacr.azurecr.io/team/app:2024.1", Reference{Registry: "myacr.azurecr.io", Repository: "team/app", Tag: "2024.1"}},
		{"localhost:5000/app", Reference{Registry: "localhost:5000", Repository: "app"}},
		{"localhost:5000/app:dev", Reference{Registry: "localhost:5000", Repository: "app", Tag: "dev"}},
		{"org/team/app:v1", Reference{Registry: "org/team", Repository: "app", Tag: "v1"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		":tag",
		"repo:",
		"/repo",
		"reg/",
		"reg//repo",
		"reg.io//repo",
		" nginx",
		"nginx@sha256:abcd",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedReference), "got %v", err)
		})
	}
}

func TestReassembleIsStable(t *testing.T) {
	for _, in := range []string{
		"repo",
		"repo:tag",
		"reg/repo",
		"reg/repo:tag",
		"reg.sub/repo:tag",
		"reg.sub/a/b:c",
		"localhost:5000/repo",
	} {
		t.Run(in, func(t *testing.T) {
			first, err := Parse(in)
			require.NoError(t, err)
			assert.Equal(t, in, first.String())

			second, err := Parse(first.String())
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestNormalize(t *testing.T) {
	ref, err := Parse("nginx")
	require.NoError(t, err)
	assert.Empty(t, ref.Tag, "parser must not inject a default tag")
	assert.Equal(t, "nginx:latest", ref.Normalize().String())

	ref, err = Parse("nginx:1.25")
	require.NoError(t, err)
	assert.Equal(t, "nginx:1.25", ref.Normalize().String())
	assert.Equal(t, "nginx:1.26", ref.WithTag("1.26").String())
}

func TestHost(t *testing.T) {
	ref, err := Parse("myacr.azurecr.io/team/app:1")
	require.NoError(t, err)
	assert.Equal(t, "myacr.azurecr.io", ref.Host())

	ref, err = Parse("localhost:5000/app")
	require.NoError(t, err)
	assert.Equal(t, "localhost:5000", ref.Host())

	for _, s := range []string{"nginx", "myuser/private:1.0", "library/nginx", "org/team/app"} {
		ref, err = Parse(s)
		require.NoError(t, err)
		assert.Equal(t, "", ref.Host(), "%q has no registry host", s)
	}
}
