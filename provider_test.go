package ssl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ssl "github.com/PoeBlu/ssl"
	"github.com/PoeBlu/ssl/autocert"
	"github.com/PoeBlu/ssl/letsencrypt"
)

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	known := func(ssl.Config) (ssl.Provider, error) { return &fakeProvider{}, nil }
	fallback := func(ssl.Config) (ssl.Provider, error) { return bareProvider{}, nil }

	registry := ssl.NewRegistry("default")
	registry.Register("default", fallback)
	registry.Register("known", known)

	t.Run("returns the named factory", func(t *testing.T) {
		t.Parallel()

		factory, ok := registry.Resolve("known")
		require.True(t, ok)

		provider, err := factory(ssl.Config{})
		require.NoError(t, err)
		assert.IsType(t, &fakeProvider{}, provider)
	})

	t.Run("unknown name falls back to the default", func(t *testing.T) {
		t.Parallel()

		factory, ok := registry.Resolve("no-such-provider")
		require.True(t, ok)

		provider, err := factory(ssl.Config{})
		require.NoError(t, err)
		assert.IsType(t, bareProvider{}, provider)
	})

	t.Run("fails only without a default", func(t *testing.T) {
		t.Parallel()

		empty := ssl.NewRegistry("default")
		_, ok := empty.Resolve("anything")
		assert.False(t, ok)
	})
}

func TestRegistryRegisterReplaces(t *testing.T) {
	t.Parallel()

	registry := ssl.NewRegistry("p")
	registry.Register("p", func(ssl.Config) (ssl.Provider, error) { return bareProvider{}, nil })
	registry.Register("p", func(ssl.Config) (ssl.Provider, error) { return &fakeProvider{}, nil })

	factory, ok := registry.Resolve("p")
	require.True(t, ok)

	provider, err := factory(ssl.Config{})
	require.NoError(t, err)
	assert.IsType(t, &fakeProvider{}, provider)
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	cfg := ssl.DefaultConfig()
	cfg.Directory = t.TempDir()
	cfg.Domains = []string{"example.com"}

	tests := []struct {
		name     string
		provider string
		want     any
	}{
		{name: "letsencrypt", provider: ssl.ProviderLetsEncrypt, want: &letsencrypt.Certifier{}},
		{name: "autocert", provider: ssl.ProviderAutocert, want: &autocert.Certifier{}},
		{name: "unknown falls back to letsencrypt", provider: "acme-corp", want: &letsencrypt.Certifier{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			factory, ok := ssl.DefaultRegistry().Resolve(tt.provider)
			require.True(t, ok)

			provider, err := factory(cfg)
			require.NoError(t, err)
			assert.IsType(t, tt.want, provider)

			// Both built-in providers can answer challenges.
			_, ok = provider.(ssl.MiddlewareProvider)
			assert.True(t, ok)
		})
	}
}

func TestStagingEnvironmentSelectsStagingEndpoint(t *testing.T) {
	t.Parallel()

	cfg := ssl.DefaultConfig()
	cfg.Directory = t.TempDir()
	cfg.Domains = []string{"example.com"}
	cfg.Environment = ssl.EnvironmentStaging

	factory, ok := ssl.DefaultRegistry().Resolve(ssl.ProviderLetsEncrypt)
	require.True(t, ok)

	provider, err := factory(cfg)
	require.NoError(t, err)
	require.IsType(t, &letsencrypt.Certifier{}, provider)

	// Construction stays passive either way; the endpoint choice only
	// matters once a cycle runs, which these tests never trigger.
	_ = provider
}

func TestCustomProviderThroughManager(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	registry := ssl.DefaultRegistry()
	registry.Register("custom", func(ssl.Config) (ssl.Provider, error) {
		return provider, nil
	})

	cfg, err := ssl.NewConfig().
		WithDomains([]string{"example.com"}).
		WithCertificateDirectory(t.TempDir(), true).
		WithProvider("custom").
		WithListeningServer(&fakeServer{}).
		Build()
	require.NoError(t, err)

	manager, err := ssl.NewManager(cfg, ssl.WithRegistry(registry))
	require.NoError(t, err)

	state, err := manager.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ssl.StateIssuing, state)
	assert.Same(t, provider, manager.Provider())
}
