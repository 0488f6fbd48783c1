package ssl_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ssl "github.com/PoeBlu/ssl"
	"github.com/PoeBlu/ssl/challenge"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := ssl.NewConfig().Build()
	require.NoError(t, err)

	assert.Equal(t, ssl.EnvironmentProduction, cfg.Environment)
	assert.Equal(t, ssl.DefaultDirectory, cfg.Directory)
	assert.True(t, cfg.CreateDirectory)
	assert.Equal(t, ssl.ProviderLetsEncrypt, cfg.ProviderName)
	assert.NotNil(t, cfg.Domains)
	assert.Empty(t, cfg.Domains)
	assert.True(t, cfg.AutoRenew)
	assert.Equal(t, 2048, cfg.KeyLength)
	assert.Nil(t, cfg.Server)
	assert.Nil(t, cfg.OnRestart)
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("accepts known environments", func(t *testing.T) {
		t.Parallel()

		cfg, err := ssl.NewConfig().WithEnvironment(ssl.EnvironmentStaging).Build()
		require.NoError(t, err)
		assert.Equal(t, ssl.EnvironmentStaging, cfg.Environment)
	})

	t.Run("rejects unknown environment", func(t *testing.T) {
		t.Parallel()

		_, err := ssl.NewConfig().WithEnvironment("sandbox").Build()
		assert.ErrorIs(t, err, ssl.ErrInvalidArgument)
	})
}

func TestWithDomains(t *testing.T) {
	t.Parallel()

	t.Run("replaces the list", func(t *testing.T) {
		t.Parallel()

		cfg, err := ssl.NewConfig().
			WithDomains([]string{"a.example.com"}).
			WithDomains([]string{"b.example.com", "c.example.com"}).
			Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"b.example.com", "c.example.com"}, cfg.Domains)
	})

	t.Run("empty list is valid", func(t *testing.T) {
		t.Parallel()

		cfg, err := ssl.NewConfig().WithDomains([]string{}).Build()
		require.NoError(t, err)
		assert.NotNil(t, cfg.Domains)
		assert.Empty(t, cfg.Domains)
	})

	t.Run("rejects nil", func(t *testing.T) {
		t.Parallel()

		_, err := ssl.NewConfig().WithDomains(nil).Build()
		assert.ErrorIs(t, err, ssl.ErrInvalidArgument)
	})

	t.Run("rejects blank entries", func(t *testing.T) {
		t.Parallel()

		_, err := ssl.NewConfig().WithDomains([]string{"example.com", "  "}).Build()
		assert.ErrorIs(t, err, ssl.ErrInvalidArgument)
	})

	t.Run("caller mutations do not leak in", func(t *testing.T) {
		t.Parallel()

		domains := []string{"example.com"}
		builder := ssl.NewConfig().WithDomains(domains)
		domains[0] = "hijacked.example.com"

		cfg, err := builder.Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"example.com"}, cfg.Domains)
	})
}

func TestWithCertificateDirectory(t *testing.T) {
	t.Parallel()

	t.Run("sets directory and create flag", func(t *testing.T) {
		t.Parallel()

		cfg, err := ssl.NewConfig().WithCertificateDirectory("/etc/certs", false).Build()
		require.NoError(t, err)
		assert.Equal(t, "/etc/certs", cfg.Directory)
		assert.False(t, cfg.CreateDirectory)
	})

	t.Run("rejects empty directory", func(t *testing.T) {
		t.Parallel()

		_, err := ssl.NewConfig().WithCertificateDirectory("   ", true).Build()
		assert.ErrorIs(t, err, ssl.ErrInvalidArgument)
	})
}

func TestWithProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider string
	}{
		{name: "known provider", provider: ssl.ProviderAutocert},
		{name: "unknown provider is accepted", provider: "acme-corp"},
		{name: "empty name is accepted", provider: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := ssl.NewConfig().WithProvider(tt.provider).Build()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, cfg.ProviderName)
		})
	}
}

func TestWithRegistrationEmail(t *testing.T) {
	t.Parallel()

	t.Run("accepts plain address", func(t *testing.T) {
		t.Parallel()

		cfg, err := ssl.NewConfig().WithRegistrationEmail("ops@example.com").Build()
		require.NoError(t, err)
		assert.Equal(t, "ops@example.com", cfg.Email)
	})

	t.Run("normalizes display names away", func(t *testing.T) {
		t.Parallel()

		cfg, err := ssl.NewConfig().WithRegistrationEmail("Ops Team <ops@example.com>").Build()
		require.NoError(t, err)
		assert.Equal(t, "ops@example.com", cfg.Email)
	})

	t.Run("rejects malformed address", func(t *testing.T) {
		t.Parallel()

		_, err := ssl.NewConfig().WithRegistrationEmail("not-an-email").Build()
		assert.ErrorIs(t, err, ssl.ErrInvalidArgument)
	})
}

func TestWithKeyLength(t *testing.T) {
	t.Parallel()

	t.Run("accepts the minimum", func(t *testing.T) {
		t.Parallel()

		cfg, err := ssl.NewConfig().WithKeyLength(ssl.MinKeyLength).Build()
		require.NoError(t, err)
		assert.Equal(t, ssl.MinKeyLength, cfg.KeyLength)
	})

	t.Run("accepts larger moduli", func(t *testing.T) {
		t.Parallel()

		cfg, err := ssl.NewConfig().WithKeyLength(4096).Build()
		require.NoError(t, err)
		assert.Equal(t, 4096, cfg.KeyLength)
	})

	t.Run("rejects below the minimum", func(t *testing.T) {
		t.Parallel()

		_, err := ssl.NewConfig().WithKeyLength(ssl.MinKeyLength - 1).Build()
		assert.ErrorIs(t, err, ssl.ErrInvalidArgument)
	})
}

func TestWithListeningServer(t *testing.T) {
	t.Parallel()

	t.Run("accepts a server on the challenge port", func(t *testing.T) {
		t.Parallel()

		server := &portedServer{port: ssl.ChallengePort}
		cfg, err := ssl.NewConfig().WithListeningServer(server).Build()
		require.NoError(t, err)
		assert.Same(t, server, cfg.Server)
	})

	t.Run("accepts a server that does not report its port", func(t *testing.T) {
		t.Parallel()

		server := &fakeServer{}
		cfg, err := ssl.NewConfig().WithListeningServer(server).Build()
		require.NoError(t, err)
		assert.Same(t, server, cfg.Server)
	})

	t.Run("accepts a value without middleware support", func(t *testing.T) {
		t.Parallel()

		cfg, err := ssl.NewConfig().WithListeningServer(struct{}{}).Build()
		require.NoError(t, err)
		assert.NotNil(t, cfg.Server)
	})

	t.Run("rejects nil", func(t *testing.T) {
		t.Parallel()

		_, err := ssl.NewConfig().WithListeningServer(nil).Build()
		assert.ErrorIs(t, err, ssl.ErrInvalidArgument)
	})

	t.Run("rejects a server off the challenge port", func(t *testing.T) {
		t.Parallel()

		_, err := ssl.NewConfig().WithListeningServer(&portedServer{port: 8080}).Build()
		assert.ErrorIs(t, err, ssl.ErrInvalidArgument)
	})
}

func TestWithRestartHook(t *testing.T) {
	t.Parallel()

	called := false
	cfg, err := ssl.NewConfig().WithRestartHook(func() { called = true }).Build()
	require.NoError(t, err)
	require.NotNil(t, cfg.OnRestart)

	cfg.OnRestart()
	assert.True(t, called)

	cfg, err = ssl.NewConfig().WithRestartHook(nil).Build()
	require.NoError(t, err)
	assert.Nil(t, cfg.OnRestart)
}

func TestCollaboratorSetters(t *testing.T) {
	t.Parallel()

	t.Run("logger", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		cfg, err := ssl.NewConfig().WithLogger(logger).Build()
		require.NoError(t, err)
		assert.Same(t, logger, cfg.Logger)

		_, err = ssl.NewConfig().WithLogger(nil).Build()
		assert.ErrorIs(t, err, ssl.ErrInvalidArgument)
	})

	t.Run("challenge store", func(t *testing.T) {
		t.Parallel()

		store := challenge.NewMemoryStore()
		cfg, err := ssl.NewConfig().WithChallengeStore(store).Build()
		require.NoError(t, err)
		assert.Same(t, store, cfg.Challenge)

		_, err = ssl.NewConfig().WithChallengeStore(nil).Build()
		assert.ErrorIs(t, err, ssl.ErrInvalidArgument)
	})

	t.Run("mirror", func(t *testing.T) {
		t.Parallel()

		mirror := &nopMirror{}
		cfg, err := ssl.NewConfig().WithCertificateMirror(mirror).Build()
		require.NoError(t, err)
		assert.Same(t, mirror, cfg.Mirror)

		_, err = ssl.NewConfig().WithCertificateMirror(nil).Build()
		assert.ErrorIs(t, err, ssl.ErrInvalidArgument)
	})
}

func TestBuilderFirstErrorWins(t *testing.T) {
	t.Parallel()

	builder := ssl.NewConfig().
		WithKeyLength(128).
		WithEnvironment("sandbox").
		WithDomains([]string{"example.com"})

	err := builder.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ssl.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "key length")

	cfg, buildErr := builder.Build()
	assert.Equal(t, err, buildErr)
	assert.Empty(t, cfg.Domains)
}
