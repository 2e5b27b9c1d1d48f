package iccmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"intcode.dev/intcode/icvm"
	"intcode.dev/intcode/internal/testutil"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	p := testutil.WriteFile(t, "intcode.toml", []byte(`
db = ":memory:"
catalogue = "extended"
step_limit = 1000
`))
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, ":memory:", cfg.DB)
	require.Equal(t, uint64(1000), cfg.StepLimit)
	// not in the file
	require.Equal(t, DefaultConfig().Listen, cfg.Listen)
	require.Equal(t, "info", cfg.LogLevel)

	params, err := cfg.Params()
	require.NoError(t, err)
	require.Equal(t, icvm.Extended, params.Catalogue)
	require.Equal(t, uint64(1000), params.StepLimit)
}

func TestLoadConfigDefault(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Parallel()
	for _, x := range []string{
		`catalogue = "turbo"`,
		`log_level = "loud"`,
		`unknown_key = 1`,
		`db = `,
	} {
		p := testutil.WriteFile(t, "intcode.toml", []byte(x))
		_, err := LoadConfig(p)
		require.Error(t, err, x)
	}
}
