package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	// Invariant that all default configurations are equal.
	expected, err := newDefault()
	require.NoError(t, err)
	got := Default()
	opts := cmpopts.EquateEmpty()
	require.True(
		t,
		cmp.Equal(expected, got, opts),
		"%s",
		cmp.Diff(expected, got, opts),
	)
}

func TestDefaultIsCopied(t *testing.T) {
	cfg := Default()
	cfg.Server.Address = "changed"
	cfg.Log.Enabled = true

	require.Equal(t, "localhost:7998", Default().Server.Address)
	require.False(t, Default().Log.Enabled)
}

func TestParseYAML(t *testing.T) {
	testCases := []struct {
		name           string
		rawConfig      string
		expectedConfig func(*Config)
		errorSubstring string
	}{
		{
			name:           "only version",
			rawConfig:      "version: v1\n",
			expectedConfig: func(*Config) {},
		},
		{
			name: "memory store without cache",
			rawConfig: `version: v1
store:
  driver: memory
  cache_size: 0
`,
			expectedConfig: func(c *Config) {
				c.Store.Driver = StoreMemory
				c.Store.CacheSize = 0
			},
		},
		{
			name: "redis store",
			rawConfig: `version: v1
store:
  driver: redis
  redis:
    address: "redis:6379"
    db: 2
`,
			expectedConfig: func(c *Config) {
				c.Store.Driver = StoreRedis
				c.Store.Redis.Address = "redis:6379"
				c.Store.Redis.DB = 2
			},
		},
		{
			name: "disable server",
			rawConfig: `version: v1
server: null
`,
			expectedConfig: func(c *Config) {
				c.Server = nil
			},
		},
		{
			name: "filters",
			rawConfig: `version: v1
filters:
  - condition: "open_tasks > 0"
`,
			expectedConfig: func(c *Config) {
				c.Filters = []*Filter{{Condition: "open_tasks > 0"}}
			},
		},
		{
			name:           "unknown version",
			rawConfig:      "version: v2\n",
			errorSubstring: `unknown version: "v2"`,
		},
		{
			name: "unknown field",
			rawConfig: `version: v1
project:
  root: "."
`,
			errorSubstring: "failed to parse v1 config",
		},
		{
			name: "unknown driver",
			rawConfig: `version: v1
store:
  driver: postgres
`,
			errorSubstring: "failed to validate v1 config",
		},
		{
			name: "redis without address",
			rawConfig: `version: v1
store:
  driver: redis
  redis:
    address: ""
`,
			errorSubstring: "Redis.Address",
		},
		{
			name: "sqlite without path",
			rawConfig: `version: v1
store:
  driver: sqlite
  path: ""
`,
			errorSubstring: "Path",
		},
		{
			name: "export width out of range",
			rawConfig: `version: v1
export:
  width: 10
`,
			errorSubstring: "Width",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config, err := ParseYAML([]byte(tc.rawConfig))

			if tc.errorSubstring != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errorSubstring)
				return
			}

			require.NoError(t, err)

			expected := Default()
			tc.expectedConfig(expected)
			opts := []cmp.Option{cmpopts.IgnoreUnexported(Filter{}), cmpopts.EquateEmpty()}
			require.True(
				t,
				cmp.Equal(expected, config, opts...),
				"%s", cmp.Diff(expected, config, opts...),
			)
		})
	}
}

func TestParseYAML_Multiple(t *testing.T) {
	cfg1 := []byte(`version: v1
owner: ada
export:
  avoid_breaks: false
`)
	cfg2 := []byte(`version: v1
export:
  font_size: 14
`)

	config, err := ParseYAML(cfg1, cfg2)
	require.NoError(t, err)

	require.Equal(t, "ada", config.Owner)
	require.False(t, config.Export.AvoidBreaks)
	require.Equal(t, 14.0, config.Export.FontSize)
	require.Equal(t, Default().Export.Width, config.Export.Width)
}
