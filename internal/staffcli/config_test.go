package staffcli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "localhost:50051", c.Endpoint)
	assert.Equal(t, 5, c.PageSize)
}

func TestLoadConfig_EnvThenFlags(t *testing.T) {
	t.Setenv("GUILDGATE_GRPC_ENDPOINT", "review:50051")
	t.Setenv("GUILDGATE_ACCESS_TOKEN", "from-env")

	c, err := LoadConfig([]string{"-token", "from-flag", "-page=10", "-unrelated", "x"})
	require.NoError(t, err)
	assert.Equal(t, "review:50051", c.Endpoint)
	assert.Equal(t, "from-flag", c.AccessToken)
	assert.Equal(t, 10, c.PageSize)
}

func TestLoadConfig_BadEnv(t *testing.T) {
	t.Setenv("GUILDGATE_PAGE_SIZE", "many")
	_, err := LoadConfig(nil)
	assert.Error(t, err)
}
