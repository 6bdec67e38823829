package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/appletalk/ddpcore/config"
)

const sample = `
[[interface]]
dev = "eth0"
first_net = 1000
last_net = 1000
phase = 2

[[route]]
target_net = 2000
gateway_net = 1000
gateway_node = 7
dev = "eth0"
gateway = true
`

func TestLoad(t *testing.T) {
	c, err := config.Load(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, c.Interfaces, 1)
	require.Equal(t, "eth0", c.Interfaces[0].Dev)
	require.Len(t, c.Routes, 1)

	nr := c.Interfaces[0].NetRange()
	require.EqualValues(t, 1000, nr.FirstNet)
	require.EqualValues(t, 2, nr.Phase)

	r := c.Routes[0].Route()
	require.EqualValues(t, 2000, r.Target.Net)
	require.True(t, r.Flags.Gateway)
}
