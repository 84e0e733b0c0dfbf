package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootFlags(t *testing.T) {
	flags := rootCmd.Flags()
	for _, name := range []string{"config", "etcd", "etcd-prefix", "unlinked", "headless", "log-level", "log-file", "status-port"} {
		assert.NotNil(t, flags.Lookup(name), name)
	}

	require.NoError(t, flags.Parse([]string{"--unlinked", "--status-port", "9090", "--etcd", "a:2379,b:2379"}))
	assert.True(t, unlinked)
	assert.True(t, flags.Changed("unlinked"))
	assert.Equal(t, 9090, statusPort)
	assert.Equal(t, []string{"a:2379", "b:2379"}, etcdEndpoints)
}

func TestInvalidLogLevel(t *testing.T) {
	rootCmd.SetArgs([]string{"--headless", "--log-level", "loud"})
	assert.Error(t, rootCmd.Execute())
}
