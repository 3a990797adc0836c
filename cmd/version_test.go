package cmd

import (
	"bytes"
	"testing"

	"github.com/lunemec/eve-ledger/pkg/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() {
		versionCmd.SetOut(nil)
		versionCmd.Flags().Set("short", "false")
	})

	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, version.VersionString+"\n", out.String())

	out.Reset()
	require.NoError(t, versionCmd.Flags().Set("short", "true"))
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, version.Version+"\n", out.String())
}
