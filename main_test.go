package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"export", "auth", "user", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestVersionCommandOutput(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "attendance")
	assert.Contains(t, out, "go version")
}
