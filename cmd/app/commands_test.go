package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["ingest"])
	assert.True(t, names["analyze"])
}

func TestIngestRequiresFlags(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ingest", "--bucket", "b"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key")
}

func TestMissingConfigFails(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"--config", "does/not/exist.yaml", "analyze", "--bucket", "b", "--key", "k"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config load failed")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"symbols": 2}))
	assert.JSONEq(t, `{"symbols": 2}`, buf.String())
}
