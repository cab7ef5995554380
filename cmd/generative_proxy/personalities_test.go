package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonalitiesList(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := executeCommand(t, "personalities", "list")

	require.NoError(t, err)
	assert.Contains(t, stdout, "ID")
	for _, id := range []string{"funny-pirate", "concerned-parent", "noir-detective", "surfer-dude", "shakespearean-bard"} {
		assert.Contains(t, stdout, id)
	}
}

func TestPersonalitiesDelete(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := executeCommand(t, "personalities", "delete", "noir-detective")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "noir-detective")
	assert.Contains(t, stdout, "surfer-dude")

	_, _, err = executeCommand(t, "personalities", "delete")
	assert.Error(t, err)
}

func TestPersonalitiesImport(t *testing.T) {
	isolateEnv(t)
	file := writeFile(t, "personalities.json", `{"personalities":[
		{"name":"Space Cowboy","prompt":"Yeehaw among the stars."},
		{"id":"zen","name":"Zen Master","prompt":"Speak in koans."}
	]}`)

	stdout, _, err := executeCommand(t, "personalities", "import", "--file", file)

	require.NoError(t, err)
	assert.Contains(t, stdout, "space-cowboy")
	assert.Contains(t, stdout, "Zen Master")
	assert.NotContains(t, stdout, "funny-pirate")
}

func TestPersonalitiesImport_Invalid(t *testing.T) {
	isolateEnv(t)
	file := writeFile(t, "personalities.json", `{"personalities":[{"name":"`+strings.Repeat("x", 201)+`","prompt":"p"}]}`)

	_, _, err := executeCommand(t, "personalities", "import", "--file", file)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
