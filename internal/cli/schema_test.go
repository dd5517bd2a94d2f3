package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchemaRoot() *cobra.Command {
	root := &cobra.Command{Use: "groundqad", Short: "server"}
	AddHelpJSONFlag(root)
	root.PersistentFlags().Bool("verbose", false, "Verbose output")

	index := &cobra.Command{Use: "index", Short: "Build the text index", RunE: func(*cobra.Command, []string) error { return nil }}
	index.Flags().String("src", "", "Source directory")
	index.Flags().StringP("output", "o", "text", "Output format")
	_ = index.MarkFlagRequired("src")

	hidden := &cobra.Command{Use: "secret", Hidden: true, Run: func(*cobra.Command, []string) {}}
	root.AddCommand(index, hidden)
	return root
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(newSchemaRoot())

	assert.Equal(t, "groundqad", schema.Name)
	assert.False(t, schema.Runnable)
	require.Len(t, schema.Flags, 1)
	assert.Equal(t, "verbose", schema.Flags[0].Name)
	assert.True(t, schema.Flags[0].Persistent)
	require.Len(t, schema.Subcommands, 1)

	index := schema.Subcommands[0]
	assert.Equal(t, "index", index.Name)
	assert.Equal(t, "Build the text index", index.Description)
	assert.True(t, index.Runnable)

	flags := map[string]FlagSchema{}
	for _, f := range index.Flags {
		flags[f.Name] = f
	}
	require.Contains(t, flags, "src")
	assert.True(t, flags["src"].Required)
	assert.Equal(t, "string", flags["src"].Type)

	require.Contains(t, flags, "output")
	assert.False(t, flags["output"].Required)
	assert.Equal(t, "o", flags["output"].Shorthand)
	assert.Equal(t, "text", flags["output"].Default)

	assert.NotContains(t, flags, "help-json")
	assert.NotContains(t, flags, "verbose")
}

func TestWriteSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSchema(&buf, newSchemaRoot()))

	var decoded CommandSchema
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "groundqad", decoded.Name)
}

func TestFindTargetCommand(t *testing.T) {
	root := newSchemaRoot()

	assert.Equal(t, "index", findTargetCommand(root, []string{"index"}).Name())
	assert.Equal(t, "groundqad", findTargetCommand(root, []string{"unknown"}).Name())
	assert.Equal(t, "groundqad", findTargetCommand(root, nil).Name())
}

func TestHelpJSONTarget(t *testing.T) {
	root := newSchemaRoot()

	target, ok := helpJSONTarget(root, []string{"index", "--help-json"})
	require.True(t, ok)
	assert.Equal(t, "index", target.Name())

	target, ok = helpJSONTarget(root, []string{"--help-json"})
	require.True(t, ok)
	assert.Equal(t, "groundqad", target.Name())

	_, ok = helpJSONTarget(root, []string{"index", "--src", "docs"})
	assert.False(t, ok)
}
