package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchemaFixture() *cobra.Command {
	root := &cobra.Command{Use: "docchat", Short: "Document chat client"}
	AddHelpJSONFlag(root)

	upload := &cobra.Command{Use: "upload <file>", Short: "Upload a document"}
	upload.Flags().BoolP("progress", "p", false, "Show upload progress")
	root.AddCommand(upload)

	hidden := &cobra.Command{Use: "internal", Hidden: true}
	root.AddCommand(hidden)

	return root
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(newSchemaFixture())

	assert.Equal(t, "docchat", schema.Name)
	assert.Equal(t, "Document chat client", schema.Description)

	require.Len(t, schema.Subcommands, 1, "hidden commands stay out of the schema")
	sub := schema.Subcommands[0]
	assert.Equal(t, "upload", sub.Name)
	assert.Equal(t, "upload <file>", sub.Use)

	require.Len(t, sub.Flags, 1)
	assert.Equal(t, "progress", sub.Flags[0].Name)
	assert.Equal(t, "p", sub.Flags[0].Shorthand)
	assert.Equal(t, "bool", sub.Flags[0].Type)
	assert.Equal(t, "false", sub.Flags[0].Default)
}

func TestGenerateSchemaOmitsHelpFlags(t *testing.T) {
	schema := GenerateSchema(newSchemaFixture())

	for _, f := range schema.Flags {
		assert.NotEqual(t, "help", f.Name)
		assert.NotEqual(t, "help-json", f.Name)
	}
}

func TestResolveCommand(t *testing.T) {
	root := newSchemaFixture()

	assert.Equal(t, root, resolveCommand(root, nil))
	assert.Equal(t, "upload", resolveCommand(root, []string{"upload"}).Name())
	// Unknown path segments fall back to the deepest match.
	assert.Equal(t, root, resolveCommand(root, []string{"nope"}))
}
