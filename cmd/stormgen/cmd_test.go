package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Startitecture/storm-sub007/compiler/gen"
)

const (
	rowsYAML    = "../../compiler/gen/testdata/rows.yaml"
	parentsYAML = "../../compiler/gen/testdata/parents.yaml"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	t.Parallel()
	cmd := newRootCommand()
	assert.Equal(t, "stormgen", cmd.Use)
	assert.True(t, cmd.SilenceUsage)

	for _, name := range []string{"gen", "validate"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	flag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestGenCommand_Flags(t *testing.T) {
	t.Parallel()
	cmd, _, err := newRootCommand().Find([]string{"gen"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"schema", "s", "[]"},
		{"package", "p", "rows"},
		{"out", "o", ""},
	}
	for _, tt := range tests {
		flag := cmd.Flags().Lookup(tt.name)
		require.NotNil(t, flag, tt.name)
		assert.Equal(t, tt.shorthand, flag.Shorthand)
		assert.Equal(t, tt.def, flag.DefValue)
	}
	ann := cmd.Flags().Lookup("schema").Annotations[cobra.BashCompOneRequiredFlag]
	assert.Equal(t, []string{"true"}, ann)
}

func TestGenCommand(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "rows", "rows_gen.go")
	_, err := run(t, "gen", "--schema", rowsYAML, "--schema", parentsYAML, "--package", "rows", "--out", path)
	require.NoError(t, err)

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(src), "// "+gen.Header)
	assert.Contains(t, string(src), "package rows")
	assert.Contains(t, string(src), "func (r FakeParent) Get(column string) (any, bool) {")
}

func TestGenCommand_Stdout(t *testing.T) {
	t.Parallel()
	out, err := run(t, "gen", "-s", parentsYAML, "-p", "parents")
	require.NoError(t, err)
	assert.Contains(t, out, "package parents")
	assert.Contains(t, out, "type FakeParent struct")
}

func TestGenCommand_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
	}{
		{"missing_schema_flag", []string{"gen"}},
		{"missing_file", []string{"gen", "-s", "testdata/missing.yaml"}},
		{"bad_package", []string{"gen", "-s", parentsYAML, "-p", "1rows"}},
		{"positional_args", []string{"gen", "-s", parentsYAML, "extra"}},
		{"missing_config", []string{"--config", "testdata/missing.yaml", "gen", "-s", parentsYAML}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestGenCommand_Config(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "storm.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("default_schema: sales\n"), 0o644))

	out, err := run(t, "--config", cfg, "gen", "-s", parentsYAML)
	require.NoError(t, err)
	assert.Regexp(t, `Schema:\s+"sales"`, out)
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()
	out, err := run(t, "validate", "-s", rowsYAML, "-s", parentsYAML)
	require.NoError(t, err)
	assert.Contains(t, out, "FakeData: 6 columns, 3 joins")
	assert.Contains(t, out, "FakeParent: ")
}

func TestValidateCommand_UnresolvedTarget(t *testing.T) {
	t.Parallel()
	out, err := run(t, "validate", "-s", rowsYAML)
	require.Error(t, err)
	assert.Contains(t, out, "error: ")
	assert.Contains(t, out, "FakeRelated: ")
}
