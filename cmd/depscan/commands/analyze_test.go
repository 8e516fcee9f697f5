package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/depscan/pkg/analysis"
	"github.com/Sumatoshi-tech/depscan/pkg/config"
	"github.com/Sumatoshi-tech/depscan/pkg/observability"
)

const (
	testSource = `package app

import cats.effect.IO
import io.circe.Json

object Main
`
	testManifest = `dependencies:
  - org.typelevel:cats-effect:3.5.0
  - com.lihaoyi:upickle:3.1.0
`
	testResolution = `{
  "dependencies": [
    {"organization": "org.typelevel", "name": "cats-effect", "version": "3.5.4", "dependsOn": ["io.circe:circe-core"]},
    {"organization": "com.lihaoyi", "name": "upickle", "version": "3.1.0"},
    {"organization": "io.circe", "name": "circe-core", "version": "0.14.6"}
  ]
}
`
)

type project struct {
	root       string
	manifest   string
	resolution string
	source     string
}

func writeProject(t *testing.T) project {
	t.Helper()

	dir := t.TempDir()
	p := project{
		root:       filepath.Join(dir, "code"),
		manifest:   filepath.Join(dir, "dependencies.yaml"),
		resolution: filepath.Join(dir, "resolution.json"),
	}
	p.source = filepath.Join(p.root, "src", "Main.scala")

	require.NoError(t, os.MkdirAll(filepath.Dir(p.source), 0o755))
	require.NoError(t, os.WriteFile(p.source, []byte(testSource), 0o600))
	require.NoError(t, os.WriteFile(p.manifest, []byte(testManifest), 0o600))
	require.NoError(t, os.WriteFile(p.resolution, []byte(testResolution), 0o600))

	return p
}

func (p project) args(extra ...string) []string {
	return append([]string{p.root, "--manifest", p.manifest, "--resolution", p.resolution}, extra...)
}

func execute(t *testing.T, args []string) (string, string, error) {
	t.Helper()

	cmd := newAnalyzeCommandWithDeps(observability.Init)

	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func TestAnalyzeJSON(t *testing.T) {
	t.Parallel()

	p := writeProject(t)

	out, _, err := execute(t, p.args("--format", "json"))
	require.NoError(t, err)

	var result analysis.Result

	require.NoError(t, json.Unmarshal([]byte(out), &result))

	require.Len(t, result.Unused, 1)
	assert.Equal(t, "com.lihaoyi:upickle", result.Unused[0].Dependency.Module())
	assert.Equal(t, 3, result.Unused[0].Dependency.Position.Line)

	require.Len(t, result.Missing, 1)
	assert.Equal(t, "io.circe:circe-core", result.Missing[0].Module)
	assert.Equal(t, "0.14.6", result.Missing[0].Version)
	assert.Equal(t, []string{p.source}, result.Missing[0].UsedInFiles)
	assert.Equal(t, []string{"org.typelevel:cats-effect"}, result.Missing[0].Via)
}

func TestAnalyzeTextWithPatch(t *testing.T) {
	t.Parallel()

	p := writeProject(t)

	out, _, err := execute(t, p.args("--no-color", "--suggest-patch"))
	require.NoError(t, err)

	assert.Contains(t, out, "UNUSED DEPENDENCIES")
	assert.Contains(t, out, "com.lihaoyi:upickle:3.1.0")
	assert.Contains(t, out, "io.circe:circe-core:0.14.6")
	assert.Contains(t, out, "1 files")
	assert.Contains(t, out, "Suggested manifest edit:")
	assert.Contains(t, out, "-  - com.lihaoyi:upickle:3.1.0\n")
	assert.Contains(t, out, "+  - \"io.circe:circe-core:0.14.6\"\n")
}

func TestAnalyzeYAML(t *testing.T) {
	t.Parallel()

	p := writeProject(t)

	out, _, err := execute(t, p.args("--format", "yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "module: io.circe:circe-core")
	assert.Contains(t, out, "usedInFiles:")
}

func TestAnalyzeWithoutResolution(t *testing.T) {
	t.Parallel()

	p := writeProject(t)
	p.resolution = filepath.Join(t.TempDir(), "absent.json")

	out, errOut, err := execute(t, p.args())
	require.ErrorIs(t, err, analysis.ErrNoResolution)
	assert.Contains(t, err.Error(), p.resolution)
	assert.Empty(t, out)
	assert.NotContains(t, errOut, "Usage:")
	assert.NotContains(t, errOut, "Error:")
}

func TestAnalyzeFailOnFindings(t *testing.T) {
	t.Parallel()

	p := writeProject(t)

	_, _, err := execute(t, p.args("--format", "json", "--fail-on-findings"))
	require.ErrorIs(t, err, ErrFindings)
}

func TestAnalyzeRejectsInvalidFormat(t *testing.T) {
	t.Parallel()

	p := writeProject(t)

	_, _, err := execute(t, p.args("--format", "xml"))
	require.ErrorIs(t, err, config.ErrInvalidFormat)
}

func TestAnalyzeNoCache(t *testing.T) {
	t.Parallel()

	p := writeProject(t)

	out, _, err := execute(t, p.args("--format", "json", "--cache-size", "0", "--workers", "1"))
	require.NoError(t, err)
	assert.Contains(t, out, "circe-core")
}

func TestAnalyzeVerboseAndQuiet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		flag string
		want slog.Level
	}{
		{name: "default", want: slog.LevelInfo},
		{name: "verbose", flag: "--verbose", want: slog.LevelDebug},
		{name: "quiet", flag: "--quiet", want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := writeProject(t)

			var captured observability.Config

			initFn := func(cfg observability.Config) (observability.Providers, error) {
				captured = cfg

				return observability.Init(cfg)
			}

			root := &cobra.Command{Use: "depscan", SilenceUsage: true, SilenceErrors: true}
			root.PersistentFlags().BoolP("verbose", "v", false, "")
			root.PersistentFlags().BoolP("quiet", "q", false, "")
			root.AddCommand(newAnalyzeCommandWithDeps(initFn))

			args := append([]string{"analyze"}, p.args("--format", "json")...)
			if tt.flag != "" {
				args = append(args, tt.flag)
			}

			root.SetArgs(args)
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})

			require.NoError(t, root.Execute())
			assert.Equal(t, tt.want, captured.LogLevel)
			assert.Equal(t, observability.ModeCLI, captured.Mode)
		})
	}
}

func TestAnalyzeVerboseLogsToStderr(t *testing.T) {
	t.Parallel()

	p := writeProject(t)

	root := &cobra.Command{Use: "depscan", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().BoolP("verbose", "v", false, "")
	root.AddCommand(newAnalyzeCommandWithDeps(observability.Init))

	var stdout, stderr bytes.Buffer

	root.SetArgs(append([]string{"analyze", "--verbose"}, p.args("--format", "json")...))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	require.NoError(t, root.Execute())
	assert.Contains(t, stderr.String(), "dependency analysis finished")
	assert.Contains(t, stderr.String(), "service=depscan")
	assert.NotContains(t, stdout.String(), "dependency analysis finished")
}
