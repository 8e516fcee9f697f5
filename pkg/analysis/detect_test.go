package analysis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/depscan/pkg/analysis"
	"github.com/Sumatoshi-tech/depscan/pkg/depmodel"
	"github.com/Sumatoshi-tech/depscan/pkg/observability"
	"github.com/Sumatoshi-tech/depscan/pkg/source"
)

func importSet(paths ...string) analysis.ImportSet {
	set := make(analysis.ImportSet, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}

	return set
}

func TestPackageGuesses(t *testing.T) {
	t.Parallel()

	want := []string{"mod.y", "org.x", "org.x.mod.y"}

	for range 3 {
		assert.Equal(t, want, analysis.PackageGuesses("org-x", "mod-y"))
	}

	assert.Equal(t, []string{"com.example", "com.example.lib", "lib"}, analysis.PackageGuesses("com.example", "lib"))
	assert.Equal(t, []string{"a", "a.a"}, analysis.PackageGuesses("A", "a"))
	assert.Empty(t, analysis.PackageGuesses("", ""))
}

func TestFindUnused(t *testing.T) {
	t.Parallel()

	dep := depmodel.Declared{Organization: "com.example", Name: "lib", Version: "1.0.0"}

	t.Run("no matching import", func(t *testing.T) {
		t.Parallel()

		got := analysis.FindUnused([]depmodel.Declared{dep}, importSet("org.other.Thing", "example.com.lib"))
		require.Len(t, got, 1)
		assert.Equal(t, dep, got[0].Dependency)
		assert.Equal(t, analysis.ReasonUnused, got[0].Reason)
	})

	t.Run("prefix match", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, analysis.FindUnused([]depmodel.Declared{dep}, importSet("com.example.lib.Thing")))
	})

	t.Run("case insensitive", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, analysis.FindUnused([]depmodel.Declared{dep}, importSet("COM.Example.Other")))
	})

	t.Run("name prefix", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, analysis.FindUnused([]depmodel.Declared{dep}, importSet("lib.Helpers")))
	})

	t.Run("substring is not enough", func(t *testing.T) {
		t.Parallel()

		assert.Len(t, analysis.FindUnused([]depmodel.Declared{dep}, importSet("my.com.example.lib")), 1)
	})

	t.Run("keeps declared order", func(t *testing.T) {
		t.Parallel()

		deps := []depmodel.Declared{
			{Organization: "z", Name: "last"},
			{Organization: "a", Name: "first"},
		}

		got := analysis.FindUnused(deps, importSet())
		require.Len(t, got, 2)
		assert.Equal(t, "z", got[0].Dependency.Organization)
		assert.Equal(t, "a", got[1].Dependency.Organization)
	})
}

func TestFindMissing(t *testing.T) {
	t.Parallel()

	cats := depmodel.Resolved{Organization: "org.typelevel", Name: "cats-core", Version: "2.9.0"}
	kernel := depmodel.Resolved{Organization: "org.typelevel", Name: "cats-kernel", Version: "2.9.0"}
	circe := depmodel.Resolved{Organization: "io.circe", Name: "circe-core", Version: "0.14.6"}

	sources := []source.Text{
		source.NewBuffer("b.scala", "import org.typelevel.cats.Functor\n"),
		source.NewBuffer("a.scala", "import scala.util.Try\n"),
		brokenText{id: "broken.scala"},
		source.NewBuffer("c.scala", "object C {\n  import org.typelevel.cats.Functor\n}\n"),
	}

	imports := analysis.ExtractImports(context.Background(), observability.Discard(), sources, 2)
	resolution := depmodel.NewResolution([]depmodel.Resolved{cats, circe})

	got := analysis.FindMissing(context.Background(), observability.Discard(), nil, resolution, imports, sources, 2)
	require.Len(t, got, 1)

	assert.Equal(t, "org.typelevel:cats-core", got[0].Module)
	assert.Equal(t, "2.9.0", got[0].Version)
	assert.Equal(t, "org.typelevel:cats-core:2.9.0", got[0].Coordinates())
	assert.Equal(t, []string{"b.scala", "c.scala"}, got[0].UsedInFiles)
	assert.Equal(t, analysis.ReasonMissing, got[0].Reason)

	t.Run("declared identity excludes", func(t *testing.T) {
		t.Parallel()

		declared := []depmodel.Declared{{Organization: "org.typelevel", Name: "cats-core", Version: "2.8.0"}}

		got := analysis.FindMissing(context.Background(), observability.Discard(), declared, resolution, imports, sources, 2)
		assert.Empty(t, got)
	})

	t.Run("same organization different name still reported", func(t *testing.T) {
		t.Parallel()

		declared := []depmodel.Declared{{Organization: "org.typelevel", Name: "cats-core"}}
		res := depmodel.NewResolution([]depmodel.Resolved{cats, kernel})

		got := analysis.FindMissing(context.Background(), observability.Discard(), declared, res, imports, sources, 2)
		require.Len(t, got, 1)
		assert.Equal(t, "org.typelevel:cats-kernel", got[0].Module)
	})

	t.Run("empty resolution", func(t *testing.T) {
		t.Parallel()

		got := analysis.FindMissing(context.Background(), observability.Discard(), nil,
			depmodel.NewResolution(nil), imports, sources, 2)
		assert.Empty(t, got)
	})
}

func TestFindMissing_ViaFollowsResolutionEdges(t *testing.T) {
	t.Parallel()

	sources := []source.Text{source.NewBuffer("a.scala", "import org.typelevel.cats.Monad\nimport io.circe.Json\n")}
	imports := analysis.ExtractImports(context.Background(), observability.Discard(), sources, 1)

	declared := []depmodel.Declared{
		{Organization: "org.http4s", Name: "http4s-circe"},
		{Organization: "org.http4s", Name: "http4s-core"},
		{Organization: "org.http4s", Name: "http4s-core"},
	}
	resolution := depmodel.NewResolution([]depmodel.Resolved{
		{Organization: "org.http4s", Name: "http4s-circe", DependsOn: []string{"io.circe:circe-core", "org.http4s:http4s-core"}},
		{Organization: "org.http4s", Name: "http4s-core", DependsOn: []string{"org.typelevel:cats-core", "gone:absent"}},
		{Organization: "org.typelevel", Name: "cats-core", Version: "2.9.0"},
		{Organization: "io.circe", Name: "circe-core", Version: "0.14.6", DependsOn: []string{"org.typelevel:cats-core"}},
	})

	got := analysis.FindMissing(context.Background(), observability.Discard(), declared, resolution, imports, sources, 1)
	require.Len(t, got, 2)

	assert.Equal(t, "org.typelevel:cats-core", got[0].Module)
	assert.Equal(t, []string{"org.http4s:http4s-circe", "org.http4s:http4s-core"}, got[0].Via)

	assert.Equal(t, "io.circe:circe-core", got[1].Module)
	assert.Equal(t, []string{"org.http4s:http4s-circe"}, got[1].Via)

	t.Run("no edges", func(t *testing.T) {
		t.Parallel()

		flat := depmodel.NewResolution([]depmodel.Resolved{{Organization: "io.circe", Name: "circe-core", Version: "0.14.6"}})

		got := analysis.FindMissing(context.Background(), observability.Discard(), declared, flat, imports, sources, 1)
		require.Len(t, got, 1)
		assert.Empty(t, got[0].Via)
	})
}

func TestFindMissing_AttributionFollowsSourceOrderAndDedups(t *testing.T) {
	t.Parallel()

	sources := []source.Text{
		source.NewBuffer("z.scala", "import io.circe.Decoder\nimport io.circe.Encoder\n"),
		source.NewBuffer("a.scala", "import io.circe.Encoder\n"),
		source.NewBuffer("z.scala", "import io.circe.Decoder\n"),
	}

	imports := analysis.ExtractImports(context.Background(), observability.Discard(), sources, 3)
	resolution := depmodel.NewResolution([]depmodel.Resolved{{Organization: "io.circe", Name: "circe-core", Version: "0.14.6"}})

	got := analysis.FindMissing(context.Background(), observability.Discard(), nil, resolution, imports, sources, 3)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"z.scala", "a.scala"}, got[0].UsedInFiles)
}

func TestFindMissing_SpacingGapLeavesFileUnattributed(t *testing.T) {
	t.Parallel()

	// Extraction accepts any whitespace after the keyword; attribution looks
	// for a single space, so a tab-separated import is matched but not attributed.
	sources := []source.Text{source.NewBuffer("tab.scala", "import\tio.circe.Decoder\n")}

	imports := analysis.ExtractImports(context.Background(), observability.Discard(), sources, 1)
	resolution := depmodel.NewResolution([]depmodel.Resolved{{Organization: "io.circe", Name: "circe-core", Version: "0.14.6"}})

	got := analysis.FindMissing(context.Background(), observability.Discard(), nil, resolution, imports, sources, 1)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].UsedInFiles)
}
