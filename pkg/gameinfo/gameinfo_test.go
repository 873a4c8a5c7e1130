package gameinfo

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFS struct {
	dirs    map[string]bool
	subdirs map[string][]string
}

func (f fakeFS) IsDir(path string) bool { return f.dirs[filepath.Clean(path)] }

func (f fakeFS) SubDirs(path string) ([]string, error) {
	s, ok := f.subdirs[filepath.Clean(path)]
	if !ok {
		return nil, errors.New("not found")
	}
	return s, nil
}

const tf2GameInfo = `"GameInfo"
{
	game	"Team Fortress 2"
	FileSystem
	{
		SteamAppId	440
		SearchPaths
		{
			// comment line
			game+mod			tf/custom/*
			game_lv				tf/tf2_lv.vpk

			game+mod+custom_mod	|gameinfo_path|.
			platform			|all_source_engine_paths|platform
			game				"|gameinfo_path|extra"
			game				/opt/shared/content
			game				hl2
		}
	}
}
`

func quietOpts(fsys FS) Options {
	return Options{FS: fsys, Log: logger.New(logger.Config{Level: logger.ErrorLevel}, &bytes.Buffer{})}
}

func TestParseSearchPaths(t *testing.T) {
	entries, err := Parse(strings.NewReader(tf2GameInfo))
	require.NoError(t, err)

	var values []string
	for _, e := range entries {
		values = append(values, e.Value)
	}
	assert.Equal(t, []string{
		"tf/custom/*",
		"tf/tf2_lv.vpk",
		"|gameinfo_path|.",
		"|all_source_engine_paths|platform",
		"|gameinfo_path|extra",
		"/opt/shared/content",
		"hl2",
	}, values)
	assert.Equal(t, "game+mod", entries[0].Key)
}

func TestParseBraceOnSameLine(t *testing.T) {
	src := "SearchPaths {\n Game |gameinfo_path|.\n}\n"
	entries, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "|gameinfo_path|.", entries[0].Value)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{`game  hl2`, []string{"game", "hl2"}},
		{`"Game"	"|gameinfo_path|."`, []string{"Game", "|gameinfo_path|."}},
		{`game "C:\Program Files\content"`, []string{"game", `C:\Program Files\content`}},
		{`game 'single quoted'`, []string{"game", "single quoted"}},
		{"   ", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Tokenize(tt.line), tt.line)
	}
}

func TestResolveOrderAndWildcard(t *testing.T) {
	content := filepath.FromSlash("/steam/tf2/tf")
	parent := filepath.FromSlash("/steam/tf2")
	fsys := fakeFS{
		dirs: map[string]bool{filepath.FromSlash("/opt/shared/content"): true},
		subdirs: map[string][]string{
			filepath.Join(parent, "tf", "custom"): {
				filepath.Join(parent, "tf", "custom", "a"),
				filepath.Join(parent, "tf", "custom", "b"),
			},
		},
	}

	entries, err := Parse(strings.NewReader(tf2GameInfo))
	require.NoError(t, err)
	roots := Resolve(content, entries, quietOpts(fsys))

	assert.Equal(t, Roots{
		filepath.Join(parent, "tf", "custom", "a"),
		filepath.Join(parent, "tf", "custom", "b"),
		content,
		filepath.Join(content, "extra"),
		filepath.FromSlash("/opt/shared/content"),
		filepath.Join(parent, "hl2"),
	}, roots)
}

func TestResolveGameInfoTokenIsContentDir(t *testing.T) {
	content := filepath.FromSlash("/games/csgo")
	roots := Resolve(content, []Entry{{Key: "Game", Value: "|gameinfo_path|."}}, quietOpts(fakeFS{}))
	assert.Equal(t, Roots{content}, roots)
}

func TestResolveWildcardVariants(t *testing.T) {
	content := filepath.FromSlash("/g/mod")
	tokenBase := filepath.Join(content, "addons")
	absBase := filepath.FromSlash("/srv/packs")
	relBase := filepath.FromSlash("/g/shared")
	fsys := fakeFS{subdirs: map[string][]string{
		tokenBase: {filepath.Join(tokenBase, "x")},
		absBase:   {filepath.Join(absBase, "y")},
		relBase:   {filepath.Join(relBase, "z")},
	}}

	roots := Resolve(content, []Entry{
		{Value: "|gameinfo_path|addons/*"},
		{Value: "/srv/packs/*"},
		{Value: `shared\*`},
		{Value: "missing/*"},
	}, quietOpts(fsys))

	assert.Equal(t, Roots{
		filepath.Join(tokenBase, "x"),
		filepath.Join(absBase, "y"),
		filepath.Join(relBase, "z"),
	}, roots)
}

func TestResolveKeepsDuplicates(t *testing.T) {
	content := filepath.FromSlash("/g/mod")
	roots := Resolve(content, []Entry{{Value: "hl2"}, {Value: "hl2"}}, quietOpts(fakeFS{}))
	assert.Len(t, roots, 2)
	assert.Equal(t, roots[0], roots[1])
}

func TestLoadMissingDescriptorIsCaution(t *testing.T) {
	var buf bytes.Buffer
	diags := diag.NewCollector(logger.New(logger.Config{Level: logger.InfoLevel}, &buf))

	roots, err := Load(t.TempDir(), quietOpts(nil), diags)
	require.NoError(t, err)
	assert.Empty(t, roots)
	assert.Equal(t, 1, diags.Count(diag.SeverityCaution))
	assert.Equal(t, 0, diags.Count(diag.SeverityError))
	assert.Contains(t, buf.String(), "gameinfo.txt")
}

func TestLoadFromDisk(t *testing.T) {
	base := t.TempDir()
	content := filepath.Join(base, "tf")
	require.NoError(t, os.MkdirAll(filepath.Join(content, "custom", "pack1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(content, DescriptorName), []byte(tf2GameInfo), 0o600))

	roots, err := Load(content, quietOpts(nil), nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(roots), 2)
	assert.Equal(t, filepath.Join(content, "custom", "pack1"), roots[0])
	assert.Equal(t, content, roots[1])
}

func TestOwnerAndRel(t *testing.T) {
	roots := Roots{filepath.FromSlash("/g/tf/custom/a"), filepath.FromSlash("/g/tf")}

	assert.Equal(t, 0, roots.Owner(filepath.FromSlash("/g/tf/custom/a/materials/x.vmt")))
	assert.Equal(t, 1, roots.Owner(filepath.FromSlash("/G/TF/maps/a.bsp")))
	assert.Equal(t, -1, roots.Owner(filepath.FromSlash("/g/tfx/maps/a.bsp")))

	rel, ok := roots.Rel(1, filepath.FromSlash("/G/TF/maps/a.bsp"))
	assert.True(t, ok)
	assert.Equal(t, "maps/a.bsp", rel)

	_, ok = roots.Rel(0, filepath.FromSlash("/g/tf/maps/a.bsp"))
	assert.False(t, ok)
}

func TestOwnerPicksDeepestRoot(t *testing.T) {
	roots := Roots{filepath.FromSlash("/g/tf"), filepath.FromSlash("/g/tf/custom/mymod"), filepath.FromSlash("/g/TF/custom/mymod")}

	p := filepath.FromSlash("/g/tf/custom/mymod/materials/extra/a.vmt")
	i := roots.Owner(p)
	assert.Equal(t, 1, i, "nested root wins, earlier of equal depth")
	rel, ok := roots.Rel(i, p)
	require.True(t, ok)
	assert.Equal(t, "materials/extra/a.vmt", rel)

	assert.Equal(t, 0, roots.Owner(filepath.FromSlash("/g/tf/custom/other/a.vmt")))
}
