package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/refclone/internal/clone"
	"github.com/kingrea/refclone/internal/config"
)

func testDefaults() config.CloneDefaults {
	return config.CloneDefaults{
		Suffix:    clone.DefaultSuffix,
		Copies:    1,
		Offset:    clone.V3(1, 0, 0),
		Namespace: config.NamespaceConfig{Mode: config.NamespaceFromSelection},
		Grouping:  config.GroupingConfig{Name: "myGroup01"},
		SortKey:   clone.SortReversedNamespace,
	}
}

func TestVecFlag(t *testing.T) {
	var f vecFlag
	require.NoError(t, f.Set("1, 2.5,-3"))
	assert.True(t, f.set)
	assert.Equal(t, clone.V3(1, 2.5, -3), f.v)
	for _, bad := range []string{"1,2", "a,b,c", ""} {
		assert.Error(t, (&vecFlag{}).Set(bad), bad)
	}
}

func TestRequestUsesDefaults(t *testing.T) {
	input := requestInput{Sources: []string{"tree:root", " "}}
	req, err := input.request(testDefaults())
	require.NoError(t, err)
	require.Len(t, req.Sources, 1)
	assert.Equal(t, "tree:root", req.Sources[0].Identifier)
	assert.Equal(t, 1, req.CopiesPerSource)
	assert.Equal(t, clone.V3(1, 0, 0), req.Offset)
	assert.Equal(t, clone.NamespaceFromSelection, req.Namespace.Kind)
	assert.False(t, req.Grouping.Enabled)
}

func TestRequestOverrides(t *testing.T) {
	off := clone.V3(0, 0, 4)
	input := requestInput{
		Sources:   []string{"a:root", "b:root"},
		Copies:    3,
		Offset:    &off,
		Namespace: "forest",
		Group:     "grove01",
		GroupSize: 2,
		SortKey:   "lexical",
	}
	req, err := input.request(testDefaults())
	require.NoError(t, err)
	assert.Equal(t, 3, req.CopiesPerSource)
	assert.Equal(t, off, req.Offset)
	assert.Equal(t, 2, req.GroupSize)
	assert.Equal(t, clone.CustomNamespace("forest"), req.Namespace)
	assert.Equal(t, clone.Grouped("grove01"), req.Grouping)
	assert.Equal(t, "b:x", req.SortKey("b:x"), "expected lexical key")
}

func TestRequestRejectsEmptyAndUnknownSortKey(t *testing.T) {
	_, err := (requestInput{}).request(testDefaults())
	assert.ErrorIs(t, err, clone.ErrEmptySelection)

	_, err = (requestInput{Sources: []string{"a"}, SortKey: "random"}).request(testDefaults())
	assert.Error(t, err)

	_, err = (requestInput{Sources: []string{"a"}, Copies: -1}).request(testDefaults())
	assert.ErrorIs(t, err, clone.ErrInvalidCopies)
}

func TestReadRequestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.yaml")
	data := "sources: [tree:root, rock:root]\ncopies: 2\noffset: {x: 0, y: 3, z: 0}\ngroup: grove01\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	input, err := readRequestFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"tree:root", "rock:root"}, input.Sources)
	assert.Equal(t, 2, input.Copies)
	assert.Equal(t, "grove01", input.Group)
	require.NotNil(t, input.Offset)
	assert.Equal(t, clone.V3(0, 3, 0), *input.Offset)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o644))
	_, err = readRequestFile(empty)
	assert.Error(t, err)
}
