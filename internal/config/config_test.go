package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/refclone/internal/clone"
)

func writeProjectConfig(t *testing.T, projectDir, body string) {
	t.Helper()
	stateDir := filepath.Join(projectDir, Dir)
	require.NoError(t, os.MkdirAll(stateDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(stateDir, "config.yaml"), []byte(body), 0644))
}

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Project.Version)
	assert.Equal(t, filepath.Join(projectDir, "scene.yaml"), c.ScenePath())
	d := c.CloneDefaults()
	assert.Equal(t, clone.DefaultSuffix, d.Suffix)
	assert.Equal(t, 1, d.Copies)
	assert.Equal(t, "myGroup01", d.Grouping.Name)
	assert.Equal(t, FilterConfig{VisibleOnly: true, TopNodesOnly: true, ReferencesOnly: true}, c.Filters())
	assert.Equal(t, 4*time.Second, c.StatusDuration())
}

func TestInitDirWritesParsableDefaults(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, InitDir(projectDir))
	for _, sub := range []string{"logs", "state", "config.yaml"} {
		_, err := os.Stat(filepath.Join(projectDir, Dir, sub))
		require.NoError(t, err, sub)
	}
	c, err := NewConfig(projectDir)
	require.NoError(t, err)

	assert.Equal(t, clone.SortReversedNamespace, c.CloneDefaults().SortKey)
	assert.Equal(t, clone.FromSelection(), c.CloneDefaults().NamespaceMode())
	assert.False(t, c.CloneDefaults().GroupingMode().Enabled)
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	writeProjectConfig(t, projectDir, strings.TrimSpace(`
version: 1
scene: shots/sh010.yaml
clone:
  copies: 3
  offset: {x: 2, y: 0, z: 1.5}
  namespace:
    mode: Custom
    custom: crowd
  grouping:
    enabled: true
    name: extras
  sort_key: lexical
filters:
  visible_only: false
ui:
  status_seconds: 2
`))
	c, err := NewConfig(projectDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(projectDir, "shots", "sh010.yaml"), c.ScenePath())
	d := c.CloneDefaults()
	assert.Equal(t, 3, d.Copies)
	assert.Equal(t, clone.V3(2, 0, 1.5), d.Offset)
	assert.Equal(t, clone.CustomNamespace("crowd"), d.NamespaceMode())
	assert.Equal(t, clone.Grouped("extras"), d.GroupingMode())
	_, err = d.SortKeyFunc()
	assert.NoError(t, err)
	assert.False(t, c.Filters().VisibleOnly)
	assert.True(t, c.Filters().TopNodesOnly, "top_nodes_only keeps its default")
	assert.Equal(t, 2*time.Second, c.StatusDuration())
}

func TestLoadProjectConfigValidation(t *testing.T) {
	cases := map[string]string{
		"custom without name": "clone:\n  namespace:\n    mode: custom\n",
		"bad mode":            "clone:\n  namespace:\n    mode: sideways\n",
		"negative copies":     "clone:\n  copies: -2\n",
		"bad sort key":        "clone:\n  sort_key: random\n",
		"negative offset":     "clone:\n  offset: {x: 1, y: -0.5, z: 0}\n",
		"negative status":     "ui:\n  status_seconds: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			projectDir := t.TempDir()
			writeProjectConfig(t, projectDir, body)
			_, err := NewConfig(projectDir)
			assert.Error(t, err)
		})
	}
}

func TestSaveCloneDefaultsRoundTrip(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, InitDir(projectDir))
	c, err := NewConfig(projectDir)
	require.NoError(t, err)

	d := c.CloneDefaults()
	d.Copies = 5
	d.Offset = clone.V3(0, 3, 0)
	d.Grouping = GroupingConfig{Enabled: true, Name: "row"}
	filters := FilterConfig{VisibleOnly: true}
	require.NoError(t, c.SaveCloneDefaults(d, filters))

	again, err := NewConfig(projectDir)
	require.NoError(t, err)
	assert.Equal(t, 5, again.CloneDefaults().Copies)
	assert.Equal(t, clone.V3(0, 3, 0), again.CloneDefaults().Offset)
	assert.Equal(t, filters, again.Filters())
	assert.Equal(t, c.ScenePath(), again.ScenePath())
}

func TestSceneOverrideIsNotPersisted(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, InitDir(projectDir))
	c, err := NewConfig(projectDir)
	require.NoError(t, err)
	configured := c.ScenePath()

	other := filepath.Join(t.TempDir(), "other.yaml")
	c.SetScenePath(other)
	assert.Equal(t, other, c.ScenePath())

	require.NoError(t, c.SaveCloneDefaults(c.CloneDefaults(), c.Filters()))
	data, err := os.ReadFile(c.ProjectConfigPath())
	require.NoError(t, err)
	assert.NotContains(t, string(data), other)
	assert.Contains(t, string(data), "scene: scene.yaml")

	again, err := NewConfig(projectDir)
	require.NoError(t, err)
	assert.Equal(t, configured, again.ScenePath())
}

func TestSetScenePathResolvesRelativeToProject(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	require.NoError(t, err)
	c.SetScenePath("shots/sh020.yaml")
	assert.Equal(t, filepath.Join(projectDir, "shots", "sh020.yaml"), c.ScenePath())
	assert.Equal(t, filepath.Join(projectDir, "scene.yaml"), c.Project.Scene)
}
