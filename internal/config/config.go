// internal/config/config.go
//
// This package handles configuration and the .refclone directory structure.
// Every project that uses refclone gets a .refclone/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/refclone/internal/clone"
)

const (
	// Dir is the name of the directory we create in each project
	Dir = ".refclone"

	defaultGroupName     = "myGroup01"
	defaultStatusSeconds = 4
)

// Namespace modes accepted in config.yaml.
const (
	NamespaceFromSelection = "from-selection"
	NamespaceCustom        = "custom"
)

const defaultProjectConfigYAML = `# refclone project configuration
version: 1

# Scene file the tool edits. Relative paths resolve against the project root.
scene: scene.yaml

clone:
  suffix: _c0001
  copies: 1
  offset: {x: 0, y: 0, z: 0}   # each component >= 0
  namespace:
    mode: from-selection   # or: custom
    custom: ""
  grouping:
    enabled: false
    name: myGroup01
  # Order of new items before they are chunked into groups:
  # reversed-namespace (default), lexical, creation
  sort_key: reversed-namespace

filters:
  visible_only: true
  top_nodes_only: true
  references_only: true

ui:
  status_seconds: 4
`

// NamespaceConfig selects how copy namespaces are derived.
type NamespaceConfig struct {
	Mode   string `yaml:"mode"`
	Custom string `yaml:"custom"`
}

// GroupingConfig controls whether copies are grouped after cloning.
type GroupingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
}

// CloneDefaults seeds the clone controls.
type CloneDefaults struct {
	Suffix    string          `yaml:"suffix"`
	Copies    int             `yaml:"copies"`
	Offset    clone.Vec3      `yaml:"offset,flow"`
	Namespace NamespaceConfig `yaml:"namespace"`
	Grouping  GroupingConfig  `yaml:"grouping"`
	SortKey   string          `yaml:"sort_key"`
}

// FilterConfig seeds the enumeration filters.
type FilterConfig struct {
	VisibleOnly    bool `yaml:"visible_only"`
	TopNodesOnly   bool `yaml:"top_nodes_only"`
	ReferencesOnly bool `yaml:"references_only"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	StatusSeconds int `yaml:"status_seconds"`
}

// ProjectConfig models .refclone/config.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version"`
	Scene   string        `yaml:"scene"`
	Clone   CloneDefaults `yaml:"clone"`
	Filters FilterConfig  `yaml:"filters"`
	UI      UIConfig      `yaml:"ui"`
}

// Config holds the runtime configuration for refclone.
type Config struct {
	// ProjectDir is the directory where the user ran `refclone` from
	ProjectDir string

	// ProjectStateDir is ProjectDir/.refclone
	ProjectStateDir string

	Project ProjectConfig

	// sceneOverride is the -scene flag; it wins over Project.Scene and is
	// never written to config.yaml.
	sceneOverride string
}

// InitDir creates the .refclone directory structure in the given project
// directory and writes a default config.yaml if none exists.
//
// Structure created:
// .refclone/
// ├── config.yaml
// ├── logs/     <- journal.log and refclone.log
// └── state/
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	dirs := []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:      projectDir,
		ProjectStateDir: filepath.Join(projectDir, Dir),
		Project:         defaultProjectConfig(),
	}
	cfg.Project.normalize(projectDir)
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.ProjectStateDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.ProjectStateDir, "state")
}

// JournalPath returns the user-facing journal file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ProjectStateDir, "config.yaml")
}

// ScenePath returns the scene file for this run.
func (c *Config) ScenePath() string {
	if c.sceneOverride != "" {
		return c.sceneOverride
	}
	return c.Project.Scene
}

// SetScenePath overrides the scene file for this run without persisting it.
func (c *Config) SetScenePath(path string) {
	c.sceneOverride = resolvePath(c.ProjectDir, path)
}

// StatusDuration is how long transient status messages stay visible.
func (c *Config) StatusDuration() time.Duration {
	return time.Duration(c.Project.UI.StatusSeconds) * time.Second
}

// Filters returns the enumeration filter defaults.
func (c *Config) Filters() FilterConfig {
	return c.Project.Filters
}

// CloneDefaults returns the clone control defaults.
func (c *Config) CloneDefaults() CloneDefaults {
	return c.Project.Clone
}

// SaveCloneDefaults stores the last used clone controls and filters back to
// .refclone/config.yaml.
func (c *Config) SaveCloneDefaults(defaults CloneDefaults, filters FilterConfig) error {
	c.Project.Clone = defaults
	c.Project.Filters = filters
	return c.saveProjectConfig()
}

// NamespaceMode converts the configured namespace settings.
func (d CloneDefaults) NamespaceMode() clone.NamespaceMode {
	if d.Namespace.Mode == NamespaceCustom {
		return clone.CustomNamespace(d.Namespace.Custom)
	}
	return clone.FromSelection()
}

// GroupingMode converts the configured grouping settings.
func (d CloneDefaults) GroupingMode() clone.GroupingMode {
	if d.Grouping.Enabled {
		return clone.Grouped(d.Grouping.Name)
	}
	return clone.NoGrouping()
}

// SortKeyFunc resolves the configured sort key.
func (d CloneDefaults) SortKeyFunc() (clone.SortKey, error) {
	return clone.SortKeyByName(d.SortKey)
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Scene:   "scene.yaml",
		Clone: CloneDefaults{
			Suffix:    clone.DefaultSuffix,
			Copies:    1,
			Namespace: NamespaceConfig{Mode: NamespaceFromSelection},
			Grouping:  GroupingConfig{Name: defaultGroupName},
			SortKey:   clone.SortReversedNamespace,
		},
		Filters: FilterConfig{
			VisibleOnly:    true,
			TopNodesOnly:   true,
			ReferencesOnly: true,
		},
		UI: UIConfig{StatusSeconds: defaultStatusSeconds},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Scene) == "" {
		pc.Scene = "scene.yaml"
	}
	if pc.Clone.Suffix == "" {
		pc.Clone.Suffix = clone.DefaultSuffix
	}
	if pc.Clone.Copies == 0 {
		pc.Clone.Copies = 1
	}
	if strings.TrimSpace(pc.Clone.Grouping.Name) == "" {
		pc.Clone.Grouping.Name = defaultGroupName
	}
	if pc.UI.StatusSeconds == 0 {
		pc.UI.StatusSeconds = defaultStatusSeconds
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Scene = resolvePath(base, pc.Scene)
	pc.Clone.Suffix = strings.TrimSpace(pc.Clone.Suffix)
	pc.Clone.Namespace.Mode = strings.ToLower(strings.TrimSpace(pc.Clone.Namespace.Mode))
	if pc.Clone.Namespace.Mode == "" {
		pc.Clone.Namespace.Mode = NamespaceFromSelection
	}
	pc.Clone.Namespace.Custom = strings.TrimSpace(pc.Clone.Namespace.Custom)
	pc.Clone.Grouping.Name = strings.TrimSpace(pc.Clone.Grouping.Name)
	pc.Clone.SortKey = strings.ToLower(strings.TrimSpace(pc.Clone.SortKey))
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Clone.Copies < 1 {
		return fmt.Errorf("clone.copies must be >= 1")
	}
	if o := pc.Clone.Offset; o.X < 0 || o.Y < 0 || o.Z < 0 {
		return fmt.Errorf("clone.offset components must be >= 0")
	}
	switch pc.Clone.Namespace.Mode {
	case NamespaceFromSelection:
	case NamespaceCustom:
		if pc.Clone.Namespace.Custom == "" {
			return fmt.Errorf("clone.namespace.custom is required for custom namespaces")
		}
	default:
		return fmt.Errorf("clone.namespace.mode must be '%s' or '%s'", NamespaceFromSelection, NamespaceCustom)
	}
	if _, err := clone.SortKeyByName(pc.Clone.SortKey); err != nil {
		return fmt.Errorf("clone.sort_key: %w", err)
	}
	if pc.UI.StatusSeconds < 0 {
		return fmt.Errorf("ui.status_seconds must be >= 0")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize(c.ProjectDir)
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.ProjectStateDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure state dir: %w", err)
	}
	out := c.Project
	if rel, err := filepath.Rel(c.ProjectDir, out.Scene); err == nil && !strings.HasPrefix(rel, "..") {
		out.Scene = rel
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
