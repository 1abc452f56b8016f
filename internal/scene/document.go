// internal/scene/document.go
//
// The scene document is the on-disk stand-in for a host scene: a library of
// referenceable files, a flat list of nodes linked by parent name, and the
// host's current selection.

package scene

import (
	"fmt"
	"strings"
)

// Node types that get their own list icon. Anything else is shown as a
// reference.
const (
	TypeMesh      = "mesh"
	TypeCurve     = "nurbsCurve"
	TypeCamera    = "camera"
	TypeReference = "reference"
	TypeGroup     = "group"
)

// Triple is an x/y/z attribute stored as a flow sequence.
type Triple [3]float64

// FileEntry describes a file that can be referenced into the scene.
type FileEntry struct {
	// Top is the local name of the file's top-level node.
	Top  string `yaml:"top"`
	Type string `yaml:"type,omitempty"`
}

// Reference links a node to the file it was loaded from.
type Reference struct {
	File string `yaml:"file"`
	Node string `yaml:"node"`
}

// Node is one transform in the scene.
type Node struct {
	Name      string     `yaml:"name"`
	Type      string     `yaml:"type,omitempty"`
	Reference *Reference `yaml:"reference,omitempty"`
	Parent    string     `yaml:"parent,omitempty"`
	Hidden    bool       `yaml:"hidden,omitempty"`
	Translate Triple     `yaml:"translate,flow"`
	Rotate    Triple     `yaml:"rotate,flow"`
	Scale     Triple     `yaml:"scale,flow"`
}

// Document is the YAML layout of a scene file.
type Document struct {
	Files     map[string]FileEntry `yaml:"files,omitempty"`
	Nodes     []Node               `yaml:"nodes"`
	Selection []string             `yaml:"selection,omitempty"`
}

func (d *Document) applyDefaults() {
	if d.Files == nil {
		d.Files = map[string]FileEntry{}
	}
	for i := range d.Nodes {
		n := &d.Nodes[i]
		n.Name = strings.TrimSpace(n.Name)
		n.Parent = strings.TrimSpace(n.Parent)
		if n.Scale == (Triple{}) {
			n.Scale = Triple{1, 1, 1}
		}
		if n.Type == "" {
			if n.Reference != nil {
				n.Type = TypeReference
			} else {
				n.Type = TypeGroup
			}
		}
	}
}

func (d *Document) validate() error {
	seen := make(map[string]struct{}, len(d.Nodes))
	for i, n := range d.Nodes {
		if n.Name == "" {
			return fmt.Errorf("nodes[%d]: name is required", i)
		}
		if _, dup := seen[n.Name]; dup {
			return fmt.Errorf("nodes[%d]: duplicate node %q", i, n.Name)
		}
		seen[n.Name] = struct{}{}
		if n.Reference != nil && strings.TrimSpace(n.Reference.File) == "" {
			return fmt.Errorf("nodes[%d]: reference.file is required", i)
		}
	}
	for i, n := range d.Nodes {
		if n.Parent == "" {
			continue
		}
		if _, ok := seen[n.Parent]; !ok {
			return fmt.Errorf("nodes[%d]: parent %q not found", i, n.Parent)
		}
	}
	for path, entry := range d.Files {
		if strings.TrimSpace(entry.Top) == "" {
			return fmt.Errorf("files[%s]: top is required", path)
		}
	}
	return nil
}
