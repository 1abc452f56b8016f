package scene

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNodeNotFound is returned for names that are not in the scene.
	ErrNodeNotFound = errors.New("scene: node not found")
	// ErrNotReference is returned when a reference query targets a plain node.
	ErrNotReference = errors.New("scene: node is not a reference")
	// ErrUnknownFile is returned when a reference targets a file missing from
	// the library.
	ErrUnknownFile = errors.New("scene: file not in library")
	// ErrInvalidNamespace is returned for empty or malformed namespaces.
	ErrInvalidNamespace = errors.New("scene: invalid namespace")
	// ErrInvalidName is returned for empty or malformed group names.
	ErrInvalidName = errors.New("scene: invalid name")
)

// Scene is a YAML-backed scene that satisfies clone.Host. All methods are
// safe for concurrent use.
type Scene struct {
	mu    sync.Mutex
	path  string
	doc   Document
	index map[string]int
	// raw is the last content read from or written to path.
	raw []byte
}

// New wraps an in-memory document. Save needs a path set via SaveAs.
func New(doc Document) (*Scene, error) {
	doc.applyDefaults()
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	s := &Scene{doc: doc}
	s.reindex()
	return s, nil
}

// Load reads a scene document from path.
func Load(path string) (*Scene, error) {
	s := &Scene{path: path}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file, if any.
func (s *Scene) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Reload re-reads the backing file. It reports false without touching the
// in-memory scene when the file content matches what was last loaded or
// saved.
func (s *Scene) Reload() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return false, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, fmt.Errorf("scene: read %s: %w", s.path, err)
	}
	if s.raw != nil && bytes.Equal(data, s.raw) {
		return false, nil
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("scene: parse %s: %w", s.path, err)
	}
	doc.applyDefaults()
	if err := doc.validate(); err != nil {
		return false, fmt.Errorf("scene: %s: %w", s.path, err)
	}
	s.doc = doc
	s.raw = data
	s.reindex()
	return true, nil
}

// Save writes the scene back to its file.
func (s *Scene) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return fmt.Errorf("scene: no file to save to")
	}
	return s.writeLocked()
}

// SaveAs writes the scene to path and makes it the backing file.
func (s *Scene) SaveAs(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	return s.writeLocked()
}

func (s *Scene) writeLocked() error {
	data, err := yaml.Marshal(&s.doc)
	if err != nil {
		return fmt.Errorf("scene: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("scene: ensure dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("scene: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("scene: replace %s: %w", s.path, err)
	}
	s.raw = data
	return nil
}

// Document returns a deep copy of the current scene.
func (s *Scene) Document() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Document{
		Files:     make(map[string]FileEntry, len(s.doc.Files)),
		Nodes:     make([]Node, len(s.doc.Nodes)),
		Selection: append([]string(nil), s.doc.Selection...),
	}
	for k, v := range s.doc.Files {
		out.Files[k] = v
	}
	for i, n := range s.doc.Nodes {
		if n.Reference != nil {
			ref := *n.Reference
			n.Reference = &ref
		}
		out.Nodes[i] = n
	}
	return out
}

// Node returns a copy of the named node.
func (s *Scene) Node(name string) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lookup(name)
	if n == nil {
		return Node{}, false
	}
	return *n, true
}

// Selection returns the host's current selection, skipping names that no
// longer exist.
func (s *Scene) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.doc.Selection))
	for _, name := range s.doc.Selection {
		if s.lookup(name) != nil {
			out = append(out, name)
		}
	}
	return out
}

// Select replaces the host selection.
func (s *Scene) Select(names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		if s.lookup(name) == nil {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, name)
		}
	}
	s.doc.Selection = append([]string(nil), names...)
	return nil
}

func (s *Scene) reindex() {
	s.index = make(map[string]int, len(s.doc.Nodes))
	for i, n := range s.doc.Nodes {
		s.index[n.Name] = i
	}
}

func (s *Scene) lookup(name string) *Node {
	idx, ok := s.index[name]
	if !ok {
		return nil
	}
	return &s.doc.Nodes[idx]
}

func (s *Scene) mustLookup(name string) (*Node, error) {
	n := s.lookup(name)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
	}
	return n, nil
}

func (s *Scene) addNode(n Node) {
	s.doc.Nodes = append(s.doc.Nodes, n)
	s.index[n.Name] = len(s.doc.Nodes) - 1
}

// worldTranslate sums translations up the parent chain. Rotation and scale
// of ancestors are not composed.
func (s *Scene) worldTranslate(n *Node) Triple {
	out := n.Translate
	parent := n.Parent
	for depth := 0; parent != "" && depth < len(s.doc.Nodes); depth++ {
		p := s.lookup(parent)
		if p == nil {
			break
		}
		for i := range out {
			out[i] += p.Translate[i]
		}
		parent = p.Parent
	}
	return out
}

func (s *Scene) parentTranslate(n *Node) Triple {
	if n.Parent == "" {
		return Triple{}
	}
	p := s.lookup(n.Parent)
	if p == nil {
		return Triple{}
	}
	return s.worldTranslate(p)
}

func (s *Scene) setWorldTranslate(n *Node, world Triple) {
	base := s.parentTranslate(n)
	for i := range world {
		n.Translate[i] = world[i] - base[i]
	}
}

func (s *Scene) visible(n *Node) bool {
	for depth := 0; n != nil && depth <= len(s.doc.Nodes); depth++ {
		if n.Hidden {
			return false
		}
		if n.Parent == "" {
			return true
		}
		n = s.lookup(n.Parent)
	}
	return true
}

func (s *Scene) namespaceTaken(ns string) bool {
	prefix := ns + ":"
	for _, n := range s.doc.Nodes {
		if strings.HasPrefix(n.Name, prefix) {
			return true
		}
		if n.Reference != nil && n.Reference.Node == ns+"RN" {
			return true
		}
	}
	return false
}
