package scene

import (
	"fmt"
	"strings"

	"github.com/kingrea/refclone/internal/clone"
)

var _ clone.Host = (*Scene)(nil)

// FilePath returns the file a reference node was loaded from.
func (s *Scene) FilePath(ref string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.mustLookup(ref)
	if err != nil {
		return "", err
	}
	if n.Reference == nil {
		return "", fmt.Errorf("%w: %s", ErrNotReference, ref)
	}
	return n.Reference.File, nil
}

// ReferenceNode returns the tracking node of a reference.
func (s *Scene) ReferenceNode(ref string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.mustLookup(ref)
	if err != nil {
		return "", err
	}
	if n.Reference == nil {
		return "", fmt.Errorf("%w: %s", ErrNotReference, ref)
	}
	return n.Reference.Node, nil
}

// AnchorPosition returns the world translation of ref.
func (s *Scene) AnchorPosition(ref string) (clone.Vec3, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.mustLookup(ref)
	if err != nil {
		return clone.Vec3{}, err
	}
	return toVec3(s.worldTranslate(n)), nil
}

// CreateReference loads filePath under namespace. A namespace already in
// use is bumped to the next free trailing number.
func (s *Scene) CreateReference(filePath, namespace string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validName(namespace); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidNamespace, namespace, err)
	}
	entry, ok := s.doc.Files[filePath]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFile, filePath)
	}
	ns := namespace
	for s.namespaceTaken(ns) {
		ns = nextName(ns)
	}
	kind := entry.Type
	if kind == "" {
		kind = TypeReference
	}
	node := Node{
		Name:      ns + ":" + entry.Top,
		Type:      kind,
		Reference: &Reference{File: filePath, Node: ns + "RN"},
		Scale:     Triple{1, 1, 1},
	}
	s.addNode(node)
	return node.Name, nil
}

// MatchTransform copies translate, rotate and scale from source to target.
func (s *Scene) MatchTransform(target, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, err := s.mustLookup(source)
	if err != nil {
		return err
	}
	dst, err := s.mustLookup(target)
	if err != nil {
		return err
	}
	s.setWorldTranslate(dst, s.worldTranslate(src))
	dst.Rotate = src.Rotate
	dst.Scale = src.Scale
	return nil
}

// SetWorldPosition overwrites the world translation of node.
func (s *Scene) SetWorldPosition(node string, pos clone.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.mustLookup(node)
	if err != nil {
		return err
	}
	s.setWorldTranslate(n, Triple{pos.X, pos.Y, pos.Z})
	return nil
}

// Group creates a top-level group and parents nodes under it, keeping their
// world positions. A taken group name is bumped to the next free number.
func (s *Scene) Group(nodes []string, groupName string) error {
	_, err := s.GroupAs(nodes, groupName)
	return err
}

// GroupAs is Group that also reports the name the group was created with.
func (s *Scene) GroupAs(nodes []string, groupName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validName(groupName); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidName, groupName, err)
	}
	if len(nodes) == 0 {
		return "", fmt.Errorf("scene: group %s: no nodes", groupName)
	}
	members := make([]*Node, 0, len(nodes))
	for _, name := range nodes {
		n, err := s.mustLookup(name)
		if err != nil {
			return "", err
		}
		members = append(members, n)
	}
	worlds := make([]Triple, len(members))
	for i, n := range members {
		worlds[i] = s.worldTranslate(n)
	}
	name := groupName
	for s.lookup(name) != nil {
		name = nextName(name)
	}
	s.addNode(Node{Name: name, Type: TypeGroup, Scale: Triple{1, 1, 1}})
	for i, member := range nodes {
		// addNode may have grown the slice, so look members up again.
		n := s.lookup(member)
		n.Parent = name
		s.setWorldTranslate(n, worlds[i])
	}
	return name, nil
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return fmt.Errorf("character %q not allowed", r)
		}
	}
	if name[0] >= '0' && name[0] <= '9' {
		return fmt.Errorf("must not start with a digit")
	}
	return nil
}

// nextName bumps the trailing number of name, keeping its width, or
// appends 1 when there is none: a_c0001 -> a_c0002, grp -> grp1.
func nextName(name string) string {
	end := len(name)
	start := end
	for start > 0 && name[start-1] >= '0' && name[start-1] <= '9' {
		start--
	}
	if start == end {
		return name + "1"
	}
	digits := []byte(name[start:end])
	for i := len(digits) - 1; i >= 0; i-- {
		if digits[i] < '9' {
			digits[i]++
			return name[:start] + string(digits)
		}
		digits[i] = '0'
	}
	return name[:start] + "1" + string(digits)
}

func toVec3(t Triple) clone.Vec3 {
	return clone.Vec3{X: t[0], Y: t[1], Z: t[2]}
}
