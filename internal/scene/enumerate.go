package scene

import "strings"

// Filter narrows node enumeration the way the host's listing flags do.
type Filter struct {
	VisibleOnly    bool
	TopOnly        bool
	ReferencesOnly bool
}

// Entry is one row of an enumeration.
type Entry struct {
	Name string
	Type string
}

// Icon returns the short glyph shown next to the entry.
func (e Entry) Icon() string {
	return Icon(e.Type)
}

// Icon maps a node type to its list glyph.
func Icon(nodeType string) string {
	switch {
	case nodeType == TypeMesh:
		return "▲"
	case nodeType == TypeCurve:
		return "∿"
	case nodeType == TypeCamera:
		return "◉"
	case strings.Contains(nodeType, "Light"):
		return "☀"
	default:
		return "◆"
	}
}

// Nodes lists scene nodes matching f in document order.
func (s *Scene) Nodes(f Filter) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.doc.Nodes))
	for i := range s.doc.Nodes {
		n := &s.doc.Nodes[i]
		if f.TopOnly && n.Parent != "" {
			continue
		}
		if f.ReferencesOnly && n.Reference == nil {
			continue
		}
		if f.VisibleOnly && !s.visible(n) {
			continue
		}
		out = append(out, Entry{Name: n.Name, Type: n.Type})
	}
	return out
}

// Entries resolves names to entries, skipping unknown names.
func (s *Scene) Entries(names []string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		if n := s.lookup(name); n != nil {
			out = append(out, Entry{Name: n.Name, Type: n.Type})
		}
	}
	return out
}
