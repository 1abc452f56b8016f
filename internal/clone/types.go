package clone

import "fmt"

// Vec3 is a world-space coordinate or offset.
type Vec3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// V3 is shorthand for building a Vec3.
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns the component-wise sum.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Scale multiplies every component by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// SourceReference is a snapshot of a reference the user picked as a clone
// template. AnchorPosition is filled in by the orchestrator from the host.
type SourceReference struct {
	Identifier     string
	FilePath       string
	AnchorPosition Vec3
}

// NamespaceKind selects how copy namespaces are derived.
type NamespaceKind int

const (
	NamespaceFromSelection NamespaceKind = iota
	NamespaceCustom
)

func (k NamespaceKind) String() string {
	switch k {
	case NamespaceCustom:
		return "custom"
	default:
		return "from-selection"
	}
}

// NamespaceMode is either FromSelection or Custom(Name).
type NamespaceMode struct {
	Kind NamespaceKind
	Name string
}

// FromSelection derives namespaces from each source's own namespace.
func FromSelection() NamespaceMode {
	return NamespaceMode{Kind: NamespaceFromSelection}
}

// CustomNamespace uses name for every source.
func CustomNamespace(name string) NamespaceMode {
	return NamespaceMode{Kind: NamespaceCustom, Name: name}
}

// GroupingMode is either no grouping or grouping under Name.
type GroupingMode struct {
	Enabled bool
	Name    string
}

// NoGrouping leaves the copies where the host creates them.
func NoGrouping() GroupingMode {
	return GroupingMode{}
}

// Grouped parents every chunk of copies under a group called name.
func Grouped(name string) GroupingMode {
	return GroupingMode{Enabled: true, Name: name}
}

// DefaultSuffix is appended to every derived namespace.
const DefaultSuffix = "_c0001"

// CloneRequest carries everything one clone pass needs. It is built once
// from the caller's state and is not modified during the pass.
type CloneRequest struct {
	Sources         []SourceReference
	CopiesPerSource int
	Offset          Vec3
	Namespace       NamespaceMode
	Grouping        GroupingMode

	// Suffix overrides DefaultSuffix when non-empty.
	Suffix string
	// SortKey orders new identifiers before partitioning. Nil means
	// ReversedBaseNamespace.
	SortKey SortKey
	// GroupSize is the partition chunk size. Zero means len(Sources).
	GroupSize int
}

func (r CloneRequest) suffix() string {
	if r.Suffix == "" {
		return DefaultSuffix
	}
	return r.Suffix
}

func (r CloneRequest) sortKey() SortKey {
	if r.SortKey == nil {
		return ReversedBaseNamespace
	}
	return r.SortKey
}

func (r CloneRequest) groupSize() int {
	if r.GroupSize == 0 {
		return len(r.Sources)
	}
	return r.GroupSize
}

// ClonedInstance describes one copy created during a pass.
type ClonedInstance struct {
	SourceIdentifier string
	CopyIndex        int
	NewIdentifier    string
	Namespace        string
	Position         Vec3
}

// Result is the outcome of a successful pass.
type Result struct {
	OperationID string
	// Instances are in creation order: sources outer, copies inner.
	Instances []ClonedInstance
	// Sorted holds the new identifiers after applying the sort key.
	Sorted []string
	// Chunks is Sorted split by the group size.
	Chunks [][]string
	// Grouped reports whether the host was asked to group the chunks.
	Grouped bool
}
