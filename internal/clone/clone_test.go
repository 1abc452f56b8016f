package clone

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePosition(t *testing.T) {
	anchor := V3(0, 0, 0)
	offset := V3(2, 0, 0)
	assert.Equal(t, V3(2, 0, 0), ComputePosition(anchor, offset, 0))
	assert.Equal(t, V3(4, 0, 0), ComputePosition(anchor, offset, 1))

	anchor = V3(1.5, -3, 10)
	offset = V3(-1, 0.5, 0)
	for k := 0; k < 6; k++ {
		want := V3(anchor.X+offset.X*float64(k+1), anchor.Y+offset.Y*float64(k+1), anchor.Z)
		assert.InDelta(t, want.X, ComputePosition(anchor, offset, k).X, 1e-9)
		assert.InDelta(t, want.Y, ComputePosition(anchor, offset, k).Y, 1e-9)
		assert.Equal(t, want.Z, ComputePosition(anchor, offset, k).Z)
	}

	assert.Equal(t, V3(7, 8, 9), ComputePosition(V3(7, 8, 9), Vec3{}, 3), "zero offset stacks on the anchor")
}

func TestLayout(t *testing.T) {
	assert.Nil(t, Layout(V3(0, 0, 0), V3(1, 0, 0), 0))
	assert.Equal(t, []Vec3{V3(0, 1, 0), V3(0, 2, 0), V3(0, 3, 0)}, Layout(Vec3{}, V3(0, 1, 0), 3))
}

func TestDeriveNamespace(t *testing.T) {
	src := SourceReference{Identifier: "charA:root"}
	assert.Equal(t, "charA_c0001", DeriveNamespace(src, FromSelection(), ""))
	assert.Equal(t, "charA_c0001", DeriveNamespace(src, FromSelection(), DefaultSuffix))
	assert.Equal(t, "hero_c0001", DeriveNamespace(src, CustomNamespace("hero"), ""))
	assert.Equal(t, "charA_x", DeriveNamespace(src, FromSelection(), "_x"))

	nested := SourceReference{Identifier: "set:charA:root"}
	assert.Equal(t, "set_c0001", DeriveNamespace(nested, FromSelection(), ""))

	bare := SourceReference{Identifier: "pCube1"}
	assert.Equal(t, "pCube1_c0001", DeriveNamespace(bare, FromSelection(), ""))
}

func TestPartition(t *testing.T) {
	chunks, err := Partition([]string{"a", "b", "c", "d", "e"}, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, chunks)

	chunks, err = Partition(nil, 3)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, err = Partition([]string{"a"}, 0)
	assert.ErrorIs(t, err, ErrInvalidGroupSize)
}

func TestPartitionPreservesElements(t *testing.T) {
	for n := 0; n < 12; n++ {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("id%02d", i)
		}
		for size := 1; size <= 13; size++ {
			chunks, err := Partition(ids, size)
			require.NoError(t, err)
			var joined []string
			for i, chunk := range chunks {
				require.NotEmpty(t, chunk)
				if i < len(chunks)-1 {
					assert.Len(t, chunk, size)
				}
				joined = append(joined, chunk...)
			}
			if n == 0 {
				assert.Empty(t, joined)
				continue
			}
			assert.Equal(t, ids, joined, "n=%d size=%d", n, size)
		}
	}
}

func TestPartitionDoesNotAliasInput(t *testing.T) {
	ids := []string{"a", "b", "c"}
	chunks, err := Partition(ids, 2)
	require.NoError(t, err)
	chunks[0][0] = "z"
	assert.Equal(t, "a", ids[0])
}

func TestSortKeys(t *testing.T) {
	assert.Equal(t, "1000c_Arahc", ReversedBaseNamespace("charA_c0001:root"))
	assert.Equal(t, "", ReversedBaseNamespace(":root"))

	ids := []string{"b_c0001:root", "a_c0002:root", "a_c0001:root", "b_c0002:root"}
	assert.Equal(t,
		[]string{"a_c0001:root", "b_c0001:root", "a_c0002:root", "b_c0002:root"},
		SortIdentifiers(ids, ReversedBaseNamespace))
	assert.Equal(t,
		[]string{"a_c0001:root", "a_c0002:root", "b_c0001:root", "b_c0002:root"},
		SortIdentifiers(ids, Lexical))
	assert.Equal(t, ids, SortIdentifiers(ids, CreationOrder))
	assert.Equal(t, []string{"b_c0001:root", "a_c0002:root", "a_c0001:root", "b_c0002:root"}, ids, "input untouched")

	for _, name := range []string{"", SortReversedNamespace, SortLexical, SortCreation, " Lexical "} {
		key, err := SortKeyByName(name)
		require.NoError(t, err, name)
		assert.NotNil(t, key)
	}
	_, err := SortKeyByName("random")
	assert.Error(t, err)
}

// fakeHost records every call and hands out namespace-unique identifiers.
type fakeHost struct {
	calls     []string
	positions map[string]Vec3
	files     map[string]string
	taken     map[string]int
	groups    [][]string
	groupName []string

	failOn  string
	failErr error
	block   chan struct{}
	entered chan struct{}
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		positions: map[string]Vec3{},
		files:     map[string]string{},
		taken:     map[string]int{},
	}
}

func (h *fakeHost) record(call string) error {
	h.calls = append(h.calls, call)
	if h.failOn != "" && strings.HasPrefix(call, h.failOn) {
		return h.failErr
	}
	return nil
}

func (h *fakeHost) FilePath(ref string) (string, error) {
	if err := h.record("FilePath " + ref); err != nil {
		return "", err
	}
	return h.files[ref], nil
}

func (h *fakeHost) ReferenceNode(ref string) (string, error) {
	if err := h.record("ReferenceNode " + ref); err != nil {
		return "", err
	}
	return BaseNamespace(ref) + "RN", nil
}

func (h *fakeHost) AnchorPosition(ref string) (Vec3, error) {
	if h.entered != nil {
		close(h.entered)
		h.entered = nil
	}
	if h.block != nil {
		<-h.block
	}
	if err := h.record("AnchorPosition " + ref); err != nil {
		return Vec3{}, err
	}
	return h.positions[ref], nil
}

func (h *fakeHost) CreateReference(filePath, namespace string) (string, error) {
	if err := h.record("CreateReference " + filePath + " " + namespace); err != nil {
		return "", err
	}
	h.taken[namespace]++
	ns := namespace
	if n := h.taken[namespace]; n > 1 {
		ns = fmt.Sprintf("%s%d", namespace, n)
	}
	return ns + ":root", nil
}

func (h *fakeHost) MatchTransform(target, source string) error {
	return h.record("MatchTransform " + target + " " + source)
}

func (h *fakeHost) SetWorldPosition(node string, pos Vec3) error {
	if err := h.record("SetWorldPosition " + node); err != nil {
		return err
	}
	h.positions[node] = pos
	return nil
}

func (h *fakeHost) Group(nodes []string, groupName string) error {
	if err := h.record("Group " + groupName); err != nil {
		return err
	}
	h.groups = append(h.groups, append([]string(nil), nodes...))
	h.groupName = append(h.groupName, groupName)
	return nil
}

func twoSourceHost() *fakeHost {
	h := newFakeHost()
	h.positions["a:root"] = V3(0, 0, 0)
	h.positions["b:root"] = V3(10, 0, 0)
	h.files["a:root"] = "/assets/a.ma"
	h.files["b:root"] = "/assets/b.ma"
	return h
}

func twoSourceRequest() CloneRequest {
	return CloneRequest{
		Sources:         []SourceReference{{Identifier: "a:root"}, {Identifier: "b:root"}},
		CopiesPerSource: 2,
		Offset:          V3(1, 0, 0),
		Namespace:       FromSelection(),
		Grouping:        NoGrouping(),
	}
}

func TestCloneEmptySelectionMakesNoHostCalls(t *testing.T) {
	h := newFakeHost()
	_, err := Clone(CloneRequest{CopiesPerSource: 1}, h)
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Empty(t, h.calls)
}

func TestCloneRejectsBadParameters(t *testing.T) {
	h := twoSourceHost()
	req := twoSourceRequest()
	req.CopiesPerSource = 0
	_, err := Clone(req, h)
	assert.ErrorIs(t, err, ErrInvalidCopies)

	req = twoSourceRequest()
	req.GroupSize = -1
	_, err = Clone(req, h)
	assert.ErrorIs(t, err, ErrInvalidGroupSize)
	assert.Empty(t, h.calls)
}

func TestCloneTwoSources(t *testing.T) {
	h := twoSourceHost()
	res, err := New(h, WithOperationIDs(func() string { return "op-1" })).Clone(twoSourceRequest())
	require.NoError(t, err)
	assert.Equal(t, "op-1", res.OperationID)
	require.Len(t, res.Instances, 4)

	want := []ClonedInstance{
		{SourceIdentifier: "a:root", CopyIndex: 0, NewIdentifier: "a_c0001:root", Namespace: "a_c0001", Position: V3(1, 0, 0)},
		{SourceIdentifier: "a:root", CopyIndex: 1, NewIdentifier: "a_c00012:root", Namespace: "a_c0001", Position: V3(2, 0, 0)},
		{SourceIdentifier: "b:root", CopyIndex: 0, NewIdentifier: "b_c0001:root", Namespace: "b_c0001", Position: V3(11, 0, 0)},
		{SourceIdentifier: "b:root", CopyIndex: 1, NewIdentifier: "b_c00012:root", Namespace: "b_c0001", Position: V3(12, 0, 0)},
	}
	assert.Equal(t, want, res.Instances)
	for _, inst := range res.Instances {
		assert.Equal(t, inst.Position, h.positions[inst.NewIdentifier])
	}
	assert.False(t, res.Grouped)
	assert.Empty(t, h.groups)
	assert.Len(t, res.Chunks, 2)

	assert.Equal(t, []string{
		"FilePath a:root",
		"ReferenceNode a:root",
		"AnchorPosition a:root",
		"CreateReference /assets/a.ma a_c0001",
		"MatchTransform a_c0001:root a:root",
		"SetWorldPosition a_c0001:root",
		"CreateReference /assets/a.ma a_c0001",
		"MatchTransform a_c00012:root a:root",
		"SetWorldPosition a_c00012:root",
		"FilePath b:root",
		"ReferenceNode b:root",
		"AnchorPosition b:root",
		"CreateReference /assets/b.ma b_c0001",
		"MatchTransform b_c0001:root b:root",
		"SetWorldPosition b_c0001:root",
		"CreateReference /assets/b.ma b_c0001",
		"MatchTransform b_c00012:root b:root",
		"SetWorldPosition b_c00012:root",
	}, h.calls)
}

func TestCloneGrouped(t *testing.T) {
	h := twoSourceHost()
	req := twoSourceRequest()
	req.Grouping = Grouped("myGroup")
	res, err := Clone(req, h)
	require.NoError(t, err)
	assert.True(t, res.Grouped)
	require.Len(t, h.groups, 2)
	assert.Equal(t, []string{"myGroup", "myGroup"}, h.groupName)
	for _, g := range h.groups {
		assert.Len(t, g, 2)
	}
	assert.Equal(t, res.Chunks, h.groups)
	assert.Equal(t, [][]string{
		{"a_c0001:root", "b_c0001:root"},
		{"a_c00012:root", "b_c00012:root"},
	}, h.groups)
}

func TestCloneCustomNamespaceAndGroupSize(t *testing.T) {
	h := twoSourceHost()
	req := twoSourceRequest()
	req.Namespace = CustomNamespace("crowd")
	req.CopiesPerSource = 3
	req.GroupSize = 4
	req.SortKey = CreationOrder
	req.Grouping = Grouped("g")
	res, err := Clone(req, h)
	require.NoError(t, err)
	require.Len(t, res.Instances, 6)
	for _, inst := range res.Instances {
		assert.Equal(t, "crowd_c0001", inst.Namespace)
	}
	assert.Equal(t, []int{4, 2}, []int{len(res.Chunks[0]), len(res.Chunks[1])})
	assert.Equal(t, res.Instances[0].NewIdentifier, res.Sorted[0])
}

func TestCloneAnchorQueriedOncePerSource(t *testing.T) {
	h := twoSourceHost()
	req := twoSourceRequest()
	req.CopiesPerSource = 5
	_, err := Clone(req, h)
	require.NoError(t, err)
	count := 0
	for _, c := range h.calls {
		if strings.HasPrefix(c, "AnchorPosition") {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestCloneHostFailureCarriesPartial(t *testing.T) {
	cases := []struct {
		failOn  string
		kind    FailureKind
		partial int
	}{
		{failOn: "CreateReference /assets/b.ma", kind: HostCreationError, partial: 2},
		{failOn: "MatchTransform a_c00012", kind: HostTransformError, partial: 1},
		{failOn: "SetWorldPosition b_c0001:root", kind: HostTransformError, partial: 2},
		{failOn: "AnchorPosition b", kind: HostQueryError, partial: 2},
		{failOn: "Group", kind: HostGroupError, partial: 4},
	}
	for _, tc := range cases {
		t.Run(tc.failOn, func(t *testing.T) {
			h := twoSourceHost()
			boom := errors.New("boom")
			h.failOn = tc.failOn
			h.failErr = boom
			req := twoSourceRequest()
			req.Grouping = Grouped("grp")
			res, err := Clone(req, h)
			require.Error(t, err)
			assert.Empty(t, res.Instances)
			assert.ErrorIs(t, err, boom)
			var failure *Failure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, tc.kind, failure.Kind)
			assert.Len(t, failure.Partial, tc.partial)
			assert.Equal(t, failure.Partial, PartialInstances(err))
		})
	}
}

func TestCloneBusy(t *testing.T) {
	h := twoSourceHost()
	h.block = make(chan struct{})
	h.entered = make(chan struct{})
	entered := h.entered
	orch := New(h)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = orch.Clone(twoSourceRequest())
	}()
	<-entered
	_, err := orch.Clone(twoSourceRequest())
	assert.ErrorIs(t, err, ErrBusy)
	close(h.block)
	wg.Wait()
	assert.NoError(t, firstErr)
}
