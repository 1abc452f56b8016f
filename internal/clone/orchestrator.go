package clone

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Host is the scene service a clone pass mutates. Implementations are not
// expected to be reentrant; the orchestrator never calls them concurrently.
type Host interface {
	// FilePath resolves a reference identifier to its backing file.
	FilePath(ref string) (string, error)
	// ReferenceNode resolves a reference identifier to its tracking node.
	ReferenceNode(ref string) (string, error)
	// AnchorPosition returns the world-space translation of a node.
	AnchorPosition(ref string) (Vec3, error)
	// CreateReference instantiates filePath under namespace and returns the
	// new top-level node.
	CreateReference(filePath, namespace string) (string, error)
	// MatchTransform copies the full transform of source onto target.
	MatchTransform(target, source string) error
	// SetWorldPosition overwrites the world-space translation of node.
	SetWorldPosition(node string, pos Vec3) error
	// Group parents nodes under a group called groupName.
	Group(nodes []string, groupName string) error
}

// Orchestrator drives one Host through clone passes, one at a time.
type Orchestrator struct {
	host   Host
	logger *slog.Logger
	newID  func() string
	mu     sync.Mutex
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sends the pass trace to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOperationIDs overrides how operation ids are minted.
func WithOperationIDs(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// New returns an orchestrator bound to host.
func New(host Host, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		host:   host,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Clone runs req against host with a throwaway orchestrator.
func Clone(req CloneRequest, host Host) (Result, error) {
	return New(host).Clone(req)
}

// Validate checks the parts of req that can be rejected before any host
// call is made.
func Validate(req CloneRequest) error {
	if len(req.Sources) == 0 {
		return ErrEmptySelection
	}
	if req.CopiesPerSource < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidCopies, req.CopiesPerSource)
	}
	if req.GroupSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidGroupSize, req.GroupSize)
	}
	return nil
}

// Clone creates req.CopiesPerSource copies of every source, places them,
// sorts and partitions the new identifiers, and groups the chunks when
// asked. A concurrent call returns ErrBusy. On a host failure the pass stops
// and a *Failure carrying the copies created so far is returned.
func (o *Orchestrator) Clone(req CloneRequest) (Result, error) {
	if !o.mu.TryLock() {
		return Result{}, ErrBusy
	}
	defer o.mu.Unlock()

	if err := Validate(req); err != nil {
		return Result{}, err
	}

	opID := o.newID()
	log := o.logger.With("op", opID)
	suffix := req.suffix()
	instances := make([]ClonedInstance, 0, len(req.Sources)*req.CopiesPerSource)
	fail := func(kind FailureKind, op, subject string, err error) (Result, error) {
		partial := make([]ClonedInstance, len(instances))
		copy(partial, instances)
		log.Error("clone aborted", "kind", string(kind), "call", op, "subject", subject, "err", err, "created", len(partial))
		return Result{}, &Failure{Kind: kind, Op: op, Subject: subject, Err: err, Partial: partial}
	}

	for _, src := range req.Sources {
		filePath, err := o.host.FilePath(src.Identifier)
		if err != nil {
			return fail(HostQueryError, "FilePath", src.Identifier, err)
		}
		src.FilePath = filePath
		refNode, err := o.host.ReferenceNode(src.Identifier)
		if err != nil {
			return fail(HostQueryError, "ReferenceNode", src.Identifier, err)
		}
		anchor, err := o.host.AnchorPosition(src.Identifier)
		if err != nil {
			return fail(HostQueryError, "AnchorPosition", src.Identifier, err)
		}
		src.AnchorPosition = anchor
		namespace := DeriveNamespace(src, req.Namespace, suffix)
		log.Debug("source", "ref", src.Identifier, "file", filePath, "refNode", refNode, "anchor", anchor.String(), "namespace", namespace)

		for copyIndex := 0; copyIndex < req.CopiesPerSource; copyIndex++ {
			newID, err := o.host.CreateReference(src.FilePath, namespace)
			if err != nil {
				return fail(HostCreationError, "CreateReference", src.FilePath, err)
			}
			if err := o.host.MatchTransform(newID, src.Identifier); err != nil {
				return fail(HostTransformError, "MatchTransform", newID, err)
			}
			pos := ComputePosition(src.AnchorPosition, req.Offset, copyIndex)
			if err := o.host.SetWorldPosition(newID, pos); err != nil {
				return fail(HostTransformError, "SetWorldPosition", newID, err)
			}
			instances = append(instances, ClonedInstance{
				SourceIdentifier: src.Identifier,
				CopyIndex:        copyIndex,
				NewIdentifier:    newID,
				Namespace:        namespace,
				Position:         pos,
			})
			log.Debug("new", "id", newID, "copy", copyIndex, "position", pos.String())
		}
	}

	if want := len(req.Sources) * req.CopiesPerSource; len(instances) != want {
		return fail(InvariantError, "count", "", fmt.Errorf("%w: got %d, want %d", ErrCountMismatch, len(instances), want))
	}

	ids := make([]string, len(instances))
	for i, inst := range instances {
		ids[i] = inst.NewIdentifier
	}
	sorted := SortIdentifiers(ids, req.sortKey())
	chunks, err := Partition(sorted, req.groupSize())
	if err != nil {
		return fail(InvariantError, "Partition", "", err)
	}
	log.Debug("new items", "items", ids)
	log.Debug("new items sorted", "items", sorted)
	log.Debug("new items grouped", "chunks", chunks)

	if req.Grouping.Enabled {
		for _, chunk := range chunks {
			if err := o.host.Group(chunk, req.Grouping.Name); err != nil {
				return fail(HostGroupError, "Group", req.Grouping.Name, err)
			}
		}
	}

	log.Info("clone complete", "sources", len(req.Sources), "instances", len(instances), "chunks", len(chunks), "grouped", req.Grouping.Enabled)
	return Result{
		OperationID: opID,
		Instances:   instances,
		Sorted:      sorted,
		Chunks:      chunks,
		Grouped:     req.Grouping.Enabled,
	}, nil
}
