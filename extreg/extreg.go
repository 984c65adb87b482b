// Package extreg implements the extension registry: a concurrency-safe
// (extendee, field number) -> FieldDescriptor lookup table, grounded on
// dynamic.ExtensionRegistry. RegisterAll registers a batch of files
// concurrently, one goroutine per file, via golang.org/x/sync/errgroup,
// since descriptor trees in a large compiled proto set are independent
// and read-only once built.
package extreg

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/protoruntime/protoruntime/internal/protolog"
	"github.com/protoruntime/protoruntime/protodesc"
)

// Registry is a thread-safe extension registry. The zero value is an
// empty, ready-to-use registry.
type Registry struct {
	mu   sync.RWMutex
	byOwner map[string]map[int32]*protodesc.FieldDescriptor
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byOwner: make(map[string]map[int32]*protodesc.FieldDescriptor)}
}

// Register adds a single extension field descriptor. It errors if fd
// is not an extension. If a different extension already occupies the
// same (extendee, number) slot, fd replaces it and the conflict is
// logged.
func (r *Registry) Register(fd *protodesc.FieldDescriptor) error {
	if !fd.IsExtension() {
		return fmt.Errorf("extreg: field %s is not an extension", fd.GetFullyQualifiedName())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putLocked(fd)
	return nil
}

func (r *Registry) putLocked(fd *protodesc.FieldDescriptor) {
	if r.byOwner == nil {
		r.byOwner = make(map[string]map[int32]*protodesc.FieldDescriptor)
	}
	owner := fd.GetOwner().GetFullyQualifiedName()
	m := r.byOwner[owner]
	if m == nil {
		m = make(map[int32]*protodesc.FieldDescriptor)
		r.byOwner[owner] = m
	}
	if existing, ok := m[fd.GetNumber()]; ok && existing.GetFullyQualifiedName() != fd.GetFullyQualifiedName() {
		protolog.WarnExtensionConflict(owner, fd.GetNumber(), existing.GetFullyQualifiedName(), fd.GetFullyQualifiedName())
	}
	m[fd.GetNumber()] = fd
}

// RegisterFile registers every extension declared at the top level of
// f. Extensions declared inside message scopes are not registered.
func (r *Registry) RegisterFile(f *protodesc.FileDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range f.GetExtensions() {
		r.putLocked(ext)
	}
	return nil
}

// RegisterAll registers extensions from every file in files
// concurrently, returning the first error (if any) from any file.
// Concurrency is safe because each file's extension list is read-only
// and the registry's own writes are serialized under its mutex.
func RegisterAll(ctx context.Context, r *Registry, files []*protodesc.FileDescriptor) error {
	g, _ := errgroup.WithContext(ctx)
	for _, f := range files {
		f := f
		g.Go(func() error {
			return r.RegisterFile(f)
		})
	}
	return g.Wait()
}

// Find looks up the extension field registered for (messageName, number).
func (r *Registry) Find(messageName string, number int32) *protodesc.FieldDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byOwner[messageName][number]
}

// AllExtensionsFor returns every extension registered for messageName,
// sorted by field number.
func (r *Registry) AllExtensionsFor(messageName string) []*protodesc.FieldDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byOwner[messageName]
	out := make([]*protodesc.FieldDescriptor, 0, len(m))
	for _, fd := range m {
		out = append(out, fd)
	}
	sortFieldsByNumber(out)
	return out
}

func sortFieldsByNumber(fds []*protodesc.FieldDescriptor) {
	for i := 1; i < len(fds); i++ {
		for j := i; j > 0 && fds[j-1].GetNumber() > fds[j].GetNumber(); j-- {
			fds[j-1], fds[j] = fds[j], fds[j-1]
		}
	}
}
