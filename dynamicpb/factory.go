package dynamicpb

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/protoruntime/protoruntime/protodesc"
	"github.com/protoruntime/protoruntime/protoreflect"
)

// KnownTypeCreator builds a concrete, pre-warmed *Message for one
// specific message full name, letting a caller hand-optimize a hot
// message type (e.g. one it also has a generated Go struct for)
// without dynamicpb needing to know generated types exist.
type KnownTypeCreator func(md *protodesc.MessageDescriptor) *Message

// KnownTypeRegistry maps full message names to a KnownTypeCreator,
// mirroring teacher's KnownTypeRegistry but returning dynamicpb
// messages (pre-populated, not generated structs) since this runtime
// never links generated code.
type KnownTypeRegistry struct {
	mu      sync.RWMutex
	creators map[string]KnownTypeCreator
}

// NewKnownTypeRegistry returns an empty registry.
func NewKnownTypeRegistry() *KnownTypeRegistry {
	return &KnownTypeRegistry{creators: make(map[string]KnownTypeCreator)}
}

// Register associates fullName with creator. A later call for the
// same name replaces the earlier one.
func (k *KnownTypeRegistry) Register(fullName string, creator KnownTypeCreator) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.creators[fullName] = creator
}

// CreateIfKnown returns a new message via the registered creator for
// fullName, or nil if no creator is registered.
func (k *KnownTypeRegistry) CreateIfKnown(fullName string, md *protodesc.MessageDescriptor) *Message {
	if k == nil {
		return nil
	}
	k.mu.RLock()
	creator := k.creators[fullName]
	k.mu.RUnlock()
	if creator == nil {
		return nil
	}
	return creator(md)
}

// MessageFactory creates new empty dynamic messages for a descriptor,
// consulting a KnownTypeRegistry first and an extension resolver for
// any extension fields the produced messages later parse. Grounded on
// teacher's MessageFactory, generalized to produce dynamicpb.Message
// values (there is no separate "generated struct" branch — every
// message this runtime ever returns is a dynamicpb.Message, known-type
// or not).
type MessageFactory struct {
	ktr      *KnownTypeRegistry
	resolver protoreflect.ExtensionResolver
}

// NewMessageFactory creates a factory that consults ktr (which may be
// nil) for known types and resolver (which may be nil) for extension
// fields encountered while parsing messages it produces.
func NewMessageFactory(ktr *KnownTypeRegistry, resolver protoreflect.ExtensionResolver) *MessageFactory {
	return &MessageFactory{ktr: ktr, resolver: resolver}
}

// NewMessage creates a new empty message for md, preferring a
// registered known-type creator over the generic dynamic
// construction.
func (f *MessageFactory) NewMessage(md *protodesc.MessageDescriptor) *Message {
	if f == nil {
		return NewMessage(md, nil, nil)
	}
	if m := f.ktr.CreateIfKnown(md.GetFullyQualifiedName(), md); m != nil {
		return m
	}
	return NewMessage(md, f.asProtoreflectFactory(), f.resolver)
}

// asProtoreflectFactory adapts this factory to protoreflect.Factory,
// so it can be handed directly to protoreflect.Parse/Unmarshal for
// constructing nested submessages while decoding.
func (f *MessageFactory) asProtoreflectFactory() protoreflect.Factory {
	return func(md *protodesc.MessageDescriptor) *protoreflect.Message {
		return f.NewMessage(md).Message
	}
}

// WarmUp eagerly constructs and discards one message per descriptor in
// mds concurrently, forcing any registered KnownTypeCreator's one-time
// initialization (e.g. building a reusable sub-object pool) to happen
// before the factory serves real traffic, mirroring the concurrent
// batch-validation pattern extreg.Registry.RegisterAll uses for the
// same "pay setup cost once, up front" reason.
func (f *MessageFactory) WarmUp(mds []*protodesc.MessageDescriptor) error {
	var g errgroup.Group
	for _, md := range mds {
		md := md
		g.Go(func() error {
			f.NewMessage(md)
			return nil
		})
	}
	return g.Wait()
}
