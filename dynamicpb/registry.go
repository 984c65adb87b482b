package dynamicpb

import (
	"fmt"
	"strings"
	"sync"

	"github.com/protoruntime/protoruntime/internal/protolog"
	"github.com/protoruntime/protoruntime/protodesc"
)

const defaultDomain = "type.googleapis.com"

// Any mirrors the two-field wire shape of google.protobuf.Any closely
// enough for this runtime's extension/Any resolution needs (§4.5/§9 of
// the spec), without pulling in the full well-known-types package this
// module's Non-goals exclude.
type Any struct {
	TypeURL string
	Value   []byte
}

// MessageRegistry maps type URLs to message descriptors, letting
// MarshalAny/UnmarshalAny round-trip a message through an Any-shaped
// envelope the way teacher's MessageRegistry resolves Any payloads for
// dynamic.Message. Grounded on dynamic/message_registry.go, trimmed of
// the Service/Api/ptype conversion machinery this runtime's Non-goals
// (gRPC, service descriptors) exclude.
type MessageRegistry struct {
	mu            sync.RWMutex
	byURL         map[string]*protodesc.MessageDescriptor
	defaultDomain string
	factory       *MessageFactory
}

// NewMessageRegistry returns an empty registry that marshals new Any
// values under domain (canonicalized the way teacher's
// canonicalizeDomain does), using factory to construct resolved
// messages. A nil factory uses protoreflect.DefaultFactory with no
// extension resolver.
func NewMessageRegistry(domain string, factory *MessageFactory) *MessageRegistry {
	if domain == "" {
		domain = defaultDomain
	}
	if factory == nil {
		factory = NewMessageFactory(nil, nil)
	}
	return &MessageRegistry{
		byURL:         make(map[string]*protodesc.MessageDescriptor),
		defaultDomain: canonicalizeDomain(domain),
		factory:       factory,
	}
}

func canonicalizeDomain(domain string) string {
	domain = strings.TrimSuffix(domain, "/")
	if !strings.Contains(domain, "://") {
		return domain
	}
	if i := strings.Index(domain, "://"); i >= 0 {
		return domain[i+3:]
	}
	return domain
}

func urlFor(domain string, md *protodesc.MessageDescriptor) string {
	return domain + "/" + md.GetFullyQualifiedName()
}

// AddFile registers every message type (including nested ones) in md's
// file under domain, the way teacher's AddFile walks a whole
// FileDescriptor at once.
func (r *MessageRegistry) AddFile(domain string, fd *protodesc.FileDescriptor) {
	if domain == "" {
		domain = r.defaultDomain
	} else {
		domain = canonicalizeDomain(domain)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, md := range fd.GetMessageTypes() {
		r.addMessageLocked(domain, md)
	}
}

func (r *MessageRegistry) addMessageLocked(domain string, md *protodesc.MessageDescriptor) {
	url := urlFor(domain, md)
	if existing, ok := r.byURL[url]; ok && existing != md {
		protolog.WarnExtensionConflict(url, 0, existing.GetFullyQualifiedName(), md.GetFullyQualifiedName())
	}
	r.byURL[url] = md
	for _, nested := range md.GetNestedMessageTypes() {
		r.addMessageLocked(domain, nested)
	}
}

// FindMessageTypeByURL looks up a previously registered descriptor by
// its full type URL (scheme optional on the query side).
func (r *MessageRegistry) FindMessageTypeByURL(url string) *protodesc.MessageDescriptor {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if md, ok := r.byURL[url]; ok {
		return md
	}
	if i := strings.Index(url, "://"); i >= 0 {
		if md, ok := r.byURL[url[i+3:]]; ok {
			return md
		}
	}
	return nil
}

// MarshalAny serializes m and wraps it in an Any envelope addressed
// under this registry's default domain.
func (r *MessageRegistry) MarshalAny(m *Message) (*Any, error) {
	data, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	return &Any{TypeURL: urlFor(r.defaultDomain, m.Descriptor()), Value: data}, nil
}

// UnmarshalAny resolves any.TypeURL against this registry and parses
// any.Value into a freshly constructed dynamic message for the
// resolved descriptor. Unknown type URLs are reported as an error
// rather than silently dropped, matching the spec's "re-parse if
// registered, else preserve as unknown bytes" posture for the case
// where resolution is mandatory (a caller explicitly asked to unpack).
func (r *MessageRegistry) UnmarshalAny(a *Any) (*Message, error) {
	md := r.FindMessageTypeByURL(a.TypeURL)
	if md == nil {
		return nil, fmt.Errorf("dynamicpb: unknown message type %q", a.TypeURL)
	}
	return Unmarshal(a.Value, md, r.factory.asProtoreflectFactory(), r.factory.resolver)
}
