package keyschema

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Descriptor is the immutable per-type result of registration
type Descriptor struct {
	schema    *StructSchema
	holder    *KeyHolderSchema
	fixedSize bool
	warnings  []string
}

// ID returns the registered type identifier
func (d *Descriptor) ID() string {
	return d.schema.ID
}

// Schema returns a copy of the registered source schema
func (d *Descriptor) Schema() *StructSchema {
	return d.schema.Clone()
}

// Holder returns the derived key holder
func (d *Descriptor) Holder() *KeyHolderSchema {
	return d.holder
}

// HasKey reports whether the type has at least one key field
func (d *Descriptor) HasKey() bool {
	return !d.holder.IsEmpty()
}

// IsFixedSize returns the fixed-size claim made at registration. It is
// not derived from the key holder.
func (d *Descriptor) IsFixedSize() bool {
	return d.fixedSize
}

// ForceDigestKeyHash reports whether the key encoding is variable length,
// in which case a key hash must be a digest of KeyBytes.
func (d *Descriptor) ForceDigestKeyHash() bool {
	return d.holder.VariableLength()
}

// Warnings returns the registration warnings of the type
func (d *Descriptor) Warnings() []string {
	out := make([]string, len(d.warnings))
	copy(out, d.warnings)
	return out
}

// KeyBytes returns the canonical CDR_BE key encoding of the instance
// behind src, encapsulation header included.
func (d *Descriptor) KeyBytes(src Source) ([]byte, error) {
	v, err := BuildHolderValue(d.holder, src)
	if err != nil {
		return nil, err
	}
	return EncodeKey(v)
}

// Registry maps type identifiers to their descriptors. Nested structured
// key fields resolve against the types registered before them.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]*Descriptor
	order       []string
	validator   *Validator
	logger      *zap.Logger
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithLogger sets the logger used for registration events and warnings
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a new, empty registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		descriptors: make(map[string]*Descriptor),
		order:       make([]string, 0),
		validator:   NewValidator(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register derives and stores the key holder of s without a fixed-size
// claim.
func (r *Registry) Register(s *StructSchema) (*Descriptor, error) {
	return r.register(s, false)
}

// RegisterFixedSize derives and stores the key holder of s, asserting that
// every encoding of the whole type has the same size. The claim is not
// verified.
func (r *Registry) RegisterFixedSize(s *StructSchema) (*Descriptor, error) {
	return r.register(s, true)
}

func (r *Registry) register(s *StructSchema, fixedSize bool) (*Descriptor, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}
	s = s.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.validator.Validate(s); err != nil {
		return nil, fmt.Errorf("schema validation failed for %s: %w", s.ID, err)
	}

	if _, exists := r.descriptors[s.ID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateType, s.ID)
	}

	builder := NewBuilder(lockedResolver{r})
	holder, err := builder.Build(s)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed for %s: %w", s.ID, err)
	}

	warnings := builder.Warnings()
	if fixedSize && holder.VariableLength() {
		warnings = append(warnings, fmt.Sprintf(
			"%s is registered as fixed size but its key is variable length; key hashes will use a digest", s.ID))
	}

	d := &Descriptor{
		schema:    s,
		holder:    holder,
		fixedSize: fixedSize,
		warnings:  warnings,
	}
	r.descriptors[s.ID] = d
	r.order = append(r.order, s.ID)

	r.logger.Debug("registered topic type",
		zap.String("type", s.ID),
		zap.String("holder", holder.ID()),
		zap.Int("key_fields", holder.Len()),
		zap.Bool("fixed_size", fixedSize),
		zap.Bool("variable_length", holder.VariableLength()),
	)
	for _, warning := range warnings {
		r.logger.Warn("topic type registration warning",
			zap.String("type", s.ID),
			zap.String("warning", warning),
		)
	}

	return d, nil
}

// Get retrieves a descriptor by type identifier
func (r *Registry) Get(id string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.descriptors[id]
	return d, exists
}

// Holder implements HolderResolver
func (r *Registry) Holder(id string) (*KeyHolderSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lockedResolver{r}.Holder(id)
}

// List returns the registered type identifiers in registration order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered types
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.descriptors)
}

// Exists checks if a type is registered
func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.descriptors[id]
	return exists
}

// lockedResolver reads the registry while the caller holds its lock
type lockedResolver struct {
	r *Registry
}

func (l lockedResolver) Holder(id string) (*KeyHolderSchema, bool) {
	d, exists := l.r.descriptors[id]
	if !exists {
		return nil, false
	}
	return d.holder, true
}
