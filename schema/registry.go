package schema

import (
	"fmt"
	"reflect"
	"sync"

	storm "github.com/Startitecture/storm-sub007"
)

// Registry holds the descriptors of registered row types. Descriptors are
// built on first use, exactly once per type, and are read-only afterwards.
type Registry struct {
	defaultSchema string

	mu     sync.RWMutex
	byType map[reflect.Type]*entry
	byName map[string]*entry
}

type entry struct {
	once sync.Once
	typ  reflect.Type
	def  Definition
	desc *Descriptor
	err  error
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDefaultSchema sets the schema used for tables declared without one.
func WithDefaultSchema(name string) RegistryOption {
	return func(r *Registry) {
		if name != "" {
			r.defaultSchema = name
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		defaultSchema: "dbo",
		byType:        make(map[reflect.Type]*entry),
		byName:        make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default is the process-wide registry used by Register and For.
var Default = NewRegistry()

// DefaultSchema returns the schema used for tables declared without one.
func (r *Registry) DefaultSchema() string {
	return r.defaultSchema
}

// Register declares the row type T with a separate definition. Types that
// implement Definition themselves are registered on first use and need not
// be registered explicitly.
func Register[T any](def Definition) error {
	return Default.Register(reflect.TypeFor[T](), def)
}

// For returns the descriptor of T from the default registry.
func For[T any]() (*Descriptor, error) {
	return Default.Describe(reflect.TypeFor[T]())
}

// MustFor is like For but panics if the descriptor cannot be built.
func MustFor[T any]() *Descriptor {
	d, err := For[T]()
	if err != nil {
		panic(err)
	}
	return d
}

// Register declares a row type with the given definition.
func (r *Registry) Register(t reflect.Type, def Definition) error {
	if t == nil || def == nil {
		return fmt.Errorf("schema: register: nil type or definition")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byType[t]; ok {
		return fmt.Errorf("schema: register: %s already registered", t)
	}
	e := &entry{typ: t, def: def}
	r.byType[t] = e
	r.byName[Fold(t.Name())] = e
	return nil
}

// Add registers a descriptor that was built by name, e.g. from YAML.
func (r *Registry) Add(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("schema: add: nil descriptor")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := Fold(d.Name)
	if _, ok := r.byName[key]; ok {
		return fmt.Errorf("schema: add: %s already registered", d.Name)
	}
	e := &entry{typ: d.Type, desc: d}
	e.once.Do(func() {})
	r.byName[key] = e
	if d.Type != nil {
		r.byType[d.Type] = e
	}
	return nil
}

// Describe returns the descriptor of t, building it on first use.
func (r *Registry) Describe(t reflect.Type) (*Descriptor, error) {
	e, err := r.entryFor(t)
	if err != nil {
		return nil, err
	}
	return r.build(e)
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	r.mu.RLock()
	e, ok := r.byName[Fold(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, storm.NewSchemaError(name, "row type is not registered")
	}
	return r.build(e)
}

// Target returns the descriptor of the row type a relation joins to.
func (r *Registry) Target(rel *Relation) (*Descriptor, error) {
	if rel.Target != nil {
		return r.Describe(rel.Target)
	}
	return r.Lookup(rel.TargetName)
}

func (r *Registry) entryFor(t reflect.Type) (*entry, error) {
	r.mu.RLock()
	e, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return e, nil
	}
	def, ok := definitionOf(t)
	if !ok {
		return nil, storm.NewSchemaError(t.String(), "row type is not registered and does not implement schema.Definition")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byType[t]; ok {
		return e, nil
	}
	e = &entry{typ: t, def: def}
	r.byType[t] = e
	if _, ok := r.byName[Fold(t.Name())]; !ok {
		r.byName[Fold(t.Name())] = e
	}
	return e, nil
}

func (r *Registry) build(e *entry) (*Descriptor, error) {
	e.once.Do(func() {
		e.desc, e.err = r.define(e.typ, e.def)
	})
	return e.desc, e.err
}

func (r *Registry) define(t reflect.Type, def Definition) (*Descriptor, error) {
	name := t.Name()
	if t.Kind() == reflect.Pointer {
		name = t.Elem().Name()
	}
	table := def.Table()
	if table.Schema == "" {
		table.Schema = r.defaultSchema
	}
	fields := def.Fields()
	columns := make([]*Column, 0, len(fields))
	for _, f := range fields {
		columns = append(columns, f.Descriptor())
	}
	edges := def.Edges()
	relations := make([]*Relation, 0, len(edges))
	for _, ed := range edges {
		relations = append(relations, ed.Descriptor())
	}
	d, err := New(name, table, columns, relations)
	if err != nil {
		return nil, err
	}
	d.Type = t
	return d, nil
}

var definitionType = reflect.TypeFor[Definition]()

func definitionOf(t reflect.Type) (Definition, bool) {
	if t == nil || !t.Implements(definitionType) {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(Definition), true
	}
	return reflect.Zero(t).Interface().(Definition), true
}
