package instances

import (
	"fmt"
	"slices"

	"flex-engine/internal/flex"
)

// Factory builds an instance from its spec. group is the collision group the scene assigned.
type Factory func(spec Spec, group int32) (flex.Instance, error)

// Registry maps instance kind names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in kinds: particle_grid, rigid_grid,
// cloth and colliders.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("particle_grid", func(s Spec, g int32) (flex.Instance, error) { return NewParticleGrid(s, g) })
	r.Register("rigid_grid", func(s Spec, g int32) (flex.Instance, error) { return NewRigidGrid(s, g) })
	r.Register("cloth", func(s Spec, g int32) (flex.Instance, error) { return NewCloth(s, g) })
	r.Register("colliders", func(s Spec, g int32) (flex.Instance, error) { return NewColliders(s) })
	return r
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, f Factory) {
	r.factories[kind] = f
}

// Kinds returns the registered kind names in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// New builds one instance.
func (r *Registry) New(spec Spec, group int32) (flex.Instance, error) {
	f, ok := r.factories[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown instance kind %q", spec.Kind)
	}
	return f(spec, group)
}

// Build creates one instance per spec, in order. Each instance gets its own collision
// group, its position in specs.
func Build(r *Registry, specs []Spec) ([]flex.Instance, error) {
	out := make([]flex.Instance, 0, len(specs))
	for i, s := range specs {
		inst, err := r.New(s, int32(i))
		if err != nil {
			name := s.Name
			if name == "" {
				name = s.Kind
			}
			return nil, fmt.Errorf("instance %d (%s): %w", i, name, err)
		}
		out = append(out, inst)
	}
	return out, nil
}
