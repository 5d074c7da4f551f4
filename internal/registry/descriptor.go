// Package registry bridges tracker state into a generic relationship
// registrar, expanding one polymorphic type into concrete per-target
// relationships that ordinary eager-loading machinery can traverse.
package registry

// Kind discriminates relationship descriptors. Consumers switch on it
// instead of duck-typing the descriptor shape.
type Kind int

const (
	// KindDirect is an ordinary single-target relationship.
	KindDirect Kind = iota
	// KindPolymorphic is an umbrella relationship carrying the full
	// valid-target list for one polymorphic type.
	KindPolymorphic
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindPolymorphic:
		return "polymorphic"
	default:
		return "unknown"
	}
}

// Descriptor describes one registered relationship.
//
// Direct descriptors fill TargetTable/TargetModel; polymorphic descriptors
// fill ValidTargets instead. Concrete fan-out entries are registered as
// direct relationships but keep PolymorphicType as provenance.
type Descriptor struct {
	Kind        Kind
	Name        string
	SourceTable string
	IDField     string
	TypeField   string

	// Direct
	TargetTable string
	TargetModel string
	Reverse     bool // target-side "has many owners" direction

	// Polymorphic
	PolymorphicType string
	ValidTargets    []string
}

// IsPolymorphic reports whether the descriptor is a polymorphic umbrella
// entry.
func IsPolymorphic(d Descriptor) bool {
	return d.Kind == KindPolymorphic
}
