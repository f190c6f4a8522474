package bus

import "fmt"

// Container is the operation container: one ordered vector of operations per
// bus, plus a reverse index from an arbitrary caller-supplied key to the
// positions that touched it. Insertion is O(1) append; insertion returns a
// stable Ref usable for the lifetime of the block (spec §4.1).
type Container struct {
	buses [numKinds][]Op
	index [numKinds]map[string][]int
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	c := &Container{}
	for k := range c.index {
		c.index[k] = make(map[string][]int)
	}
	return c
}

// Push appends op to its bus, assigning no RWC of its own (the caller stamps
// RWC before calling Push; Container only enforces monotonicity, I1). key, if
// non-empty, indexes this insertion for later reverse lookups (e.g. "addr" for
// Account ops, "addr|slot" for Storage ops).
func (c *Container) Push(op Op, key string) Ref {
	bus := &c.buses[op.Kind]
	if n := len(*bus); n > 0 && op.RWC <= (*bus)[n-1].RWC {
		panic(fmt.Sprintf("bus: non-monotonic rwc on %s bus: %d after %d", op.Kind, op.RWC, (*bus)[n-1].RWC))
	}
	idx := len(*bus)
	*bus = append(*bus, op)
	if key != "" {
		c.index[op.Kind][key] = append(c.index[op.Kind][key], idx)
	}
	return Ref{Kind: op.Kind, Idx: idx}
}

// Get resolves a Ref to its operation.
func (c *Container) Get(ref Ref) Op {
	return c.buses[ref.Kind][ref.Idx]
}

// Bus returns the full ordered vector for one bus. Callers must not mutate
// the returned slice except through Container's own mutation API.
func (c *Container) Bus(kind Kind) []Op {
	return c.buses[kind]
}

// Len returns the number of operations on one bus.
func (c *Container) Len(kind Kind) int {
	return len(c.buses[kind])
}

// Positions returns the indices previously pushed under key on the given bus.
func (c *Container) Positions(kind Kind, key string) []int {
	return c.index[kind][key]
}

// TotalLen returns the total number of operations across every bus.
func (c *Container) TotalLen() int {
	n := 0
	for _, b := range c.buses {
		n += len(b)
	}
	return n
}

// PatchCallContextValue overwrites the Value field of a previously-inserted
// CallContext operation in place. This is the *only* sanctioned
// post-insertion mutation (spec §4.1, §9 "Placeholder-then-patch"), used
// exclusively by builder.setValueOpsCallContextRwcEOR to fill in
// RwCounterEndOfReversion once it becomes known at finalization.
func (c *Container) PatchCallContextValue(idx int, value uint64) {
	p := c.buses[CallContext][idx].Payload.(CallContextPayload)
	p.Value = value
	c.buses[CallContext][idx].Payload = p
}

// EachCallContext iterates the CallContext bus, invoking fn with each
// operation's index. fn must not mutate the container other than through
// PatchCallContextValue.
func (c *Container) EachCallContext(fn func(idx int, op Op)) {
	for i, op := range c.buses[CallContext] {
		fn(i, op)
	}
}
