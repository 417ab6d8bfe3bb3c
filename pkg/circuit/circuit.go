// Package circuit assembles a topology of device.Element values into an
// MNA system: it owns the node registry, lays out matrix rows (node
// voltages first, then each element's extra variable), and drives the
// per-element Stamp calls that build a CircuitMatrix snapshot.
package circuit

import (
	"fmt"
	"sort"

	"github.com/circuitsim/mnaspice/pkg/device"
	"github.com/circuitsim/mnaspice/pkg/matrix"
	"github.com/circuitsim/mnaspice/pkg/registry"
)

// Circuit holds the element list, the node registry, and (once Finalize
// has run) the assembled CircuitMatrix.
type Circuit struct {
	name     string
	registry *registry.NodeRegistry
	elements []*device.Element
	byName   map[string]*device.Element

	dirty bool // topology changed since the last Finalize

	numNodes    int
	numExtra    int
	rowToNodeID map[int]int
	nodeIDToRow map[int]int

	// Matrix is the real MNA system used by OP/DC-sweep/transient.
	// ACMatrix is the complex system used by an AC sweep; both are laid
	// out over the same rows, so a circuit never needs to choose one at
	// construction time.
	Matrix   *matrix.CircuitMatrix
	ACMatrix *matrix.CircuitMatrix
	Status   *device.Status
}

// New returns an empty circuit.
func New(name string) *Circuit {
	return &Circuit{
		name:     name,
		registry: registry.New(),
		byName:   make(map[string]*device.Element),
		dirty:    true,
		Status:   &device.Status{},
	}
}

func (c *Circuit) Name() string { return c.name }

// Add inserts a two-terminal element, resolving n1/n2 through the node
// registry (materializing labels on first reference).
func (c *Circuit) Add(e *device.Element, n1, n2 string) error {
	return c.addElement(e, n1, n2, "", "")
}

// AddControlled inserts a VCCS/VCVS element, additionally resolving its
// two controlling-node labels.
func (c *Circuit) AddControlled(e *device.Element, n1, n2, ctrl1, ctrl2 string) error {
	return c.addElement(e, n1, n2, ctrl1, ctrl2)
}

func (c *Circuit) addElement(e *device.Element, n1, n2, ctrl1, ctrl2 string) error {
	if _, exists := c.byName[e.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
	}

	id1, err := c.registry.ResolveId(n1)
	if err != nil {
		return fmt.Errorf("circuit: element %s node 1: %w", e.Name, err)
	}
	id2, err := c.registry.ResolveId(n2)
	if err != nil {
		return fmt.Errorf("circuit: element %s node 2: %w", e.Name, err)
	}
	e.N1, e.N2 = id1, id2

	if ctrl1 != "" {
		c1, err := c.registry.ResolveId(ctrl1)
		if err != nil {
			return fmt.Errorf("circuit: element %s control node 1: %w", e.Name, err)
		}
		e.Ctrl1 = c1
	}
	if ctrl2 != "" {
		c2, err := c.registry.ResolveId(ctrl2)
		if err != nil {
			return fmt.Errorf("circuit: element %s control node 2: %w", e.Name, err)
		}
		e.Ctrl2 = c2
	}

	c.elements = append(c.elements, e)
	c.byName[e.Name] = e
	c.dirty = true
	return nil
}

// Delete removes an element by name. Deleting the controller of a
// CCCS/CCVS leaves that source unresolved; Finalize reports the error.
func (c *Circuit) Delete(name string) error {
	e, ok := c.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownElement, name)
	}
	delete(c.byName, name)
	for i, other := range c.elements {
		if other == e {
			c.elements = append(c.elements[:i], c.elements[i+1:]...)
			break
		}
	}
	c.dirty = true
	return nil
}

// Connect shorts two node labels together (a zero-resistance tie).
func (c *Circuit) Connect(a, b string) error {
	if _, err := c.registry.Connect(a, b); err != nil {
		return fmt.Errorf("circuit: connect %s %s: %w", a, b, err)
	}
	c.dirty = true
	return nil
}

// Label attaches a display name to the node presently named nodeRef,
// merging classes if the label already names a different node.
func (c *Circuit) Label(label, nodeRef string) error {
	id, err := c.registry.ResolveId(nodeRef)
	if err != nil {
		return fmt.Errorf("circuit: label %s: %w", label, err)
	}
	if _, err := c.registry.LabelNode(label, id); err != nil {
		return fmt.Errorf("circuit: label %s: %w", label, err)
	}
	c.dirty = true
	return nil
}

// Element returns the named element, or false if none exists.
func (c *Circuit) Element(name string) (*device.Element, bool) {
	e, ok := c.byName[name]
	return e, ok
}

// Elements returns the element list in insertion order.
func (c *Circuit) Elements() []*device.Element { return c.elements }

// Finalize re-canonicalizes every element's endpoints against the node
// registry, assigns matrix rows (node voltages, then extra variables),
// resolves CCCS/CCVS controller references, and (re)allocates the
// CircuitMatrix. It is a no-op if nothing changed since the last call.
func (c *Circuit) Finalize() error {
	if !c.dirty {
		return nil
	}

	for _, e := range c.elements {
		e.CanonicalizeEndpoints(c.registry)
	}

	nodeSet := make(map[int]bool)
	for _, e := range c.elements {
		for _, id := range [...]int{e.N1, e.N2, e.Ctrl1, e.Ctrl2} {
			if id != 0 {
				nodeSet[id] = true
			}
		}
	}
	ids := make([]int, 0, len(nodeSet))
	for id := range nodeSet {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	rowOf := make(map[int]int, len(ids))
	rowToID := make(map[int]int, len(ids))
	for i, id := range ids {
		row := i + 1
		rowOf[id] = row
		rowToID[row] = id
	}
	numNodes := len(ids)

	for _, e := range c.elements {
		e.N1 = rowOf[e.N1]
		e.N2 = rowOf[e.N2]
		if e.Kind == device.VCCS || e.Kind == device.VCVS {
			e.Ctrl1 = rowOf[e.Ctrl1]
			e.Ctrl2 = rowOf[e.Ctrl2]
		}
	}

	extraIdx := 0
	for _, e := range c.elements {
		if e.IntroducesExtraVariable() {
			e.SetExtraVariableIndex(extraIdx, numNodes)
			extraIdx++
		}
	}

	for _, e := range c.elements {
		if !e.RequiresControllerResolution() {
			continue
		}
		ctrl, ok := c.byName[e.CtrlName]
		if !ok {
			return fmt.Errorf("%w: %s names %q", ErrUnresolvedController, e.Name, e.CtrlName)
		}
		if !ctrl.IntroducesExtraVariable() {
			return fmt.Errorf("%w: %s controller %q carries no branch current", ErrUnresolvedController, e.Name, e.CtrlName)
		}
		e.SetControllerRow(ctrl.ExtraRow())
	}

	c.numNodes = numNodes
	c.numExtra = extraIdx
	c.rowToNodeID = rowToID
	c.nodeIDToRow = rowOf

	if c.Matrix != nil {
		c.Matrix.Destroy()
	}
	if c.ACMatrix != nil {
		c.ACMatrix.Destroy()
	}
	size := numNodes + extraIdx
	c.Matrix = matrix.NewMatrix(size, false)
	c.ACMatrix = matrix.NewMatrix(size, true)
	c.dirty = false
	return nil
}

// Stamp assembles one MNA snapshot into the (already-cleared) matrix
// appropriate for status.Mode: the complex ACMatrix for an AC sweep
// point, the real Matrix otherwise.
func (c *Circuit) Stamp(status *device.Status) error {
	if err := c.Finalize(); err != nil {
		return err
	}
	mat := c.Matrix
	if status.Mode == device.ACAnalysis {
		mat = c.ACMatrix
	}
	for _, e := range c.elements {
		if err := e.Stamp(mat, status); err != nil {
			return fmt.Errorf("stamping %s: %w", e.Name, err)
		}
	}
	return nil
}

// UpdateNonlinearVoltages refreshes every nonlinear element's Newton
// estimate from the present solution; called between NR iterations.
func (c *Circuit) UpdateNonlinearVoltages(solution []float64) {
	for _, e := range c.elements {
		if e.IsNonlinear() {
			e.UpdateDiodeVoltage(solution)
		}
	}
}

// CommitTimestep records the solved state every time-dependent element
// needs for its next backward-Euler companion model.
func (c *Circuit) CommitTimestep(solution []float64) {
	for _, e := range c.elements {
		e.CommitTimestep(solution)
	}
}

// NumNodes returns the count of non-ground node rows after layout.
func (c *Circuit) NumNodes() int { return c.numNodes }

// MatrixSize returns the total unknown count (nodes + extra variables).
func (c *Circuit) MatrixSize() int { return c.numNodes + c.numExtra }

// NodeLabel returns the display label for matrix row (1..NumNodes()).
func (c *Circuit) NodeLabel(row int) string {
	id, ok := c.rowToNodeID[row]
	if !ok {
		return fmt.Sprintf("%d", row)
	}
	label := c.registry.NameOf(id)
	if label == "" {
		return fmt.Sprintf("%d", id)
	}
	return label
}

// NodeVoltage returns the solved voltage at the node named label, 0 for
// ground or an unknown label.
func (c *Circuit) NodeVoltage(label string) float64 {
	id, err := c.registry.ResolveId(label)
	if err != nil || id == 0 {
		return 0
	}
	row, ok := c.nodeIDToRow[c.registry.Canonical(id)]
	if !ok {
		return 0
	}
	return c.Matrix.Solution()[row]
}

// BranchCurrent returns the solved current through a V-type element
// (V, inductor, sinusoidal/pulse source, VCVS, CCVS), or 0 if it
// introduces no extra variable. The sign is current entering the
// element at n1, which is the branch unknown as solved.
func (c *Circuit) BranchCurrent(name string) float64 {
	e, ok := c.byName[name]
	if !ok || !e.IntroducesExtraVariable() {
		return 0
	}
	return c.Matrix.Solution()[e.ExtraRow()]
}

// Solution returns every node voltage and source/inductor branch current,
// keyed "V(label)"/"I(name)", plus a computed "I(name)" for every resistor.
func (c *Circuit) Solution() map[string]float64 {
	out := make(map[string]float64)
	sol := c.Matrix.Solution()

	for row, id := range c.rowToNodeID {
		label := c.registry.NameOf(id)
		if label == "" {
			label = fmt.Sprintf("%d", id)
		}
		out[fmt.Sprintf("V(%s)", label)] = sol[row]
	}

	for _, e := range c.elements {
		if e.IntroducesExtraVariable() {
			out[fmt.Sprintf("I(%s)", e.Name)] = sol[e.ExtraRow()]
		}
		if e.Kind == device.Resistor {
			v1, v2 := 0.0, 0.0
			if e.N1 != 0 {
				v1 = sol[e.N1]
			}
			if e.N2 != 0 {
				v2 = sol[e.N2]
			}
			out[fmt.Sprintf("I(%s)", e.Name)] = (v1 - v2) / e.Value
		}
	}
	return out
}

// Destroy releases the underlying sparse matrices.
func (c *Circuit) Destroy() {
	if c.Matrix != nil {
		c.Matrix.Destroy()
	}
	if c.ACMatrix != nil {
		c.ACMatrix.Destroy()
	}
}

// IsFloating reports whether any non-ground node cannot reach ground by
// walking element endpoints, a common source of a singular DC matrix.
func (c *Circuit) IsFloating() bool {
	if err := c.Finalize(); err != nil {
		return true
	}
	adj := make(map[int][]int)
	addEdge := func(a, b int) {
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	for _, e := range c.elements {
		addEdge(e.N1, e.N2)
		if e.Kind == device.VCCS || e.Kind == device.VCVS {
			addEdge(e.Ctrl1, e.Ctrl2)
		}
	}

	visited := map[int]bool{0: true}
	queue := []int{0}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, next := range adj[n] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	for row := 1; row <= c.numNodes; row++ {
		if !visited[row] {
			return true
		}
	}
	return false
}
