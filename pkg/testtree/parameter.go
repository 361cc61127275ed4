package testtree

import "strings"

// Parameter is one parameterisation axis on a node: a name, a pointer the
// test body reads its current value from, and the list of values the axis
// ranges over.
type Parameter struct {
	Name     string
	Variable *string
	Values   []string
}

// AddParameter registers a parameter axis on n. variable is the slot an
// Assignment writes into; it must outlive every Assignment produced from
// this node.
func (n *Node) AddParameter(name string, variable *string, values []string) {
	n.parameters = append(n.parameters, &Parameter{Name: name, Variable: variable, Values: values})
}

// pick is one parameter's chosen value within a single Assignment.
type pick struct {
	param *Parameter
	idx   int
}

// Assignment is one point in the cross-product of every parameter axis
// registered on a node: exactly one value chosen per axis.
type Assignment struct {
	picks []pick
}

// Apply writes every axis's chosen value into its Variable slot.
func (a Assignment) Apply() {
	for _, p := range a.picks {
		*p.param.Variable = p.param.Values[p.idx]
	}
}

// Unapply clears every axis's Variable slot back to "".
func (a Assignment) Unapply() {
	for _, p := range a.picks {
		*p.param.Variable = ""
	}
}

// String renders the assignment as "name=value" pairs, for test names and
// diagnostics.
func (a Assignment) String() string {
	parts := make([]string, len(a.picks))
	for i, p := range a.picks {
		parts[i] = p.param.Name + "=" + p.param.Values[p.idx]
	}
	return strings.Join(parts, ",")
}

// CreateAssignments returns the full cross-product of n's parameter axes:
// one Assignment per combination of (axis, chosen value), in axis
// registration order. A node with no parameters produces no assignments.
func (n *Node) CreateAssignments() []Assignment {
	if len(n.parameters) == 0 {
		return nil
	}

	combos := []Assignment{{}}
	for _, p := range n.parameters {
		var next []Assignment
		for _, c := range combos {
			for idx := range p.Values {
				picks := make([]pick, len(c.picks), len(c.picks)+1)
				copy(picks, c.picks)
				picks = append(picks, pick{param: p, idx: idx})
				next = append(next, Assignment{picks: picks})
			}
		}
		combos = next
	}
	return combos
}
