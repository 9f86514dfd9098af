package condition

// Operator is the comparison or grouping a Node applies.
type Operator string

const (
	Eq        Operator = "eq"
	Ne        Operator = "ne"
	Gt        Operator = "gt"
	Gte       Operator = "gte"
	Lt        Operator = "lt"
	Lte       Operator = "lte"
	In        Operator = "in"
	Nin       Operator = "nin"
	Like      Operator = "like"
	Regex     Operator = "regex"
	Text      Operator = "text"
	Exists    Operator = "exists"
	All       Operator = "all"
	Size      Operator = "size"
	Type      Operator = "type"
	Mod       Operator = "mod"
	ElemMatch Operator = "elemMatch"
	And       Operator = "and"
	Or        Operator = "or"
	Nor       Operator = "nor"
	Set       Operator = "set"
)

// comparison lists the operators emitted as {column: {"$op": value}}.
var comparison = map[Operator]bool{
	Eq: true, Ne: true, Gt: true, Gte: true, Lt: true, Lte: true,
	In: true, Nin: true, Regex: true, Exists: true, All: true,
	Size: true, Type: true, Mod: true, ElemMatch: true,
}

// Logic tags a node as the root of a logical group.
type Logic int

const (
	LogicNone Logic = iota
	LogicAnd
	LogicOr
	LogicNor
	LogicElemMatch
)

// Kind separates filter conditions from update assignments. The two are
// compiled independently from the same node list.
type Kind int

const (
	KindQuery Kind = iota
	KindUpdate
)

// Node is one comparison or logical group.
type Node struct {
	Column   string
	Operator Operator
	Value    any
	Logic    Logic
	Kind     Kind
	Children []Node
}

// Direction is a sort direction as stored in a sort document.
type Direction int

const (
	Asc  Direction = 1
	Desc Direction = -1
)

// Order is one sort key.
type Order struct {
	Column    string
	Direction Direction
}

// Projection includes or excludes one column.
type Projection struct {
	Column  string
	Include bool
}

// MapColumns returns a deep copy of nodes with every column passed through fn.
func MapColumns(nodes []Node, fn func(string) string) []Node {
	return MapNodes(nodes, func(n Node) Node {
		if n.Column != "" {
			n.Column = fn(n.Column)
		}
		return n
	})
}

// MapNodes returns a deep copy of nodes with fn applied to every node,
// children first. fn receives copies and may change any field but Children.
func MapNodes(nodes []Node, fn func(Node) Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		children := MapNodes(n.Children, fn)
		n = fn(n)
		n.Children = children
		out[i] = n
	}
	return out
}
