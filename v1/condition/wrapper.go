package condition

// Wrapper builds a condition list fluently. It is not safe for concurrent use.
//
//	w := condition.New().
//		Eq("status", "active").
//		Gte("age", 18).
//		Or(func(o *condition.Wrapper) {
//			o.Like("name", "^an").Eq("vip", true)
//		}).
//		OrderByDesc("createdAt")
type Wrapper struct {
	nodes       []Node
	orders      []Order
	projections []Projection
}

// New returns an empty wrapper. An empty wrapper matches every document.
func New() *Wrapper {
	return &Wrapper{}
}

func (w *Wrapper) leaf(op Operator, column string, value any) *Wrapper {
	w.nodes = append(w.nodes, Node{Column: column, Operator: op, Value: value})
	return w
}

func (w *Wrapper) Eq(column string, value any) *Wrapper  { return w.leaf(Eq, column, value) }
func (w *Wrapper) Ne(column string, value any) *Wrapper  { return w.leaf(Ne, column, value) }
func (w *Wrapper) Gt(column string, value any) *Wrapper  { return w.leaf(Gt, column, value) }
func (w *Wrapper) Gte(column string, value any) *Wrapper { return w.leaf(Gte, column, value) }
func (w *Wrapper) Lt(column string, value any) *Wrapper  { return w.leaf(Lt, column, value) }
func (w *Wrapper) Lte(column string, value any) *Wrapper { return w.leaf(Lte, column, value) }

// In matches any of values.
func (w *Wrapper) In(column string, values ...any) *Wrapper { return w.leaf(In, column, values) }

// Nin matches none of values.
func (w *Wrapper) Nin(column string, values ...any) *Wrapper { return w.leaf(Nin, column, values) }

// Like matches pattern as a regular expression. A blank pattern adds no clause.
func (w *Wrapper) Like(column, pattern string) *Wrapper { return w.leaf(Like, column, pattern) }

func (w *Wrapper) Regex(column, pattern string) *Wrapper { return w.leaf(Regex, column, pattern) }

// Text adds a full-text search. The column gets a text index before the
// query first runs.
func (w *Wrapper) Text(column, search string) *Wrapper { return w.leaf(Text, column, search) }

func (w *Wrapper) Exists(column string, exists bool) *Wrapper { return w.leaf(Exists, column, exists) }

func (w *Wrapper) All(column string, values ...any) *Wrapper { return w.leaf(All, column, values) }

func (w *Wrapper) Size(column string, n int) *Wrapper { return w.leaf(Size, column, n) }

// EqIf adds Eq only when cond is true. The other conditional forms follow
// the same pattern through If.
func (w *Wrapper) EqIf(cond bool, column string, value any) *Wrapper {
	if cond {
		w.Eq(column, value)
	}
	return w
}

// If runs fn on w when cond is true.
func (w *Wrapper) If(cond bool, fn func(*Wrapper)) *Wrapper {
	if cond {
		fn(w)
	}
	return w
}

// Or adds an OR group of the conditions fn builds. The filter holds a single
// $or key, so calling Or twice on the same wrapper keeps only the last group.
func (w *Wrapper) Or(fn func(*Wrapper)) *Wrapper {
	return w.group(Or, LogicOr, fn)
}

// Nor adds a NOR group: none of the conditions fn builds may match.
func (w *Wrapper) Nor(fn func(*Wrapper)) *Wrapper {
	return w.group(Nor, LogicNor, fn)
}

// And adds an AND group. Inside an Or it becomes one branch holding all of
// its conditions; at the top level its conditions merge into the filter.
func (w *Wrapper) And(fn func(*Wrapper)) *Wrapper {
	return w.group(And, LogicAnd, fn)
}

// ElemMatch adds an element-match group compiled as {$elemMatch: [...]}.
func (w *Wrapper) ElemMatch(fn func(*Wrapper)) *Wrapper {
	return w.group(ElemMatch, LogicElemMatch, fn)
}

func (w *Wrapper) group(op Operator, logic Logic, fn func(*Wrapper)) *Wrapper {
	sub := New()
	fn(sub)
	w.nodes = append(w.nodes, Node{Operator: op, Logic: logic, Children: sub.nodes})
	return w
}

// Set records an update assignment. Set nodes never appear in the filter.
func (w *Wrapper) Set(column string, value any) *Wrapper {
	w.nodes = append(w.nodes, Node{Column: column, Operator: Set, Value: value, Kind: KindUpdate})
	return w
}

// Add appends raw nodes.
func (w *Wrapper) Add(nodes ...Node) *Wrapper {
	w.nodes = append(w.nodes, nodes...)
	return w
}

func (w *Wrapper) OrderByAsc(columns ...string) *Wrapper {
	for _, c := range columns {
		w.orders = append(w.orders, Order{Column: c, Direction: Asc})
	}
	return w
}

func (w *Wrapper) OrderByDesc(columns ...string) *Wrapper {
	for _, c := range columns {
		w.orders = append(w.orders, Order{Column: c, Direction: Desc})
	}
	return w
}

// Select includes only columns in the result.
func (w *Wrapper) Select(columns ...string) *Wrapper {
	for _, c := range columns {
		w.projections = append(w.projections, Projection{Column: c, Include: true})
	}
	return w
}

// Exclude drops columns from the result.
func (w *Wrapper) Exclude(columns ...string) *Wrapper {
	for _, c := range columns {
		w.projections = append(w.projections, Projection{Column: c, Include: false})
	}
	return w
}

func (w *Wrapper) Nodes() []Node             { return w.nodes }
func (w *Wrapper) Orders() []Order           { return w.orders }
func (w *Wrapper) Projections() []Projection { return w.projections }

// MapNodes returns a copy of w with fn applied to every node.
func (w *Wrapper) MapNodes(fn func(Node) Node) *Wrapper {
	return &Wrapper{
		nodes:       MapNodes(w.nodes, fn),
		orders:      append([]Order(nil), w.orders...),
		projections: append([]Projection(nil), w.projections...),
	}
}

// MapColumns returns a copy of w with every column passed through fn.
func (w *Wrapper) MapColumns(fn func(string) string) *Wrapper {
	out := &Wrapper{nodes: MapColumns(w.nodes, fn)}
	for _, o := range w.orders {
		o.Column = fn(o.Column)
		out.orders = append(out.orders, o)
	}
	for _, p := range w.projections {
		p.Column = fn(p.Column)
		out.projections = append(out.projections, p)
	}
	return out
}
