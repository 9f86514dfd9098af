package condition

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Filter is a compiled filter document plus the columns that need a text
// index before the filter can run.
type Filter struct {
	Doc         bson.D
	TextColumns []string
}

// CompileFilter turns the query nodes of a list into a filter document.
// Update nodes are ignored. An empty list yields an empty, match-all filter.
//
// Per node, the first matching rule applies:
//  1. like with a non-blank value: {col: {$regex: v}}
//  2. LogicOr: {$or: [...]}, children compiled as OR branches; a node with
//     no children is its own single branch
//  3. LogicNor: {$nor: [...]}, one full filter document per child
//  4. LogicElemMatch: {$elemMatch: [...]}, children compiled as OR branches
//  5. text: {$text: {$search: v}}, and the column is recorded for indexing
//  6. LogicAnd or and: the children's clauses are merged in place
//  7. otherwise: {col: {$op: v}}
//
// Clauses on the same column merge into one operator document; a repeated
// top-level key keeps its first position and takes the last value.
func CompileFilter(nodes []Node) (*Filter, error) {
	c := &compiler{}
	doc, err := c.filter(nodes)
	if err != nil {
		return nil, err
	}
	return &Filter{Doc: doc, TextColumns: c.text}, nil
}

// CompileUpdate returns {col: value} for the update nodes of a list, in list
// order. The last value for a repeated column wins.
func CompileUpdate(nodes []Node) bson.D {
	b := newDocBuilder()
	for _, n := range nodes {
		if n.Kind != KindUpdate {
			continue
		}
		b.set(n.Column, n.Value)
	}
	return b.doc
}

// CompileProjection returns {col: 1|0}. Mixing inclusions and exclusions is
// an ErrQuery, except that _id may always be excluded or included.
func CompileProjection(projections []Projection) (bson.D, error) {
	b := newDocBuilder()
	var include, exclude []string
	for _, p := range projections {
		v := 0
		if p.Include {
			v = 1
		}
		b.set(p.Column, v)
	}
	for _, e := range b.doc {
		if e.Key == "_id" {
			continue
		}
		if e.Value == 1 {
			include = append(include, e.Key)
		} else {
			exclude = append(exclude, e.Key)
		}
	}
	if len(include) > 0 && len(exclude) > 0 {
		return nil, fmt.Errorf("%w: projection mixes included %v and excluded %v", ErrQuery, include, exclude)
	}
	return b.doc, nil
}

// CompileSort returns {col: 1|-1} in order.
func CompileSort(orders []Order) bson.D {
	b := newDocBuilder()
	for _, o := range orders {
		dir := o.Direction
		if dir != Desc {
			dir = Asc
		}
		b.set(o.Column, int(dir))
	}
	return b.doc
}

type compiler struct {
	text []string
}

func (c *compiler) filter(nodes []Node) (bson.D, error) {
	b := newDocBuilder()
	for _, n := range nodes {
		if n.Kind != KindQuery {
			continue
		}
		switch {
		case n.Operator == Like && !isBlank(n.Value):
			b.op(n.Column, "$regex", n.Value)

		case n.Logic == LogicOr:
			children := n.Children
			if len(children) == 0 {
				children = []Node{n}
			}
			branches, err := c.orBranch(children)
			if err != nil {
				return nil, err
			}
			b.set("$or", branches)

		case n.Logic == LogicNor:
			branches := bson.A{}
			for _, child := range n.Children {
				d, err := c.filter([]Node{child})
				if err != nil {
					return nil, err
				}
				if len(d) > 0 {
					branches = append(branches, d)
				}
			}
			b.set("$nor", branches)

		case n.Logic == LogicElemMatch:
			branches, err := c.orBranch(n.Children)
			if err != nil {
				return nil, err
			}
			b.set("$elemMatch", branches)

		case n.Operator == Text:
			b.set("$text", bson.D{{Key: "$search", Value: n.Value}})
			c.recordText(n.Column)

		case n.Logic == LogicAnd || n.Operator == And:
			d, err := c.filter(n.Children)
			if err != nil {
				return nil, err
			}
			b.merge(d)

		default:
			op, ok, err := comparisonOperator(n)
			if err != nil {
				return nil, err
			}
			if ok {
				b.op(n.Column, op, n.Value)
			}
		}
	}
	return b.doc, nil
}

// orBranch compiles the children of an OR group into array elements. An and
// child contributes its own full filter document as a sibling element; any
// other group compiles to its own single-key document.
func (c *compiler) orBranch(children []Node) (bson.A, error) {
	branches := bson.A{}
	for _, n := range children {
		switch {
		case n.Operator == Like && !isBlank(n.Value):
			branches = append(branches, bson.D{{Key: n.Column, Value: bson.D{{Key: "$regex", Value: n.Value}}}})

		case n.Operator == Text:
			branches = append(branches, bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: n.Value}}}})
			c.recordText(n.Column)

		case n.Operator == And:
			d, err := c.filter(n.Children)
			if err != nil {
				return nil, err
			}
			branches = append(branches, d)

		case n.Logic != LogicNone && n.Logic != LogicAnd:
			d, err := c.filter([]Node{n})
			if err != nil {
				return nil, err
			}
			branches = append(branches, d)

		default:
			op, ok, err := comparisonOperator(n)
			if err != nil {
				return nil, err
			}
			if ok {
				branches = append(branches, bson.D{{Key: n.Column, Value: bson.D{{Key: op, Value: n.Value}}}})
			}
		}
	}
	return branches, nil
}

func (c *compiler) recordText(column string) {
	for _, t := range c.text {
		if t == column {
			return
		}
	}
	c.text = append(c.text, column)
}

// comparisonOperator returns the $-prefixed operator for a leaf node. A like
// with a blank value contributes nothing.
func comparisonOperator(n Node) (string, bool, error) {
	if n.Operator == Like {
		return "", false, nil
	}
	if !comparison[n.Operator] {
		return "", false, fmt.Errorf("%w: unsupported operator %q on column %q", ErrQuery, n.Operator, n.Column)
	}
	if n.Column == "" {
		return "", false, fmt.Errorf("%w: operator %q has no column", ErrQuery, n.Operator)
	}
	return "$" + string(n.Operator), true, nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// docBuilder keeps insertion order and makes repeated keys overwrite in place.
type docBuilder struct {
	doc   bson.D
	index map[string]int
}

func newDocBuilder() *docBuilder {
	return &docBuilder{doc: bson.D{}, index: map[string]int{}}
}

func (b *docBuilder) set(key string, v any) {
	if i, ok := b.index[key]; ok {
		b.doc[i].Value = v
		return
	}
	b.index[key] = len(b.doc)
	b.doc = append(b.doc, bson.E{Key: key, Value: v})
}

// op adds {op: v} to column's operator document, creating it if needed.
func (b *docBuilder) op(column, op string, v any) {
	if i, ok := b.index[column]; ok {
		if ops, ok := b.doc[i].Value.(bson.D); ok && isOperatorDoc(ops) {
			merged := newDocBuilder()
			merged.merge(ops)
			merged.set(op, v)
			b.doc[i].Value = merged.doc
			return
		}
	}
	b.set(column, bson.D{{Key: op, Value: v}})
}

func (b *docBuilder) merge(d bson.D) {
	for _, e := range d {
		if ops, ok := e.Value.(bson.D); ok && isOperatorDoc(ops) && !strings.HasPrefix(e.Key, "$") {
			for _, o := range ops {
				b.op(e.Key, o.Key, o.Value)
			}
			continue
		}
		b.set(e.Key, e.Value)
	}
}

func isOperatorDoc(d bson.D) bool {
	if len(d) == 0 {
		return false
	}
	for _, e := range d {
		if !strings.HasPrefix(e.Key, "$") {
			return false
		}
	}
	return true
}
