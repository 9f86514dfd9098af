// Package condition describes queries and updates as lists of condition
// nodes and compiles them into MongoDB filter, update, sort and projection
// documents.
//
// Nodes are usually built with a Wrapper:
//
//	q, err := condition.Compile(condition.New().
//		Eq("status", "active").
//		Or(func(o *condition.Wrapper) { o.Lt("age", 18).Gt("age", 65) }).
//		OrderByAsc("name"))
//
// Filter and update compilation are independent passes over the same list:
// Set nodes only reach the update document and every other node only reaches
// the filter. An empty list compiles to an empty filter that matches every
// document.
//
// Inside an Or group, an And child is compiled as its own filter document
// and appended as a sibling element of the $or array rather than nested in
// an $and clause.
package condition
