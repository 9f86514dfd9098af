// Package datasource routes entity types to collection handles.
//
// A Resolver knows the configured datasources and opens one client per
// datasource and one handle per (datasource, database, collection) the
// first time each is needed. Routing follows the entity binding, then the
// ambient selection carried in the context, then configuration:
//
//	ctx = datasource.WithDataSource(ctx, "reporting")
//	ctx = datasource.WithDatabase(ctx, "warehouse")
//	coll, err := resolver.Resolve(ctx, model, "")
//
// The ambient selection lives in the context, so it is scoped to one
// request or task and the resolver only ever reads it.
package datasource
