// Package mapper is the entry point for reading and writing documents.
//
// A Core is built once per application from a Config and a datasource
// resolver. Mapper[T] serves one entity type and MapMapper serves
// map[string]any documents in named collections:
//
//	core := mapper.NewCore(cfg, datasource.NewResolver(cfg.DataSources(), nil, log))
//	users, err := mapper.New[User](core)
//	if err != nil {
//	    return err
//	}
//
//	page, err := users.Page(ctx, condition.New().
//	    Gte("age", 18).
//	    Or(func(o *condition.Wrapper) {
//	        o.Eq("role", "admin")
//	        o.Eq("role", "owner")
//	    }).
//	    OrderByDesc("createdAt"), 1, 20)
//
// Every operation resolves its collection through the datasource resolver,
// so the ambient datasource and database set with datasource.WithDataSource
// and datasource.WithDatabase apply per call. Operations are reported to the
// configured observability.Observer, wrapped in a span when a tracer is
// configured and logged at debug level.
//
// Lookups that find nothing return found == false and a nil error. One
// fails with ErrMultipleResults when more than one document matches.
package mapper
