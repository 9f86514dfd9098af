package mapper

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Aleph-Alpha/mongoplus/v1/condition"
	"github.com/Aleph-Alpha/mongoplus/v1/datasource"
	"github.com/Aleph-Alpha/mongoplus/v1/mapping"
)

// Mapper reads and writes entities of type T. T must be a struct with an
// identifier field. A Mapper is safe for concurrent use.
type Mapper[T any] struct {
	core  *Core
	model *mapping.TypeModel
	id    *mapping.FieldDescriptor
	ops   *collectionOps
}

// New returns the mapper for T.
func New[T any](core *Core) (*Mapper[T], error) {
	model, err := mapping.ModelOf[T](core.codec.Introspector())
	if err != nil {
		return nil, err
	}
	id, err := model.RequireID()
	if err != nil {
		return nil, err
	}
	return &Mapper[T]{
		core:  core,
		model: model,
		id:    id,
		ops:   newOps(core, model, datasource.BindingOf(model), ""),
	}, nil
}

// WithDatabase returns a copy of the mapper that always uses database,
// ahead of the type binding and the ambient context.
func (m *Mapper[T]) WithDatabase(database string) *Mapper[T] {
	c := *m
	c.ops = newOps(m.core, m.model, m.ops.binding, database)
	return &c
}

// Model returns the field model of T.
func (m *Mapper[T]) Model() *mapping.TypeModel {
	return m.model
}

func (m *Mapper[T]) insertDoc(ctx context.Context, entity *T) (bson.D, error) {
	if entity == nil {
		return nil, fmt.Errorf("%w: nil %s", mapping.ErrMapping, m.model.Type)
	}
	fc := mapping.NewFillContext(m.model, mapping.PhaseInsert)
	fc.Apply(m.core.meta)
	doc, err := m.core.codec.Encode(entity, fc)
	if err != nil {
		return nil, err
	}
	doc, _, err = m.ops.assigner.AssignID(ctx, m.model, entity, doc)
	return doc, err
}

// updateDoc encodes entity for an update by identifier: the filter is
// {_id: id} and the returned body holds every other field.
func (m *Mapper[T]) updateDoc(entity *T) (filter, set bson.D, err error) {
	if entity == nil {
		return nil, nil, fmt.Errorf("%w: nil %s", mapping.ErrMapping, m.model.Type)
	}
	fc := mapping.NewFillContext(m.model, mapping.PhaseUpdate)
	fc.Apply(m.core.meta)
	doc, err := m.core.codec.Encode(entity, fc)
	if err != nil {
		return nil, nil, err
	}
	id, rest := splitID(doc)
	if id == nil {
		return nil, nil, fmt.Errorf("%w: %s has no identifier value", mapping.ErrIdentifierMissing, m.model.Type)
	}
	return bson.D{{Key: mapping.IDWireName, Value: m.ops.normalizeID(id)}}, rest, nil
}

func (m *Mapper[T]) bodyDoc(entity *T) (bson.D, error) {
	if entity == nil {
		return nil, fmt.Errorf("%w: nil %s", mapping.ErrMapping, m.model.Type)
	}
	fc := mapping.NewFillContext(m.model, mapping.PhaseUpdate)
	fc.Apply(m.core.meta)
	doc, err := m.core.codec.Encode(entity, fc)
	if err != nil {
		return nil, err
	}
	_, rest := splitID(doc)
	return rest, nil
}

func (m *Mapper[T]) decode(docs []bson.D) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var t T
		if err := m.core.codec.Decode(d, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *Mapper[T]) decodeOne(doc bson.D, found bool, err error) (T, bool, error) {
	var t T
	if err != nil || !found {
		return t, false, err
	}
	if err := m.core.codec.Decode(doc, &t); err != nil {
		return t, false, err
	}
	return t, true, nil
}

func (m *Mapper[T]) hasID(entity *T) bool {
	return entity != nil && !m.id.IsZero(entity)
}

// Save inserts entity. A generated identifier is written back into it.
func (m *Mapper[T]) Save(ctx context.Context, entity *T) error {
	doc, err := m.insertDoc(ctx, entity)
	if err != nil {
		return err
	}
	return m.ops.insertOne(ctx, doc)
}

// SaveBatch inserts every entity and reports whether all were written.
func (m *Mapper[T]) SaveBatch(ctx context.Context, entities []*T) (bool, error) {
	if len(entities) == 0 {
		return true, nil
	}
	docs := make([]bson.D, 0, len(entities))
	for _, e := range entities {
		doc, err := m.insertDoc(ctx, e)
		if err != nil {
			return false, err
		}
		docs = append(docs, doc)
	}
	return m.ops.insertMany(ctx, docs)
}

// SaveOrUpdate inserts entity when it has no identifier and updates it by
// identifier otherwise.
func (m *Mapper[T]) SaveOrUpdate(ctx context.Context, entity *T) (bool, error) {
	if !m.hasID(entity) {
		if err := m.Save(ctx, entity); err != nil {
			return false, err
		}
		return true, nil
	}
	return m.UpdateByID(ctx, entity)
}

// SaveOrUpdateChecked is SaveOrUpdate that asks the database whether the
// identifier exists instead of trusting its presence on entity.
func (m *Mapper[T]) SaveOrUpdateChecked(ctx context.Context, entity *T) (bool, error) {
	if m.hasID(entity) {
		exists, err := m.Exists(ctx, m.id.Get(entity))
		if err != nil {
			return false, err
		}
		if exists {
			return m.UpdateByID(ctx, entity)
		}
	}
	if err := m.Save(ctx, entity); err != nil {
		return false, err
	}
	return true, nil
}

// SaveOrUpdateWrapper updates the documents matching w with entity when
// there are any and inserts entity otherwise.
func (m *Mapper[T]) SaveOrUpdateWrapper(ctx context.Context, entity *T, w *condition.Wrapper) (bool, error) {
	n, err := m.Count(ctx, w)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return m.UpdateEntity(ctx, entity, w)
	}
	if err := m.Save(ctx, entity); err != nil {
		return false, err
	}
	return true, nil
}

// SaveOrUpdateBatch writes all entities in one bulk request: entities
// without an identifier are inserted, the others are upserted by
// identifier. It reports whether every entity was written.
func (m *Mapper[T]) SaveOrUpdateBatch(ctx context.Context, entities []*T) (bool, error) {
	if len(entities) == 0 {
		return true, nil
	}
	models := make([]mongo.WriteModel, 0, len(entities))
	for _, e := range entities {
		if !m.hasID(e) {
			doc, err := m.insertDoc(ctx, e)
			if err != nil {
				return false, err
			}
			models = append(models, mongo.NewInsertOneModel().SetDocument(doc))
			continue
		}
		filter, set, err := m.updateDoc(e)
		if err != nil {
			return false, err
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(setDoc(set)).
			SetUpsert(true))
	}
	return m.ops.bulk(ctx, "save_or_update_batch", models)
}

// UpdateByID sets every field of entity on the document with its
// identifier. It reports whether a document matched.
func (m *Mapper[T]) UpdateByID(ctx context.Context, entity *T) (bool, error) {
	filter, set, err := m.updateDoc(entity)
	if err != nil {
		return false, err
	}
	return m.ops.updateOne(ctx, "update_by_id", filter, set)
}

// UpdateBatchByIDs updates every entity by identifier in one bulk request
// and reports whether all of them matched.
func (m *Mapper[T]) UpdateBatchByIDs(ctx context.Context, entities []*T) (bool, error) {
	if len(entities) == 0 {
		return true, nil
	}
	models := make([]mongo.WriteModel, 0, len(entities))
	for _, e := range entities {
		filter, set, err := m.updateDoc(e)
		if err != nil {
			return false, err
		}
		models = append(models, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(setDoc(set)))
	}
	return m.ops.bulk(ctx, "update_batch_by_ids", models)
}

// UpdateByColumn updates the documents whose column equals entity's value
// for that column.
func (m *Mapper[T]) UpdateByColumn(ctx context.Context, entity *T, column string) (bool, error) {
	if entity == nil {
		return false, fmt.Errorf("%w: nil %s", mapping.ErrMapping, m.model.Type)
	}
	f, ok := m.model.Field(column)
	if !ok {
		return false, fmt.Errorf("%w: %s has no field %q", mapping.ErrMapping, m.model.Type, column)
	}
	filter, err := m.ops.columnFilter(f.WireName, f.Get(entity))
	if err != nil {
		return false, err
	}
	set, err := m.bodyDoc(entity)
	if err != nil {
		return false, err
	}
	return m.ops.updateMany(ctx, "update_by_column", filter, set)
}

// Update applies the Set assignments of w to the documents matching its
// conditions.
func (m *Mapper[T]) Update(ctx context.Context, w *condition.Wrapper) (bool, error) {
	q, err := m.ops.compile(w)
	if err != nil {
		return false, err
	}
	if len(q.Update) == 0 {
		return false, fmt.Errorf("%w: update without assignments", condition.ErrQuery)
	}
	set, err := m.ops.updateFill(q.Update)
	if err != nil {
		return false, err
	}
	return m.ops.updateMany(ctx, "update", q.Filter, set)
}

// UpdateEntity sets every field of entity, except the identifier, on the
// documents matching w.
func (m *Mapper[T]) UpdateEntity(ctx context.Context, entity *T, w *condition.Wrapper) (bool, error) {
	q, err := m.ops.compile(w)
	if err != nil {
		return false, err
	}
	set, err := m.bodyDoc(entity)
	if err != nil {
		return false, err
	}
	return m.ops.updateMany(ctx, "update_entity", q.Filter, set)
}

// Remove deletes the documents matching w and returns how many were removed.
func (m *Mapper[T]) Remove(ctx context.Context, w *condition.Wrapper) (int64, error) {
	q, err := m.ops.compile(w)
	if err != nil {
		return 0, err
	}
	return m.ops.remove(ctx, "remove", q.Filter, true)
}

// RemoveByID deletes the document with id and reports whether it existed.
func (m *Mapper[T]) RemoveByID(ctx context.Context, id any) (bool, error) {
	filter, err := m.ops.idFilter(id)
	if err != nil {
		return false, err
	}
	n, err := m.ops.remove(ctx, "remove_by_id", filter, false)
	return n > 0, err
}

// RemoveByColumn deletes the documents whose column equals value.
func (m *Mapper[T]) RemoveByColumn(ctx context.Context, column string, value any) (int64, error) {
	filter, err := m.ops.columnFilter(column, value)
	if err != nil {
		return 0, err
	}
	return m.ops.remove(ctx, "remove_by_column", filter, true)
}

// RemoveBatchByIDs deletes the documents with the given identifiers.
func (m *Mapper[T]) RemoveBatchByIDs(ctx context.Context, ids ...any) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	filter, err := m.ops.idsFilter(ids)
	if err != nil {
		return 0, err
	}
	return m.ops.remove(ctx, "remove_batch_by_ids", filter, true)
}

// GetByID loads the entity with id. found is false when there is none.
func (m *Mapper[T]) GetByID(ctx context.Context, id any) (T, bool, error) {
	filter, err := m.ops.idFilter(id)
	if err != nil {
		var zero T
		return zero, false, err
	}
	docs, err := m.ops.find(ctx, "get_by_id", &condition.Query{Filter: filter}, 0, 1)
	if err != nil || len(docs) == 0 {
		var zero T
		return zero, false, err
	}
	return m.decodeOne(docs[0], true, nil)
}

// GetByIDs loads the entities with the given identifiers.
func (m *Mapper[T]) GetByIDs(ctx context.Context, ids ...any) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	filter, err := m.ops.idsFilter(ids)
	if err != nil {
		return nil, err
	}
	docs, err := m.ops.find(ctx, "get_by_ids", &condition.Query{Filter: filter}, 0, 0)
	if err != nil {
		return nil, err
	}
	return m.decode(docs)
}

// List returns every entity matching w, sorted and projected as w says.
func (m *Mapper[T]) List(ctx context.Context, w *condition.Wrapper) ([]T, error) {
	q, err := m.ops.compile(w)
	if err != nil {
		return nil, err
	}
	docs, err := m.ops.find(ctx, "list", q, 0, 0)
	if err != nil {
		return nil, err
	}
	return m.decode(docs)
}

// ListAll returns every entity in the collection.
func (m *Mapper[T]) ListAll(ctx context.Context) ([]T, error) {
	return m.List(ctx, nil)
}

// One returns the single entity matching w. It fails with
// ErrMultipleResults when more than one matches.
func (m *Mapper[T]) One(ctx context.Context, w *condition.Wrapper) (T, bool, error) {
	q, err := m.ops.compile(w)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return m.decodeOne(m.ops.one(ctx, q))
}

// LimitOne returns the first entity matching w.
func (m *Mapper[T]) LimitOne(ctx context.Context, w *condition.Wrapper) (T, bool, error) {
	q, err := m.ops.compile(w)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return m.decodeOne(m.ops.limitOne(ctx, q))
}

// Page returns page pageNum, counted from 1, of pageSize entities matching w.
func (m *Mapper[T]) Page(ctx context.Context, w *condition.Wrapper, pageNum, pageSize int64) (PageResult[T], error) {
	q, err := m.ops.compile(w)
	if err != nil {
		return PageResult[T]{}, err
	}
	docs, total, err := m.ops.page(ctx, q, pageNum, pageSize)
	if err != nil {
		return PageResult[T]{}, err
	}
	content, err := m.decode(docs)
	if err != nil {
		return PageResult[T]{}, err
	}
	return newPage(pageNum, pageSize, total, content), nil
}

// Count returns how many documents match w.
func (m *Mapper[T]) Count(ctx context.Context, w *condition.Wrapper) (int64, error) {
	q, err := m.ops.compile(w)
	if err != nil {
		return 0, err
	}
	return m.ops.count(ctx, "count", q)
}

// CountAll returns the number of documents in the collection.
func (m *Mapper[T]) CountAll(ctx context.Context) (int64, error) {
	return m.ops.count(ctx, "count_all", &condition.Query{})
}

// Exists reports whether a document with id exists.
func (m *Mapper[T]) Exists(ctx context.Context, id any) (bool, error) {
	filter, err := m.ops.idFilter(id)
	if err != nil {
		return false, err
	}
	n, err := m.ops.count(ctx, "exists", &condition.Query{Filter: filter})
	return n > 0, err
}
