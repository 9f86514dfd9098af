package mapping

import "sort"

// Phase is the write phase a document is being built for.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseInsert
	PhaseUpdate
)

// MetaObjectHandler populates auto-fill fields such as creation and
// modification timestamps.
type MetaObjectHandler interface {
	InsertFill(fc *FillContext)
	UpdateFill(fc *FillContext)
}

// FillContext collects auto-fill values for a single write. A new one is
// created for every call and dropped when the document has been built.
type FillContext struct {
	model  *TypeModel
	phase  Phase
	values map[string]any
}

// NewFillContext returns an empty accumulator for one write of a model.
func NewFillContext(model *TypeModel, phase Phase) *FillContext {
	return &FillContext{model: model, phase: phase, values: map[string]any{}}
}

// Phase reports which write phase is being filled.
func (fc *FillContext) Phase() Phase {
	return fc.phase
}

// Model returns the type being written. It is nil for map documents.
func (fc *FillContext) Model() *TypeModel {
	return fc.model
}

// Set records v for field, addressed by logical, wire or Go name. It returns
// false and records nothing when the field's fill policy excludes the
// current phase. For map documents every field is accepted.
func (fc *FillContext) Set(field string, v any) bool {
	if fc.model == nil {
		fc.values[field] = v
		return true
	}
	f, ok := fc.model.Field(field)
	if !ok || !f.Fill.Allows(fc.phase) {
		return false
	}
	fc.values[f.WireName] = v
	return true
}

// Get returns the value recorded for a wire name.
func (fc *FillContext) Get(wireName string) (any, bool) {
	if fc == nil {
		return nil, false
	}
	v, ok := fc.values[wireName]
	return v, ok
}

// Len returns how many values were recorded.
func (fc *FillContext) Len() int {
	if fc == nil {
		return 0
	}
	return len(fc.values)
}

// Keys returns the recorded wire names in sorted order.
func (fc *FillContext) Keys() []string {
	if fc == nil {
		return nil
	}
	keys := make([]string, 0, len(fc.values))
	for k := range fc.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply runs handler for the context's phase. A nil handler is a no-op.
func (fc *FillContext) Apply(handler MetaObjectHandler) {
	if handler == nil {
		return
	}
	switch fc.phase {
	case PhaseInsert:
		handler.InsertFill(fc)
	case PhaseUpdate:
		handler.UpdateFill(fc)
	}
}
