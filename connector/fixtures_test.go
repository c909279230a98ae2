package connector

import (
	"context"

	"github.com/teodevgroup/teo-mongodb-connector/model"
	"github.com/teodevgroup/teo-mongodb-connector/object"
	"github.com/teodevgroup/teo-mongodb-connector/teon"
)

// fakeObject is a minimal in-memory object.Object used to exercise the
// connector's pure-logic pieces without a real host ORM runtime.
type fakeObject struct {
	model     *model.Model
	values    map[string]teon.Value
	atomics   map[string]*teon.Dictionary
	saveKeys  []string
	dbID      teon.Value
	isNew     bool
	relations map[string][]object.Object
	selection teon.Value
	saved     bool
}

func newFakeObject(m *model.Model) *fakeObject {
	return &fakeObject{
		model:     m,
		values:    make(map[string]teon.Value),
		atomics:   make(map[string]*teon.Dictionary),
		relations: make(map[string][]object.Object),
		isNew:     true,
	}
}

func (o *fakeObject) Model() *model.Model { return o.model }

func (o *fakeObject) GetValue(key string) (teon.Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *fakeObject) SetValue(key string, value teon.Value) error {
	o.values[key] = value
	return nil
}

func (o *fakeObject) GetPropertyValue(_ context.Context, key string) (teon.Value, error) {
	v, ok := o.values[key]
	if !ok {
		return teon.Null(), nil
	}
	return v, nil
}

func (o *fakeObject) GetAtomicUpdator(key string) (*teon.Dictionary, bool) {
	d, ok := o.atomics[key]
	return d, ok
}

func (o *fakeObject) setAtomicUpdator(key, operator string, operand teon.Value) {
	o.atomics[key] = teon.NewDict().Set(operator, operand)
	o.saveKeys = append(o.saveKeys, key)
}

func (o *fakeObject) set(key string, value teon.Value) {
	o.values[key] = value
	o.saveKeys = append(o.saveKeys, key)
}

func (o *fakeObject) KeysForSave() []string { return o.saveKeys }

func (o *fakeObject) DBIdentifier() teon.Value { return o.dbID }

func (o *fakeObject) IsNew() bool { return o.isNew }

func (o *fakeObject) MarkSaved() {
	o.isNew = false
	o.saved = true
}

func (o *fakeObject) SetSelect(selection teon.Value) error {
	o.selection = selection
	return nil
}

func (o *fakeObject) SetRelation(key string, related []object.Object) {
	o.relations[key] = related
}

// fakeFactory builds bare fakeObjects, ignoring the model registry, so tests
// can exercise materialization without a full model.Namespace implementation.
type fakeFactory struct {
	models map[string]*model.Model
}

func newFakeFactory(models ...*model.Model) *fakeFactory {
	f := &fakeFactory{models: make(map[string]*model.Model)}
	for _, m := range models {
		f.models[m.Name()] = m
	}
	return f
}

func (f *fakeFactory) NewObject(_ context.Context, modelPath string, _ object.ActionFlags) (object.Object, error) {
	m, ok := f.models[modelPath]
	if !ok {
		m = &model.Model{ModelName: modelPath}
	}
	return newFakeObject(m), nil
}

// fakeNamespace resolves models by name only, matching how Model.ModelName is
// used as a path in these fixtures.
type fakeNamespace struct {
	models map[string]*model.Model
	enums  map[string][]string
}

func newFakeNamespace(models ...*model.Model) *fakeNamespace {
	ns := &fakeNamespace{models: make(map[string]*model.Model), enums: make(map[string][]string)}
	for _, m := range models {
		ns.models[m.Name()] = m
	}
	return ns
}

func (ns *fakeNamespace) ModelByPath(path string) (*model.Model, bool) {
	m, ok := ns.models[path]
	return m, ok
}

func (ns *fakeNamespace) EnumMembers(enumPath []string) ([]string, bool) {
	members, ok := ns.enums[pathJoin(enumPath)]
	return members, ok
}

func (ns *fakeNamespace) setEnum(enumPath []string, members []string) {
	ns.enums[pathJoin(enumPath)] = members
}
