package model

// Sort is the declared ordering direction of an index item.
type Sort int

const (
	Asc Sort = iota
	Desc
)

// IndexKind distinguishes the three declared index kinds of spec.md §3.
type IndexKind int

const (
	Index IndexKind = iota
	Unique
	Primary
)

// IndexItem is one (field, direction) pair of a declared or live index.
type IndexItem struct {
	FieldName string
	Sort      Sort
}

// Ix is a declared or live index descriptor. Two indexes are equal iff Kind,
// ordered Items, and normalized Name all match (spec.md §3).
type Ix struct {
	Name  string
	Kind  IndexKind
	Items []IndexItem
}

// Field is a concrete, storable model field.
type Field struct {
	Name       string
	ColumnName string
	Type       Type
	Optional   bool
}

// Property is a virtual, computed field resolved asynchronously.
type Property struct {
	Name string
	Type Type
}

// Relation describes a named edge to another model.
type Relation struct {
	Name     string
	ModelPath string
	Vector   bool // true when this relation has to-many arity
}

// Model is the declared shape of one collection's documents.
type Model struct {
	ModelName  string
	TableNameValue string
	FieldsValue     []Field
	PropertiesValue []Property
	RelationsValue  map[string]Relation
	IndexesValue    []Ix
	AutoKeysValue   []string
}

func (m *Model) Name() string       { return m.ModelName }
func (m *Model) TableName() string  { return m.TableNameValue }
func (m *Model) Fields() []Field    { return m.FieldsValue }
func (m *Model) Properties() []Property { return m.PropertiesValue }
func (m *Model) Indexes() []Ix      { return m.IndexesValue }
func (m *Model) AutoKeys() []string { return m.AutoKeysValue }

func (m *Model) Field(name string) (Field, bool) {
	for _, f := range m.FieldsValue {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldWithColumnName looks a field up by its storage-level name, used by the
// error translator to recover a duplicate key's runtime field name (spec.md
// §4.5, §7).
func (m *Model) FieldWithColumnName(column string) (Field, bool) {
	for _, f := range m.FieldsValue {
		if f.ColumnName == column {
			return f, true
		}
	}
	return Field{}, false
}

func (m *Model) Property(name string) (Property, bool) {
	for _, p := range m.PropertiesValue {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

func (m *Model) Relation(name string) (Relation, bool) {
	r, ok := m.RelationsValue[name]
	return r, ok
}

// Namespace resolves models and enum membership across the host's schema
// graph — the minimal surface the connector needs from what spec.md §4.2 and
// §4.3 call "the namespace" (used to validate EnumVariant decoding and to
// locate a relation's target model).
type Namespace interface {
	ModelByPath(path string) (*Model, bool)
	EnumMembers(enumPath []string) ([]string, bool)
}
