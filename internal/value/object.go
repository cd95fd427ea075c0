package value

import "strings"

// Object is a record with a named type tag plus a string→value field map,
// the runtime representation of struct literals (`T{...}`) and trait
// targets synthesized by the compiler's `__lkr_make_struct` builtin call.
type Object struct {
	TypeName string
	Fields   *Map
}

// NewObject builds an Object from a type name and a field map.
func NewObject(typeName string, fields *Map) *Object {
	return &Object{TypeName: typeName, Fields: fields}
}

func (o *Object) String() string {
	var b strings.Builder
	b.WriteString(o.TypeName)
	b.WriteString(o.Fields.String())
	return b.String()
}

func (*Object) Type() string { return "object" }

// WithField returns a new Object with field set to v.
func (o *Object) WithField(field string, v Value) *Object {
	return &Object{TypeName: o.TypeName, Fields: o.Fields.Put(field, v)}
}
