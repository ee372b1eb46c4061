package signature

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

var lineageCache sync.Map // map[reflect.Type]Lineage

// Link is one step of a lineage: the embedded field that leads from a type to
// its base.
type Link struct {
	// Type is the base type reached by this link.
	Type reflect.Type
	// Field is the type of the embedded field itself.
	Field  reflect.Type
	Offset uintptr
	// Addr is set when the link takes the address of a base held by value
	// inside a pointed-to struct (*S embedding B yields *B).
	Addr bool
	// Deref is set when the link starts from a pointer.
	Deref bool
}

// Lineage is the embedding chain of a type, nearest base first. The type
// itself is not part of its lineage.
type Lineage []Link

// LineageOf returns the cached lineage of t.
//
// Only the first embedded non-interface field of a struct is followed, so the
// chain is linear. Interfaces a type implements never appear on it.
//
// A struct S embedding B by value has base B. The pointer *S has base *B for
// every such B, struct or not (type Code int; struct{ Code } gives *Code).
// An embedded pointer *B is the base of both S and *S.
func LineageOf(t reflect.Type) Lineage {
	if t == nil {
		return nil
	}
	if l, ok := lineageCache.Load(t); ok {
		return l.(Lineage)
	}

	var chain Lineage
	seen := map[reflect.Type]struct{}{t: {}}
	for cur := t; ; {
		link, ok := baseOf(cur)
		if !ok {
			break
		}
		// Pointer embedding can form a cycle (type T struct{ *T }).
		if _, dup := seen[link.Type]; dup {
			break
		}
		seen[link.Type] = struct{}{}
		chain = append(chain, link)
		cur = link.Type
	}

	actual, _ := lineageCache.LoadOrStore(t, chain)
	return actual.(Lineage)
}

// Index returns the number of links needed to reach base from the start of
// the lineage, or -1 when base is not on it.
func (l Lineage) Index(base reflect.Type) int {
	for i, link := range l {
		if link.Type == base {
			return i + 1
		}
	}
	return -1
}

func baseOf(t reflect.Type) (Link, bool) {
	st := t
	deref := false
	switch {
	case t.Kind() == reflect.Struct:
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		st = t.Elem()
		deref = true
	default:
		return Link{}, false
	}

	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.Anonymous || f.Type.Kind() == reflect.Interface {
			continue
		}
		link := Link{Type: f.Type, Field: f.Type, Offset: f.Offset, Deref: deref}
		if deref && f.Type.Kind() != reflect.Pointer {
			link.Type = reflect.PointerTo(f.Type)
			link.Addr = true
		}
		return link, true
	}
	return Link{}, false
}

// follow applies one link to v. Field access goes through the field offset so
// unexported embedded types can be reached as well.
func (link Link) follow(v reflect.Value) (reflect.Value, error) {
	if link.Deref {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("nil %s has no embedded %s", v.Type(), link.Field)
		}
		field := reflect.NewAt(link.Field, unsafe.Add(v.UnsafePointer(), link.Offset))
		if link.Addr {
			return field, nil
		}
		return field.Elem(), nil
	}

	if !v.CanAddr() {
		tmp := reflect.New(v.Type()).Elem()
		tmp.Set(v)
		v = tmp
	}
	ptr := unsafe.Pointer(v.UnsafeAddr())
	return reflect.NewAt(link.Field, unsafe.Add(ptr, link.Offset)).Elem(), nil
}
