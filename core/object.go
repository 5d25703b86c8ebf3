package core

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Object is any PDF value. String renders it in PDF syntax, except that
// strings print their raw bytes.
type Object interface {
	String() string
}

// Null is the null object
type Null struct{}

func (Null) String() string { return "null" }

type Bool bool

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

type Int int64

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

type Real float64

func (r Real) String() string { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String holds the bytes of a literal or hex string. Text strings are
// decoded by the reader.
type String string

func (s String) String() string { return string(s) }

// Name is a name object without its leading slash
type Name string

func (n Name) String() string { return "/" + string(n) }

type Array []Object

func (a Array) String() string {
	parts := make([]string, len(a))
	for i, obj := range a {
		parts[i] = obj.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Len returns the number of elements
func (a Array) Len() int { return len(a) }

// Get returns the element at index, or nil when out of range
func (a Array) Get(index int) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// Dict is a dictionary keyed by name, without slashes
type Dict map[string]Object

// String renders the entries in key order
func (d Dict) String() string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sb strings.Builder
	sb.WriteString("<<")
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "/%s %s", k, d[k])
	}
	sb.WriteString(">>")
	return sb.String()
}

// Get returns the entry for key without resolving it, or nil
func (d Dict) Get(key string) Object { return d[key] }

// Has reports whether key is present, even with a null value
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// entry returns d[key] when it holds a T. The typed getters below do not
// resolve indirect references.
func entry[T Object](d Dict, key string) (T, bool) {
	v, ok := d[key].(T)
	return v, ok
}

func (d Dict) GetName(key string) (Name, bool)               { return entry[Name](d, key) }
func (d Dict) GetInt(key string) (Int, bool)                 { return entry[Int](d, key) }
func (d Dict) GetReal(key string) (Real, bool)               { return entry[Real](d, key) }
func (d Dict) GetBool(key string) (Bool, bool)               { return entry[Bool](d, key) }
func (d Dict) GetString(key string) (String, bool)           { return entry[String](d, key) }
func (d Dict) GetArray(key string) (Array, bool)             { return entry[Array](d, key) }
func (d Dict) GetDict(key string) (Dict, bool)               { return entry[Dict](d, key) }
func (d Dict) GetIndirectRef(key string) (IndirectRef, bool) { return entry[IndirectRef](d, key) }

// Stream is a stream object. Data holds the bytes as stored in the file;
// Decode applies the filters.
type Stream struct {
	Dict Dict
	Data []byte
}

func (s *Stream) String() string {
	return fmt.Sprintf("%s stream[%d]", s.Dict, len(s.Data))
}

// IndirectRef points at a numbered object
type IndirectRef struct {
	Number     int
	Generation int
}

func (r IndirectRef) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// IndirectObject is a numbered object as defined in the file body
type IndirectObject struct {
	Ref    IndirectRef
	Object Object
}
