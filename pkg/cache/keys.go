package cache

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
	"unsafe"
)

// Call describes what is being cached: the owning type, the method and
// the ordered argument values.
type Call struct {
	Target string
	Method string
	Args   []any
}

// KeyProvider converts a Call into a stable string key.
// Equal-by-value arguments must yield equal keys, distinct ones distinct keys.
type KeyProvider interface {
	Key(call Call) (string, error)
}

// KeyFunc adapts a function to KeyProvider.
type KeyFunc func(call Call) (string, error)

// Key calls f.
func (f KeyFunc) Key(call Call) (string, error) {
	return f(call)
}

// KeyMarshaler is implemented by argument types that render their own
// stable cache key fragment.
type KeyMarshaler interface {
	CacheKey() (string, error)
}

// DefaultKeys renders keys as target.method(arg,arg,...) with a typed
// encoding of every argument. Scalars other than bool, int, uint, float64,
// complex128 and string carry their type name, so int64(1) and int(1)
// differ. Typed nils carry their type too. Empty slices and maps render
// without their element type, so []int{} and []string{} share a key.
// Pointers, funcs, channels, unsafe pointers and self-referencing values
// are rejected with ErrUnstableKey.
var DefaultKeys KeyProvider = KeyFunc(defaultKey)

// TargetName returns the package-qualified type name of v, dereferencing
// pointers, e.g. "billing.Service".
func TargetName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	pkg := t.PkgPath()
	if i := strings.LastIndexByte(pkg, '/'); i >= 0 {
		pkg = pkg[i+1:]
	}
	if pkg == "" {
		return t.Name()
	}
	return pkg + "." + t.Name()
}

var (
	keyMarshalerType = reflect.TypeFor[KeyMarshaler]()
	timeType         = reflect.TypeFor[time.Time]()
	durationType     = reflect.TypeFor[time.Duration]()
)

// Kinds whose predeclared type renders with a short tag only.
var scalarTags = map[reflect.Type]string{
	reflect.TypeFor[int]():        "i",
	reflect.TypeFor[uint]():       "u",
	reflect.TypeFor[float64]():    "f",
	reflect.TypeFor[complex128](): "c",
}

func defaultKey(call Call) (string, error) {
	var b strings.Builder
	if call.Target != "" {
		b.WriteString(call.Target)
		b.WriteByte('.')
	}
	b.WriteString(call.Method)
	b.WriteByte('(')
	enc := keyEncoder{seen: map[unsafe.Pointer]struct{}{}}
	for i, arg := range call.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := enc.write(&b, reflect.ValueOf(arg)); err != nil {
			return "", fmt.Errorf("%w: %s argument %d: %w", ErrUnstableKey, call.Method, i, err)
		}
	}
	b.WriteByte(')')
	return b.String(), nil
}

// keyEncoder tracks the maps and slices on the current path so values
// that contain themselves fail instead of recursing forever.
type keyEncoder struct {
	seen map[unsafe.Pointer]struct{}
}

func (e keyEncoder) write(b *strings.Builder, v reflect.Value) error {
	if !v.IsValid() {
		b.WriteString("nil")
		return nil
	}

	t := v.Type()
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		b.WriteString(t.String())
		b.WriteString("(nil)")
		return nil
	}

	if t.Implements(keyMarshalerType) {
		if !v.CanInterface() {
			return fmt.Errorf("unexported %s field", t)
		}
		s, err := v.Interface().(KeyMarshaler).CacheKey()
		if err != nil {
			return err
		}
		b.WriteString(t.String())
		b.WriteByte('!')
		b.WriteString(strconv.Quote(s))
		return nil
	}

	switch t {
	case timeType:
		if !v.CanInterface() {
			return fmt.Errorf("unexported %s field", t)
		}
		b.WriteString("t:")
		b.WriteString(v.Interface().(time.Time).UTC().Format(time.RFC3339Nano))
		return nil
	case durationType:
		b.WriteString("d:")
		b.WriteString(strconv.FormatInt(v.Int(), 10))
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		writeScalarType(b, t, reflect.Bool)
		b.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		writeScalarType(b, t, reflect.Int)
		b.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		writeScalarType(b, t, reflect.Uint)
		b.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		writeScalarType(b, t, reflect.Float64)
		b.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 64))
	case reflect.Complex64, reflect.Complex128:
		writeScalarType(b, t, reflect.Complex128)
		b.WriteString(strconv.FormatComplex(v.Complex(), 'g', -1, 128))
	case reflect.String:
		writeScalarType(b, t, reflect.String)
		b.WriteString(strconv.Quote(v.String()))
	case reflect.Interface:
		return e.write(b, v.Elem())
	case reflect.Slice:
		// nil and empty slices render the same.
		if t.Elem().Kind() == reflect.Uint8 {
			b.WriteString("x:")
			b.WriteString(hex.EncodeToString(v.Bytes()))
			return nil
		}
		if v.Len() == 0 {
			b.WriteString("[]")
			return nil
		}
		return e.enter(v, func() error { return e.writeList(b, v) })
	case reflect.Array:
		b.WriteByte('a')
		return e.writeList(b, v)
	case reflect.Map:
		if v.Len() == 0 {
			b.WriteString("{}")
			return nil
		}
		return e.enter(v, func() error { return e.writeMap(b, v) })
	case reflect.Struct:
		return e.writeStruct(b, v)
	default:
		// Pointer, Func, Chan, UnsafePointer: identity, not value.
		return fmt.Errorf("unsupported kind %s (%s)", v.Kind(), t)
	}
	return nil
}

// enter marks the backing storage of v as being rendered for the duration
// of fn. Siblings sharing storage are fine; only nesting is a cycle.
func (e keyEncoder) enter(v reflect.Value, fn func() error) error {
	ptr := v.UnsafePointer()
	if _, ok := e.seen[ptr]; ok {
		return fmt.Errorf("%s contains itself", v.Type())
	}
	e.seen[ptr] = struct{}{}
	defer delete(e.seen, ptr)
	return fn()
}

// writeScalarType prefixes values of any type other than the predeclared
// one for kind with the type name.
func writeScalarType(b *strings.Builder, t reflect.Type, kind reflect.Kind) {
	if t.PkgPath() == "" && t.Kind() == kind {
		if tag, ok := scalarTags[t]; ok {
			b.WriteString(tag)
			b.WriteByte(':')
		}
		return
	}
	b.WriteString(t.String())
	b.WriteByte(':')
}

func (e keyEncoder) writeList(b *strings.Builder, v reflect.Value) error {
	b.WriteByte('[')
	for i := range v.Len() {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := e.write(b, v.Index(i)); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

// writeMap renders entries sorted by their rendered key.
func (e keyEncoder) writeMap(b *strings.Builder, v reflect.Value) error {
	type pair struct{ k, v string }
	pairs := make([]pair, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		var kb, vb strings.Builder
		if err := e.write(&kb, iter.Key()); err != nil {
			return err
		}
		if err := e.write(&vb, iter.Value()); err != nil {
			return err
		}
		pairs = append(pairs, pair{k: kb.String(), v: vb.String()})
	}
	slices.SortFunc(pairs, func(a, b pair) int { return strings.Compare(a.k, b.k) })

	b.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.k)
		b.WriteByte(':')
		b.WriteString(p.v)
	}
	b.WriteByte('}')
	return nil
}

func (e keyEncoder) writeStruct(b *strings.Builder, v reflect.Value) error {
	t := v.Type()
	b.WriteString(t.String())
	b.WriteByte('{')
	for i := range v.NumField() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Field(i).Name)
		b.WriteByte('=')
		if err := e.write(b, v.Field(i)); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}
