// Package cvars holds the client variables persisted in the configuration
// document.
package cvars

import (
	"encoding"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"unsafe"

	"github.com/modern-go/reflect2"
	"github.com/wnxd/mpcore/store"
)

var (
	ErrUnknownVariable = errors.New("unknown variable")
	ErrNotPointer      = errors.New("target is not a pointer")
	ErrUnsupportedType = errors.New("unsupported variable type")
)

type Vector2 struct {
	X, Y float32
}

func (v Vector2) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(v.X), 'g', -1, 32) + " " + strconv.FormatFloat(float64(v.Y), 'g', -1, 32)), nil
}

func (v *Vector2) UnmarshalText(text []byte) error {
	_, err := fmt.Sscanf(string(text), "%g %g", &v.X, &v.Y)
	return err
}

type Store struct {
	values map[string]string
}

func New() *Store {
	s := &Store{values: make(map[string]string)}
	s.LoadDefaults()
	return s
}

func (s *Store) LoadDefaults() {
	s.Set("nick", "Player")
	s.Set("host", "127.0.0.1")
	s.Set("port", 22003)
	s.Set("password", "")
	s.Set("qc_host", "127.0.0.1")
	s.Set("qc_port", 22003)
	s.Set("qc_password", "")
	s.Set("debugfile", "")
	s.Set("console_pos", Vector2{0, 0})
	s.Set("console_size", Vector2{200, 200})
	s.Set("serverbrowser_size", Vector2{720, 495})
	s.Set("fps_limit", 100)
	s.Set("text_scale", float32(1))
	s.Set("invert_mouse", false)
	s.Set("steer_with_mouse", false)
	s.Set("fly_with_mouse", false)
	s.Set("classic_controls", false)
	s.Set("chat_font", 0)
	s.Set("chat_lines", 7)
}

func (s *Store) Exists(name string) bool {
	_, ok := s.values[name]
	return ok
}

func (s *Store) Names() []string {
	return slices.Sorted(maps.Keys(s.values))
}

func (s *Store) Set(name string, value any) {
	switch v := value.(type) {
	case string:
		s.values[name] = v
	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		if err == nil {
			s.values[name] = string(text)
		}
	case float32:
		s.values[name] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	default:
		s.values[name] = fmt.Sprint(v)
	}
}

// Get decodes the variable into out, which must be a pointer.
func (s *Store) Get(name string, out any) error {
	raw, ok := s.values[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownVariable)
	}
	ptrType, ok := reflect2.TypeOf(out).(reflect2.PtrType)
	if !ok || reflect2.IsNil(out) {
		return ErrNotPointer
	}
	if u, ok := out.(encoding.TextUnmarshaler); ok {
		return u.UnmarshalText([]byte(raw))
	}
	typ := ptrType.Elem()
	val := typ.New()
	if err := decode(typ, raw, reflect2.PtrOf(val)); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	typ.Set(out, val)
	return nil
}

func decode(typ reflect2.Type, raw string, ptr unsafe.Pointer) error {
	bits := int(typ.Type1().Size()) * 8
	switch typ.Kind() {
	case reflect.String:
		*(*string)(ptr) = raw
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		*(*bool)(ptr) = v
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(raw, 10, bits)
		if err != nil {
			return err
		}
		switch bits {
		case 8:
			*(*int8)(ptr) = int8(v)
		case 16:
			*(*int16)(ptr) = int16(v)
		case 32:
			*(*int32)(ptr) = int32(v)
		default:
			*(*int64)(ptr) = v
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(raw, 10, bits)
		if err != nil {
			return err
		}
		switch bits {
		case 8:
			*(*uint8)(ptr) = uint8(v)
		case 16:
			*(*uint16)(ptr) = uint16(v)
		case 32:
			*(*uint32)(ptr) = uint32(v)
		default:
			*(*uint64)(ptr) = v
		}
	case reflect.Float32:
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return err
		}
		*(*float32)(ptr) = float32(v)
	case reflect.Float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		*(*float64)(ptr) = v
	default:
		return ErrUnsupportedType
	}
	return nil
}

// Load reads every variable stored under node over the current values.
// Names without a default are kept too, so they survive the next save.
func (s *Store) Load(node store.Node) {
	for _, c := range node.Children() {
		s.values[c.Name()] = c.Text()
	}
}

func (s *Store) Save(node store.Node) {
	node.RemoveChildren()
	for _, name := range s.Names() {
		node.CreateChild(name).SetText(s.values[name])
	}
}
