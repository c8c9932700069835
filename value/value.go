package value

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind Тип значения контракта
type Kind int

const (
	KindUInt Kind = iota
	KindInt
	KindBool
	KindStringASCII
	KindStringUTF8
	KindBuffer
	KindPrincipal
	KindOptional
	KindResponse
	KindTuple
)

func (k Kind) String() string {
	switch k {
	case KindUInt:
		return "uint"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindStringASCII:
		return "string-ascii"
	case KindStringUTF8:
		return "string-utf8"
	case KindBuffer:
		return "buff"
	case KindPrincipal:
		return "principal"
	case KindOptional:
		return "optional"
	case KindResponse:
		return "response"
	case KindTuple:
		return "tuple"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value Значение контракта. String возвращает канонический литерал,
// который Parse читает обратно.
type Value interface {
	Kind() Kind
	String() string
}

type UInt uint64

func (UInt) Kind() Kind       { return KindUInt }
func (v UInt) String() string { return "u" + strconv.FormatUint(uint64(v), 10) }

type Int int64

func (Int) Kind() Kind       { return KindInt }
func (v Int) String() string { return strconv.FormatInt(int64(v), 10) }

type Bool bool

func (Bool) Kind() Kind       { return KindBool }
func (v Bool) String() string { return strconv.FormatBool(bool(v)) }

type StringASCII string

func (StringASCII) Kind() Kind       { return KindStringASCII }
func (v StringASCII) String() string { return quote(string(v)) }

type StringUTF8 string

func (StringUTF8) Kind() Kind       { return KindStringUTF8 }
func (v StringUTF8) String() string { return "u" + quote(string(v)) }

type Buffer []byte

func (Buffer) Kind() Kind       { return KindBuffer }
func (v Buffer) String() string { return "0x" + hex.EncodeToString(v) }

// Principal Адрес аккаунта (ST...) или контракта (ST....name)
type Principal string

func (Principal) Kind() Kind       { return KindPrincipal }
func (v Principal) String() string { return "'" + string(v) }

// Optional Значение или его отсутствие, nil означает none
type Optional struct {
	Value Value
}

func None() Optional        { return Optional{} }
func Some(v Value) Optional { return Optional{Value: v} }

func (Optional) Kind() Kind { return KindOptional }

func (o Optional) IsNone() bool { return o.Value == nil }

func (o Optional) String() string {
	if o.Value == nil {
		return "none"
	}
	return "(some " + o.Value.String() + ")"
}

// Response Результат вызова публичной функции
type Response struct {
	Ok    bool
	Value Value
}

func Ok(v Value) Response  { return Response{Ok: true, Value: v} }
func Err(v Value) Response { return Response{Ok: false, Value: v} }

func (Response) Kind() Kind { return KindResponse }

func (r Response) String() string {
	tag := "err"
	if r.Ok {
		tag = "ok"
	}
	inner := "none"
	if r.Value != nil {
		inner = r.Value.String()
	}
	return "(" + tag + " " + inner + ")"
}

// Tuple Именованные значения, ключи печатаются по алфавиту
type Tuple map[string]Value

func (Tuple) Kind() Kind { return KindTuple }

func (t Tuple) String() string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(t[k].String())
	}
	b.WriteByte('}')
	return b.String()
}

// Equal сравнивает значения по типу и каноническому литералу
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.String() == b.String()
}

// Len возвращает длину строк и буферов, для остальных -1
func Len(v Value) int {
	switch t := v.(type) {
	case StringASCII:
		return len(t)
	case StringUTF8:
		return len([]rune(string(t)))
	case Buffer:
		return len(t)
	}
	return -1
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u{%x}`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
