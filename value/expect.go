package value

import (
	"errors"
	"fmt"
)

var ErrUnexpectedValue = errors.New("unexpected value")

func unexpected(want string, got Value) error {
	found := "no value"
	if got != nil {
		found = got.String()
	}
	return fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedValue, want, found)
}

// ExpectOk разворачивает ответ (ok ...)
func ExpectOk(v Value) (Value, error) {
	r, ok := v.(Response)
	if !ok || !r.Ok {
		return nil, unexpected("(ok ...)", v)
	}
	return r.Value, nil
}

// ExpectErr разворачивает ответ (err ...)
func ExpectErr(v Value) (Value, error) {
	r, ok := v.(Response)
	if !ok || r.Ok {
		return nil, unexpected("(err ...)", v)
	}
	return r.Value, nil
}

func ExpectUint(v Value) (uint64, error) {
	u, ok := v.(UInt)
	if !ok {
		return 0, unexpected("uint", v)
	}
	return uint64(u), nil
}

func ExpectInt(v Value) (int64, error) {
	i, ok := v.(Int)
	if !ok {
		return 0, unexpected("int", v)
	}
	return int64(i), nil
}

func ExpectBool(v Value) (bool, error) {
	b, ok := v.(Bool)
	if !ok {
		return false, unexpected("bool", v)
	}
	return bool(b), nil
}

func ExpectSome(v Value) (Value, error) {
	o, ok := v.(Optional)
	if !ok || o.IsNone() {
		return nil, unexpected("(some ...)", v)
	}
	return o.Value, nil
}

func ExpectNone(v Value) error {
	o, ok := v.(Optional)
	if !ok || !o.IsNone() {
		return unexpected("none", v)
	}
	return nil
}

func ExpectTuple(v Value) (Tuple, error) {
	t, ok := v.(Tuple)
	if !ok {
		return nil, unexpected("tuple", v)
	}
	return t, nil
}

func ExpectPrincipal(v Value) (string, error) {
	p, ok := v.(Principal)
	if !ok {
		return "", unexpected("principal", v)
	}
	return string(p), nil
}

func ExpectStringUTF8(v Value) (string, error) {
	s, ok := v.(StringUTF8)
	if !ok {
		return "", unexpected("string-utf8", v)
	}
	return string(s), nil
}

func ExpectStringASCII(v Value) (string, error) {
	s, ok := v.(StringASCII)
	if !ok {
		return "", unexpected("string-ascii", v)
	}
	return string(s), nil
}
