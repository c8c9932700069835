package value

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var ErrSyntax = errors.New("invalid value literal")

// MaxDepth Предел вложенности форм и кортежей в одном литерале
const MaxDepth = 64

// Parse разбирает один литерал: u1000, u"text", (ok u1) и т.д.
func Parse(literal string) (Value, error) {
	p := &parser{src: literal}

	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input %q", p.src[p.pos:])
	}

	return v, nil
}

// ParseAll разбирает литералы по порядку и останавливается на первой ошибке
func ParseAll(literals []string) ([]Value, error) {
	values := make([]Value, 0, len(literals))
	for i, lit := range literals {
		v, err := Parse(lit)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// ValidPrincipal проверяет, что s является адресом аккаунта или контракта
func ValidPrincipal(s string) bool {
	addr, name, isContract := strings.Cut(s, ".")
	if len(addr) < 3 || addr[0] != 'S' {
		return false
	}
	for i := 0; i < len(addr); i++ {
		c := addr[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	if !isContract {
		return true
	}
	if name == "" || !isLetter(name[0]) {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isLetter(name[i]) && !isDigit(name[i]) && name[i] != '-' && name[i] != '_' {
			return false
		}
	}
	return true
}

type parser struct {
	src   string
	pos   int
	depth int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek(offset int) byte {
	if p.pos+offset >= len(p.src) {
		return 0
	}
	return p.src[p.pos+offset]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) readWhile(pred func(byte) bool) string {
	start := p.pos
	for !p.eof() && pred(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.eof() || p.src[p.pos] != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *parser) parseValue() (Value, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxDepth {
		return nil, p.errorf("nesting deeper than %d", MaxDepth)
	}

	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("unexpected end of input")
	}

	c := p.src[p.pos]
	switch {
	case c == '(':
		return p.parseForm()
	case c == '{':
		return p.parseTuple()
	case c == '"':
		s, err := p.parseQuoted()
		if err != nil {
			return nil, err
		}
		for i := 0; i < len(s); i++ {
			if s[i] >= utf8.RuneSelf {
				return nil, p.errorf("non-ascii character in string-ascii literal")
			}
		}
		return StringASCII(s), nil
	case c == 'u' && p.peek(1) == '"':
		p.pos++
		s, err := p.parseQuoted()
		if err != nil {
			return nil, err
		}
		if !utf8.ValidString(s) {
			return nil, p.errorf("invalid utf-8 in string-utf8 literal")
		}
		return StringUTF8(s), nil
	case c == 'u' && isDigit(p.peek(1)):
		p.pos++
		digits := p.readWhile(isDigit)
		n, err := strconv.ParseUint(digits, 10, 64)
		if err != nil {
			return nil, p.errorf("uint out of range: %s", digits)
		}
		return UInt(n), nil
	case c == '0' && p.peek(1) == 'x':
		p.pos += 2
		raw := p.readWhile(isHex)
		buf, err := hex.DecodeString(raw)
		if err != nil {
			return nil, p.errorf("invalid buffer: %v", err)
		}
		return Buffer(buf), nil
	case c == '-' || isDigit(c):
		start := p.pos
		p.pos++
		p.readWhile(isDigit)
		n, err := strconv.ParseInt(p.src[start:p.pos], 10, 64)
		if err != nil {
			return nil, p.errorf("invalid int %q", p.src[start:p.pos])
		}
		return Int(n), nil
	case c == '\'':
		p.pos++
		addr := p.readWhile(isPrincipalChar)
		if !ValidPrincipal(addr) {
			return nil, p.errorf("invalid principal %q", addr)
		}
		return Principal(addr), nil
	}

	word := p.readWhile(isWordChar)
	switch word {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "none":
		return None(), nil
	case "":
		return nil, p.errorf("unexpected character %q", c)
	}
	return nil, p.errorf("unknown literal %q", word)
}

func (p *parser) parseForm() (Value, error) {
	p.pos++ // (
	p.skipSpace()

	word := p.readWhile(isWordChar)
	if word != "some" && word != "ok" && word != "err" {
		return nil, p.errorf("unknown form %q", word)
	}

	inner, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}

	switch word {
	case "some":
		return Some(inner), nil
	case "ok":
		return Ok(inner), nil
	}
	return Err(inner), nil
}

func (p *parser) parseTuple() (Value, error) {
	p.pos++ // {
	t := Tuple{}

	for {
		p.skipSpace()
		if p.peek(0) == '}' {
			p.pos++
			return t, nil
		}

		key := p.readWhile(isWordChar)
		if key == "" {
			return nil, p.errorf("expected tuple key")
		}
		if _, dup := t[key]; dup {
			return nil, p.errorf("duplicate tuple key %q", key)
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}

		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		t[key] = v

		p.skipSpace()
		switch p.peek(0) {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}' in tuple")
		}
	}
}

func (p *parser) parseQuoted() (string, error) {
	p.pos++ // opening quote
	var b strings.Builder

	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}

		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.eof() {
				return "", p.errorf("unterminated escape")
			}
			switch p.src[p.pos] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case 'u':
				r, err := p.parseUnicodeEscape()
				if err != nil {
					return "", err
				}
				b.WriteRune(r)
				continue
			default:
				return "", p.errorf("unknown escape \\%c", p.src[p.pos])
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

// parseUnicodeEscape читает u{XXXX}, p.pos стоит на 'u'
func (p *parser) parseUnicodeEscape() (rune, error) {
	p.pos++
	if p.peek(0) != '{' {
		return 0, p.errorf("expected '{' after \\u")
	}
	p.pos++

	digits := p.readWhile(isHex)
	if p.peek(0) != '}' || digits == "" {
		return 0, p.errorf("malformed unicode escape")
	}
	p.pos++

	n, err := strconv.ParseUint(digits, 16, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return 0, p.errorf("invalid code point %q", digits)
	}
	return rune(n), nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isWordChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_' || c == '?' || c == '!'
}

func isPrincipalChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '.' || c == '-' || c == '_'
}
