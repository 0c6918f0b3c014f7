package sdl

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Known encrypted-file magics. Descriptor sources must be decrypted before
// the server will load them.
var encryptionMagics = [][]byte{
	[]byte("whatdoyousee"),
	[]byte("notthedroids"),
	[]byte("BriceIsSmart"),
}

// IsEncrypted reports whether data starts with one of the legacy encryption
// magics.
func IsEncrypted(data []byte) bool {
	for _, magic := range encryptionMagics {
		if bytes.HasPrefix(data, magic) {
			return true
		}
	}
	return false
}

// LoadDirectory parses every .sdl file in dir into db. Files are loaded in
// name order so diagnostics are stable.
func (db *DescriptorDb) LoadDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading sdl directory %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sdl") {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		slog.Warn("no SDL descriptors found", "dir", dir)
		return nil
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := db.LoadFile(path); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

// LoadFile parses one descriptor source file into db.
func (db *DescriptorDb) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading sdl file: %w", err)
	}
	if IsEncrypted(data) {
		return fmt.Errorf("%s is encrypted; decrypt SDL sources before starting", path)
	}

	parser := newParser(path, data)
	descs, err := parser.parse()
	if err != nil {
		return err
	}
	for _, desc := range descs {
		if err := db.Register(desc); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokNumber
	tokQuoted
	tokTypename // $Name statedesc reference
	tokPunct    // single-char punctuation
)

type token struct {
	typ   tokenType
	value string
	line  int
}

type parser struct {
	filename string
	tokens   []token
	pos      int
}

func newParser(filename string, data []byte) *parser {
	p := &parser{filename: filename}
	p.tokenize(data)
	return p
}

func (p *parser) tokenize(data []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		i := 0
		for i < len(line) {
			c := line[i]
			switch {
			case c == ' ' || c == '\t' || c == '\r':
				i++
			case c >= '0' && c <= '9' || c == '-':
				j := i + 1
				for j < len(line) && (line[j] >= '0' && line[j] <= '9' || line[j] == '.') {
					j++
				}
				p.tokens = append(p.tokens, token{tokNumber, line[i:j], lineno})
				i = j
			case isIdentStart(c):
				j := i + 1
				for j < len(line) && isIdentChar(line[j]) {
					j++
				}
				p.tokens = append(p.tokens, token{tokIdent, line[i:j], lineno})
				i = j
			case c == '$':
				j := i + 1
				for j < len(line) && isIdentChar(line[j]) {
					j++
				}
				p.tokens = append(p.tokens, token{tokTypename, line[i+1 : j], lineno})
				i = j
			case c == '"':
				j := i + 1
				for j < len(line) && line[j] != '"' {
					j++
				}
				p.tokens = append(p.tokens, token{tokQuoted, line[i+1 : j], lineno})
				if j < len(line) {
					j++
				}
				i = j
			case strings.IndexByte("()[]{}=,;", c) >= 0:
				p.tokens = append(p.tokens, token{tokPunct, string(c), lineno})
				i++
			default:
				// Unexpected character; skip it with a warning.
				slog.Warn("unexpected character in SDL source",
					"file", p.filename, "line", lineno, "char", string(c))
				i++
			}
		}
	}
	p.tokens = append(p.tokens, token{tokEOF, "", lineno})
}

func isIdentStart(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.typ != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", p.filename, tok.line, fmt.Sprintf(format, args...))
}

func (p *parser) expectPunct(value string) error {
	tok := p.next()
	if tok.typ != tokPunct || tok.value != value {
		return p.errorf(tok, "expected %q, got %q", value, tok.value)
	}
	return nil
}

// parse reads every STATEDESC block in the file.
func (p *parser) parse() ([]*StateDescriptor, error) {
	var descs []*StateDescriptor
	for {
		tok := p.next()
		if tok.typ == tokEOF {
			return descs, nil
		}
		if tok.typ != tokIdent || tok.value != "STATEDESC" {
			return nil, p.errorf(tok, "expected STATEDESC, got %q", tok.value)
		}
		desc, err := p.parseStatedesc()
		if err != nil {
			return nil, err
		}
		descs = append(descs, desc)
	}
}

func (p *parser) parseStatedesc() (*StateDescriptor, error) {
	nameTok := p.next()
	if nameTok.typ != tokIdent {
		return nil, p.errorf(nameTok, "expected descriptor name")
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	desc := &StateDescriptor{Name: nameTok.value, Version: -1}
	for {
		tok := p.next()
		switch {
		case tok.typ == tokPunct && tok.value == "}":
			if desc.Version < 0 {
				return nil, p.errorf(tok, "STATEDESC %s has no VERSION", desc.Name)
			}
			return desc, nil
		case tok.typ == tokIdent && tok.value == "VERSION":
			verTok := p.next()
			if verTok.typ != tokNumber {
				return nil, p.errorf(verTok, "expected version number")
			}
			version, err := strconv.Atoi(verTok.value)
			if err != nil {
				return nil, p.errorf(verTok, "bad version %q", verTok.value)
			}
			desc.Version = version
		case tok.typ == tokIdent && tok.value == "VAR":
			varDesc, err := p.parseVar()
			if err != nil {
				return nil, err
			}
			desc.Vars = append(desc.Vars, *varDesc)
		case tok.typ == tokEOF:
			return nil, p.errorf(tok, "unexpected end of file in STATEDESC %s", desc.Name)
		default:
			return nil, p.errorf(tok, "unexpected token %q in STATEDESC %s", tok.value, desc.Name)
		}
	}
}

var varTypeNames = map[string]VarType{
	"INT": VarInt, "FLOAT": VarFloat, "BOOL": VarBool, "STRING32": VarString32,
	"PLKEY": VarKey, "CREATABLE": VarCreatable, "DOUBLE": VarDouble,
	"TIME": VarTime, "BYTE": VarByte, "SHORT": VarShort,
	"AGETIMEOFDAY": VarAgeTimeOfDay, "VECTOR3": VarVector3, "POINT3": VarPoint3,
	"QUATERNION": VarQuat, "RGB": VarRgb, "RGBA": VarRgba,
	"RGB8": VarRgb8, "RGBA8": VarRgba8,
}

func (p *parser) parseVar() (*VarDescriptor, error) {
	typeTok := p.next()
	varDesc := &VarDescriptor{Size: 1, Type: VarInvalid}
	switch typeTok.typ {
	case tokTypename:
		varDesc.Type = VarStateDesc
		varDesc.TypeName = typeTok.value
	case tokIdent:
		varType, ok := varTypeNames[typeTok.value]
		if !ok {
			return nil, p.errorf(typeTok, "unknown variable type %q", typeTok.value)
		}
		varDesc.Type = varType
	default:
		return nil, p.errorf(typeTok, "expected variable type")
	}

	nameTok := p.next()
	if nameTok.typ != tokIdent {
		return nil, p.errorf(nameTok, "expected variable name")
	}
	varDesc.Name = nameTok.value

	if p.peek().typ == tokPunct && p.peek().value == "[" {
		p.next()
		if p.peek().typ == tokNumber {
			sizeTok := p.next()
			size, err := strconv.Atoi(sizeTok.value)
			if err != nil || size < 1 {
				return nil, p.errorf(sizeTok, "bad array size %q", sizeTok.value)
			}
			varDesc.Size = size
		}
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
	}

	// Optional attribute list: DEFAULT=..., DEFAULTOPTION=..., DISPLAYOPTION=...
	for p.peek().typ == tokIdent {
		switch p.peek().value {
		case "DEFAULT":
			p.next()
			if err := p.expectPunct("="); err != nil {
				return nil, err
			}
			if err := p.parseDefault(varDesc); err != nil {
				return nil, err
			}
		case "DEFAULTOPTION":
			p.next()
			if err := p.expectPunct("="); err != nil {
				return nil, err
			}
			optTok := p.next()
			varDesc.DefaultOption = optTok.value
		case "DISPLAYOPTION":
			p.next()
			if err := p.expectPunct("="); err != nil {
				return nil, err
			}
			optTok := p.next()
			varDesc.DisplayOption = optTok.value
		default:
			return varDesc, nil
		}
	}
	return varDesc, nil
}

func (p *parser) parseDefault(varDesc *VarDescriptor) error {
	def := &varDesc.Default
	def.Valid = true

	// Vector-ish defaults are parenthesized tuples.
	if p.peek().typ == tokPunct && p.peek().value == "(" {
		p.next()
		var parts []float64
		for {
			tok := p.next()
			if tok.typ == tokPunct && tok.value == ")" {
				break
			}
			if tok.typ == tokPunct && tok.value == "," {
				continue
			}
			if tok.typ != tokNumber {
				return p.errorf(tok, "expected number in tuple default")
			}
			v, err := strconv.ParseFloat(tok.value, 64)
			if err != nil {
				return p.errorf(tok, "bad number %q", tok.value)
			}
			parts = append(parts, v)
		}
		p.applyTupleDefault(varDesc, parts)
		return nil
	}

	tok := p.next()
	switch tok.typ {
	case tokQuoted:
		def.String = tok.value
	case tokNumber:
		switch varDesc.Type {
		case VarFloat, VarAgeTimeOfDay:
			v, err := strconv.ParseFloat(tok.value, 32)
			if err != nil {
				return p.errorf(tok, "bad float default %q", tok.value)
			}
			def.Float = float32(v)
		case VarDouble:
			v, err := strconv.ParseFloat(tok.value, 64)
			if err != nil {
				return p.errorf(tok, "bad double default %q", tok.value)
			}
			def.Double = v
		case VarTime:
			v, err := strconv.ParseUint(tok.value, 10, 32)
			if err != nil {
				return p.errorf(tok, "bad time default %q", tok.value)
			}
			def.Time.Secs = uint32(v)
		default:
			v, err := strconv.ParseInt(tok.value, 10, 64)
			if err != nil {
				return p.errorf(tok, "bad numeric default %q", tok.value)
			}
			def.Int = int32(v)
			def.Bool = v != 0
		}
	case tokIdent:
		switch strings.ToLower(tok.value) {
		case "true":
			def.Bool = true
			def.Int = 1
		case "false":
			def.Bool = false
			def.Int = 0
		case "nil", "none":
			// Key/creatable defaults; nothing to record.
		default:
			def.String = tok.value
		}
	default:
		return p.errorf(tok, "bad default value %q", tok.value)
	}
	return nil
}

func (p *parser) applyTupleDefault(varDesc *VarDescriptor, parts []float64) {
	def := &varDesc.Default
	get := func(i int) float32 {
		if i < len(parts) {
			return float32(parts[i])
		}
		return 0
	}
	switch varDesc.Type {
	case VarVector3, VarPoint3:
		def.Vector = wire.Vector3{X: get(0), Y: get(1), Z: get(2)}
	case VarQuat:
		def.Quat = wire.Quaternion{X: get(0), Y: get(1), Z: get(2), W: get(3)}
	case VarRgb, VarRgba:
		def.Color = wire.ColorRgba{R: get(0), G: get(1), B: get(2), A: get(3)}
	case VarRgb8, VarRgba8:
		def.Color8 = wire.ColorRgba8{
			R: uint8(get(0)), G: uint8(get(1)), B: uint8(get(2)), A: uint8(get(3)),
		}
	}
}
