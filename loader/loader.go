// Package loader reads a BatBridge program image: §6 describes the
// format only at the interface level — "a mapping from 4-aligned
// addresses to either word integers or symbolic vectors" — leaving
// its on-disk syntax to whichever external assembler produced it.
// This package defines one concrete syntax: a line-oriented assembly
// text format that assembles straight through the same isa.Decoder
// every execution model shares, so a loaded program is guaranteed
// decodable before a single cycle runs.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/arrdem/batbridge/isa"
)

// Image is a loaded program: its word map, ready for
// emu.Memory.LoadImage, and its entry point.
type Image struct {
	Words map[uint32]int32
	Entry uint32
}

func parseRegister(tok string) (uint8, error) {
	if idx, ok := isa.ResolveRegisterAlias(tok); ok {
		return idx, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(tok), "r"))
	if err != nil || n < 0 || n > 31 {
		return 0, fmt.Errorf("bad register %q", tok)
	}
	return uint8(n), nil
}

// Load reads a program image from the file at path.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open program image: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a program image from r: one instruction per line in
// the vector form `opcode d a b i` (fewer operands for the
// conditionals and hlt, per §4.2), plus three directives — `.org
// addr` to set the address the next line assembles at, `.entry addr`
// to record the entry point, and `.word value` to splice in a raw
// encoded word. `#` starts a line comment; blank lines are skipped.
func Parse(r io.Reader) (*Image, error) {
	dec := isa.NewDecoder()
	img := &Image{Words: make(map[uint32]int32)}
	addr := uint32(0)

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch strings.ToLower(fields[0]) {
		case ".org":
			n, err := parseDirectiveAddr(fields, lineNo, ".org")
			if err != nil {
				return nil, err
			}
			addr = n
			continue
		case ".entry":
			n, err := parseDirectiveAddr(fields, lineNo, ".entry")
			if err != nil {
				return nil, err
			}
			img.Entry = n
			continue
		case ".word":
			n, err := parseDirectiveAddr(fields, lineNo, ".word")
			if err != nil {
				return nil, err
			}
			img.Words[addr] = int32(n)
			addr += 4
			continue
		}

		vec, err := parseVector(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		inst, err := dec.Decode(vec, addr)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		img.Words[addr] = int32(isa.EncodeWord(inst))
		addr += 4
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read program image: %w", err)
	}
	return img, nil
}

func parseDirectiveAddr(fields []string, lineNo int, name string) (uint32, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("line %d: %s wants exactly one argument", lineNo, name)
	}
	n, err := strconv.ParseUint(fields[1], 0, 32)
	if err != nil {
		return 0, fmt.Errorf("line %d: bad %s argument %q: %w", lineNo, name, fields[1], err)
	}
	return uint32(n), nil
}

func parseVector(fields []string) (isa.Vector, error) {
	op, ok := isa.OpByName(strings.ToLower(fields[0]))
	if !ok {
		return isa.Vector{}, fmt.Errorf("unknown opcode %q", fields[0])
	}
	args := fields[1:]
	v := isa.Vector{Op: op}

	switch op {
	case isa.Hlt:
		if len(args) != 0 {
			return v, fmt.Errorf("hlt takes no operands")
		}
		return v, nil

	case isa.IfLt, isa.IfLe, isa.IfEq, isa.IfNe:
		if len(args) != 3 {
			return v, fmt.Errorf("%s wants a, b, i", fields[0])
		}
		a, err := parseRegister(args[0])
		if err != nil {
			return v, err
		}
		b, err := parseRegister(args[1])
		if err != nil {
			return v, err
		}
		i, err := strconv.ParseInt(args[2], 0, 32)
		if err != nil {
			return v, fmt.Errorf("bad immediate %q: %w", args[2], err)
		}
		v.A, v.B, v.I = isa.Reg(a), isa.Reg(b), int32(i)
		return v, nil

	default:
		if len(args) != 4 {
			return v, fmt.Errorf("%s wants d, a, b, i", fields[0])
		}
		d, err := parseRegister(args[0])
		if err != nil {
			return v, err
		}
		a, err := parseRegister(args[1])
		if err != nil {
			return v, err
		}
		b, err := parseRegister(args[2])
		if err != nil {
			return v, err
		}
		i, err := strconv.ParseInt(args[3], 0, 32)
		if err != nil {
			return v, fmt.Errorf("bad immediate %q: %w", args[3], err)
		}
		v.D, v.A, v.B, v.I = isa.Reg(d), isa.Reg(a), isa.Reg(b), int32(i)
		return v, nil
	}
}
