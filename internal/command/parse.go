// Package command parses queued command text and dispatches it to a closed
// set of named robot operations. There is deliberately no general-purpose
// interpreter here: a command is one call of the form
//
//	robot.say_text('hello')
//	robot.anim.play_animation("anim_pounce_success_02")
//	robot.drive_wheels(75, 75)
//
// i.e. a receiver, a dotted operation name, and literal arguments.
package command

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Arg is a literal argument value: string, float64 or bool.
type Arg any

// Invocation is one parsed command.
type Invocation struct {
	Receiver string // leading identifier, e.g. "robot"
	Op       string // dotted operation name, e.g. "anim.play_animation"
	Args     []Arg
}

// Parse parses a single command string into an Invocation.
func Parse(text string) (*Invocation, error) {
	p := &parser{input: text}
	inv, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", text, err)
	}
	return inv, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) parse() (*Invocation, error) {
	idents := []string{}
	for {
		p.skipSpace()
		id, err := p.ident()
		if err != nil {
			return nil, err
		}
		idents = append(idents, id)
		p.skipSpace()
		if !p.eat('.') {
			break
		}
	}
	if len(idents) < 2 {
		return nil, fmt.Errorf("expected <receiver>.<operation>")
	}

	if !p.eat('(') {
		return nil, fmt.Errorf("expected '(' after operation name")
	}

	var args []Arg
	p.skipSpace()
	if !p.eat(')') {
		for {
			arg, err := p.arg()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			p.skipSpace()
			if p.eat(',') {
				p.skipSpace()
				continue
			}
			if p.eat(')') {
				break
			}
			return nil, fmt.Errorf("expected ',' or ')' at offset %d", p.pos)
		}
	}

	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("trailing input at offset %d", p.pos)
	}

	return &Invocation{
		Receiver: idents[0],
		Op:       strings.Join(idents[1:], "."),
		Args:     args,
	}, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

// eat consumes c if it is the next byte.
func (p *parser) eat(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) ident() (string, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := rune(p.input[p.pos])
		if unicode.IsLetter(c) || c == '_' || (p.pos > start && unicode.IsDigit(c)) {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", fmt.Errorf("expected identifier at offset %d", start)
	}
	return p.input[start:p.pos], nil
}

func (p *parser) arg() (Arg, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unexpected end of input in argument list")
	}
	switch c := p.input[p.pos]; {
	case c == '\'' || c == '"':
		return p.stringLit(c)
	case c == '-' || c == '+' || c == '.' || unicode.IsDigit(rune(c)):
		return p.numberLit()
	default:
		// true / false keywords
		rest := p.input[p.pos:]
		if strings.HasPrefix(rest, "true") {
			p.pos += 4
			return true, nil
		}
		if strings.HasPrefix(rest, "false") {
			p.pos += 5
			return false, nil
		}
		return nil, fmt.Errorf("unexpected argument at offset %d", p.pos)
	}
}

func (p *parser) stringLit(quote byte) (Arg, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.input) {
				return nil, fmt.Errorf("unterminated escape in string literal")
			}
			switch esc := p.input[p.pos]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(esc)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return nil, fmt.Errorf("unterminated string literal")
}

func (p *parser) numberLit() (Arg, error) {
	start := p.pos
	if c := p.input[p.pos]; c == '-' || c == '+' {
		p.pos++
	}
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if unicode.IsDigit(rune(c)) || c == '.' {
			p.pos++
			continue
		}
		if c == 'e' || c == 'E' {
			p.pos++
			// exponent sign
			if p.pos < len(p.input) && (p.input[p.pos] == '+' || p.input[p.pos] == '-') {
				p.pos++
			}
			continue
		}
		break
	}
	f, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number at offset %d", start)
	}
	return f, nil
}
