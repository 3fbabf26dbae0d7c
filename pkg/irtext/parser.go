package irtext

import (
	"fmt"

	"github.com/crankshaft/refprune/pkg/refir"
)

// Parser is a recursive-descent parser for the textual IR format.
type Parser struct {
	l         *Lexer
	curToken  Token
	peekToken Token
	errors    []string
}

// NewParser creates a Parser over l.
func NewParser(l *Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns every error accumulated while parsing.
func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) addErrorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Sprintf("line %d, col %d: %s", p.curToken.Line, p.curToken.Column, msg))
}

func (p *Parser) expect(t TokenType) bool {
	if p.curToken.Type == t {
		p.nextToken()
		return true
	}
	p.addErrorf("expected %s, got %s %q", t, p.curToken.Type, p.curToken.Literal)
	return false
}

// ParseProgram parses every function definition in the input, in source
// order. On any error it returns the functions parsed so far and a
// non-nil error describing every problem found.
func ParseProgram(src string) ([]*refir.Function, error) {
	p := NewParser(NewLexer(src))
	var fns []*refir.Function
	for p.curToken.Type != TokenEOF {
		fn := p.parseFunction()
		if fn != nil {
			fns = append(fns, fn)
		}
		if len(p.errors) > 0 {
			break
		}
	}
	if len(p.errors) > 0 {
		return fns, fmt.Errorf("irtext: %v", p.errors)
	}
	return fns, nil
}

func (p *Parser) parseFunction() *refir.Function {
	if !p.expect(TokenFunc) {
		return nil
	}
	name := p.curToken.Literal
	if !p.expect(TokenIdent) {
		return nil
	}
	if !p.expect(TokenLBrace) {
		return nil
	}

	fn := refir.NewFunction(name)
	values := map[string]refir.Value{}
	temp := func(name string) refir.Value {
		if v, ok := values[name]; ok {
			return v
		}
		v := &refir.Temp{Name: name}
		values[name] = v
		return v
	}

	// getBlock returns the block for label, creating an unplaced
	// placeholder on first reference so a branch can target a label
	// declared later in the function. The placeholder is added to fn
	// (in header order, not creation order) once its own header is
	// reached below.
	blocksByLabel := map[string]*refir.Block{}
	getBlock := func(label string) *refir.Block {
		if b, ok := blocksByLabel[label]; ok {
			return b
		}
		b := refir.NewBlock(0)
		blocksByLabel[label] = b
		return b
	}

	seen := map[string]bool{}
	for p.curToken.Type == TokenIdent {
		label := p.curToken.Literal
		p.nextToken()
		if !p.expect(TokenColon) {
			return fn
		}
		if seen[label] {
			p.addErrorf("block %q declared more than once", label)
			return fn
		}
		seen[label] = true

		b := getBlock(label)
		b.ID = len(fn.Blocks)
		fn.AddBlock(b)

		for p.curToken.Type != TokenIdent && p.curToken.Type != TokenRBrace && p.curToken.Type != TokenEOF {
			instr := p.parseInstr(temp, getBlock)
			if instr == nil {
				return fn
			}
			b.Append(instr)
		}
	}

	if !p.expect(TokenRBrace) {
		return fn
	}
	fn.Finalize()
	return fn
}

// parseInstr parses one instruction. Branch targets are resolved via
// getBlock, which resolves a label to a placeholder block on first
// reference regardless of whether its header has been parsed yet — so a
// branch may target a label declared earlier or later in the function.
func (p *Parser) parseInstr(temp func(string) refir.Value, getBlock func(string) *refir.Block) refir.Instr {
	switch p.curToken.Type {
	case TokenIncref:
		p.nextToken()
		v := p.parseOperand(temp)
		return refir.NewCall(refir.IncrefCallee, v)
	case TokenDecref:
		p.nextToken()
		v := p.parseOperand(temp)
		return refir.NewCall(refir.DecrefCallee, v)
	case TokenOpaque:
		p.nextToken()
		label := p.curToken.Literal
		if !p.expect(TokenString) {
			return nil
		}
		return &refir.Opaque{Label: label}
	case TokenCall:
		p.nextToken()
		callee := p.curToken.Literal
		if !p.expect(TokenIdent) {
			return nil
		}
		if !p.expect(TokenLParen) {
			return nil
		}
		var args []refir.Value
		for p.curToken.Type != TokenRParen {
			args = append(args, p.parseOperand(temp))
			if p.curToken.Type == TokenComma {
				p.nextToken()
			}
		}
		p.nextToken() // consume ')'
		return refir.NewCall(callee, args...)
	case TokenBr:
		p.nextToken()
		target := p.resolveBlock(getBlock)
		return &refir.Br{Target: target}
	case TokenCondBr:
		p.nextToken()
		cond := p.parseOperand(temp)
		if !p.expect(TokenComma) {
			return nil
		}
		t := p.resolveBlock(getBlock)
		if !p.expect(TokenComma) {
			return nil
		}
		f := p.resolveBlock(getBlock)
		return &refir.CondBr{Cond: cond, True: t, False: f}
	case TokenRet:
		p.nextToken()
		raise := false
		if p.curToken.Type == TokenRaise {
			raise = true
			p.nextToken()
		}
		return &refir.Ret{RaiseExit: raise}
	default:
		p.addErrorf("unexpected token %s %q at start of instruction", p.curToken.Type, p.curToken.Literal)
		return nil
	}
}

func (p *Parser) parseOperand(temp func(string) refir.Value) refir.Value {
	if p.curToken.Type == TokenNull {
		p.nextToken()
		return refir.NullConst{}
	}
	if p.curToken.Type == TokenPercent {
		p.nextToken()
		name := p.curToken.Literal
		p.expect(TokenIdent)
		return temp(name)
	}
	p.addErrorf("expected an operand (%%name or null), got %s %q", p.curToken.Type, p.curToken.Literal)
	return nil
}

func (p *Parser) resolveBlock(getBlock func(string) *refir.Block) *refir.Block {
	label := p.curToken.Literal
	if !p.expect(TokenIdent) {
		return nil
	}
	return getBlock(label)
}
