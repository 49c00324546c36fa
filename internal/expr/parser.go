package expr

import (
	"fmt"
	"math"
	"strconv"
)

const (
	_ int = iota
	LOWEST
	SUM     // + -
	PRODUCT // * /
	PREFIX  // -X
	POWER   // ^ (right-associative, binds tighter than unary minus)
)

var precedences = map[TokenType]int{
	PLUS:  SUM,
	MINUS: SUM,
	STAR:  PRODUCT,
	SLASH: PRODUCT,
	CARET: POWER,
}

// funcNames is the closed set of callable functions. "ln" is an alias for
// "log"; both mean the natural logarithm.
var funcNames = map[string]bool{
	"sin": true, "cos": true, "tan": true,
	"asin": true, "acos": true, "atan": true,
	"sinh": true, "cosh": true, "tanh": true,
	"exp": true, "log": true, "ln": true,
	"sqrt": true, "abs": true,
}

type (
	prefixParseFn func() Expr
	infixParseFn  func(Expr) Expr
)

type Parser struct {
	l *Lexer

	curToken  Token
	peekToken Token

	errors []string

	prefixParseFns map[TokenType]prefixParseFn
	infixParseFns  map[TokenType]infixParseFn
}

func NewParser(l *Lexer) *Parser {
	p := &Parser{
		l:      l,
		errors: []string{},
	}

	p.prefixParseFns = make(map[TokenType]prefixParseFn)
	p.registerPrefix(IDENT, p.parseIdentifier)
	p.registerPrefix(NUMBER, p.parseNumberLiteral)
	p.registerPrefix(MINUS, p.parsePrefixExpression)
	p.registerPrefix(PLUS, p.parseUnaryPlus)
	p.registerPrefix(LPAREN, p.parseGroupedExpression)

	p.infixParseFns = make(map[TokenType]infixParseFn)
	p.registerInfix(PLUS, p.parseInfixExpression)
	p.registerInfix(MINUS, p.parseInfixExpression)
	p.registerInfix(STAR, p.parseInfixExpression)
	p.registerInfix(SLASH, p.parseInfixExpression)
	p.registerInfix(CARET, p.parsePowerExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokenType TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// Parse parses the whole input as a single expression; trailing tokens are
// an error.
func (p *Parser) Parse() (Expr, error) {
	e := p.parseExpression(LOWEST)
	if !p.peekTokenIs(EOF) && len(p.errors) == 0 {
		p.errors = append(p.errors,
			fmt.Sprintf("unexpected %q at position %d", p.peekToken.Literal, p.peekToken.Position))
	}
	if len(p.errors) > 0 {
		return nil, fmt.Errorf("%s", p.errors[0])
	}
	return e, nil
}

func (p *Parser) parseExpression(precedence int) Expr {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.errors = append(p.errors,
			fmt.Sprintf("unexpected %q at position %d", p.curToken.Literal, p.curToken.Position))
		return nil
	}
	leftExp := prefix()

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
	}

	return leftExp
}

func (p *Parser) parseIdentifier() Expr {
	name := p.curToken.Literal
	if p.peekTokenIs(LPAREN) {
		if !funcNames[name] {
			p.errors = append(p.errors,
				fmt.Sprintf("unknown function %q at position %d", name, p.curToken.Position))
			return nil
		}
		p.nextToken() // consume '('
		p.nextToken()
		arg := p.parseExpression(LOWEST)
		if !p.expectPeek(RPAREN) {
			return nil
		}
		return &Call{Name: name, Arg: arg}
	}

	switch name {
	case "x":
		return &Var{}
	case "pi":
		return &Num{Value: math.Pi}
	case "e":
		return &Num{Value: math.E}
	}
	p.errors = append(p.errors,
		fmt.Sprintf("unknown identifier %q at position %d (the free variable is x)", name, p.curToken.Position))
	return nil
}

func (p *Parser) parseNumberLiteral() Expr {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.errors = append(p.errors,
			fmt.Sprintf("could not parse %q as number", p.curToken.Literal))
		return nil
	}
	return &Num{Value: value}
}

func (p *Parser) parsePrefixExpression() Expr {
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if operand == nil {
		return nil
	}
	return &Neg{Operand: operand}
}

func (p *Parser) parseUnaryPlus() Expr {
	p.nextToken()
	return p.parseExpression(PREFIX)
}

func (p *Parser) parseGroupedExpression() Expr {
	p.nextToken()
	e := p.parseExpression(LOWEST)
	if !p.expectPeek(RPAREN) {
		return nil
	}
	return e
}

func (p *Parser) parseInfixExpression(left Expr) Expr {
	op := p.curToken.Literal[0]
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	if left == nil || right == nil {
		return nil
	}
	return &Binary{Op: op, Left: left, Right: right}
}

// parsePowerExpression is right-associative: x^2^3 == x^(2^3).
func (p *Parser) parsePowerExpression(left Expr) Expr {
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence - 1)
	if left == nil || right == nil {
		return nil
	}
	return &Binary{Op: '^', Left: left, Right: right}
}

func (p *Parser) curTokenIs(t TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errors = append(p.errors,
		fmt.Sprintf("expected %s, got %q at position %d", t, p.peekToken.Literal, p.peekToken.Position))
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}
