package lexer

import (
	"unicode/utf8"

	"github.com/zjrosen/hlspan/internal/log"
	"github.com/zjrosen/hlspan/internal/span"
)

// Lexer tokenizes minilang input.
type Lexer struct {
	input   string
	pos     int  // position of ch
	readPos int  // position after ch
	ch      byte // current character under examination, 0 at EOF
}

// NewLexer creates a new lexer for the input string.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// Lex returns every token in input, in order.
func Lex(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, ok := l.NextToken()
		if !ok {
			break
		}
		tokens = append(tokens, tok)
	}
	log.Debug(log.CatLexer, "Lexed input", "bytes", len(input), "tokens", len(tokens))
	return tokens
}

// NextToken returns the next token, or false at end of input.
func (l *Lexer) NextToken() (Token, bool) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{}, false
	}

	start := l.pos
	var typ TokenType

	switch l.ch {
	case '(':
		typ = TokenLParen
		l.readChar()
	case ')':
		typ = TokenRParen
		l.readChar()
	case '{':
		typ = TokenLBrace
		l.readChar()
	case '}':
		typ = TokenRBrace
		l.readChar()
	case '<':
		typ = TokenLAngle
		l.readChar()
	case '>':
		typ = TokenRAngle
		l.readChar()
	case '"':
		typ = l.readString()
	case '/':
		typ = l.readComment()
	default:
		switch {
		case isLetter(l.ch):
			l.readIdentifier()
			typ = LookupKeyword(l.input[start:l.pos])
		case isDigit(l.ch) || (l.ch == '-' && isDigit(l.peekChar())):
			l.readNumber()
			typ = TokenInt
		default:
			typ = TokenIllegal
			l.skipRune()
		}
	}

	tok := Token{
		Range:   span.Range{Lo: start, Hi: l.pos},
		Type:    typ,
		Literal: l.input[start:l.pos],
	}
	if typ == TokenIllegal {
		log.Warn(log.CatLexer, "Illegal token", "span", tok.Range, "literal", tok.Literal)
	}
	return tok, true
}

// readChar reads the next character and advances position.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// skipRune advances past one whole UTF-8 character.
func (l *Lexer) skipRune() {
	_, size := utf8.DecodeRuneInString(l.input[l.pos:])
	for i := 0; i < size; i++ {
		l.readChar()
	}
}

// skipWhitespace advances past whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() {
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
}

func (l *Lexer) readNumber() {
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
}

// readString consumes a double-quoted string with backslash escapes.
// An unterminated string is illegal and runs to end of input.
func (l *Lexer) readString() TokenType {
	l.readChar() // opening quote
	for l.pos < len(l.input) {
		switch l.ch {
		case '\\':
			l.readChar()
			if l.pos < len(l.input) {
				l.readChar()
			}
		case '"':
			l.readChar()
			return TokenString
		default:
			l.readChar()
		}
	}
	return TokenIllegal
}

// readComment consumes "// ..." up to the newline or "/* ... */".
// A lone slash or an unterminated block comment is illegal.
func (l *Lexer) readComment() TokenType {
	switch l.peekChar() {
	case '/':
		for l.pos < len(l.input) && l.ch != '\n' {
			l.readChar()
		}
		return TokenLineComment
	case '*':
		l.readChar()
		l.readChar()
		for l.pos < len(l.input) {
			if l.ch == '*' && l.peekChar() == '/' {
				l.readChar()
				l.readChar()
				return TokenBlockComment
			}
			l.readChar()
		}
		return TokenIllegal
	default:
		l.readChar()
		return TokenIllegal
	}
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
