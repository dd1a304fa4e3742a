// Package lexer implements a small example lexer for "minilang" whose token
// spans can be fed to the highlighter. Offsets are byte offsets.
package lexer

import "github.com/zjrosen/hlspan/internal/span"

// TokenType represents the type of lexical token.
type TokenType int

const (
	TokenIllegal TokenType = iota

	// Delimiters
	TokenLParen // (
	TokenRParen // )
	TokenLBrace // {
	TokenRBrace // }
	TokenLAngle // <
	TokenRAngle // >

	// Keywords
	TokenIf   // if
	TokenElse // else

	// Literals
	TokenInt    // -?[0-9]+
	TokenString // "..."
	TokenIdent  // [a-zA-Z_][0-9a-zA-Z_]*

	// Comments
	TokenLineComment  // // ...
	TokenBlockComment // /* ... */
)

// String returns the display name of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenIllegal:
		return "Illegal"
	case TokenLParen:
		return "LParen"
	case TokenRParen:
		return "RParen"
	case TokenLBrace:
		return "LBrace"
	case TokenRBrace:
		return "RBrace"
	case TokenLAngle:
		return "LeftAngledBracket"
	case TokenRAngle:
		return "RightAngledBracket"
	case TokenIf:
		return "If"
	case TokenElse:
		return "Else"
	case TokenInt:
		return "Int"
	case TokenString:
		return "String"
	case TokenIdent:
		return "Ident"
	case TokenLineComment:
		return "LComment"
	case TokenBlockComment:
		return "BComment"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token. The embedded range is its byte span.
type Token struct {
	span.Range
	Type    TokenType
	Literal string
}

// TokenName returns the token type's display name.
func (t Token) TokenName() string { return t.Type.String() }

// keywords maps keyword strings to their token types.
var keywords = map[string]TokenType{
	"if":   TokenIf,
	"else": TokenElse,
}

// LookupKeyword returns the keyword token type for ident, or TokenIdent.
func LookupKeyword(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}
