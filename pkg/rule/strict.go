package rule

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
)

// Strict grammar errors.
const (
	ErrNoAnchor       errors.Error = "missing || anchor"
	ErrNoSeparator    errors.Error = "missing ^ separator"
	ErrTrailingInput  errors.Error = "unexpected input after ^ separator"
	ErrNoDomain       errors.Error = "no domain before the top-level label"
	ErrBadTopLevel    errors.Error = "top-level label must be at least two letters"
	ErrUnexpectedChar errors.Error = "unexpected character"
)

// TokenKind is the lexical class of a Token.
type TokenKind int

// Token kinds of the domain block grammar.
const (
	TokenAnchor TokenKind = iota
	TokenLabel
	TokenDot
	TokenSeparator
	TokenModifier
	TokenOther
)

// String implements the fmt.Stringer interface for TokenKind.
func (k TokenKind) String() string {
	switch k {
	case TokenAnchor:
		return "anchor"
	case TokenLabel:
		return "label"
	case TokenDot:
		return "dot"
	case TokenSeparator:
		return "separator"
	case TokenModifier:
		return "modifier"
	default:
		return "other"
	}
}

// Token is a lexeme of a rule together with its byte offset.
type Token struct {
	Kind  TokenKind
	Text  string
	Start int
}

// Tokenize splits text into grammar tokens. Runs of [A-Za-z0-9-] form a
// label; every other byte that is not part of the grammar becomes a
// TokenOther of length one.
func Tokenize(text string) []Token {
	tokens := make([]Token, 0, 8)
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '|' && i+1 < len(text) && text[i+1] == '|':
			tokens = append(tokens, Token{Kind: TokenAnchor, Text: anchor, Start: i})
			i += 2
		case isLabelByte(c):
			j := i + 1
			for j < len(text) && isLabelByte(text[j]) {
				j++
			}
			tokens = append(tokens, Token{Kind: TokenLabel, Text: text[i:j], Start: i})
			i = j
		case c == '.':
			tokens = append(tokens, Token{Kind: TokenDot, Text: ".", Start: i})
			i++
		case c == '^':
			tokens = append(tokens, Token{Kind: TokenSeparator, Text: separator, Start: i})
			i++
		case c == '$':
			tokens = append(tokens, Token{Kind: TokenModifier, Text: modifierMarker, Start: i})
			i++
		default:
			tokens = append(tokens, Token{Kind: TokenOther, Text: text[i : i+1], Start: i})
			i++
		}
	}
	return tokens
}

// ValidateStrict returns nil when text is exactly
//
//	"||" [A-Za-z0-9.-]+ "." [A-Za-z]{2,} "^"
//
// with nothing after the separator.
func ValidateStrict(text string) error {
	tokens := Tokenize(text)
	if len(tokens) == 0 || tokens[0].Kind != TokenAnchor {
		return ErrNoAnchor
	}

	sepIdx := -1
	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind == TokenLabel || tok.Kind == TokenDot {
			continue
		}
		if tok.Kind != TokenSeparator {
			return fmt.Errorf("%w %q at offset %d", ErrUnexpectedChar, tok.Text, tok.Start)
		}
		sepIdx = i
		break
	}
	if sepIdx < 0 {
		return ErrNoSeparator
	}
	if sepIdx != len(tokens)-1 {
		return ErrTrailingInput
	}

	body := tokens[1:sepIdx]
	// The body ends with "." and an alphabetic label, preceded by at least one
	// more token.
	if len(body) < 3 {
		return ErrNoDomain
	}
	tld := body[len(body)-1]
	if tld.Kind != TokenLabel || !isAlpha(tld.Text) || len(tld.Text) < 2 {
		return ErrBadTopLevel
	}
	if body[len(body)-2].Kind != TokenDot {
		return ErrBadTopLevel
	}
	return nil
}

// IsStrict reports whether text matches the strict domain block grammar.
func IsStrict(text string) bool {
	return ValidateStrict(text) == nil
}

func isLabelByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-'
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
