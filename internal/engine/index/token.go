package index

// TokenKind identifies the lexical class of a token.
type TokenKind uint8

const (
	TokenBraceOpen    TokenKind = iota // {
	TokenBraceClose                    // }
	TokenBracketOpen                   // [
	TokenBracketClose                  // ]
	TokenColon                         // :
	TokenComma                         // ,
	TokenString                        // "..."
	TokenNumber                        // 123, 12.34, -5, 1e10
	TokenTrue                          // true
	TokenFalse                         // false
	TokenNull                          // null
	TokenWhitespace                    // spaces, newlines, tabs
	TokenInvalid                       // anything unrecognized or truncated
)

// String returns a readable name for the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenBraceOpen:
		return "{"
	case TokenBraceClose:
		return "}"
	case TokenBracketOpen:
		return "["
	case TokenBracketClose:
		return "]"
	case TokenColon:
		return ":"
	case TokenComma:
		return ","
	case TokenString:
		return "String"
	case TokenNumber:
		return "Number"
	case TokenTrue:
		return "true"
	case TokenFalse:
		return "false"
	case TokenNull:
		return "null"
	case TokenWhitespace:
		return "Whitespace"
	case TokenInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// Token is a typed span of input bytes.
// Start is inclusive, End exclusive. Depth records the nesting depth at
// emission time; open and close brackets record the depth before their own
// nesting change, so a container compares positionally with its children.
type Token struct {
	Kind  TokenKind
	Start int64
	End   int64
	Depth int
}

// Len returns the byte length of the token.
func (t Token) Len() int64 {
	return t.End - t.Start
}
