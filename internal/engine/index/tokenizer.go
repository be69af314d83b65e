package index

// Tokenizer is a single-pass byte-level scanner producing a flat token
// stream. It holds no references to the input after scanning.
type Tokenizer struct {
	input []byte
	pos   int64
	depth int
}

// NewTokenizer creates a tokenizer over the given text window.
func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{input: []byte(input)}
}

// NewTokenizerBytes creates a tokenizer over raw bytes without copying.
func NewTokenizerBytes(input []byte) *Tokenizer {
	return &Tokenizer{input: input}
}

func (t *Tokenizer) peek() (byte, bool) {
	if t.pos < int64(len(t.input)) {
		return t.input[t.pos], true
	}
	return 0, false
}

func (t *Tokenizer) advance() (byte, bool) {
	if t.pos < int64(len(t.input)) {
		ch := t.input[t.pos]
		t.pos++
		return ch, true
	}
	return 0, false
}

func (t *Tokenizer) skipWhitespace() (Token, bool) {
	start := t.pos
	for {
		ch, ok := t.peek()
		if !ok || (ch != ' ' && ch != '\n' && ch != '\r' && ch != '\t') {
			break
		}
		t.pos++
	}
	if t.pos > start {
		return Token{Kind: TokenWhitespace, Start: start, End: t.pos, Depth: t.depth}, true
	}
	return Token{}, false
}

// scanString consumes a quoted string. A backslash consumes exactly one
// following byte; a backslash at end of input leaves the string unterminated
// and the token Invalid.
func (t *Tokenizer) scanString(start int64) Token {
	t.advance() // opening quote
	for {
		ch, ok := t.advance()
		if !ok {
			return Token{Kind: TokenInvalid, Start: start, End: t.pos, Depth: t.depth}
		}
		switch ch {
		case '"':
			return Token{Kind: TokenString, Start: start, End: t.pos, Depth: t.depth}
		case '\\':
			t.advance()
		}
	}
}

// scanNumber consumes an optional sign, a digit run, an optional fractional
// part, and an optional signed exponent.
func (t *Tokenizer) scanNumber(start int64) Token {
	if ch, ok := t.peek(); ok && ch == '-' {
		t.pos++
	}

	hasDigits := false
	for {
		ch, ok := t.peek()
		if !ok || ch < '0' || ch > '9' {
			break
		}
		t.pos++
		hasDigits = true
	}

	if ch, ok := t.peek(); ok && ch == '.' {
		t.pos++
		for {
			ch, ok := t.peek()
			if !ok || ch < '0' || ch > '9' {
				break
			}
			t.pos++
		}
	}

	if ch, ok := t.peek(); ok && (ch == 'e' || ch == 'E') {
		t.pos++
		if sign, ok := t.peek(); ok && (sign == '+' || sign == '-') {
			t.pos++
		}
		for {
			ch, ok := t.peek()
			if !ok || ch < '0' || ch > '9' {
				break
			}
			t.pos++
		}
	}

	kind := TokenNumber
	if !hasDigits {
		kind = TokenInvalid
	}
	return Token{Kind: kind, Start: start, End: t.pos, Depth: t.depth}
}

// matchKeyword consumes a literal keyword byte for byte.
func (t *Tokenizer) matchKeyword(start int64, keyword string, kind TokenKind) Token {
	for i := 0; i < len(keyword); i++ {
		ch, ok := t.advance()
		if !ok || ch != keyword[i] {
			return Token{Kind: TokenInvalid, Start: start, End: t.pos, Depth: t.depth}
		}
	}
	return Token{Kind: kind, Start: start, End: t.pos, Depth: t.depth}
}

// Next returns the next token, or false at end of input.
func (t *Tokenizer) Next() (Token, bool) {
	if ws, ok := t.skipWhitespace(); ok {
		return ws, true
	}

	start := t.pos
	ch, ok := t.peek()
	if !ok {
		return Token{}, false
	}

	switch {
	case ch == '{':
		t.pos++
		t.depth++
		return Token{Kind: TokenBraceOpen, Start: start, End: t.pos, Depth: t.depth - 1}, true
	case ch == '}':
		t.pos++
		if t.depth > 0 {
			t.depth--
		}
		return Token{Kind: TokenBraceClose, Start: start, End: t.pos, Depth: t.depth}, true
	case ch == '[':
		t.pos++
		t.depth++
		return Token{Kind: TokenBracketOpen, Start: start, End: t.pos, Depth: t.depth - 1}, true
	case ch == ']':
		t.pos++
		if t.depth > 0 {
			t.depth--
		}
		return Token{Kind: TokenBracketClose, Start: start, End: t.pos, Depth: t.depth}, true
	case ch == ':':
		t.pos++
		return Token{Kind: TokenColon, Start: start, End: t.pos, Depth: t.depth}, true
	case ch == ',':
		t.pos++
		return Token{Kind: TokenComma, Start: start, End: t.pos, Depth: t.depth}, true
	case ch == '"':
		return t.scanString(start), true
	case ch == '-' || (ch >= '0' && ch <= '9'):
		return t.scanNumber(start), true
	case ch == 't':
		return t.matchKeyword(start, "true", TokenTrue), true
	case ch == 'f':
		return t.matchKeyword(start, "false", TokenFalse), true
	case ch == 'n':
		return t.matchKeyword(start, "null", TokenNull), true
	default:
		t.pos++
		return Token{Kind: TokenInvalid, Start: start, End: t.pos, Depth: t.depth}, true
	}
}

// Tokenize scans the remaining input and returns all tokens.
func (t *Tokenizer) Tokenize() []Token {
	var tokens []Token
	for {
		tok, ok := t.Next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}
