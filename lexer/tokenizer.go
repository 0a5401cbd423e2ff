package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/valley-lang/valleyc/compileerrors"
	"github.com/valley-lang/valleyc/token"
)

func isDigit(ch rune) bool  { return ch >= '0' && ch <= '9' }
func isAlpha(ch rune) bool  { return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') }
func isAlnum(ch rune) bool  { return isAlpha(ch) || isDigit(ch) }
func isSpace(ch rune) bool  { return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' }

// Tokenizer pulls tokens out of a PushbackStream, grounded on
// tokenizer.cpp's free functions (fetchWord, fetchOperator, fetchString,
// skipLineComment, skipBlockComment, tokenize).
type Tokenizer struct {
	s *PushbackStream
}

func NewTokenizer(s *PushbackStream) *Tokenizer {
	return &Tokenizer{s: s}
}

func (t *Tokenizer) errf(pos token.Position, msg string, args ...interface{}) error {
	return compileerrors.SyntaxError(pos.Line, pos.Column, fmt.Sprintf(msg, args...))
}

// errfLen is errf with an underline span of n characters instead of a
// single caret, matching tokenizer.cpp's SyntaxError(msg, line, col,
// word.length()) overload.
func (t *Tokenizer) errfLen(pos token.Position, n int, msg string, args ...interface{}) error {
	return compileerrors.SyntaxError(pos.Line, pos.Column, fmt.Sprintf(msg, args...)).WithLength(n)
}

// skipSpacesAndComments consumes whitespace, line comments ("//") and block
// comments ("/* ... */") until real token content is found.
func (t *Tokenizer) skipSpacesAndComments() error {
	for {
		ch, ok := t.s.Next()
		if !ok {
			return nil
		}
		switch {
		case isSpace(ch):
			continue
		case ch == '/':
			next, ok := t.s.Next()
			if ok && next == '/' {
				if err := t.skipLineComment(); err != nil {
					return err
				}
				continue
			}
			if ok && next == '*' {
				if err := t.skipBlockComment(); err != nil {
					return err
				}
				continue
			}
			if ok {
				t.s.PushBack(next)
			}
			t.s.PushBack(ch)
			return nil
		default:
			t.s.PushBack(ch)
			return nil
		}
	}
}

func (t *Tokenizer) skipLineComment() error {
	for {
		ch, ok := t.s.Next()
		if !ok || ch == '\n' {
			return nil
		}
	}
}

func (t *Tokenizer) skipBlockComment() error {
	pos := t.s.Position()
	for {
		ch, ok := t.s.Next()
		if !ok {
			return t.errf(pos, "could not find a matching '*/'.")
		}
		if ch != '*' {
			continue
		}
		next, ok := t.s.Next()
		if !ok {
			return t.errf(pos, "could not find a matching '*/'.")
		}
		if next == '/' {
			return nil
		}
		t.s.PushBack(next)
	}
}

// Next reads and returns the next token, or a token.Token with Kind ==
// token.KindEOF when the stream is exhausted.
func (t *Tokenizer) Next() (token.Token, error) {
	if err := t.skipSpacesAndComments(); err != nil {
		return token.Token{}, err
	}
	pos := t.s.Position()
	ch, ok := t.s.Next()
	if !ok {
		return token.Token{Kind: token.KindEOF, Pos: pos}, nil
	}
	switch {
	case isAlpha(ch):
		t.s.PushBack(ch)
		return t.fetchWord(pos)
	case isDigit(ch):
		t.s.PushBack(ch)
		return t.fetchNumber(pos)
	case ch == '"':
		return t.fetchString(pos)
	case ch == '\'':
		return t.fetchChar(pos)
	default:
		t.s.PushBack(ch)
		return t.fetchOperator(pos)
	}
}

// fetchWord reads an identifier or keyword. The elif keyword is rewritten
// in place to else followed by pushing back "if" onto the char stream, so
// that the next tokenizer call reproduces the "if" that follows — matching
// tokenizer.cpp's handling of elif as sugar rather than a real keyword.
func (t *Tokenizer) fetchWord(pos token.Position) (token.Token, error) {
	var sb strings.Builder
	for {
		ch, ok := t.s.Next()
		if !ok {
			break
		}
		if !isAlnum(ch) {
			t.s.PushBack(ch)
			break
		}
		sb.WriteRune(ch)
	}
	word := sb.String()

	if word == "elif" {
		t.s.PushBackString("if")
		return token.Token{Kind: token.KindReserved, Reserved: token.KW_ELSE, Pos: pos}, nil
	}
	if r, ok := token.Keywords[word]; ok {
		return token.Token{Kind: token.KindReserved, Reserved: r, Pos: pos}, nil
	}
	// "true", "false" and "null" are ordinary identifiers, pre-declared
	// as global constants by the driver before parsing starts — matching
	// the reference compiler's main(), which binds them through
	// CompilerContext rather than reserving them as keywords.
	return token.Token{Kind: token.KindIdent, Ident: word, Pos: pos}, nil
}

// fetchNumber reads a numeric literal, including the suffix that picks its
// storage type (b/s/l for byte/short/long ints, f/d for float/double), and
// range-checks the value against that type the way tokenizer.cpp does,
// raising the identical wording on overflow.
func (t *Tokenizer) fetchNumber(pos token.Position) (token.Token, error) {
	var sb strings.Builder
	isFloat := false
	for {
		ch, ok := t.s.Next()
		if !ok {
			break
		}
		if isDigit(ch) {
			sb.WriteRune(ch)
			continue
		}
		if ch == '.' {
			if isFloat {
				return token.Token{}, compileerrors.Unexpected(t.s.Position().Line, t.s.Position().Column, ".")
			}
			isFloat = true
			sb.WriteRune(ch)
			continue
		}
		t.s.PushBack(ch)
		break
	}
	digits := sb.String()

	suffix, ok := t.s.Next()
	hasSuffix := ok && isAlpha(suffix)
	if !hasSuffix {
		if ok {
			t.s.PushBack(suffix)
		}
		suffix = 0
	}
	// suffixes are case-insensitive (tokenizer.cpp's 'B'||'b' style checks).
	suffixLower := unicode.ToLower(suffix)
	wordLen := len(digits)
	if hasSuffix {
		wordLen++
	}

	if isFloat || suffixLower == 'f' || suffixLower == 'd' {
		f, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return token.Token{}, t.errf(pos, "'%s' is not a valid number literal.", digits)
		}
		if suffixLower == 'f' {
			return token.Token{Kind: token.KindFloat, Float32: float32(f), Pos: pos}, nil
		}
		return token.Token{Kind: token.KindDouble, Float64: f, Pos: pos}, nil
	}

	switch suffixLower {
	case 'b':
		n, err := strconv.ParseInt(digits, 10, 8)
		if err != nil {
			return token.Token{}, t.errfLen(pos, wordLen, "integer value out of range for type 'byte' (-2^7 to 2^7-1).")
		}
		return token.Token{Kind: token.KindByte, Byte: int8(n), Pos: pos}, nil
	case 's':
		n, err := strconv.ParseInt(digits, 10, 16)
		if err != nil {
			return token.Token{}, t.errfLen(pos, wordLen, "integer value out of range for type 'short' (-2^15 to 2^15-1).")
		}
		return token.Token{Kind: token.KindShort, Short: int16(n), Pos: pos}, nil
	case 'l':
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return token.Token{}, t.errfLen(pos, wordLen, "integer value out of range for type 'long' (-2^63 to 2^63-1).")
		}
		return token.Token{Kind: token.KindLong, Long: n, Pos: pos}, nil
	case 'i':
		n, err := strconv.ParseInt(digits, 10, 32)
		if err != nil {
			return token.Token{}, t.errfLen(pos, wordLen, "integer value out of range for type 'int' (-2^31 to 2^31-1).")
		}
		return token.Token{Kind: token.KindInt, Int: int32(n), Pos: pos}, nil
	default:
		// not a recognized suffix: it belongs to the next token instead.
		if hasSuffix {
			t.s.PushBack(suffix)
		}
		n, err := strconv.ParseInt(digits, 10, 32)
		if err != nil {
			return token.Token{}, t.errfLen(pos, len(digits), "integer value out of range for type 'int' (-2^31 to 2^31-1).")
		}
		return token.Token{Kind: token.KindInt, Int: int32(n), Pos: pos}, nil
	}
}

// fetchString reads a double-quoted string literal, resolving the escapes
// \n \r \t \0 \" \\ the way tokenizer.cpp's fetchString does.
func (t *Tokenizer) fetchString(pos token.Position) (token.Token, error) {
	var sb strings.Builder
	for {
		ch, ok := t.s.Next()
		if !ok {
			return token.Token{}, t.errf(pos, "could not find a matching '\"'.")
		}
		if ch == '"' {
			return token.Token{Kind: token.KindString, Str: sb.String(), Pos: pos}, nil
		}
		if ch == '\\' {
			esc, ok := t.s.Next()
			if !ok {
				return token.Token{}, t.errf(pos, "could not find a matching '\"'.")
			}
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '0':
				sb.WriteByte(0)
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(ch)
	}
}

// fetchChar reads a single-quoted character literal, sharing fetchString's
// escape table.
func (t *Tokenizer) fetchChar(pos token.Position) (token.Token, error) {
	ch, ok := t.s.Next()
	if !ok {
		return token.Token{}, t.errf(pos, "could not find a matching '\\''.")
	}
	var value byte
	if ch == '\\' {
		esc, ok := t.s.Next()
		if !ok {
			return token.Token{}, t.errf(pos, "could not find a matching '\\''.")
		}
		switch esc {
		case 'n':
			value = '\n'
		case 'r':
			value = '\r'
		case 't':
			value = '\t'
		case '0':
			value = 0
		case '\'':
			value = '\''
		case '\\':
			value = '\\'
		default:
			value = byte(esc)
		}
	} else {
		value = byte(ch)
	}
	closing, ok := t.s.Next()
	if !ok || closing != '\'' {
		return token.Token{}, t.errf(pos, "could not find a matching '\\''.")
	}
	return token.Token{Kind: token.KindChar, Char: value, Pos: pos}, nil
}

// fetchOperator performs a maximal-munch scan against operatorTable:
// extend the candidate string one character at a
// time, remember the longest exact match seen, then push back whatever was
// read past it — mirroring tokenizer.cpp's fetchOperator/getOperator.
func (t *Tokenizer) fetchOperator(pos token.Position) (token.Token, error) {
	var candidate strings.Builder
	var read []rune
	bestLen := -1
	var bestTok token.Reserved

	for i := 0; i < 3; i++ {
		ch, ok := t.s.Next()
		if !ok {
			break
		}
		read = append(read, ch)
		candidate.WriteRune(ch)
		if r, ok := lookupOperator(candidate.String()); ok {
			bestLen = candidate.Len()
			bestTok = r
		}
	}
	for i := len(read) - 1; i >= bestLen && i >= 0; i-- {
		t.s.PushBack(read[i])
	}
	if bestLen < 0 {
		return token.Token{}, t.errf(pos, "encountered unexpected '%c' while parsing.", read[0])
	}
	return token.Token{Kind: token.KindReserved, Reserved: bestTok, Pos: pos}, nil
}

func lookupOperator(s string) (token.Reserved, bool) {
	lo, hi := 0, len(operatorTable)
	for lo < hi {
		mid := (lo + hi) / 2
		if operatorTable[mid].text < s {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(operatorTable) && operatorTable[lo].text == s {
		return operatorTable[lo].tok, true
	}
	return 0, false
}

type opEntry struct {
	text string
	tok  token.Reserved
}

// operatorTable is sorted lexicographically so lookupOperator can binary
// search it, the way the reference Lookup container does.
var operatorTable = buildOperatorTable()

func buildOperatorTable() []opEntry {
	entries := []opEntry{
		{"&", token.AMPERSAND}, {"<", token.ANGLE_L}, {">", token.ANGLE_R},
		{"*", token.ASTERISK}, {"@", token.AT}, {"\\", token.BACKSLASH},
		{"|", token.BAR}, {"^", token.CARET}, {":", token.COLON},
		{",", token.COMMA}, {"{", token.CURLY_L}, {"}", token.CURLY_R},
		{"$", token.DOLLAR}, {"=", token.EQUAL}, {"!", token.EXCLAMATION},
		{"#", token.HASH}, {"-", token.HYPHEN}, {".", token.PERIOD},
		{"%", token.PERCENT}, {"+", token.PLUS}, {"?", token.QUESTION},
		{"(", token.ROUND_L}, {")", token.ROUND_R}, {";", token.SEMICOLON},
		{"/", token.SLASH}, {"[", token.SQUARE_L}, {"]", token.SQUARE_R},
		{"~", token.TILDE},
		{"&&", token.D_AMPERSAND}, {"<<", token.D_ANGLE_L}, {">>", token.D_ANGLE_R},
		{"**", token.D_ASTERISK}, {"||", token.D_BAR}, {"^^", token.D_CARET},
		{"==", token.D_EQUAL}, {"--", token.D_HYPHEN}, {"++", token.D_PLUS},
		{"&=", token.AMPERSAND_EQUAL}, {"<=", token.ANGLE_L_EQUAL}, {">=", token.ANGLE_R_EQUAL},
		{"*=", token.ASTERISK_EQUAL}, {"|=", token.BAR_EQUAL}, {"^=", token.CARET_EQUAL},
		{"!=", token.EXCLAMATION_EQUAL}, {"-=", token.HYPHEN_EQUAL}, {"%=", token.PERCENT_EQUAL},
		{"+=", token.PLUS_EQUAL}, {"/=", token.SLASH_EQUAL},
		{"<<=", token.D_ANGLE_L_EQUAL}, {">>=", token.D_ANGLE_R_EQUAL}, {"**=", token.D_ASTERISK_EQUAL},
		{"->", token.ARROW_R}, {"...", token.ELLIPSIS},
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].text > entries[j].text; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
	return entries
}

// TokenIterator adds one-token lookahead (Current) and a StepBack
// operation that re-reads the current token from its text, grounded on
// tokenizer.cpp's TokenIterator.
type TokenIterator struct {
	tok *Tokenizer
	cur token.Token
	err error
}

func NewTokenIterator(s *PushbackStream) *TokenIterator {
	it := &TokenIterator{tok: NewTokenizer(s)}
	it.Advance()
	return it
}

// Current returns the token currently under the lookahead cursor.
func (it *TokenIterator) Current() token.Token { return it.cur }

// Err returns any error raised while fetching the current token.
func (it *TokenIterator) Err() error { return it.err }

// Advance discards the current token and fetches the next one.
func (it *TokenIterator) Advance() {
	if it.err != nil {
		return
	}
	it.cur, it.err = it.tok.Next()
}

// StepBack pushes the current token's textual form back onto the character
// stream and fetches it again at once, so Current afterwards holds the
// token re-read from that text and the next Advance moves past it.
// Reserved tokens, identifiers and int literals come back unchanged; other
// literals are re-read from their String() form, which has no quotes or
// type suffix, and come back as a different token.
func (it *TokenIterator) StepBack() {
	it.tok.s.PushBackString(it.cur.String())
	it.Advance()
}
