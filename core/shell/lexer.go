package shell

import "fmt"

type tokenKind int

const (
	tokWord tokenKind = iota
	tokPipe             // |
	tokPipeAll          // |&
	tokAnd              // &&
	tokOr               // ||
	tokSemi             // ;
	tokAmp              // &
	tokRedirOut         // > or 1>
	tokRedirAppend      // >> or 1>>
	tokRedirErr         // 2>
	tokRedirErrAppend   // 2>>
	tokDupErrOut        // 2>&1
	tokRedirIn          // <
)

func (k tokenKind) String() string {
	switch k {
	case tokWord:
		return "word"
	case tokPipe:
		return "|"
	case tokPipeAll:
		return "|&"
	case tokAnd:
		return "&&"
	case tokOr:
		return "||"
	case tokSemi:
		return ";"
	case tokAmp:
		return "&"
	case tokRedirOut:
		return ">"
	case tokRedirAppend:
		return ">>"
	case tokRedirErr:
		return "2>"
	case tokRedirErrAppend:
		return "2>>"
	case tokDupErrOut:
		return "2>&1"
	default:
		return "<"
	}
}

type token struct {
	kind tokenKind
	word Word
	pos  int // byte offset in the input, for error messages
}

// lexer walks one command line producing words and operator tokens.
// Operator recognition is greedy: the longest operator at the current
// position wins (">>" before ">", "2>&1" before "2>", "|&" before "|").
type lexer struct {
	input []rune
	pos   int

	buf   []rune
	parts []WordPart
}

func lex(line string) ([]token, error) {
	lx := &lexer{input: []rune(line)}
	return lx.run()
}

func (lx *lexer) run() ([]token, error) {
	var tokens []token

	for lx.pos < len(lx.input) {
		ch := lx.input[lx.pos]

		switch {
		case ch == '\'':
			if err := lx.quoted('\'', QuoteSingle); err != nil {
				return nil, err
			}

		case ch == '"':
			if err := lx.quoted('"', QuoteDouble); err != nil {
				return nil, err
			}

		case ch == '\\':
			// Backslash escapes the next character outside quotes.
			if lx.pos+1 < len(lx.input) {
				lx.buf = append(lx.buf, lx.input[lx.pos+1])
				lx.pos += 2
			} else {
				lx.buf = append(lx.buf, ch)
				lx.pos++
			}

		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			tokens = lx.finishWord(tokens)
			lx.pos++

		case (ch == '2' || ch == '1') && lx.wordEmpty() && lx.peek(1) == '>':
			// Leading-digit redirects: 2>, 2>>, 2>&1, 1>, 1>>.
			tokens = lx.finishWord(tokens)
			tokens = append(tokens, lx.lexDigitRedirect(ch))

		case ch == '>':
			tokens = lx.finishWord(tokens)
			if lx.peek(1) == '>' {
				tokens = append(tokens, token{kind: tokRedirAppend, pos: lx.pos})
				lx.pos += 2
			} else {
				tokens = append(tokens, token{kind: tokRedirOut, pos: lx.pos})
				lx.pos++
			}

		case ch == '<':
			tokens = lx.finishWord(tokens)
			tokens = append(tokens, token{kind: tokRedirIn, pos: lx.pos})
			lx.pos++

		case ch == '|':
			tokens = lx.finishWord(tokens)
			switch lx.peek(1) {
			case '|':
				tokens = append(tokens, token{kind: tokOr, pos: lx.pos})
				lx.pos += 2
			case '&':
				tokens = append(tokens, token{kind: tokPipeAll, pos: lx.pos})
				lx.pos += 2
			default:
				tokens = append(tokens, token{kind: tokPipe, pos: lx.pos})
				lx.pos++
			}

		case ch == '&':
			tokens = lx.finishWord(tokens)
			if lx.peek(1) == '&' {
				tokens = append(tokens, token{kind: tokAnd, pos: lx.pos})
				lx.pos += 2
			} else {
				tokens = append(tokens, token{kind: tokAmp, pos: lx.pos})
				lx.pos++
			}

		case ch == ';':
			tokens = lx.finishWord(tokens)
			tokens = append(tokens, token{kind: tokSemi, pos: lx.pos})
			lx.pos++

		default:
			lx.buf = append(lx.buf, ch)
			lx.pos++
		}
	}

	tokens = lx.finishWord(tokens)
	return tokens, nil
}

// lexDigitRedirect consumes one of 1>, 1>>, 2>, 2>>, 2>&1 starting at a
// leading digit. The caller guarantees input[pos+1] == '>'.
func (lx *lexer) lexDigitRedirect(digit rune) token {
	start := lx.pos
	if digit == '1' {
		if lx.peek(2) == '>' {
			lx.pos += 3
			return token{kind: tokRedirAppend, pos: start}
		}
		lx.pos += 2
		return token{kind: tokRedirOut, pos: start}
	}

	switch {
	case lx.peek(2) == '>':
		lx.pos += 3
		return token{kind: tokRedirErrAppend, pos: start}
	case lx.peek(2) == '&' && lx.peek(3) == '1':
		lx.pos += 4
		return token{kind: tokDupErrOut, pos: start}
	default:
		lx.pos += 2
		return token{kind: tokRedirErr, pos: start}
	}
}

// quoted consumes a quoted run, including its closing quote. Inside
// double quotes a backslash may escape the quote character itself so
// paths like "C:\Users\x" keep their backslashes.
func (lx *lexer) quoted(close rune, mode QuoteMode) error {
	lx.pushPart(QuoteNone)
	start := lx.pos
	lx.pos++ // opening quote

	for lx.pos < len(lx.input) {
		ch := lx.input[lx.pos]
		if ch == close {
			lx.pushPart(mode)
			lx.pos++
			return nil
		}
		if mode == QuoteDouble && ch == '\\' && lx.peek(1) == '"' {
			lx.buf = append(lx.buf, '"')
			lx.pos += 2
			continue
		}
		lx.buf = append(lx.buf, ch)
		lx.pos++
	}

	name := "single"
	if mode == QuoteDouble {
		name = "double"
	}
	return &ParseError{Construct: fmt.Sprintf("%s quote", name), Pos: start, Message: "unclosed quote"}
}

func (lx *lexer) peek(n int) rune {
	if lx.pos+n >= len(lx.input) {
		return 0
	}
	return lx.input[lx.pos+n]
}

func (lx *lexer) wordEmpty() bool {
	return len(lx.buf) == 0 && len(lx.parts) == 0
}

// pushPart flushes the rune buffer into a word part. Quoted parts are
// kept even when empty so '' and "" produce an explicit empty argument.
func (lx *lexer) pushPart(mode QuoteMode) {
	if len(lx.buf) == 0 && mode == QuoteNone {
		return
	}
	lx.parts = append(lx.parts, WordPart{Text: string(lx.buf), Quote: mode})
	lx.buf = lx.buf[:0]
}

func (lx *lexer) finishWord(tokens []token) []token {
	lx.pushPart(QuoteNone)
	if len(lx.parts) == 0 {
		return tokens
	}
	w := Word{Parts: lx.parts}
	lx.parts = nil
	return append(tokens, token{kind: tokWord, word: w, pos: lx.pos})
}
