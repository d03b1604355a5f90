package shell

import "strings"

// QuoteMode records how a word part was quoted on the command line.
// Quoting determines whether the executor may expand variables and
// globs inside the part; the parser itself never expands anything.
type QuoteMode int

const (
	QuoteNone QuoteMode = iota
	QuoteSingle
	QuoteDouble
)

// WordPart is a run of characters sharing one quoting mode.
type WordPart struct {
	Text  string
	Quote QuoteMode
}

// Word is one shell word, possibly stitched together from several
// quoted and unquoted parts (e.g. foo"bar"'baz').
type Word struct {
	Parts []WordPart
}

// WordOf builds an unquoted word from a plain string.
func WordOf(s string) Word {
	return Word{Parts: []WordPart{{Text: s}}}
}

// Literal returns the word's text with quoting stripped and no
// expansion applied.
func (w Word) Literal() string {
	var sb strings.Builder
	for _, p := range w.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// FullyQuoted reports whether every part of the word is single-quoted,
// meaning the executor must not expand it.
func (w Word) FullyQuoted() bool {
	for _, p := range w.Parts {
		if p.Quote != QuoteSingle {
			return false
		}
	}
	return len(w.Parts) > 0
}

// Stream identifies which standard stream a redirect rewires.
type Stream int

const (
	Stdout Stream = iota
	Stderr
	Stdin
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "stdin"
	}
}

// RedirMode is how the redirect target is opened or bound.
type RedirMode int

const (
	// ModeTruncate creates or truncates the target file (">", "2>").
	ModeTruncate RedirMode = iota
	// ModeAppend creates or appends to the target file (">>", "2>>").
	ModeAppend
	// ModeDuplicate points the stream at another stream's current
	// destination ("2>&1"). Target is a stream reference like "&1".
	ModeDuplicate
	// ModeRead opens the target for reading ("<"). Only valid with Stdin.
	ModeRead
)

func (m RedirMode) String() string {
	switch m {
	case ModeTruncate:
		return "truncate"
	case ModeAppend:
		return "append"
	case ModeDuplicate:
		return "duplicate"
	default:
		return "read"
	}
}

// Redirect rewires one stream of one command. Redirects are kept in
// command-line order because "2>&1 1>f" and "1>f 2>&1" differ.
type Redirect struct {
	Stream Stream
	Mode   RedirMode
	Target Word
}

// Command is a single pipeline stage before resolution: a name, its
// arguments and its redirect list. Words are unexpanded.
type Command struct {
	Words     []Word
	Redirects []Redirect
}

// Name returns the unexpanded command name, or "" for an empty command.
func (c Command) Name() string {
	if len(c.Words) == 0 {
		return ""
	}
	return c.Words[0].Literal()
}

// Pipeline is one or more commands joined by pipe operators sharing a
// single foreground/background disposition.
type Pipeline struct {
	Commands   []Command
	Background bool
}

// String renders a compact one-line summary used by job listings.
func (p Pipeline) String() string {
	var parts []string
	for _, cmd := range p.Commands {
		var words []string
		for _, w := range cmd.Words {
			words = append(words, w.Literal())
		}
		parts = append(parts, strings.Join(words, " "))
	}
	out := strings.Join(parts, " | ")
	if p.Background {
		out += " &"
	}
	return out
}

// ConnectorOp joins two adjacent pipelines in a chain.
type ConnectorOp int

const (
	// OpSeq runs the right side unconditionally (";" and the implicit
	// separator after "&").
	OpSeq ConnectorOp = iota
	// OpAnd runs the right side only if the left succeeded ("&&").
	OpAnd
	// OpOr runs the right side only if the left failed ("||").
	OpOr
)

func (op ConnectorOp) String() string {
	switch op {
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return ";"
	}
}

// List is a full parsed command line: a left-associative chain of
// pipelines where Ops[i] joins Pipelines[i] and Pipelines[i+1].
type List struct {
	Pipelines []Pipeline
	Ops       []ConnectorOp
}

// Empty reports whether the line held no commands at all.
func (l *List) Empty() bool {
	return l == nil || len(l.Pipelines) == 0
}
