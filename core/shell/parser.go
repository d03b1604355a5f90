package shell

import "fmt"

// ParseError reports a malformed command line. Nothing is executed
// when Parse fails; the host reports the error and keeps reading.
type ParseError struct {
	// Construct names the offending syntax, e.g. "&&" or "single quote".
	Construct string
	// Pos is the byte offset where the construct begins.
	Pos int
	// Message describes what went wrong.
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error near %q: %s", e.Construct, e.Message)
}

// Parse turns one raw command line into its operator tree: a chain of
// pipelines joined by connectors. Parsing is total and deterministic;
// it performs no filesystem or process lookups and no expansion.
//
// Precedence, tightest first: redirects, "|"/"|&", "&&"/"||", ";"/"&".
// All operators are left-associative. Grouping syntax is out of scope:
// parentheses and braces are ordinary word characters.
func Parse(line string) (*List, error) {
	tokens, err := lex(line)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	list := &List{}

	for !p.eof() {
		pl, err := p.pipeline()
		if err != nil {
			return nil, err
		}

		// Pipeline terminator: "&" flags background and doubles as a
		// separator, yielding success to any following connector.
		if p.accept(tokAmp) {
			pl.Background = true
			list.Pipelines = append(list.Pipelines, pl)
			if p.eof() {
				break
			}
			// An explicit connector after "&" is allowed but redundant;
			// "a & b" alone also continues the chain.
			op := OpSeq
			switch {
			case p.accept(tokSemi):
			case p.accept(tokAnd):
				op = OpAnd
			case p.accept(tokOr):
				op = OpOr
			}
			if p.eof() {
				if op == OpSeq {
					break
				}
				return nil, &ParseError{Construct: op.String(), Pos: p.posOfEnd(), Message: "missing pipeline after connector"}
			}
			list.Ops = append(list.Ops, op)
			continue
		}

		list.Pipelines = append(list.Pipelines, pl)
		if p.eof() {
			break
		}

		tok := p.tokens[p.pos]
		var op ConnectorOp
		switch tok.kind {
		case tokSemi:
			op = OpSeq
		case tokAnd:
			op = OpAnd
		case tokOr:
			op = OpOr
		default:
			return nil, &ParseError{Construct: tok.kind.String(), Pos: tok.pos, Message: "expected a connector between pipelines"}
		}
		p.pos++

		if p.eof() {
			if op == OpSeq {
				break // trailing ";" is fine
			}
			return nil, &ParseError{Construct: op.String(), Pos: tok.pos, Message: "missing pipeline after connector"}
		}
		list.Ops = append(list.Ops, op)
	}

	return list, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) eof() bool { return p.pos >= len(p.tokens) }

func (p *parser) accept(kind tokenKind) bool {
	if !p.eof() && p.tokens[p.pos].kind == kind {
		p.pos++
		return true
	}
	return false
}

// pipeline parses command (("|" | "|&") command)*.
func (p *parser) pipeline() (Pipeline, error) {
	var pl Pipeline

	cmd, err := p.command()
	if err != nil {
		return pl, err
	}
	pl.Commands = append(pl.Commands, cmd)

	for !p.eof() {
		tok := p.tokens[p.pos]
		if tok.kind != tokPipe && tok.kind != tokPipeAll {
			break
		}
		p.pos++

		if tok.kind == tokPipeAll {
			// "a |& b" merges a's stderr into the piped stream; lower it
			// to an explicit trailing duplicate so topology handles one
			// representation.
			last := &pl.Commands[len(pl.Commands)-1]
			last.Redirects = append(last.Redirects, Redirect{
				Stream: Stderr,
				Mode:   ModeDuplicate,
				Target: WordOf("&1"),
			})
		}

		if p.eof() {
			return pl, &ParseError{Construct: tok.kind.String(), Pos: tok.pos, Message: "missing command after pipe"}
		}
		cmd, err := p.command()
		if err != nil {
			return pl, err
		}
		pl.Commands = append(pl.Commands, cmd)
	}

	return pl, nil
}

// command parses one stage: words interleaved with redirects. The
// redirect list keeps command-line order; "2>&1" is recorded in place
// because its meaning depends on what precedes it.
func (p *parser) command() (Command, error) {
	var cmd Command

	for !p.eof() {
		tok := p.tokens[p.pos]
		switch tok.kind {
		case tokWord:
			cmd.Words = append(cmd.Words, tok.word)
			p.pos++

		case tokRedirOut, tokRedirAppend, tokRedirErr, tokRedirErrAppend, tokRedirIn:
			p.pos++
			target, err := p.word(tok)
			if err != nil {
				return cmd, err
			}
			cmd.Redirects = append(cmd.Redirects, redirectFor(tok.kind, target))

		case tokDupErrOut:
			p.pos++
			cmd.Redirects = append(cmd.Redirects, Redirect{
				Stream: Stderr,
				Mode:   ModeDuplicate,
				Target: WordOf("&1"),
			})

		default:
			if len(cmd.Words) == 0 && len(cmd.Redirects) == 0 {
				return cmd, &ParseError{Construct: tok.kind.String(), Pos: tok.pos, Message: "missing command"}
			}
			return cmd, nil
		}
	}

	if len(cmd.Words) == 0 && len(cmd.Redirects) == 0 {
		return cmd, &ParseError{Construct: "end of line", Pos: p.posOfEnd(), Message: "missing command"}
	}
	return cmd, nil
}

func (p *parser) word(after token) (Word, error) {
	if p.eof() || p.tokens[p.pos].kind != tokWord {
		return Word{}, &ParseError{Construct: after.kind.String(), Pos: after.pos, Message: "missing redirect target"}
	}
	w := p.tokens[p.pos].word
	p.pos++
	return w, nil
}

func (p *parser) posOfEnd() int {
	if len(p.tokens) == 0 {
		return 0
	}
	return p.tokens[len(p.tokens)-1].pos
}

func redirectFor(kind tokenKind, target Word) Redirect {
	switch kind {
	case tokRedirAppend:
		return Redirect{Stream: Stdout, Mode: ModeAppend, Target: target}
	case tokRedirErr:
		// "2> &1" spelled with a space still means duplication.
		if target.Literal() == "&1" && !target.FullyQuoted() {
			return Redirect{Stream: Stderr, Mode: ModeDuplicate, Target: target}
		}
		return Redirect{Stream: Stderr, Mode: ModeTruncate, Target: target}
	case tokRedirErrAppend:
		return Redirect{Stream: Stderr, Mode: ModeAppend, Target: target}
	case tokRedirIn:
		return Redirect{Stream: Stdin, Mode: ModeRead, Target: target}
	default:
		return Redirect{Stream: Stdout, Mode: ModeTruncate, Target: target}
	}
}
