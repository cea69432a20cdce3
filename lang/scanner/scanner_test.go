package scanner_test

import (
	"testing"

	"github.com/oranpie/flavent/lang/scanner"
	"github.com/oranpie/flavent/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) ([]scanner.TokenAndValue, []string) {
	t.Helper()
	fset := token.NewFileSet()
	f := fset.AddFile("test.flv", -1, len(src))

	var (
		s   scanner.Scanner
		val token.Value
		out []scanner.TokenAndValue
		errs []string
	)
	s.Init(f, []byte(src), func(pos token.Position, msg string) {
		errs = append(errs, msg)
	})
	for {
		tok := s.Scan(&val)
		out = append(out, scanner.TokenAndValue{Token: tok, Value: val})
		if tok == token.EOF {
			break
		}
	}
	return out, errs
}

func tokens(toks []scanner.TokenAndValue) []token.Token {
	out := make([]token.Token, len(toks))
	for i, tv := range toks {
		out[i] = tv.Token
	}
	return out
}

func TestScanBasicTokens(t *testing.T) {
	toks, errs := scanAll(t, "let x = 1 + 2\n")
	require.Empty(t, errs)
	require.Equal(t, []token.Token{
		token.LET, token.IDENT, token.EQ, token.INT, token.PLUS, token.INT, token.NL, token.EOF,
	}, tokens(toks))
}

func TestScanIndentDedent(t *testing.T) {
	src := "fn f():\n  let x = 1\n  let y = 2\nlet z = 3\n"
	toks, errs := scanAll(t, src)
	require.Empty(t, errs)
	got := tokens(toks)
	require.Contains(t, got, token.INDENT)
	require.Contains(t, got, token.DEDENT)

	// exactly one INDENT and one DEDENT for a single nested block
	var nIndent, nDedent int
	for _, tok := range got {
		switch tok {
		case token.INDENT:
			nIndent++
		case token.DEDENT:
			nDedent++
		}
	}
	require.Equal(t, 1, nIndent)
	require.Equal(t, 1, nDedent)
}

func TestScanBlankAndCommentLinesIgnoredForIndent(t *testing.T) {
	src := "fn f():\n  let x = 1\n\n  // a comment\n  let y = 2\nlet z = 3\n"
	toks, errs := scanAll(t, src)
	require.Empty(t, errs)
	got := tokens(toks)
	var nIndent, nDedent int
	for _, tok := range got {
		switch tok {
		case token.INDENT:
			nIndent++
		case token.DEDENT:
			nDedent++
		}
	}
	require.Equal(t, 1, nIndent)
	require.Equal(t, 1, nDedent)
}

func TestScanLineCommentRunsToNewline(t *testing.T) {
	toks, errs := scanAll(t, "let x = 1 // trailing comment\nlet y = 2\n")
	require.Empty(t, errs)
	require.Equal(t, []token.Token{
		token.LET, token.IDENT, token.EQ, token.INT, token.NL,
		token.LET, token.IDENT, token.EQ, token.INT, token.NL, token.EOF,
	}, tokens(toks))
}

func TestScanBlockCommentNests(t *testing.T) {
	toks, errs := scanAll(t, "let x = /* outer /* inner */ still-outer */ 1\n")
	require.Empty(t, errs)
	require.Equal(t, []token.Token{
		token.LET, token.IDENT, token.EQ, token.INT, token.NL, token.EOF,
	}, tokens(toks))
}

func TestScanBlockCommentFollowedByContentOnSameLine(t *testing.T) {
	toks, errs := scanAll(t, "fn f():\n  /* note */ let x = 1\nlet z = 3\n")
	require.Empty(t, errs)
	got := tokens(toks)
	require.Contains(t, got, token.INDENT)
	require.Contains(t, got, token.DEDENT)
}

func TestScanUnterminatedBlockCommentReportsError(t *testing.T) {
	_, errs := scanAll(t, "let x = /* never closes\n")
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0], "not terminated")
}

func TestScanTabInIndentationReportsError(t *testing.T) {
	_, errs := scanAll(t, "fn f():\n\tlet x = 1\n")
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0], "tab is not allowed")
}

func TestScanTabBetweenTokensReportsError(t *testing.T) {
	_, errs := scanAll(t, "let x\t= 1\n")
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0], "tab is not allowed")
}

func TestScanTabInLineCommentReportsError(t *testing.T) {
	_, errs := scanAll(t, "let x = 1 // has\ttab\n")
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0], "tab is not allowed")
}

func TestScanStringAndBytesLiterals(t *testing.T) {
	toks, errs := scanAll(t, `let s = "a\nb"
let b = b"raw"
`)
	require.Empty(t, errs)
	require.Equal(t, token.STRING, toks[3].Token)
	require.Equal(t, "a\nb", toks[3].Value.String)
	require.Equal(t, token.BYTES, toks[8].Token)
	require.Equal(t, "raw", toks[8].Value.String)
}

func TestScanNumberLiterals(t *testing.T) {
	toks, errs := scanAll(t, "1_000 0x1F 0o17 0b101 1.5 1e10\n")
	require.Empty(t, errs)
	require.Equal(t, token.INT, toks[0].Token)
	require.EqualValues(t, 1000, toks[0].Value.Int)
	require.Equal(t, token.INT, toks[1].Token)
	require.EqualValues(t, 0x1F, toks[1].Value.Int)
	require.Equal(t, token.INT, toks[2].Token)
	require.EqualValues(t, 0o17, toks[2].Value.Int)
	require.Equal(t, token.INT, toks[3].Token)
	require.EqualValues(t, 0b101, toks[3].Value.Int)
	require.Equal(t, token.FLOAT, toks[4].Token)
	require.EqualValues(t, 1.5, toks[4].Value.Float)
	require.Equal(t, token.FLOAT, toks[5].Token)
	require.EqualValues(t, 1e10, toks[5].Value.Float)
}

func TestScanTwoCharOperators(t *testing.T) {
	toks, errs := scanAll(t, "-> += -= *= /= == != <= >= |> **\n")
	require.Empty(t, errs)
	require.Equal(t, []token.Token{
		token.ARROW, token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.SLASHEQ,
		token.EQEQ, token.NEQ, token.LTE, token.GTE, token.PIPEGT, token.STARSTAR,
		token.NL, token.EOF,
	}, tokens(toks))
}

func TestScanBracketsSuppressNL(t *testing.T) {
	src := "let x = (1 +\n  2)\n"
	toks, errs := scanAll(t, src)
	require.Empty(t, errs)
	got := tokens(toks)
	// only one NL (at end of statement), none inside the parens
	n := 0
	for _, tok := range got {
		if tok == token.NL {
			n++
		}
	}
	require.Equal(t, 1, n)
}

func TestScanUnterminatedStringReportsError(t *testing.T) {
	_, errs := scanAll(t, `let s = "abc`+"\n")
	require.NotEmpty(t, errs)
}
