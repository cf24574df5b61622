package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two guards in a row with the same return can be one guard:
	//   if a { return err }
	//   if b { return err }
	// => if a || b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// Not always wrong, but worth a second look.
	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)

	m.Match(`errors.New(fmt.Sprintf($*args))`).
		Report(`use fmt.Errorf`).
		Suggest(`fmt.Errorf($args)`)
}

// logging keeps diagnostics on the zerolog logger outside cmd/.
func logging(m dsl.Matcher) {
	m.Match(`log.Printf($*_)`, `log.Println($*_)`, `log.Print($*_)`, `log.Fatalf($*_)`, `log.Fatal($*_)`).
		Report(`use the injected zerolog.Logger instead of the standard log package`)

	m.Match(`fmt.Printf($*_)`, `fmt.Println($*_)`, `fmt.Print($*_)`).
		Where(!m.File().PkgPath.Matches(`/cmd/`) && !m.File().Name.Matches(`_test\.go$`)).
		Report(`library code must not write to stdout; use the logger or an io.Writer`)
}

// httpclients flags outbound calls without a timeout. The Jira and Ollama
// clients always carry one.
func httpclients(m dsl.Matcher) {
	m.Match(`http.DefaultClient`, `http.Get($*_)`, `http.Post($*_)`).
		Where(!m.File().Name.Matches(`_test\.go$`)).
		Report(`use an *http.Client with a Timeout`)

	m.Match(`&http.Client{}`).
		Report(`http.Client without Timeout`)
}

// tooldispatch keeps tool failures inside the Result value.
func tooldispatch(m dsl.Matcher) {
	m.Match(`panic($_)`).
		Where(m.File().PkgPath.Matches(`internal/domain/(tool|agent)`) && !m.File().Name.Matches(`_test\.go$`)).
		Report(`tools and the dispatcher report failures as tool.Fail / agent.Failure, never panic`)
}
