package regexlib

import "sync"

// Well-known pool keys.
const (
	PoolChar       = "char"
	PoolFloat      = "float"
	PoolIntegral   = "integral"
	PoolLetter     = "letter"
	PoolRepl       = "repl"
	PoolWhitespace = "whitespace"
	PoolWord       = "word"
)

// Ready-made expressions for the well-known keys. Building an automaton is
// the expensive part, so these stay plain strings until first use.
const (
	ExprChar       = "."
	ExprFloat      = `[+\-]?(0|[1-9]\d*)?(\.\d*)?`
	ExprIntegral   = `[+\-]?(0|[1-9]\d*)`
	ExprLetter     = `[\a\U]`
	ExprRepl       = `{\A+}`
	ExprWhitespace = `\s+`
	ExprWord       = `\A+`
)

var (
	poolMu sync.Mutex
	pool   = make(map[string]*Regex)
)

// FromPool returns the process-wide regex cached under name, compiling and
// storing it on first use. A key occupied by a different pattern rotates
// deterministically: a letter derived from the pattern length is prepended
// and the lookup restarts, so a fixed set of well-known patterns never
// collides.
func FromPool(name, expr string) (*Regex, error) {
	poolMu.Lock()
	defer poolMu.Unlock()

	for {
		cached, ok := pool[name]
		if !ok {
			compiled, err := Compile(expr)
			if err != nil {
				return nil, err
			}
			pool[name] = compiled
			return compiled, nil
		}
		if cached.expr == expr {
			return cached, nil
		}
		name = string(byte('a'+len(expr)%26)) + name
	}
}

// MustFromPool is FromPool for expressions known to be well-formed.
func MustFromPool(name, expr string) *Regex {
	r, err := FromPool(name, expr)
	if err != nil {
		panic(err)
	}
	return r
}
