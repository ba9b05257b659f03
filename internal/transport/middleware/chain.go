package middleware

import "net/http"

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Stack is an ordered list of middleware. The first entry is outermost:
// Stack{mw1, mw2}.Then(h) is mw1(mw2(h)).
type Stack []Middleware

// NewStack returns a Stack of mws, skipping nil entries.
func NewStack(mws ...Middleware) Stack {
	return Stack(nil).Append(mws...)
}

// Append returns a new Stack with mws added innermost. The receiver is not
// modified, so a shared base stack can be extended per route group.
func (s Stack) Append(mws ...Middleware) Stack {
	out := make(Stack, 0, len(s)+len(mws))
	out = append(out, s...)
	for _, mw := range mws {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return out
}

// Then wraps h with every middleware in the stack.
func (s Stack) Then(h http.Handler) http.Handler {
	for i := len(s) - 1; i >= 0; i-- {
		h = s[i](h)
	}
	return h
}
