package di

import (
	"runtime"
	"strconv"
)

// CallSite is a source location used as a dependency identity.
type CallSite struct {
	File     string
	Function string
	Line     int
}

// Caller returns the call site skip frames above the caller of Caller.
// Caller(0) describes the line that called Caller. Inlined frames are
// reported as if they were not inlined, so a site keeps one identity however
// the compiler treats it.
func Caller(skip int) CallSite {
	var pcs [1]uintptr
	if runtime.Callers(skip+2, pcs[:]) == 0 {
		return CallSite{File: "unknown"}
	}
	frame, _ := runtime.CallersFrames(pcs[:]).Next()
	return CallSite{
		File:     frame.File,
		Function: frame.Function,
		Line:     frame.Line,
	}
}

// ID renders the call site as "file:function:line".
func (c CallSite) ID() string {
	return c.File + ":" + c.Function + ":" + strconv.Itoa(c.Line)
}

// Here returns a scope for feature whose id is the caller's source location.
// Calling Here repeatedly from one place yields the same scope; calls from
// different lines yield different scopes. Two calls on one line share a
// scope, as Go reports no column.
func Here(feature string) Scope {
	return NewScope(feature, Caller(1).ID())
}
