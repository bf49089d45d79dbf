//go:build !debug

// Package debug provides assertions for contract violations that are only
// checked in builds with the debug tag.
package debug

func Enabled() bool { return false }

func Assert(cond bool, a ...any)            {}
func AssertFunc(f func() bool, a ...any)    {}
func AssertMsg(cond bool, msg string)       {}
func AssertNoErr(err error)                 {}
func Assertf(cond bool, f string, a ...any) {}
