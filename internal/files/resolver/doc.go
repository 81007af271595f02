// Package resolver unwinds deferred content and copy descriptions down to a
// terminal value.
//
// A deferred value is either a pending computation (settled once, readable
// by every write) or a producer function invoked with a completion callback
// on each resolution. Either may
// settle to another deferred value; the resolver keeps going until it reaches
// a terminal kind. Failures while waiting are wrapped in a
// fsgen.ResolutionError scoped to the destination path.
package resolver
