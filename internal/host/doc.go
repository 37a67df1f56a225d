// Package host is an in-process form model that honours the engine contract.
//
// It stands in for a browser document: forms own controls, buttons and
// fieldsets in document order; controls carry native constraints and a custom
// error slot; and every point where a browser would let script observe a
// change (value writes, validity checks, submitter clicks, change events,
// resets) is routed through an Interceptor. Bind installs the interceptor that
// drives a validation engine.
package host
