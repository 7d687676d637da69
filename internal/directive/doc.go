// Package directive extracts operator directives from script text.
//
// A directive is a line starting with "// #" followed by a name and
// whitespace separated arguments:
//
//	// #vmconf timeout 2000
//	// #enable async
//
// Directives are applied to a Config before any script code runs. An
// unregistered name aborts the invocation with an UnknownDirectiveError.
package directive
