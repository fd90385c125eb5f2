// Package target maps build target triples to the architecture labels
// expected by packaging backends.
//
// The mapping is an ordered prefix table: entries are scanned in
// declaration order and the first entry owning a case-insensitive prefix
// of the triple wins. NewTable refuses tables in which an entry can never
// match because an earlier prefix already covers it.
package target
