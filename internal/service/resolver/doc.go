// Package resolver prints the packaging labels of a target triple for
// consumption by shell steps, either space separated or as NAME=value lines.
package resolver
