// Package output appends key/value results to the CI output file
// (GITHUB_OUTPUT). Scalars are written as key=value with %, CR and LF
// escaped; lists use the heredoc form key<<DELIM ... DELIM.
package output
