// Package security provides input validation for the boundaries where user
// data touches the filesystem or the network.
//
// Path guards the file-reader tool against path traversal and symlink
// escapes (CWE-22). HTTP guards collaborator-facing tools against SSRF:
// scheme allowlisting, internal hostname and metadata endpoint blocking,
// and private-range checks on resolved addresses.
package security
