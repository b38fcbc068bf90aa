package job

import "strings"

// Result is one node of a job's result tree: the root ("all results"), a
// named output, or a single file of a named output.
type Result struct {
	// Href is the absolute location on the server.
	Href string
	// RelativeHref is Href with the immediate structural parent's href
	// prefix stripped.
	RelativeHref string
	// File is the local filesystem path when the result has been
	// downloaded, empty otherwise.
	File string
	// MimeType of the result content.
	MimeType string
	// Name is the argument name when this result represents a named output.
	Name string
	// From is the kind of the source argument, e.g. "option".
	From string
	// Size in bytes. For internal nodes without an explicit size this is
	// the sum of the descendant leaf sizes.
	Size int64
}

// Filename returns the last path segment of the result's href.
func (r *Result) Filename() string {
	href := strings.TrimSuffix(r.Href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}

// OutputResults groups a named output's Result with its file-level Results.
type OutputResults struct {
	Result *Result
	Files  []*Result
}
