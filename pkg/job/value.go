package job

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pipelinekit/pipeline-client/pkg/jobcontext"
	"github.com/pipelinekit/pipeline-client/pkg/script"
)

// ArgumentValue is the mutable ordered list of string values bound to one
// ArgumentDefinition of a job.
//
// A value is either unset (absent from the job request entirely, so the
// script default applies) or defined with zero or more values. Defined with
// zero values ("cleared") is a distinct state and serializes differently.
type ArgumentValue struct {
	def     *script.ArgumentDefinition
	ctx     *jobcontext.Context
	defined bool
	values  []string
}

// NewArgumentValue creates an unset value bound to a definition. File
// binding resolves paths against ctx.
func NewArgumentValue(def *script.ArgumentDefinition, ctx *jobcontext.Context) *ArgumentValue {
	return &ArgumentValue{def: def, ctx: ctx}
}

// Definition returns the argument's immutable definition.
func (v *ArgumentValue) Definition() *script.ArgumentDefinition {
	return v.def
}

// Defined reports whether the argument will appear in the job request.
func (v *ArgumentValue) Defined() bool {
	return v.defined
}

// Count returns the number of stored values.
func (v *ArgumentValue) Count() int {
	return len(v.values)
}

// Set replaces all values with a single value.
func (v *ArgumentValue) Set(value string) {
	v.defined = true
	v.values = []string{value}
}

// SetList replaces all values with an ordered list. A nil list behaves
// like Clear.
func (v *ArgumentValue) SetList(values []string) {
	v.defined = true
	v.values = append([]string(nil), values...)
}

// Append adds one value at the end, defining the argument if needed.
func (v *ArgumentValue) Append(value string) {
	v.defined = true
	v.values = append(v.values, value)
}

// Clear leaves the argument defined with zero values. The request will
// carry an explicitly empty element.
func (v *ArgumentValue) Clear() {
	v.defined = true
	v.values = nil
}

// Unset removes the argument from the request entirely.
func (v *ArgumentValue) Unset() {
	v.defined = false
	v.values = nil
}

// First returns the first value if one is stored.
func (v *ArgumentValue) First() (string, bool) {
	if len(v.values) == 0 {
		return "", false
	}
	return v.values[0], true
}

// AsList returns a copy of the stored values. Never nil: an unset or
// cleared argument yields an empty list.
func (v *ArgumentValue) AsList() []string {
	out := make([]string, len(v.values))
	copy(out, v.values)
	return out
}

// Bool parses the first value, falling back to def on absence or parse
// failure. Only the literals "true" and "false" parse; the lenient forms
// strconv accepts ("1", "t", "TRUE") are not valid boolean values here.
func (v *ArgumentValue) Bool(def bool) bool {
	if s, ok := v.First(); ok {
		if b, ok := parseBool(s); ok {
			return b
		}
	}
	return def
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// Int parses the first value, falling back to def on absence or parse
// failure.
func (v *ArgumentValue) Int(def int) int {
	if s, ok := v.First(); ok {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// Float parses the first value, falling back to def on absence or parse
// failure.
func (v *ArgumentValue) Float(def float64) float64 {
	if s, ok := v.First(); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return def
}

// BoolList maps every value independently, substituting def per element on
// a parse failure. The result always has the same length as the value list.
func (v *ArgumentValue) BoolList(def bool) []bool {
	out := make([]bool, len(v.values))
	for i, s := range v.values {
		if b, ok := parseBool(s); ok {
			out[i] = b
		} else {
			out[i] = def
		}
	}
	return out
}

// IntList maps every value independently, substituting def per element on a
// parse failure. No elements are dropped.
func (v *ArgumentValue) IntList(def int) []int {
	out := make([]int, len(v.values))
	for i, s := range v.values {
		if n, err := strconv.Atoi(s); err == nil {
			out[i] = n
		} else {
			out[i] = def
		}
	}
	return out
}

// FloatList maps every value independently, substituting def per element on
// a parse failure.
func (v *ArgumentValue) FloatList(def float64) []float64 {
	out := make([]float64, len(v.values))
	for i, s := range v.values {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			out[i] = f
		} else {
			out[i] = def
		}
	}
	return out
}

// SetFile binds a local file or directory as the argument's single value.
// A nonexistent source behaves like Clear. For output-direction arguments
// the stored value is an absolute file: URI and no context copy occurs;
// otherwise the source is registered with the job context for deferred copy
// and the stored value is its context-relative path.
func (v *ArgumentValue) SetFile(file, contextPath string) error {
	stored, ok, err := v.bindFile(file, contextPath)
	if err != nil {
		return err
	}
	if !ok {
		v.Clear()
		return nil
	}
	v.Set(stored)
	return nil
}

// AddFile appends a local file or directory as an additional value. A
// nonexistent source is a no-op.
func (v *ArgumentValue) AddFile(file, contextPath string) error {
	stored, ok, err := v.bindFile(file, contextPath)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	v.Append(stored)
	return nil
}

func (v *ArgumentValue) bindFile(file, contextPath string) (string, bool, error) {
	info, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, &JobError{
			Type:    "file_error",
			Message: "failed to stat file",
			Err:     err,
			Context: file,
		}
	}

	if v.def.IsOutput() {
		uri, err := fileURI(file, info.IsDir())
		if err != nil {
			return "", false, err
		}
		return uri, true, nil
	}

	// Reuse the path a source was already registered under before falling
	// back to the default filename resolution.
	if contextPath == "" {
		if p, ok := v.ctx.PathFor(file); ok {
			return p, true, nil
		}
	}

	p, err := v.ctx.AddFile(file, contextPath)
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}

// fileURI returns the normalized absolute file: URI for a path. Directory
// URIs carry a trailing slash.
func fileURI(file string, isDir bool) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", &JobError{
			Type:    "file_error",
			Message: "failed to resolve absolute path",
			Err:     err,
			Context: file,
		}
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	s := u.String()
	if isDir && !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s, nil
}
