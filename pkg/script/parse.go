package script

import (
	"strings"

	"github.com/beevik/etree"
)

// DataNamespace is the namespace of all Pipeline 2 wire documents.
const DataNamespace = "http://www.daisy.org/ns/pipeline/data"

// FromXML parses a script-description document into a Script.
func FromXML(data []byte) (*Script, error) {
	if len(data) == 0 {
		return nil, &ScriptError{
			Type:    "invalid_input",
			Message: "script XML cannot be empty",
		}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &ScriptError{
			Type:    "xml_parse_error",
			Message: "failed to parse script XML",
			Err:     err,
		}
	}

	root := doc.Root()
	if root == nil {
		return nil, &ScriptError{
			Type:    "xml_parse_error",
			Message: "script XML has no root element",
		}
	}

	return FromElement(root)
}

// FromElement parses a <script> element into a Script. The element may be
// the root of a standalone description or nested inside a job document.
func FromElement(el *etree.Element) (*Script, error) {
	if el == nil || el.Tag != "script" {
		return nil, &ScriptError{
			Type:    "xml_parse_error",
			Message: "expected a <script> element",
			Context: elementName(el),
		}
	}

	s := &Script{
		ID:   el.SelectAttrValue("id", ""),
		Href: el.SelectAttrValue("href", ""),
	}

	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "nicename":
			s.Nicename = strings.TrimSpace(child.Text())
		case "description":
			s.Description = strings.TrimSpace(child.Text())
		case "homepage":
			s.Homepage = strings.TrimSpace(child.Text())
		case "input", "option", "output", "parameters":
			s.Arguments = append(s.Arguments, parseArgument(child))
		}
	}

	return s, nil
}

// ParseScripts parses a <scripts> listing document into the scripts it
// contains. Entries are typically shallow (href and nicename only).
func ParseScripts(data []byte) ([]*Script, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &ScriptError{
			Type:    "xml_parse_error",
			Message: "failed to parse scripts XML",
			Err:     err,
		}
	}

	root := doc.Root()
	if root == nil || root.Tag != "scripts" {
		return nil, &ScriptError{
			Type:    "xml_parse_error",
			Message: "expected a <scripts> root element",
			Context: elementName(root),
		}
	}

	var scripts []*Script
	for _, child := range root.ChildElements() {
		if child.Tag != "script" {
			continue
		}
		s, err := FromElement(child)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return scripts, nil
}

// parseArgument builds an ArgumentDefinition from one <input>, <option>,
// <output> or <parameters> element. Parsing is tolerant: missing or
// malformed attributes resolve to the documented defaults, never errors.
func parseArgument(el *etree.Element) *ArgumentDefinition {
	kind := Kind(el.Tag)

	d := &ArgumentDefinition{
		Name:        el.SelectAttrValue("name", ""),
		Kind:        kind,
		NiceName:    strings.TrimSpace(el.SelectAttrValue("nicename", "")),
		Description: strings.TrimSpace(el.SelectAttrValue("desc", "")),
		Sequence:    parseBoolAttr(el, "sequence", false),
		Ordered:     parseBoolAttr(el, "ordered", false),
	}
	if d.NiceName == "" {
		d.NiceName = d.Name
	}

	switch kind {
	case KindInput:
		d.Required = parseBoolAttr(el, "required", true)
		d.Type = TypeAnyFileURI
	case KindOutput:
		// Outputs are never required: their values are locations the
		// conversion writes to, with a service-chosen default.
		d.Required = false
		d.Type = TypeAnyFileURI
		d.OutputType = parseOutputType(el.SelectAttrValue("outputType", ""))
	default:
		d.Required = parseBoolAttr(el, "required", false)
		d.Type = el.SelectAttrValue("type", TypeString)
		if d.Type == "" {
			d.Type = TypeString
		}
	}

	d.MediaTypes = parseMediaTypes(el.SelectAttrValue("mediaType", ""), d.IsFileType())

	return d
}

// parseBoolAttr reads a boolean attribute, resolving absent or malformed
// values to the default.
func parseBoolAttr(el *etree.Element, name string, def bool) bool {
	switch el.SelectAttrValue(name, "") {
	case "true":
		return true
	case "false":
		return false
	}
	return def
}

func parseOutputType(value string) OutputType {
	switch OutputType(value) {
	case OutputResult, OutputTemp:
		return OutputType(value)
	}
	return OutputResult
}

// parseMediaTypes splits a whitespace-separated media type list, normalizes
// text/xml to application/xml and drops duplicates while preserving order.
// File-typed arguments with no declared media types accept application/xml.
func parseMediaTypes(value string, fileType bool) []string {
	var types []string
	seen := make(map[string]bool)
	for _, mt := range strings.Fields(value) {
		if mt == "text/xml" {
			mt = DefaultMediaType
		}
		if !seen[mt] {
			seen[mt] = true
			types = append(types, mt)
		}
	}
	if len(types) == 0 && fileType {
		types = []string{DefaultMediaType}
	}
	return types
}

func elementName(el *etree.Element) string {
	if el == nil {
		return "nil"
	}
	return el.Tag
}
