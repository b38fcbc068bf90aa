package script

import (
	"strings"

	"github.com/beevik/etree"
)

// XML serializes the script back to a description document, suitable for
// storing alongside a saved job. Round-tripping through FromXML preserves
// every definition.
func (s *Script) XML() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("d:script")
	root.CreateAttr("xmlns:d", DataNamespace)
	if s.ID != "" {
		root.CreateAttr("id", s.ID)
	}
	if s.Href != "" {
		root.CreateAttr("href", s.Href)
	}

	if s.Nicename != "" {
		root.CreateElement("d:nicename").SetText(s.Nicename)
	}
	if s.Description != "" {
		root.CreateElement("d:description").SetText(s.Description)
	}
	if s.Homepage != "" {
		root.CreateElement("d:homepage").SetText(s.Homepage)
	}

	for _, d := range s.Arguments {
		el := root.CreateElement("d:" + string(d.Kind))
		el.CreateAttr("name", d.Name)
		if d.NiceName != "" && d.NiceName != d.Name {
			el.CreateAttr("nicename", d.NiceName)
		}
		if d.Description != "" {
			el.CreateAttr("desc", d.Description)
		}
		switch d.Kind {
		case KindInput:
			if !d.Required {
				el.CreateAttr("required", "false")
			}
		case KindOutput:
			el.CreateAttr("outputType", string(d.OutputType))
		default:
			el.CreateAttr("required", boolAttr(d.Required))
			el.CreateAttr("type", d.Type)
		}
		if d.Sequence {
			el.CreateAttr("sequence", "true")
		}
		if d.Ordered {
			el.CreateAttr("ordered", "true")
		}
		if len(d.MediaTypes) > 0 {
			el.CreateAttr("mediaType", strings.Join(d.MediaTypes, " "))
		}
	}

	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, &ScriptError{
			Type:    "serialization_error",
			Message: "failed to serialize script XML",
			Err:     err,
			Context: s.ID,
		}
	}
	return data, nil
}

func boolAttr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
