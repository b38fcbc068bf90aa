package job

import (
	"github.com/beevik/etree"
	"github.com/go-logr/logr"
	"github.com/pipelinekit/pipeline-client/pkg/jobcontext"
	"github.com/pipelinekit/pipeline-client/pkg/script"
)

// RequestXML serializes the job to a job-request document.
//
// Only defined arguments are emitted: an unset argument is omitted entirely
// so the script default applies, while a cleared argument emits an empty
// element. Non-sequence options carry their single non-empty value as text
// content; everything else carries one <item value="..."/> child per value
// in stored order.
func (j *Job) RequestXML() ([]byte, error) {
	j.ensureLoaded()

	if j.ScriptHref() == "" {
		return nil, &JobError{
			Type:    "invalid_input",
			Message: "job has no script reference",
			Context: j.id,
		}
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("d:jobRequest")
	root.CreateAttr("xmlns:d", script.DataNamespace)

	root.CreateElement("d:script").CreateAttr("href", j.ScriptHref())

	if j.nicename != "" {
		root.CreateElement("d:nicename").SetText(j.nicename)
	}
	if j.priority != "" {
		root.CreateElement("d:priority").SetText(string(j.priority))
	}
	if j.batchID != "" {
		root.CreateElement("d:batchId").SetText(j.batchID)
	}

	for _, v := range j.values {
		if !v.defined {
			continue
		}
		el := root.CreateElement("d:" + string(v.def.Kind))
		el.CreateAttr("name", v.def.Name)
		// An empty single value must not use the text-content form: an
		// element with empty text parses back as cleared, not as "".
		if v.def.Kind == script.KindOption && !v.def.Sequence && len(v.values) == 1 && v.values[0] != "" {
			el.SetText(v.values[0])
			continue
		}
		for _, value := range v.values {
			el.CreateElement("d:item").CreateAttr("value", value)
		}
	}

	for _, cb := range j.callbacks {
		el := root.CreateElement("d:callback")
		el.CreateAttr("type", cb.Type)
		el.CreateAttr("href", cb.Href)
		if cb.Frequency != "" {
			el.CreateAttr("frequency", cb.Frequency)
		}
	}

	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, &JobError{
			Type:    "serialization_error",
			Message: "failed to serialize job request XML",
			Err:     err,
			Context: j.id,
		}
	}
	return data, nil
}

// ParseRequest parses a job-request document back into a job bound to the
// given script, reproducing the defined/unset state and per-argument value
// order. The root may be the element itself or its owning document.
func ParseRequest(data []byte, s *script.Script, log logr.Logger) (*Job, error) {
	root, err := parseRoot(data, "jobRequest")
	if err != nil {
		return nil, err
	}

	j := &Job{
		log:    log,
		script: s,
		ctx:    jobcontext.New(),
		loaded: true,
	}
	if s != nil {
		for _, def := range s.Arguments {
			j.values = append(j.values, NewArgumentValue(def, j.ctx))
		}
	}

	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "script":
			j.scriptHref = child.SelectAttrValue("href", "")
		case "nicename":
			j.nicename = child.Text()
		case "priority":
			j.priority = Priority(child.Text())
		case "batchId":
			j.batchID = child.Text()
		case "callback":
			j.callbacks = append(j.callbacks, Callback{
				Type:      child.SelectAttrValue("type", ""),
				Href:      child.SelectAttrValue("href", ""),
				Frequency: child.SelectAttrValue("frequency", ""),
			})
		case "input", "option", "output":
			if err := j.parseRequestArgument(child); err != nil {
				return nil, err
			}
		}
	}

	return j, nil
}

func (j *Job) parseRequestArgument(el *etree.Element) error {
	name := el.SelectAttrValue("name", "")
	kind := script.Kind(el.Tag)

	v := j.findValue(name, kind)
	if v == nil {
		// Requests may reference arguments the bound script does not
		// declare (or no script is bound at all); keep them so the
		// validator can report them instead of dropping them silently.
		def := &script.ArgumentDefinition{Name: name, Kind: kind, NiceName: name}
		v = NewArgumentValue(def, j.ctx)
		j.values = append(j.values, v)
	}

	items := make([]string, 0)
	hasItems := false
	for _, item := range el.ChildElements() {
		if item.Tag != "item" {
			continue
		}
		hasItems = true
		items = append(items, item.SelectAttrValue("value", ""))
	}

	switch {
	case hasItems:
		v.SetList(items)
	case el.Text() != "":
		v.Set(el.Text())
	default:
		// Present but empty: explicitly cleared, not unset.
		v.Clear()
	}
	return nil
}
