package job

import (
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/pipelinekit/pipeline-client/pkg/script"
)

// loadResponse parses a <job> response element into the aggregate. Parsing
// is tolerant of missing optional nodes and attributes; they resolve to
// zero values.
func (j *Job) loadResponse(el *etree.Element) {
	// Discard anything parsed from a previously assigned element so stale
	// state cannot leak across a SetJobXML.
	j.callbacks = nil
	j.messages = nil
	j.result = nil
	j.outputs = nil

	if id := el.SelectAttrValue("id", ""); id != "" {
		j.id = id
	}
	j.href = el.SelectAttrValue("href", "")
	j.status = Status(el.SelectAttrValue("status", ""))
	j.priority = Priority(el.SelectAttrValue("priority", ""))

	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "script":
			j.loadScript(child)
		case "nicename":
			j.nicename = child.Text()
		case "batchId":
			j.batchID = child.Text()
		case "log":
			j.logHref = child.SelectAttrValue("href", "")
		case "callback":
			j.callbacks = append(j.callbacks, Callback{
				Type:      child.SelectAttrValue("type", ""),
				Href:      child.SelectAttrValue("href", ""),
				Frequency: child.SelectAttrValue("frequency", ""),
			})
		case "messages":
			j.loadMessages(child)
		case "results":
			j.loadResults(child)
		}
	}
}

// loadScript handles both forms the server uses: a full nested script
// description or a bare reference carrying only an href.
func (j *Job) loadScript(el *etree.Element) {
	j.scriptHref = el.SelectAttrValue("href", "")
	if len(el.ChildElements()) == 0 {
		return
	}
	s, err := script.FromElement(el)
	if err != nil {
		j.log.Error(err, "ignoring malformed nested script description", "job", j.id)
		return
	}
	j.script = s
	for _, def := range s.Arguments {
		if j.findValue(def.Name, def.Kind) == nil {
			j.values = append(j.values, NewArgumentValue(def, j.ctx))
		}
	}
}

func (j *Job) loadMessages(el *etree.Element) {
	for _, m := range el.ChildElements() {
		if m.Tag != "message" {
			continue
		}
		j.messages = append(j.messages, Message{
			Sequence:  intAttr(m, "sequence"),
			Level:     MessageLevel(m.SelectAttrValue("level", string(LevelInfo))),
			Text:      m.Text(),
			Line:      intAttr(m, "line"),
			Column:    intAttr(m, "column"),
			TimeStamp: m.SelectAttrValue("timeStamp", ""),
			File:      m.SelectAttrValue("file", ""),
		})
	}
	sort.SliceStable(j.messages, func(a, b int) bool {
		return j.messages[a].Sequence < j.messages[b].Sequence
	})
}

// loadResults builds the result tree: the root from the <results> element
// itself, one named-output result per direct <result> child, and that
// output's own <result> children as file-level leaves.
func (j *Job) loadResults(el *etree.Element) {
	rootHref := el.SelectAttrValue("href", "")
	if rootHref == "" && j.href != "" {
		rootHref = j.href + "/result"
	}
	j.result = &Result{
		Href:     rootHref,
		MimeType: el.SelectAttrValue("mime-type", ""),
		Size:     sizeAttr(el),
	}

	for _, outEl := range el.ChildElements() {
		if outEl.Tag != "result" {
			continue
		}
		out := &OutputResults{
			Result: &Result{
				Href:         outEl.SelectAttrValue("href", ""),
				RelativeHref: relativeHref(outEl.SelectAttrValue("href", ""), rootHref),
				MimeType:     outEl.SelectAttrValue("mime-type", ""),
				Name:         outEl.SelectAttrValue("name", ""),
				From:         outEl.SelectAttrValue("from", ""),
				Size:         sizeAttr(outEl),
			},
		}
		for _, fileEl := range outEl.ChildElements() {
			if fileEl.Tag != "result" {
				continue
			}
			leaf := &Result{
				Href: fileEl.SelectAttrValue("href", ""),
				// Relative to the immediate structural parent, not the root.
				RelativeHref: relativeHref(fileEl.SelectAttrValue("href", ""), out.Result.Href),
				File:         fileEl.SelectAttrValue("file", ""),
				MimeType:     fileEl.SelectAttrValue("mime-type", ""),
				From:         fileEl.SelectAttrValue("from", ""),
				Size:         sizeAttr(fileEl),
			}
			out.Files = append(out.Files, leaf)
		}
		sort.Slice(out.Files, func(a, b int) bool {
			return out.Files[a].Href < out.Files[b].Href
		})
		if out.Result.Size == 0 {
			for _, f := range out.Files {
				out.Result.Size += f.Size
			}
		}
		j.outputs = append(j.outputs, out)
	}

	sort.Slice(j.outputs, func(a, b int) bool {
		return j.outputs[a].Result.Href < j.outputs[b].Result.Href
	})
	if j.result.Size == 0 {
		for _, o := range j.outputs {
			j.result.Size += o.Result.Size
		}
	}
}

// relativeHref strips the parent href prefix plus separator from href.
func relativeHref(href, parentHref string) string {
	if parentHref == "" {
		return href
	}
	return strings.TrimPrefix(href, strings.TrimSuffix(parentHref, "/")+"/")
}

func intAttr(el *etree.Element, name string) int {
	n, err := strconv.Atoi(el.SelectAttrValue(name, ""))
	if err != nil {
		return 0
	}
	return n
}

func sizeAttr(el *etree.Element) int64 {
	n, err := strconv.ParseInt(el.SelectAttrValue("size", ""), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
