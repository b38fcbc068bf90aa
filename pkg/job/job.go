package job

import (
	"sort"

	"github.com/beevik/etree"
	"github.com/go-logr/logr"
	"github.com/pipelinekit/pipeline-client/pkg/jobcontext"
	"github.com/pipelinekit/pipeline-client/pkg/script"
)

// Status of a job as reported by the service. Absent before submission;
// DONE, ERROR and VALIDATION_FAIL are terminal.
type Status string

const (
	StatusIdle           Status = "IDLE"
	StatusRunning        Status = "RUNNING"
	StatusDone           Status = "DONE"
	StatusError          Status = "ERROR"
	StatusValidationFail Status = "VALIDATION_FAIL"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusError, StatusValidationFail:
		return true
	}
	return false
}

// Priority of a job.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Callback describes a push subscription the service calls back on. The
// client passes callbacks through without interpreting them.
type Callback struct {
	Type      string // "messages" or "status"
	Href      string
	Frequency string
}

// Job is the aggregate root: a script reference, the argument values bound
// to the script's definitions, and - once a response has been parsed - the
// server-assigned state (status, messages, results).
//
// A Job backed by response XML loads lazily: the backing element is parsed
// on first access. A Job is not safe for concurrent mutation.
type Job struct {
	log logr.Logger

	id         string
	href       string
	status     Status
	priority   Priority
	nicename   string
	batchID    string
	logHref    string
	script     *script.Script
	scriptHref string
	ctx        *jobcontext.Context
	values     []*ArgumentValue
	callbacks  []Callback

	messages []Message
	result   *Result
	outputs  []*OutputResults

	// Lazy-load state: source is the backing XML element, parsed into the
	// fields above no later than the first access.
	loaded bool
	source *etree.Element
}

// New creates a fresh job bound to a parsed script, with one unset
// ArgumentValue per declared argument.
func New(id string, s *script.Script, log logr.Logger) *Job {
	j := &Job{
		log:    log,
		id:     id,
		script: s,
		ctx:    jobcontext.New(),
		loaded: true,
	}
	if s != nil {
		j.scriptHref = s.Href
		for _, def := range s.Arguments {
			j.values = append(j.values, NewArgumentValue(def, j.ctx))
		}
	}
	return j
}

// FromResponseXML creates a job backed by a job-response document. The
// mandatory <job> root is checked immediately; everything else parses
// lazily on first access. The root may be the element itself or its owning
// document.
func FromResponseXML(data []byte, log logr.Logger) (*Job, error) {
	root, err := parseRoot(data, "job")
	if err != nil {
		return nil, err
	}
	j := &Job{
		log:    log,
		ctx:    jobcontext.New(),
		source: root,
	}
	return j, nil
}

// SetJobXML replaces the backing response XML and resets the lazy-load
// flag, so stale parsed state cannot leak across re-assignment.
func (j *Job) SetJobXML(data []byte) error {
	root, err := parseRoot(data, "job")
	if err != nil {
		return err
	}
	j.source = root
	j.loaded = false
	return nil
}

// ensureLoaded funnels every accessor through the one-shot lazy-load
// check, so partially-loaded state is never observable.
func (j *Job) ensureLoaded() {
	if j.loaded {
		return
	}
	j.loaded = true
	if j.source != nil {
		j.loadResponse(j.source)
	}
}

// parseRoot reads an XML document and returns its root element, requiring
// the given tag. A document or a bare element both work.
func parseRoot(data []byte, tag string) (*etree.Element, error) {
	if len(data) == 0 {
		return nil, &JobError{
			Type:    "invalid_input",
			Message: "XML cannot be empty",
		}
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &JobError{
			Type:    "xml_parse_error",
			Message: "failed to parse XML",
			Err:     err,
		}
	}
	root := doc.Root()
	if root == nil {
		return nil, &JobError{
			Type:    "xml_parse_error",
			Message: "XML has no root element",
		}
	}
	if root.Tag != tag {
		return nil, &JobError{
			Type:    "xml_parse_error",
			Message: "unexpected root element <" + root.Tag + ">, expected <" + tag + ">",
		}
	}
	return root, nil
}

// ID returns the client-assigned identifier, stable across save/load.
func (j *Job) ID() string {
	j.ensureLoaded()
	return j.id
}

// SetID assigns the client identifier.
func (j *Job) SetID(id string) {
	j.ensureLoaded()
	j.id = id
}

// Href returns the server-assigned location, empty before submission.
func (j *Job) Href() string {
	j.ensureLoaded()
	return j.href
}

// Status returns the last observed status, empty before submission.
func (j *Job) Status() Status {
	j.ensureLoaded()
	return j.status
}

// Priority returns the job priority, empty when unset.
func (j *Job) Priority() Priority {
	j.ensureLoaded()
	return j.priority
}

// SetPriority sets the job priority.
func (j *Job) SetPriority(p Priority) {
	j.ensureLoaded()
	j.priority = p
}

// Nicename returns the display name.
func (j *Job) Nicename() string {
	j.ensureLoaded()
	return j.nicename
}

// SetNicename sets the display name.
func (j *Job) SetNicename(name string) {
	j.ensureLoaded()
	j.nicename = name
}

// BatchID returns the batch the job belongs to, empty when unset.
func (j *Job) BatchID() string {
	j.ensureLoaded()
	return j.batchID
}

// SetBatchID assigns the job to a batch.
func (j *Job) SetBatchID(id string) {
	j.ensureLoaded()
	j.batchID = id
}

// LogHref returns the server location of the job's execution log.
func (j *Job) LogHref() string {
	j.ensureLoaded()
	return j.logHref
}

// Script returns the bound script, or nil when the job only knows its href.
func (j *Job) Script() *script.Script {
	j.ensureLoaded()
	return j.script
}

// ScriptHref returns the script location. A job always knows which script
// it targets even before the full description is fetched.
func (j *Job) ScriptHref() string {
	j.ensureLoaded()
	if j.script != nil && j.script.Href != "" {
		return j.script.Href
	}
	return j.scriptHref
}

// BindScript attaches a parsed script to a job that previously only had a
// script href, creating unset values for arguments not seen yet.
func (j *Job) BindScript(s *script.Script) {
	j.ensureLoaded()
	j.script = s
	j.scriptHref = s.Href
	for _, def := range s.Arguments {
		if j.findValue(def.Name, def.Kind) == nil {
			j.values = append(j.values, NewArgumentValue(def, j.ctx))
		}
	}
}

// Context returns the job's file context.
func (j *Job) Context() *jobcontext.Context {
	j.ensureLoaded()
	return j.ctx
}

// Callbacks returns the registered push subscriptions.
func (j *Job) Callbacks() []Callback {
	j.ensureLoaded()
	return j.callbacks
}

// AddCallback registers a push subscription, passed through to the request.
func (j *Job) AddCallback(cb Callback) {
	j.ensureLoaded()
	j.callbacks = append(j.callbacks, cb)
}

// Values returns every argument value in script-declaration order.
func (j *Job) Values() []*ArgumentValue {
	j.ensureLoaded()
	return j.values
}

// Value returns the argument value for (name, kind), or nil when the bound
// script declares no such argument.
func (j *Job) Value(name string, kind script.Kind) *ArgumentValue {
	j.ensureLoaded()
	return j.findValue(name, kind)
}

// Input is shorthand for Value(name, KindInput).
func (j *Job) Input(name string) *ArgumentValue { return j.Value(name, script.KindInput) }

// Option is shorthand for Value(name, KindOption).
func (j *Job) Option(name string) *ArgumentValue { return j.Value(name, script.KindOption) }

// Output is shorthand for Value(name, KindOutput).
func (j *Job) Output(name string) *ArgumentValue { return j.Value(name, script.KindOutput) }

func (j *Job) findValue(name string, kind script.Kind) *ArgumentValue {
	for _, v := range j.values {
		if v.def.Name == name && v.def.Kind == kind {
			return v
		}
	}
	return nil
}

// Messages returns the execution messages sorted by sequence ascending.
func (j *Job) Messages() []Message {
	j.ensureLoaded()
	return j.messages
}

// AddMessage inserts a message, keeping the list sorted by sequence.
func (j *Job) AddMessage(m Message) {
	j.ensureLoaded()
	i := sort.Search(len(j.messages), func(i int) bool {
		return j.messages[i].Sequence > m.Sequence
	})
	j.messages = append(j.messages, Message{})
	copy(j.messages[i+1:], j.messages[i:])
	j.messages[i] = m
}

// Result returns the root of the result tree, nil before a response with
// results has been parsed.
func (j *Job) Result() *Result {
	j.ensureLoaded()
	return j.result
}

// OutputResults returns the named outputs with their files, sorted by href.
func (j *Job) OutputResults() []*OutputResults {
	j.ensureLoaded()
	return j.outputs
}

// Results returns the file-level results of the named output, sorted by
// href. Nil when the output is unknown.
func (j *Job) Results(name string) []*Result {
	j.ensureLoaded()
	for _, o := range j.outputs {
		if o.Result.Name == name {
			return o.Files
		}
	}
	return nil
}

// ResultByHref finds a result whose RelativeHref equals href, searching the
// root, then the named outputs, then their files.
//
// When a file-level result matches, the *named output* result is returned
// rather than the file itself. Existing callers depend on this behavior;
// do not change it without confirming with them.
func (j *Job) ResultByHref(href string) (*Result, bool) {
	j.ensureLoaded()
	if j.result != nil && j.result.RelativeHref == href {
		return j.result, true
	}
	for _, o := range j.outputs {
		if o.Result.RelativeHref == href {
			return o.Result, true
		}
	}
	for _, o := range j.outputs {
		for _, f := range o.Files {
			if f.RelativeHref == href {
				return o.Result, true
			}
		}
	}
	return nil, false
}
