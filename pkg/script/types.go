package script

// Kind identifies the direction of a script argument.
type Kind string

const (
	KindInput  Kind = "input"
	KindOption Kind = "option"
	KindOutput Kind = "output"

	// KindParameters is declared by some scripts but has never been
	// implemented by the service. It is parsed but rejected at validation.
	KindParameters Kind = "parameters"
)

// OutputType classifies output-direction arguments. An empty value means the
// argument is input-direction and its values are context-relative paths.
type OutputType string

const (
	OutputNone   OutputType = ""
	OutputResult OutputType = "result"
	OutputTemp   OutputType = "temp"
)

// XSD micro-type tags accepted in script descriptions.
const (
	TypeString             = "string"
	TypeBoolean            = "boolean"
	TypeInteger            = "integer"
	TypeInt                = "int"
	TypeLong               = "long"
	TypeFloat              = "float"
	TypeDouble             = "double"
	TypeDecimal            = "decimal"
	TypePositiveInteger    = "positiveInteger"
	TypeNegativeInteger    = "negativeInteger"
	TypeNonPositiveInteger = "nonPositiveInteger"
	TypeNonNegativeInteger = "nonNegativeInteger"
	TypeLanguage           = "language"
	TypeID                 = "ID"
	TypeIDRef              = "IDREF"
	TypeName               = "Name"
	TypeNCName             = "NCName"
	TypeQName              = "QName"
	TypeEntity             = "ENTITY"
	TypeNMToken            = "NMTOKEN"
	TypeDateTime           = "dateTime"
	TypeDate               = "date"
	TypeTime               = "time"
	TypeDuration           = "duration"
	TypeAnyURI             = "anyURI"
	TypeAnyDirURI          = "anyDirURI"
	TypeAnyFileURI         = "anyFileURI"
)

// DefaultMediaType is assumed for file-typed arguments that declare no
// accepted media types.
const DefaultMediaType = "application/xml"

// ArgumentDefinition is the immutable description of one named script
// parameter, created once when a script description is parsed.
type ArgumentDefinition struct {
	Name        string
	Kind        Kind
	NiceName    string
	Description string
	Required    bool
	Sequence    bool
	Ordered     bool
	Type        string
	MediaTypes  []string
	OutputType  OutputType
}

// IsFileType reports whether values of this argument name filesystem or
// context entries rather than plain scalars.
func (d *ArgumentDefinition) IsFileType() bool {
	switch d.Type {
	case TypeAnyURI, TypeAnyDirURI, TypeAnyFileURI:
		return true
	}
	return false
}

// IsOutput reports whether the argument's values point at filesystem
// locations the conversion writes to.
func (d *ArgumentDefinition) IsOutput() bool {
	return d.OutputType != OutputNone
}

// Script is a parsed script description: identity plus the ordered set of
// argument definitions it declares.
type Script struct {
	ID          string
	Href        string
	Nicename    string
	Description string
	Homepage    string
	Arguments   []*ArgumentDefinition
}

// Argument looks up a definition by (name, kind). Names are only unique
// within a kind, so both are needed.
func (s *Script) Argument(name string, kind Kind) *ArgumentDefinition {
	for _, d := range s.Arguments {
		if d.Name == name && d.Kind == kind {
			return d
		}
	}
	return nil
}

// Inputs returns the input-kind definitions in declaration order.
func (s *Script) Inputs() []*ArgumentDefinition { return s.byKind(KindInput) }

// Options returns the option-kind definitions in declaration order.
func (s *Script) Options() []*ArgumentDefinition { return s.byKind(KindOption) }

// Outputs returns the output-kind definitions in declaration order.
func (s *Script) Outputs() []*ArgumentDefinition { return s.byKind(KindOutput) }

func (s *Script) byKind(kind Kind) []*ArgumentDefinition {
	defs := make([]*ArgumentDefinition, 0)
	for _, d := range s.Arguments {
		if d.Kind == kind {
			defs = append(defs, d)
		}
	}
	return defs
}
