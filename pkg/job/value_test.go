package job

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pipelinekit/pipeline-client/pkg/jobcontext"
	"github.com/pipelinekit/pipeline-client/pkg/script"
)

func optionDef(name, argType string, sequence bool) *script.ArgumentDefinition {
	return &script.ArgumentDefinition{
		Name:     name,
		Kind:     script.KindOption,
		NiceName: name,
		Type:     argType,
		Sequence: sequence,
	}
}

func inputDef(name string) *script.ArgumentDefinition {
	return &script.ArgumentDefinition{
		Name:       name,
		Kind:       script.KindInput,
		NiceName:   name,
		Type:       script.TypeAnyFileURI,
		Required:   true,
		MediaTypes: []string{script.DefaultMediaType},
	}
}

func TestArgumentValue_ClearVsUnset(t *testing.T) {
	v := NewArgumentValue(optionDef("x", script.TypeString, true), jobcontext.New())

	if v.Defined() {
		t.Error("Expected a fresh value to be unset")
	}

	v.Clear()
	if !v.Defined() || v.Count() != 0 {
		t.Error("Expected cleared value to be defined with zero values")
	}

	v.Unset()
	if v.Defined() {
		t.Error("Expected unset value to not be defined")
	}

	if v.AsList() == nil {
		t.Error("Expected AsList to never return nil")
	}
}

func TestArgumentValue_SetReplacesValues(t *testing.T) {
	v := NewArgumentValue(optionDef("x", script.TypeString, true), jobcontext.New())

	v.SetList([]string{"a", "b"})
	v.Set("c")

	if v.Count() != 1 {
		t.Fatalf("Expected 1 value after Set, got %d", v.Count())
	}
	if got := v.AsList()[0]; got != "c" {
		t.Errorf("Expected 'c', got '%s'", got)
	}
}

func TestArgumentValue_TypedGetters(t *testing.T) {
	v := NewArgumentValue(optionDef("x", script.TypeString, false), jobcontext.New())

	if got := v.Bool(true); got != true {
		t.Error("Expected default when no value is stored")
	}

	v.Set("42")
	if got := v.Int(0); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
	if got := v.Float(0); got != 42.0 {
		t.Errorf("Expected 42.0, got %f", got)
	}

	v.Set("not-a-number")
	if got := v.Int(7); got != 7 {
		t.Errorf("Expected fallback 7 on parse failure, got %d", got)
	}
}

func TestArgumentValue_BoolAcceptsOnlyLiteralTrueFalse(t *testing.T) {
	v := NewArgumentValue(optionDef("x", script.TypeBoolean, false), jobcontext.New())

	v.Set("true")
	if got := v.Bool(false); got != true {
		t.Error("Expected 'true' to parse as true")
	}

	v.Set("false")
	if got := v.Bool(true); got != false {
		t.Error("Expected 'false' to parse as false")
	}

	// Lenient strconv forms are not valid boolean values
	for _, s := range []string{"1", "0", "t", "TRUE", "True"} {
		v.Set(s)
		if got := v.Bool(false); got != false {
			t.Errorf("Expected %q to fall back to the default, got %v", s, got)
		}
	}
}

func TestArgumentValue_ListGettersNeverDropElements(t *testing.T) {
	v := NewArgumentValue(optionDef("x", script.TypeInteger, true), jobcontext.New())
	v.SetList([]string{"3", "x", "7"})

	got := v.IntList(0)
	if len(got) != 3 {
		t.Fatalf("Expected list length 3, got %d", len(got))
	}
	if got[0] != 3 || got[1] != 0 || got[2] != 7 {
		t.Errorf("Expected [3 0 7], got %v", got)
	}

	bools := NewArgumentValue(optionDef("b", script.TypeBoolean, true), jobcontext.New())
	bools.SetList([]string{"true", "maybe", "false"})
	gotBools := bools.BoolList(false)
	if len(gotBools) != 3 || gotBools[0] != true || gotBools[1] != false || gotBools[2] != false {
		t.Errorf("Expected [true false false], got %v", gotBools)
	}
}

func TestSetFile_DefaultsToFilenameAndReplaces(t *testing.T) {
	dir := t.TempDir()
	docA := filepath.Join(dir, "doc.xml")
	if err := os.WriteFile(docA, []byte("<a/>"), 0644); err != nil {
		t.Fatal(err)
	}
	other := filepath.Join(dir, "sub", "doc.xml")
	if err := os.MkdirAll(filepath.Dir(other), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(other, []byte("<b/>"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := jobcontext.New()
	v := NewArgumentValue(inputDef("source"), ctx)

	if err := v.SetFile(docA, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got := v.AsList(); len(got) != 1 || got[0] != "doc.xml" {
		t.Fatalf("Expected stored value 'doc.xml', got %v", got)
	}

	// Setting again with a different file of the same name replaces,
	// not appends
	if err := v.SetFile(other, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v.Count() != 1 {
		t.Errorf("Expected count 1 after replace, got %d", v.Count())
	}
}

func TestSetFile_MissingSourceClears(t *testing.T) {
	v := NewArgumentValue(inputDef("source"), jobcontext.New())
	if err := v.SetFile(filepath.Join(t.TempDir(), "missing.xml"), ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !v.Defined() || v.Count() != 0 {
		t.Error("Expected missing source to behave like Clear")
	}
}

func TestAddFile_MissingSourceIsNoOp(t *testing.T) {
	v := NewArgumentValue(inputDef("source"), jobcontext.New())
	v.Append("existing.xml")
	if err := v.AddFile(filepath.Join(t.TempDir(), "missing.xml"), ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v.Count() != 1 {
		t.Errorf("Expected count 1, got %d", v.Count())
	}
}

func TestSetFile_OutputStoresAbsoluteFileURI(t *testing.T) {
	dir := t.TempDir()

	def := &script.ArgumentDefinition{
		Name:       "result",
		Kind:       script.KindOutput,
		Type:       script.TypeAnyDirURI,
		OutputType: script.OutputResult,
	}
	ctx := jobcontext.New()
	v := NewArgumentValue(def, ctx)

	if err := v.SetFile(dir, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got, _ := v.First()
	if !strings.HasPrefix(got, "file://") {
		t.Errorf("Expected absolute file: URI, got '%s'", got)
	}
	if !strings.HasSuffix(got, "/") {
		t.Errorf("Expected directory URI to end with '/', got '%s'", got)
	}
	// No context copy occurs for output-direction values
	if !ctx.Empty() {
		t.Error("Expected context to stay empty for output arguments")
	}
}

func TestSetFile_ReusesRegisteredContextPath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.xml")
	if err := os.WriteFile(src, []byte("<a/>"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := jobcontext.New()
	if _, err := ctx.AddFile(src, "chapters/doc.xml"); err != nil {
		t.Fatal(err)
	}

	v := NewArgumentValue(inputDef("source"), ctx)
	if err := v.SetFile(src, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got, _ := v.First(); got != "chapters/doc.xml" {
		t.Errorf("Expected the registered path to be reused, got '%s'", got)
	}
}
