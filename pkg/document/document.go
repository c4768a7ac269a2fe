package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vtree/internal/errors"
)

// Document is a parsed template document.
type Document struct {
	// State holds the initial state values.
	State map[string]any `yaml:"state"`

	// Components declares components usable with the component entry.
	Components map[string]*Component `yaml:"components"`

	// Partials are named entry lists selectable with the dynamic entry.
	Partials map[string][]*Entry `yaml:"partials"`

	// Template is the document body.
	Template []*Entry `yaml:"template"`
}

// Component declares a document component.
type Component struct {
	Tag             string         `yaml:"tag"`
	Props           map[string]any `yaml:"props"`
	Context         map[string]any `yaml:"context"`
	Isolate         bool           `yaml:"isolate"`
	AcceptsChildren bool           `yaml:"acceptsChildren"`
	Class           any            `yaml:"class"`
	Attrs           map[string]any `yaml:"attrs"`
	Template        []*Entry       `yaml:"template"`
}

// Entry is one template node. Exactly one of the kind keys (element, text,
// if, each, dynamic, html, component, slot, empty) must be set.
type Entry struct {
	Element   string  `yaml:"element"`
	Text      *string `yaml:"text"`
	If        string  `yaml:"if"`
	Each      string  `yaml:"each"`
	Dynamic   string  `yaml:"dynamic"`
	HTML      *string `yaml:"html"`
	Component string  `yaml:"component"`
	Slot      *string `yaml:"slot"`
	Empty     bool    `yaml:"empty"`

	Attrs   map[string]any    `yaml:"attrs"`
	Styles  map[string]any    `yaml:"styles"`
	Class   any               `yaml:"class"`
	Props   map[string]any    `yaml:"props"`
	Context map[string]any    `yaml:"context"`
	On      map[string]string `yaml:"on"`

	Alias    string `yaml:"alias"`
	Key      string `yaml:"key"`
	As       string `yaml:"as"`
	IndexAs  string `yaml:"indexAs"`
	Once     bool   `yaml:"once"`
	Cache    bool   `yaml:"cache"`
	Sanitize bool   `yaml:"sanitize"`
	Into     string `yaml:"into"`

	Then     []*Entry `yaml:"then"`
	Else     []*Entry `yaml:"else"`
	Children []*Entry `yaml:"children"`
}

// kind returns the entry's kind key, or an empty string when none or
// several are set.
func (e *Entry) kind() (string, int) {
	var kinds []string
	if e.Element != "" {
		kinds = append(kinds, "element")
	}
	if e.Text != nil {
		kinds = append(kinds, "text")
	}
	if e.If != "" {
		kinds = append(kinds, "if")
	}
	if e.Each != "" {
		kinds = append(kinds, "each")
	}
	if e.Dynamic != "" {
		kinds = append(kinds, "dynamic")
	}
	if e.HTML != nil {
		kinds = append(kinds, "html")
	}
	if e.Component != "" {
		kinds = append(kinds, "component")
	}
	if e.Slot != nil {
		kinds = append(kinds, "slot")
	}
	if e.Empty {
		kinds = append(kinds, "empty")
	}
	if len(kinds) != 1 {
		return "", len(kinds)
	}
	return kinds[0], 1
}

// Parse decodes and validates a document.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.New("E150").Wrap(err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E150").WithDetailf("cannot read %s", path).Wrap(err)
	}
	doc, err := Parse(data)
	if err != nil {
		if e, ok := err.(*errors.Error); ok && e.Location == nil {
			if line := yamlLine(e.Wrapped); line > 0 {
				e.WithLocation(path, line, 0)
			} else {
				e.Location = &errors.Location{File: path}
			}
		}
		return nil, err
	}
	return doc, nil
}

var lineRe = regexp.MustCompile(`line (\d+)`)

// yamlLine extracts the first line number from a yaml.v3 error.
func yamlLine(err error) int {
	if err == nil {
		return 0
	}
	m := lineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// Validate checks that every entry names exactly one kind and that
// referenced components and partials exist.
func (d *Document) Validate() error {
	v := validator{doc: d}
	for name, c := range d.Components {
		v.entries(fmt.Sprintf("components.%s.template", name), c.Template, true)
	}
	for name, p := range d.Partials {
		v.entries("partials."+name, p, false)
	}
	v.entries("template", d.Template, false)
	return v.err
}

type validator struct {
	doc *Document
	err error
}

func (v *validator) fail(path, format string, args ...any) {
	if v.err == nil {
		v.err = errors.New("E151").WithDetailf("%s: "+format, append([]any{path}, args...)...)
	}
}

func (v *validator) entries(path string, entries []*Entry, inComponent bool) {
	for i, e := range entries {
		v.entry(fmt.Sprintf("%s[%d]", path, i), e, inComponent)
	}
}

func (v *validator) entry(path string, e *Entry, inComponent bool) {
	if e == nil {
		v.fail(path, "empty entry")
		return
	}
	kind, n := e.kind()
	if n != 1 {
		v.fail(path, "entry names %d kinds", n)
		return
	}
	switch kind {
	case "component":
		if _, ok := v.doc.Components[e.Component]; !ok {
			v.fail(path, "unknown component %q", e.Component)
		}
	case "slot":
		if !inComponent {
			v.fail(path, "slot outside a component template")
		}
	case "text", "html", "empty":
		if len(e.Children) > 0 {
			v.fail(path, "%s entries take no children", kind)
		}
	}
	for name, action := range e.On {
		if _, err := parseAction(action); err != nil {
			v.fail(path, "on.%s: %v", name, err)
		}
	}
	v.entries(path+".then", e.Then, inComponent)
	v.entries(path+".else", e.Else, inComponent)
	v.entries(path+".children", e.Children, inComponent)
}
