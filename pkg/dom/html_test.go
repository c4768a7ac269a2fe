package dom

import (
	"strings"
	"testing"
)

func TestHTMLSerialization(t *testing.T) {
	doc := NewDocument()
	div := doc.CreateElement("div")
	div.SetAttribute("id", "main")
	div.SetAttribute("title", `say "hi"`)
	div.SetClassList([]string{"card", "active"})
	div.SetStyle("color", "red")

	input := doc.CreateElement("input")
	input.SetAttribute("disabled", "")
	div.AppendChild(input)
	div.AppendChild(doc.CreateText("a < b & c"))
	div.AppendChild(doc.CreateComment("note"))

	want := `<div class="card active" style="color: red;" id="main" title="say &quot;hi&quot;">` +
		`<input disabled>a &lt; b &amp; c<!--note--></div>`
	if got := HTML(div); got != want {
		t.Errorf("HTML() =\n%s\nwant\n%s", got, want)
	}
	if got := InnerHTML(div); !strings.HasPrefix(got, "<input disabled>") {
		t.Errorf("InnerHTML() = %q", got)
	}
}

func TestHTMLPretty(t *testing.T) {
	doc := NewDocument()
	ul := doc.CreateElement("ul")
	for _, s := range []string{"one", "two"} {
		li := doc.CreateElement("li")
		li.AppendChild(doc.CreateText(s))
		ul.AppendChild(li)
	}

	var b strings.Builder
	if err := WriteHTML(&b, ul, HTMLOptions{Pretty: true}); err != nil {
		t.Fatal(err)
	}
	want := "<ul>\n  <li>one</li>\n  <li>two</li>\n</ul>\n"
	if b.String() != want {
		t.Errorf("pretty output =\n%q\nwant\n%q", b.String(), want)
	}
}
