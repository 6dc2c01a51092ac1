package templates

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestRenderer() *Renderer {
	return NewRenderer(zerolog.Nop())
}

func TestRender_SubstitutesVariables(t *testing.T) {
	r := newTestRenderer()

	got := r.Render("Hi {{name}}, your code is {{code}}", map[string]any{
		"name": "Ana",
		"code": 123456,
	})
	want := "Hi Ana, your code is 123456"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRender_WhitespaceInsidePlaceholder(t *testing.T) {
	r := newTestRenderer()

	got := r.Render("Hello {{ name }}!", map[string]any{"name": "Bob"})
	if got != "Hello Bob!" {
		t.Errorf("expected Hello Bob!, got %q", got)
	}
}

func TestRender_EscapesHTMLInValues(t *testing.T) {
	r := newTestRenderer()

	got := r.Render("<p>{{name}}</p>", map[string]any{"name": "<script>alert(1)</script>"})
	if got == "<p><script>alert(1)</script></p>" {
		t.Fatal("expected value to be escaped")
	}
	if got != "<p>&lt;script&gt;alert(1)&lt;/script&gt;</p>" {
		t.Errorf("unexpected escaped output: %q", got)
	}
}

func TestRender_UnknownKeyLeftVerbatim(t *testing.T) {
	r := newTestRenderer()

	got := r.Render("Hi {{name}}, see {{other}}", map[string]any{"name": "Ana"})
	if got != "Hi Ana, see {{other}}" {
		t.Errorf("expected unknown placeholder untouched, got %q", got)
	}
}

func TestRender_MalformedTemplateFallsBackToRaw(t *testing.T) {
	r := newTestRenderer()

	malformed := "Hello {{#if name}}there{{/if"
	got := r.Render(malformed, map[string]any{"name": "Ana"})
	if got != malformed {
		t.Errorf("expected raw template back, got %q", got)
	}
}

func TestRender_EmptyTemplate(t *testing.T) {
	r := newTestRenderer()

	if got := r.Render("", map[string]any{"name": "Ana"}); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestRender_NoVariables(t *testing.T) {
	r := newTestRenderer()

	got := r.Render("Hi {{name}}", nil)
	if got != "Hi {{name}}" {
		t.Errorf("expected placeholder untouched with no variables, got %q", got)
	}
}

func TestRender_Deterministic(t *testing.T) {
	r := newTestRenderer()

	tmpl := "A {{a}} B {{b}} C {{missing}}"
	vars := map[string]any{"a": 1, "b": "two"}

	first := r.Render(tmpl, vars)
	for i := 0; i < 10; i++ {
		if got := r.Render(tmpl, vars); got != first {
			t.Fatalf("render not deterministic: %q vs %q", first, got)
		}
	}
}
