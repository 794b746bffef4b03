package tmplx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("with template func", func(t *testing.T) {
		tmpl, err := Parse("test", `{{custom}}`,
			WithTemplateFunc("custom", func() string { return "custom" }))
		require.NoError(t, err)

		buf, err := tmpl.Render(nil)
		require.NoError(t, err)
		assert.Equal(t, "custom", strings.TrimSpace(buf.String()))
	})

	t.Run("nil template func", func(t *testing.T) {
		_, err := Parse("test", `{{custom}}`, WithTemplateFunc("custom", nil))
		require.Error(t, err)
	})

	t.Run("merge with default funcs", func(t *testing.T) {
		tmpl, err := Parse("test", `{{custom}} {{inc 1}}`,
			WithTemplateFunc("custom", func() string { return "custom" }))
		require.NoError(t, err)

		out, err := tmpl.RenderString(nil)
		require.NoError(t, err)
		assert.Equal(t, `custom 2`, strings.TrimSpace(out))
	})
}

func TestCustomFunctions(t *testing.T) {
	t.Parallel()

	t.Run("default function", func(t *testing.T) {
		template := `{{default "anonymous" .name}}`

		t.Run("with empty value", func(t *testing.T) {
			data := map[string]any{"name": ""}
			tmpl := MustParse("", template)
			buf, err := tmpl.Render(data)
			require.NoError(t, err)
			assert.Equal(t, "anonymous", strings.TrimSpace(buf.String()))
		})

		t.Run("with non-empty value", func(t *testing.T) {
			data := map[string]any{"name": "john"}
			tmpl := MustParse("", template)
			buf, err := tmpl.Render(data)
			require.NoError(t, err)
			assert.Equal(t, "john", strings.TrimSpace(buf.String()))
		})
	})

	t.Run("inc function in range", func(t *testing.T) {
		tmpl := MustParse("", `{{range $i, $v := .}}{{inc $i}}.{{$v}} {{end}}`)
		out, err := tmpl.RenderString([]string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, "1.a 2.b ", out)
	})

	t.Run("inc rejects non numbers", func(t *testing.T) {
		tmpl := MustParse("", `{{inc .}}`)
		_, err := tmpl.Render("abc")
		assert.ErrorIs(t, err, ErrRenderTemplate)
	})
}

func TestTemplateParseError(t *testing.T) {
	t.Parallel()

	t.Run("invalid template syntax", func(t *testing.T) {
		_, err := Parse("test", `Hello {{.name`)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrParseTemplate)
	})

	t.Run("invalid function", func(t *testing.T) {
		_, err := Parse("test", `Hello {{.name | invalidFunc}}`)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrParseTemplate)
	})

	t.Run("no missing required field", func(t *testing.T) {
		tmpl := MustParse("test", `Hello {{.name}}`)

		text, err := tmpl.Render(map[string]string{})
		require.NoError(t, err)
		assert.Equal(t, "Hello ", text.String())
	})
}
