package shortcode

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttributes(t *testing.T) {
	attrs := ParseAttributes(`id="12" Width='50%' height=300px ar=true "quoted pos" bare`)

	assert.Equal(t, map[string]string{
		"id":     "12",
		"width":  "50%",
		"height": "300px",
		"ar":     "true",
		"0":      "quoted pos",
		"1":      "bare",
	}, attrs)
}

func TestParseAttributes_Empty(t *testing.T) {
	assert.Empty(t, ParseAttributes(""))
	assert.Empty(t, ParseAttributes("   "))
	assert.Equal(t, map[string]string{"alt": ""}, ParseAttributes(`alt=""`))
}

func TestParse_Tags(t *testing.T) {
	content := `a [3d_model id="1"] b [model_viewer src="x.glb"/] c [3d_model_viewer src='y.glb'] d`

	codes := Parse(content)
	require.Len(t, codes, 3)

	assert.Equal(t, "3d_model", codes[0].Tag)
	assert.Equal(t, "1", codes[0].Attrs["id"])
	assert.Equal(t, `[3d_model id="1"]`, content[codes[0].Start:codes[0].End])

	assert.Equal(t, "model_viewer", codes[1].Tag)
	assert.Equal(t, "x.glb", codes[1].Attrs["src"])
	assert.Equal(t, `[model_viewer src="x.glb"/]`, content[codes[1].Start:codes[1].End])

	assert.Equal(t, "3d_model_viewer", codes[2].Tag)
	assert.Equal(t, "y.glb", codes[2].Attrs["src"])
}

func TestParse_IgnoresOtherTags(t *testing.T) {
	assert.Empty(t, Parse(`[gallery ids="1,2"] [3d_models id=1] [model_viewerx] [3d_model`))
}

func TestParse_Enclosing(t *testing.T) {
	content := `[3d_model id=4]caption[/3d_model] after`

	codes := Parse(content)
	require.Len(t, codes, 1)
	assert.Equal(t, "caption", codes[0].Content)
	assert.Equal(t, `[3d_model id=4]caption[/3d_model]`, content[codes[0].Start:codes[0].End])
}

func TestExpand(t *testing.T) {
	content := `<p>[3d_model id="7"]</p><p>[model_viewer src="a.glb"]</p>`

	var seen []string
	out := Expand(context.Background(), content, func(_ context.Context, sc Shortcode, instance int) string {
		seen = append(seen, sc.Tag)
		return fmt.Sprintf("<viewer %d>", instance)
	})

	assert.Equal(t, `<p><viewer 1></p><p><viewer 2></p>`, out)
	assert.Equal(t, []string{"3d_model", "model_viewer"}, seen)
}

func TestExpand_Escaped(t *testing.T) {
	content := `Use [[3d_model id="7"]] to embed. [3d_model id="7"]`

	out := Expand(context.Background(), content, func(_ context.Context, _ Shortcode, instance int) string {
		return fmt.Sprintf("<viewer %d>", instance)
	})

	assert.Equal(t, `Use [3d_model id="7"] to embed. <viewer 1>`, out)
}

func TestExpand_NoShortcodes(t *testing.T) {
	content := "plain [text] with brackets"
	out := Expand(context.Background(), content, func(context.Context, Shortcode, int) string {
		t.Fatal("render must not be called")
		return ""
	})
	assert.Equal(t, content, out)
}

func TestParse_NonBreakingSpaceBetweenAttributes(t *testing.T) {
	codes := Parse("[3d_model id=\"3\"\u00a0width=\"10px\"]")
	require.Len(t, codes, 1)
	assert.Equal(t, "3", codes[0].Attrs["id"])
	assert.Equal(t, "10px", codes[0].Attrs["width"])

	// the tag name itself must be followed by plain whitespace
	assert.Empty(t, Parse("[3d_model\u00a0id=\"3\"]"))
}
