package htmlclean_test

import (
	"strings"
	"testing"

	"github.com/entrhq/voyager/internal/extract/htmlclean"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanStripsScriptStyleAndSvg(t *testing.T) {
	raw := `<html><head><title>Hi</title><style>.a{color:red}</style></head>
	<body><script>alert(1)</script><svg><circle/></svg><p id="x">hello   world</p></body></html>`

	res, err := htmlclean.Clean(raw, 10_000)
	require.NoError(t, err)

	assert.Equal(t, "Hi", res.Title)
	assert.NotContains(t, res.HTML, "alert(1)")
	assert.NotContains(t, res.HTML, "color:red")
	assert.NotContains(t, res.HTML, "circle")
	assert.Contains(t, res.HTML, "hello world")
	assert.False(t, res.Truncated)
}

func TestCleanCollapsesWhitespace(t *testing.T) {
	raw := "<p>line one\n\n   line   two</p>"
	res, err := htmlclean.Clean(raw, 10_000)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "line one line two")
}

func TestCleanExtractsMetaDescription(t *testing.T) {
	raw := `<html><head><meta name="description" content="a test page"></head><body></body></html>`
	res, err := htmlclean.Clean(raw, 10_000)
	require.NoError(t, err)
	assert.Equal(t, "a test page", res.Description)
}

func TestCleanTruncatesAtMaxLength(t *testing.T) {
	raw := "<p>" + strings.Repeat("x", 500) + "</p>"
	res, err := htmlclean.Clean(raw, 50)
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.LessOrEqual(t, len(res.HTML), 80)
}

func TestCleanPreservesTargetingAttributes(t *testing.T) {
	raw := `<button type="submit" name="go" onclick="evil()">Go</button>`
	res, err := htmlclean.Clean(raw, 10_000)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, `type="submit"`)
	assert.Contains(t, res.HTML, `name="go"`)
	assert.NotContains(t, res.HTML, "onclick")
}
