package document

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/formharvest/internal/glyph"
)

func parseDOCX(t *testing.T, includeTables bool, body string) []glyph.Paragraph {
	t.Helper()
	data := buildDOCX(t, body)
	paragraphs, err := NewDOCXParser(includeTables).Parse(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return paragraphs
}

func TestDOCXParser_RunsKeepTheirFonts(t *testing.T) {
	paragraphs := parseDOCX(t, false, `
<w:p>
  <w:r><w:t xml:space="preserve">性别： </w:t></w:r>
  <w:r><w:rPr><w:rFonts w:ascii="Wingdings" w:hAnsi="Wingdings"/></w:rPr><w:t>`+"\uf0fe"+`</w:t></w:r>
  <w:r><w:t>男</w:t></w:r>
</w:p>
<w:p><w:r><w:rPr><w:rFonts w:eastAsia="SimSun"/></w:rPr><w:t>姓名：</w:t><w:tab/><w:t>张三</w:t></w:r></w:p>`)

	require.Len(t, paragraphs, 2)
	assert.Equal(t, []glyph.Run{
		{Text: "性别： "},
		{Text: "\uf0fe", Font: "Wingdings"},
		{Text: "男"},
	}, paragraphs[0].Runs)
	assert.Equal(t, []glyph.Run{{Text: "姓名：\t张三", Font: "SimSun"}}, paragraphs[1].Runs)
}

func TestDOCXParser_SymbolElementBecomesRun(t *testing.T) {
	paragraphs := parseDOCX(t, false, `
<w:p><w:r><w:t>Agree: </w:t><w:sym w:font="Wingdings 2" w:char="F052"/><w:t>Yes</w:t></w:r></w:p>`)

	require.Len(t, paragraphs, 1)
	assert.Equal(t, []glyph.Run{
		{Text: "Agree: "},
		{Text: "\uf052", Font: "Wingdings 2"},
		{Text: "Yes"},
	}, paragraphs[0].Runs)
}

func TestDOCXParser_BreaksAndEmptyParagraphs(t *testing.T) {
	paragraphs := parseDOCX(t, false, `
<w:p><w:r><w:t>a</w:t><w:br/><w:t>b</w:t></w:r></w:p>
<w:p/>
<w:p><w:pPr><w:rPr><w:rFonts w:ascii="Wingdings"/></w:rPr></w:pPr><w:r><w:t>c</w:t></w:r></w:p>`)

	require.Len(t, paragraphs, 3)
	assert.Equal(t, "a\nb", paragraphs[0].Runs[0].Text)
	assert.Empty(t, paragraphs[1].Runs)
	assert.Equal(t, []glyph.Run{{Text: "c"}}, paragraphs[2].Runs)
}

func TestDOCXParser_Tables(t *testing.T) {
	body := `
<w:p><w:r><w:t>before</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Cell: 1</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p><w:r><w:t>after</w:t></w:r></w:p>`

	without := parseDOCX(t, false, body)
	require.Len(t, without, 2)
	assert.Equal(t, "before", without[0].Runs[0].Text)
	assert.Equal(t, "after", without[1].Runs[0].Text)

	with := parseDOCX(t, true, body)
	require.Len(t, with, 3)
	assert.Equal(t, "Cell: 1", with[1].Runs[0].Text)
}

func TestDOCXParser_TextBoxesAreSkipped(t *testing.T) {
	paragraphs := parseDOCX(t, false, `
<w:p>
  <w:r><w:t>outer </w:t></w:r>
  <w:r>
    <w:pict><wps:txbx><w:txbxContent><w:p><w:r><w:t>inside</w:t></w:r></w:p></w:txbxContent></wps:txbx></w:pict>
    <w:t>tail</w:t>
  </w:r>
</w:p>`)

	require.Len(t, paragraphs, 1)
	assert.Equal(t, []glyph.Run{{Text: "outer "}, {Text: "tail"}}, paragraphs[0].Runs)
}

func TestDOCXParser_Errors(t *testing.T) {
	_, err := NewDOCXParser(false).Parse(bytes.NewReader([]byte("not a zip")), 9)
	assert.Error(t, err)

	data := buildDOCX(t, `<w:p><w:r><w:t>unclosed</w:r></w:p>`)
	_, err = NewDOCXParser(false).Parse(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ErrMalformed)
}
