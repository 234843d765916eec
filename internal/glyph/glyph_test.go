package glyph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testTables() Tables {
	return Tables{
		Wingdings:  Table{{From: "\uf0fe", To: "☑"}, {From: "\uf0a8", To: "☐"}},
		Wingdings2: Table{{From: "\uf052", To: "✓"}, {From: "\uf0a3", To: "☐"}},
		Wingdings3: Table{{From: "\uf07d", To: "√"}},
	}
}

func TestTables_ForFont(t *testing.T) {
	tables := testTables()

	assert.Len(t, tables.ForFont(FontWingdings), 2)
	assert.Len(t, tables.ForFont(FontWingdings2), 2)
	assert.Len(t, tables.ForFont(FontWingdings3), 1)
	assert.Nil(t, tables.ForFont("Wingdings2"))
	assert.Nil(t, tables.ForFont("SimSun"))
	assert.Equal(t, 5, tables.Len())
}

func TestNormalizer_NormalizeRun(t *testing.T) {
	n := NewNormalizer(testTables())

	tests := []struct {
		name string
		run  Run
		want string
	}{
		{
			name: "wingdings_checked_box",
			run:  Run{Text: "\uf0fe", Font: FontWingdings},
			want: "☑",
		},
		{
			name: "wingdings2_tick_and_box",
			run:  Run{Text: "\uf052\uf0a3\uf052", Font: FontWingdings2},
			want: "✓☐✓",
		},
		{
			name: "same_glyph_in_other_font_is_untouched",
			run:  Run{Text: "\uf0fe", Font: FontWingdings2},
			want: "\uf0fe",
		},
		{
			name: "unrecognized_font_passes_through",
			run:  Run{Text: "\uf052 Yes", Font: "Calibri"},
			want: "\uf052 Yes",
		},
		{
			name: "unmapped_glyph_passes_through",
			run:  Run{Text: "\uf0ff", Font: FontWingdings3},
			want: "\uf0ff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.NormalizeRun(tt.run))
		})
	}
}

func TestNormalizer_AppliesSubstitutionsInOrder(t *testing.T) {
	n := NewNormalizer(Tables{
		Wingdings: Table{{From: "a", To: "b"}, {From: "b", To: "c"}},
	})

	assert.Equal(t, "cc", n.NormalizeRun(Run{Text: "ab", Font: FontWingdings}))
}

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer(testTables())

	paragraphs := []Paragraph{
		{Runs: []Run{
			{Text: "性别：", Font: "SimSun"},
			{Text: "\uf0fe", Font: FontWingdings},
			{Text: "男 ", Font: "SimSun"},
			{Text: "\uf0a8", Font: FontWingdings},
			{Text: "女", Font: "SimSun"},
		}},
		{},
		{Runs: []Run{{Text: "姓名：张三"}}},
	}

	assert.Equal(t, "性别：☑男 ☐女\n\n姓名：张三", n.Normalize(paragraphs))
	assert.Equal(t, []string{"性别：☑男 ☐女", "", "姓名：张三"}, n.Lines(paragraphs))
}
