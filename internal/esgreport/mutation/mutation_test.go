package mutation

import (
	"testing"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func para(id string) edtypes.Block {
	return edtypes.Block{
		ID:         id,
		Type:       edtypes.NodeBlock,
		BlockType:  edtypes.BlockParagraph,
		Attributes: edtypes.Attributes{"align": "left"},
		Content:    []edtypes.Inline{{ID: id + "-1", Type: edtypes.NodeInline, Text: id}},
	}
}

func fixture() *edtypes.Document {
	return &edtypes.Document{
		ID:   "doc",
		Type: edtypes.NodeDocument,
		Sections: []edtypes.Section{
			{ID: "s1", Type: edtypes.NodeSection, Blocks: []edtypes.Block{para("A"), para("B"), para("C")}},
			{ID: "s2", Type: edtypes.NodeSection, Blocks: []edtypes.Block{para("D")}},
		},
	}
}

func blockIDs(doc *edtypes.Document, sectionID string) []string {
	s, ok := doc.FindSection(sectionID)
	if !ok {
		return nil
	}
	res := []string{}
	for _, b := range s.Blocks {
		res = append(res, b.ID)
	}
	return res
}

func countBlocks(doc *edtypes.Document) int {
	n := 0
	for _, s := range doc.Sections {
		n += len(s.Blocks)
	}
	return n
}

func TestInsertBlock(t *testing.T) {
	tests := []struct {
		name     string
		position int
		want     []string
	}{
		{"head", 0, []string{"X", "A", "B", "C"}},
		{"middle", 1, []string{"A", "X", "B", "C"}},
		{"tail", 3, []string{"A", "B", "C", "X"}},
		{"clamped high", 99, []string{"A", "B", "C", "X"}},
		{"clamped low", -5, []string{"X", "A", "B", "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := fixture()
			res, ok := InsertBlock("s1", tt.position, para("X"))(doc)
			require.True(t, ok)
			assert.Equal(t, tt.want, blockIDs(res, "s1"))
			assert.Equal(t, []string{"A", "B", "C"}, blockIDs(doc, "s1"), "source unchanged")
			assert.NoError(t, res.Validate())
		})
	}

	t.Run("missing section", func(t *testing.T) {
		doc := fixture()
		res, ok := InsertBlock("nope", 0, para("X"))(doc)
		assert.False(t, ok)
		assert.Same(t, doc, res)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, ok := InsertBlock("s2", 0, para("A"))(fixture())
		assert.False(t, ok)
	})

	t.Run("nested id taken", func(t *testing.T) {
		b := para("X")
		b.Content[0].ID = "A-1"
		_, ok := InsertBlock("s2", 0, b)(fixture())
		assert.False(t, ok)
	})

	t.Run("block id equals section id", func(t *testing.T) {
		_, ok := InsertBlock("s2", 0, para("s1"))(fixture())
		assert.False(t, ok)
	})

	t.Run("empty id gets fresh one", func(t *testing.T) {
		b := para("")
		res, ok := InsertBlock("s2", 0, b)(fixture())
		require.True(t, ok)
		assert.NotEmpty(t, res.Sections[1].Blocks[0].ID)
	})
}

func TestStructuralSharing(t *testing.T) {
	doc := fixture()
	res, ok := DeleteBlock("B", "s1")(doc)
	require.True(t, ok)

	assert.NotSame(t, doc, res)
	// нетронутый раздел разделяет массив блоков
	assert.Same(t, &doc.Sections[1].Blocks[0], &res.Sections[1].Blocks[0])
	assert.Equal(t, []string{"A", "B", "C"}, blockIDs(doc, "s1"))
	assert.Equal(t, []string{"A", "C"}, blockIDs(res, "s1"))
}

func TestDeleteBlock(t *testing.T) {
	doc := fixture()
	_, ok := DeleteBlock("B", "s2")(doc)
	assert.False(t, ok, "block lives in another section")

	_, ok = DeleteBlock("nope", "s1")(doc)
	assert.False(t, ok)

	res, ok := DeleteBlock("D", "s2")(doc)
	require.True(t, ok)
	assert.Empty(t, blockIDs(res, "s2"))
	assert.Equal(t, countBlocks(doc)-1, countBlocks(res))
}

func TestMoveBlock(t *testing.T) {
	tests := []struct {
		name        string
		blockID     string
		source      string
		target      string
		from, to    int
		wantChanged bool
		wantS1      []string
		wantS2      []string
	}{
		{"first to last", "A", "s1", "s1", 0, 2, true, []string{"B", "C", "A"}, []string{"D"}},
		{"last to first", "C", "s1", "s1", 2, 0, true, []string{"C", "A", "B"}, []string{"D"}},
		{"clamped target", "A", "s1", "s1", 0, 10, true, []string{"B", "C", "A"}, []string{"D"}},
		{"same position", "B", "s1", "s1", 1, 1, false, []string{"A", "B", "C"}, []string{"D"}},
		{"stale from position", "C", "s1", "s1", 0, 0, true, []string{"C", "A", "B"}, []string{"D"}},
		{"cross section head", "B", "s1", "s2", 1, 0, true, []string{"A", "C"}, []string{"B", "D"}},
		{"cross section tail", "B", "s1", "s2", 1, 99, true, []string{"A", "C"}, []string{"D", "B"}},
		{"missing block", "Z", "s1", "s2", 0, 0, false, []string{"A", "B", "C"}, []string{"D"}},
		{"missing target", "A", "s1", "s9", 0, 0, false, []string{"A", "B", "C"}, []string{"D"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := fixture()
			res, ok := MoveBlock(tt.blockID, tt.source, tt.target, tt.from, tt.to)(doc)
			assert.Equal(t, tt.wantChanged, ok)
			assert.Equal(t, tt.wantS1, blockIDs(res, "s1"))
			assert.Equal(t, tt.wantS2, blockIDs(res, "s2"))
			assert.Equal(t, countBlocks(doc), countBlocks(res))
			assert.NoError(t, res.Validate())
		})
	}
}

func TestUpdateBlockContent(t *testing.T) {
	doc := fixture()
	content := []edtypes.Inline{{ID: "n1", Type: edtypes.NodeInline, Text: "new"}}
	res, ok := UpdateBlockContent("A", "s1", content)(doc)
	require.True(t, ok)
	assert.Equal(t, "new", res.Sections[0].Blocks[0].Text())
	assert.Equal(t, "A", doc.Sections[0].Blocks[0].Text())

	content[0].Text = "mutated"
	assert.Equal(t, "new", res.Sections[0].Blocks[0].Text(), "content copied")

	t.Run("foreign and repeated ids replaced", func(t *testing.T) {
		runs := []edtypes.Inline{
			{ID: "B-1", Type: edtypes.NodeInline, Text: "x"},
			{ID: "A-1", Type: edtypes.NodeInline, Text: "y"},
			{ID: "A-1", Type: edtypes.NodeInline, Text: "z"},
		}
		res, ok := UpdateBlockContent("A", "s1", runs)(fixture())
		require.True(t, ok)
		got := res.Sections[0].Blocks[0].Content
		assert.NotEqual(t, "B-1", got[0].ID)
		assert.Equal(t, "A-1", got[1].ID)
		assert.NotEqual(t, "A-1", got[2].ID)
		assert.Equal(t, "B-1", runs[0].ID, "input untouched")
		assert.NoError(t, res.Validate())
	})

	table := fixture()
	table.Sections[1].Blocks = append(table.Sections[1].Blocks, edtypes.NewEmptyBlock(edtypes.BlockTable))
	tid := table.Sections[1].Blocks[1].ID
	_, ok = UpdateBlockContent(tid, "s2", content)(table)
	assert.False(t, ok, "table has no inline content")
}

func TestUpdateBlockText(t *testing.T) {
	res, ok := UpdateBlockText("A", "s1", "plain")(fixture())
	require.True(t, ok)
	require.Len(t, res.Sections[0].Blocks[0].Content, 1)
	assert.Equal(t, "plain", res.Sections[0].Blocks[0].Content[0].Text)
}

func TestApplyMark(t *testing.T) {
	t.Run("toggle adds then removes", func(t *testing.T) {
		doc := fixture()
		res, ok := ApplyMark("A", "s1", 0, edtypes.MarkItalic, true)(doc)
		require.True(t, ok)
		assert.Equal(t, edtypes.Marks{edtypes.MarkItalic}, res.Sections[0].Blocks[0].Content[0].Marks)
		assert.Empty(t, doc.Sections[0].Blocks[0].Content[0].Marks)

		res, ok = ApplyMark("A", "s1", 0, edtypes.MarkItalic, true)(res)
		require.True(t, ok)
		assert.Empty(t, res.Sections[0].Blocks[0].Content[0].Marks)
	})

	t.Run("non toggle only adds", func(t *testing.T) {
		doc := fixture()
		res, ok := ApplyMark("A", "s1", 0, edtypes.MarkBold, false)(doc)
		require.True(t, ok)
		_, ok = ApplyMark("A", "s1", 0, edtypes.MarkBold, false)(res)
		assert.False(t, ok)
	})

	t.Run("out of range", func(t *testing.T) {
		_, ok := ApplyMark("A", "s1", 5, edtypes.MarkBold, true)(fixture())
		assert.False(t, ok)
		_, ok = ApplyMark("A", "s1", -1, edtypes.MarkBold, true)(fixture())
		assert.False(t, ok)
	})

	t.Run("unknown mark", func(t *testing.T) {
		_, ok := ApplyMark("A", "s1", 0, "blink", true)(fixture())
		assert.False(t, ok)
	})
}

func TestUpdateBlockAttributesAndMetadata(t *testing.T) {
	doc := fixture()
	res, ok := UpdateBlockAttributes("A", "s1", map[string]any{"align": "center", "indent": 2})(doc)
	require.True(t, ok)
	b := res.Sections[0].Blocks[0]
	assert.Equal(t, "center", b.Attributes.Align())
	assert.Equal(t, 2, b.Attributes.Indent())
	assert.Equal(t, "left", doc.Sections[0].Blocks[0].Attributes.Align())

	res, ok = UpdateBlockMetadata("A", "s1", map[string]any{"framework": "GRI"})(res)
	require.True(t, ok)
	res, ok = UpdateBlockMetadata("A", "s1", map[string]any{"confidence": 0.9})(res)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"framework": "GRI", "confidence": 0.9}, res.Sections[0].Blocks[0].Metadata)
	assert.Nil(t, doc.Sections[0].Blocks[0].Metadata)

	_, ok = UpdateBlockMetadata("Z", "s1", map[string]any{"x": 1})(doc)
	assert.False(t, ok)
}

func TestUpdateBlockData(t *testing.T) {
	doc := fixture()
	tbl := edtypes.NewEmptyBlock(edtypes.BlockTable)
	doc.Sections[1].Blocks = append(doc.Sections[1].Blocks, tbl)

	data := edtypes.TableData{Rows: 1, Cols: 1, Cells: [][]string{{"x"}}}
	res, ok := UpdateBlockData(tbl.ID, "s2", data)(doc)
	require.True(t, ok)
	assert.Equal(t, data, res.Sections[1].Blocks[1].Data)

	_, ok = UpdateBlockData(tbl.ID, "s2", edtypes.ImageData{Src: "x"})(doc)
	assert.False(t, ok, "data kind mismatch")
}

func TestSectionMutations(t *testing.T) {
	doc := fixture()

	sec := edtypes.NewEmptySection("Social")
	res, ok := InsertSection(1, sec)(doc)
	require.True(t, ok)
	require.Len(t, res.Sections, 3)
	assert.Equal(t, sec.ID, res.Sections[1].ID)
	assert.Len(t, doc.Sections, 2)

	_, ok = InsertSection(0, sec)(res)
	assert.False(t, ok, "duplicate section id")

	twins := edtypes.NewEmptySection("Twins")
	twins.Blocks = []edtypes.Block{para("Z"), para("Z")}
	_, ok = InsertSection(0, twins)(res)
	assert.False(t, ok, "repeated block id inside section")

	reused := edtypes.NewEmptySection("Reused")
	reused.Blocks = []edtypes.Block{para("Y")}
	reused.Blocks[0].Content[0].ID = "D-1"
	_, ok = InsertSection(0, reused)(res)
	assert.False(t, ok, "inline id taken")

	res, ok = MoveSection(sec.ID, 0)(res)
	require.True(t, ok)
	assert.Equal(t, sec.ID, res.Sections[0].ID)

	title := "Governance"
	res, ok = UpdateSection(sec.ID, SectionPatch{Title: &title})(res)
	require.True(t, ok)
	assert.Equal(t, "Governance", res.Sections[0].Title)

	_, ok = UpdateSection(sec.ID, SectionPatch{})(res)
	assert.False(t, ok, "empty patch")

	res, ok = DeleteSection(sec.ID)(res)
	require.True(t, ok)
	assert.Len(t, res.Sections, 2)

	_, ok = DeleteSection("nope")(res)
	assert.False(t, ok)
}

func TestUpdateTitle(t *testing.T) {
	doc := fixture()
	res, ok := UpdateTitle("ESG 2025")(doc)
	require.True(t, ok)
	assert.Equal(t, "ESG 2025", res.Title)
	assert.Equal(t, "", doc.Title)

	_, ok = UpdateTitle("ESG 2025")(res)
	assert.False(t, ok)
}

func TestNilDocument(t *testing.T) {
	muts := []Mutation{
		InsertBlock("s1", 0, para("X")),
		DeleteBlock("A", "s1"),
		MoveBlock("A", "s1", "s1", 0, 1),
		UpdateBlockContent("A", "s1", nil),
		ApplyMark("A", "s1", 0, edtypes.MarkBold, true),
		UpdateBlockAttributes("A", "s1", nil),
		UpdateBlockMetadata("A", "s1", nil),
		InsertSection(0, edtypes.NewEmptySection("")),
		DeleteSection("s1"),
		MoveSection("s1", 1),
		UpdateTitle("x"),
	}
	for _, m := range muts {
		res, ok := m(nil)
		assert.False(t, ok)
		assert.Nil(t, res)
	}
}
