package editor

import (
	"strings"
	"testing"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type run struct {
	text  string
	marks []edtypes.Mark
	link  string
	title string
}

func toRuns(in []edtypes.Inline) []run {
	res := make([]run, len(in))
	for i, r := range in {
		res[i] = run{text: r.Text}
		for _, m := range edtypes.AllMarks() {
			if r.Marks.Has(m) {
				res[i].marks = append(res[i].marks, m)
			}
		}
		if r.Link != nil {
			res[i].link = r.Link.URL
			res[i].title = r.Link.Title
		}
	}
	return res
}

func TestParseInlines(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []run
	}{
		{
			name: "plain text",
			html: "Hello",
			want: []run{{text: "Hello"}},
		},
		{
			name: "empty",
			html: "",
			want: []run{},
		},
		{
			name: "bold and plain",
			html: "<strong>Bold</strong> plain",
			want: []run{{text: "Bold", marks: []edtypes.Mark{edtypes.MarkBold}}, {text: " plain"}},
		},
		{
			name: "nested marks",
			html: "<b><i>x</i></b>",
			want: []run{{text: "x", marks: []edtypes.Mark{edtypes.MarkBold, edtypes.MarkItalic}}},
		},
		{
			name: "aliases",
			html: "<em>a</em><i>b</i>",
			want: []run{{text: "ab", marks: []edtypes.Mark{edtypes.MarkItalic}}},
		},
		{
			name: "strike highlight code",
			html: "<s>a</s><strike>b</strike><mark>c</mark><code>d</code>",
			want: []run{
				{text: "ab", marks: []edtypes.Mark{edtypes.MarkStrike}},
				{text: "c", marks: []edtypes.Mark{edtypes.MarkHighlight}},
				{text: "d", marks: []edtypes.Mark{edtypes.MarkCode}},
			},
		},
		{
			name: "sub sup underline",
			html: "H<sub>2</sub>O m<sup>3</sup> <u>u</u>",
			want: []run{
				{text: "H"},
				{text: "2", marks: []edtypes.Mark{edtypes.MarkSubscript}},
				{text: "O m"},
				{text: "3", marks: []edtypes.Mark{edtypes.MarkSuperscript}},
				{text: " "},
				{text: "u", marks: []edtypes.Mark{edtypes.MarkUnderline}},
			},
		},
		{
			name: "unknown tags pass children",
			html: "<span>a<font>b</font></span><strong><span>c</span></strong>",
			want: []run{{text: "ab"}, {text: "c", marks: []edtypes.Mark{edtypes.MarkBold}}},
		},
		{
			name: "link",
			html: `see <a href="https://example.com"><b>here</b> now</a>`,
			want: []run{
				{text: "see "},
				{text: "here", marks: []edtypes.Mark{edtypes.MarkBold}, link: "https://example.com"},
				{text: " now", link: "https://example.com"},
			},
		},
		{
			name: "comments dropped",
			html: "a<!-- note -->b",
			want: []run{{text: "ab"}},
		},
		{
			name: "line break",
			html: "a<br>b",
			want: []run{{text: "a\nb"}},
		},
		{
			name: "entities decoded",
			html: "R&amp;D &lt;3",
			want: []run{{text: "R&D <3"}},
		},
		{
			name: "duplicate mark added once",
			html: "<b><strong>x</strong></b>",
			want: []run{{text: "x", marks: []edtypes.Mark{edtypes.MarkBold}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInlines(strings.NewReader(tt.html))
			require.NoError(t, err)
			assert.Equal(t, tt.want, toRuns(got))
			for _, r := range got {
				assert.NotEmpty(t, r.ID)
				assert.Equal(t, edtypes.NodeInline, r.Type)
				assert.NotEmpty(t, r.Text)
				if r.Link != nil {
					assert.Equal(t, LinkTarget, r.Link.Target)
				}
			}
		})
	}
}

func TestParseInlinesFreshIDs(t *testing.T) {
	got, err := ParseInlines(strings.NewReader("<b>a</b>b<i>c</i>"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.NotEqual(t, got[1].ID, got[2].ID)
}

func TestInlinesFromNode(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<div contenteditable="true"><b>x</b>y</div>`))
	require.NoError(t, err)

	var surface *html.Node
	for n := range doc.Descendants() {
		if n.Type == html.ElementNode && n.Data == "div" {
			surface = n
			break
		}
	}
	require.NotNil(t, surface)

	got := InlinesFromNode(surface)
	assert.Equal(t, []run{{text: "x", marks: []edtypes.Mark{edtypes.MarkBold}}, {text: "y"}}, toRuns(got))
	assert.Nil(t, InlinesFromNode(nil))
}

func TestSanitizeAndParse(t *testing.T) {
	got, err := SanitizeAndParse(`<b>ok</b><script>alert(1)</script><a href="javascript:x()">bad</a>`)
	require.NoError(t, err)
	assert.Equal(t, []run{{text: "ok", marks: []edtypes.Mark{edtypes.MarkBold}}, {text: "bad"}}, toRuns(got))
}

func TestMergeAdjacent(t *testing.T) {
	bold := edtypes.Marks{edtypes.MarkBold}

	t.Run("example", func(t *testing.T) {
		in := []edtypes.Inline{
			{ID: "1", Text: "a", Marks: bold},
			{ID: "2", Text: "b", Marks: bold},
			{ID: "3", Text: "c"},
		}
		got := MergeAdjacent(in)
		require.Len(t, got, 2)
		assert.Equal(t, "ab", got[0].Text)
		assert.Equal(t, "1", got[0].ID)
		assert.Equal(t, "c", got[1].Text)
		// вход не изменен
		assert.Equal(t, "a", in[0].Text)
	})

	t.Run("order insensitive marks", func(t *testing.T) {
		in := []edtypes.Inline{
			{ID: "1", Text: "a", Marks: edtypes.Marks{edtypes.MarkBold, edtypes.MarkItalic}},
			{ID: "2", Text: "b", Marks: edtypes.Marks{edtypes.MarkItalic, edtypes.MarkBold}},
		}
		assert.Len(t, MergeAdjacent(in), 1)
	})

	t.Run("different links", func(t *testing.T) {
		in := []edtypes.Inline{
			{ID: "1", Text: "a", Link: &edtypes.Link{URL: "x"}},
			{ID: "2", Text: "b", Link: &edtypes.Link{URL: "y"}},
			{ID: "3", Text: "c"},
		}
		assert.Len(t, MergeAdjacent(in), 3)
	})

	t.Run("idempotent", func(t *testing.T) {
		in := []edtypes.Inline{
			{ID: "1", Text: "a", Marks: bold},
			{ID: "2", Text: "b", Marks: bold},
			{ID: "3", Text: "c"},
			{ID: "4", Text: "d"},
			{ID: "5", Text: "e", Marks: bold},
		}
		once := MergeAdjacent(in)
		assert.Equal(t, once, MergeAdjacent(once))
	})

	t.Run("annotation does not split runs", func(t *testing.T) {
		in := []edtypes.Inline{
			{ID: "1", Text: "a"},
			{ID: "2", Text: "b", Annotation: &edtypes.Annotation{ID: "n1"}},
			{ID: "3", Text: "c", Annotation: &edtypes.Annotation{ID: "n2"}},
		}
		got := MergeAdjacent(in)
		require.Len(t, got, 1)
		assert.Equal(t, "abc", got[0].Text)
		require.NotNil(t, got[0].Annotation)
		assert.Equal(t, "n1", got[0].Annotation.ID)

		in[1].Annotation.ID = "changed"
		assert.Equal(t, "n1", got[0].Annotation.ID, "annotation copied")
	})

	t.Run("short input", func(t *testing.T) {
		assert.Empty(t, MergeAdjacent(nil))
		assert.Len(t, MergeAdjacent([]edtypes.Inline{{ID: "1", Text: "a"}}), 1)
	})
}

func TestRenderRoundTrip(t *testing.T) {
	in := []edtypes.Inline{
		{ID: "1", Text: "Scope <1>", Marks: edtypes.Marks{edtypes.MarkBold, edtypes.MarkItalic}},
		{ID: "2", Text: " & "},
		{ID: "3", Text: "line\nbreak", Marks: edtypes.Marks{edtypes.MarkHighlight}},
		{ID: "4", Text: "CO", Link: &edtypes.Link{URL: "https://example.com?a=1&b=2", Target: LinkTarget}},
		{ID: "5", Text: "2", Marks: edtypes.Marks{edtypes.MarkSubscript}, Link: &edtypes.Link{URL: "https://example.com?a=1&b=2", Target: LinkTarget}},
		{ID: "6", Text: " GRI 305", Link: &edtypes.Link{URL: "https://globalreporting.org", Title: "GRI \"Emissions\"", Target: LinkTarget}},
	}

	out := RenderHTML(in)
	got, err := ParseInlines(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, toRuns(MergeAdjacent(in)), toRuns(got))

	t.Run("target is always external", func(t *testing.T) {
		self := []edtypes.Inline{{ID: "1", Text: "x", Link: &edtypes.Link{URL: "/a", Title: "t", Target: "_self"}}}
		got, err := ParseInlines(strings.NewReader(RenderHTML(self)))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, &edtypes.Link{URL: "/a", Title: "t", Target: LinkTarget}, got[0].Link)
	})
}

func TestBlockHTML(t *testing.T) {
	tests := []struct {
		name  string
		block edtypes.Block
		want  string
	}{
		{
			name: "heading",
			block: edtypes.Block{
				BlockType:  edtypes.BlockHeading,
				Attributes: edtypes.Attributes{"level": 3, "align": "center"},
				Content:    []edtypes.Inline{{Text: "Title"}},
			},
			want: `<h3 style="text-align: center">Title</h3>`,
		},
		{
			name: "ordered list",
			block: edtypes.Block{
				BlockType:  edtypes.BlockList,
				Attributes: edtypes.Attributes{"listType": "ordered", "startNumber": 3},
				Children:   []edtypes.ListItem{{Content: []edtypes.Inline{{Text: "a"}}}, {Content: []edtypes.Inline{{Text: "b"}}}},
			},
			want: `<ol start="3"><li>a</li><li>b</li></ol>`,
		},
		{
			name: "table",
			block: edtypes.Block{
				BlockType: edtypes.BlockTable,
				Data:      edtypes.TableData{Rows: 1, Cols: 2, Cells: [][]string{{"a", "<b>"}}},
			},
			want: `<table><tr><td>a</td><td>&lt;b&gt;</td></tr></table>`,
		},
		{
			name: "metric",
			block: edtypes.Block{
				BlockType: edtypes.BlockMetric,
				Data:      edtypes.MetricData{MetricName: "CO2", Category: edtypes.MetricEnvironmental, Value: 12.5, Unit: "t"},
			},
			want: `<div data-metric="environmental">CO2: 12.5 t</div>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BlockHTML(tt.block))
		})
	}
}
