package draft

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/tagpicker"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":         "hello-world",
		"My First Post":         "my-first-post",
		"  --Go 1.24 rocks--  ": "go-1-24-rocks",
		"Ünïcode café":          "n-code-caf",
		"!!!":                   "",
		"":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestSlugifyShape(t *testing.T) {
	shape := regexp.MustCompile(`^([a-z0-9]+(-[a-z0-9]+)*)?$`)
	for _, in := range []string{"a  b", "__x__", "Tabs\tand\nlines", "mixed-CASE_and.dots", "123 456"} {
		assert.Regexp(t, shape, Slugify(in), in)
	}
}

func TestNewDraftDefaults(t *testing.T) {
	d := New("u1")
	assert.True(t, d.IsNew())
	assert.NotEmpty(t, d.ID())
	assert.Equal(t, "u1", d.AuthorID())
	assert.Equal(t, model.PostStatusDraft, d.Status())
	assert.Nil(t, d.PublishedAt())
	assert.Empty(t, d.Tags().IDs())
	assert.Equal(t, Fields{}, d.Fields())
}

func TestSettersDoNotValidate(t *testing.T) {
	d := New("u1")
	d.SetTitle("   ")
	assert.Equal(t, "   ", d.Fields().Title)

	err := d.Snapshot().Validate()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "title", ve.Field)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateRejectsEmptySlugOnCreate(t *testing.T) {
	d := New("u1")
	d.SetTitle("!!!")

	err := d.Snapshot().Validate()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "slug", ve.Field)
}

func TestApplyPatch(t *testing.T) {
	d := New("u1")
	require.NoError(t, d.Apply(Patch{
		Title:      strPtr("My First Post"),
		Excerpt:    strPtr("short"),
		CategoryID: strPtr("c1"),
	}))

	f := d.Fields()
	assert.Equal(t, "My First Post", f.Title)
	assert.Equal(t, "short", f.Excerpt)
	require.NotNil(t, f.CategoryID)
	assert.Equal(t, "c1", *f.CategoryID)

	require.NoError(t, d.Apply(Patch{ClearCategory: true, CategoryID: strPtr("c2")}))
	assert.Nil(t, d.Fields().CategoryID)
	assert.Equal(t, "My First Post", d.Fields().Title)
}

func TestPatchEmpty(t *testing.T) {
	assert.True(t, Patch{}.Empty())
	assert.False(t, Patch{Title: strPtr("")}.Empty())
	assert.False(t, Patch{ClearCategory: true}.Empty())
}

func TestEditorWritesThroughToContent(t *testing.T) {
	d := New("u1")
	d.Editor().InsertText("hello")
	assert.Equal(t, "<p>hello</p>", d.Fields().Content)

	d.Editor().Select(0, 0, 5)
	d.Editor().ToggleBold()
	assert.Equal(t, "<p><strong>hello</strong></p>", d.Fields().Content)
}

func TestSetContentNormalizes(t *testing.T) {
	d := New("u1")
	require.NoError(t, d.SetContent("<b>hi</b>"))
	assert.Equal(t, "<p><strong>hi</strong></p>", d.Fields().Content)
}

func TestFromPost(t *testing.T) {
	now := time.Now()
	p := &model.Post{
		ID:          "p1",
		AuthorID:    "u1",
		Title:       "Hello",
		Slug:        "hello",
		Content:     "<p>body</p>",
		Status:      model.PostStatusPublished,
		PublishedAt: &now,
	}
	d, err := FromPost("admin", p, []string{"t1", "t2", "t1"})
	require.NoError(t, err)

	assert.False(t, d.IsNew())
	assert.Equal(t, "admin", d.OwnerID())
	assert.Equal(t, "u1", d.AuthorID())
	assert.Equal(t, "p1", d.PostID())
	assert.Equal(t, "hello", d.Slug())
	assert.Equal(t, model.PostStatusPublished, d.Status())
	assert.Equal(t, []string{"t1", "t2"}, d.Tags().IDs())
	assert.Equal(t, "<p>body</p>", d.Editor().HTML())

	// 已有帖子不会重新生成 slug，标题全是符号也可以保存
	d.SetTitle("???")
	assert.NoError(t, d.Snapshot().Validate())
}

func TestMarshalRoundTrip(t *testing.T) {
	d := New("u1")
	d.SetTitle("Hello")
	d.SetCategory("c1")
	d.Tags().Add("t1")
	d.Tags().MergeResolved([]tagpicker.Tag{{ID: "t1", Name: "go"}})
	d.Editor().InsertText("body")

	raw, err := d.Marshal()
	require.NoError(t, err)

	got, err := Unmarshal(raw)
	require.NoError(t, err)

	assert.Equal(t, d.ID(), got.ID())
	assert.Equal(t, "u1", got.OwnerID())
	assert.Equal(t, d.Fields(), got.Fields())
	assert.Equal(t, []tagpicker.Tag{{ID: "t1", Name: "go"}}, got.Tags().Chips())
	assert.Equal(t, "<p>body</p>", got.Editor().HTML())

	// 恢复后的编辑器仍然回写内容，且保留撤销历史
	require.True(t, got.Editor().Undo())
	assert.Equal(t, "", got.Fields().Content)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte("{"))
	assert.Error(t, err)

	_, err = Unmarshal([]byte("{}"))
	assert.Error(t, err)
}
