package tagpicker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fruitDirectory() []Tag {
	return []Tag{
		{ID: "t-grape", Name: "grape"},
		{ID: "t-apple", Name: "apple"},
		{ID: "t-banana", Name: "banana"},
	}
}

func TestAddIsIdempotentAndKeepsOrder(t *testing.T) {
	s := NewSelection()
	assert.True(t, s.Add("b"))
	assert.True(t, s.Add("a"))
	assert.False(t, s.Add("b"))
	assert.False(t, s.Add(""))

	assert.Equal(t, []string{"b", "a"}, s.IDs())
}

func TestNewSelectionDropsDuplicates(t *testing.T) {
	s := NewSelection("x", "y", "x")
	assert.Equal(t, []string{"x", "y"}, s.IDs())
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	s := NewSelection("a")
	assert.NotPanics(t, func() {
		assert.False(t, s.Remove("zzz"))
	})
	assert.Equal(t, []string{"a"}, s.IDs())

	assert.True(t, s.Remove("a"))
	assert.Empty(t, s.IDs())
}

func TestFilterOnlyUnselected(t *testing.T) {
	s := NewSelection("t-banana")
	s.LoadDirectory(fruitDirectory())

	got := s.Filter("ap")
	assert.Equal(t, []Tag{{ID: "t-apple", Name: "apple"}}, got)

	// "an" 只命中 banana，而 banana 已选
	assert.Empty(t, s.Filter("an"))
}

func TestFilterIsCaseInsensitiveAndSorted(t *testing.T) {
	s := NewSelection()
	s.LoadDirectory(fruitDirectory())

	assert.Equal(t, []Tag{{ID: "t-grape", Name: "grape"}}, s.Filter("GR"))

	all := s.Filter("")
	names := make([]string, 0, len(all))
	for _, tag := range all {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"apple", "banana", "grape"}, names)
}

func TestResolveAndDirectoryInAnyOrderKeepEdits(t *testing.T) {
	orders := map[string]func(s *Selection){
		"resolve first": func(s *Selection) {
			s.MergeResolved([]Tag{{ID: "t-banana", Name: "banana"}})
			s.Add("t-apple")
			s.LoadDirectory(fruitDirectory())
		},
		"directory first": func(s *Selection) {
			s.LoadDirectory(fruitDirectory())
			s.Add("t-apple")
			s.MergeResolved([]Tag{{ID: "t-banana", Name: "banana"}})
		},
	}

	for name, run := range orders {
		t.Run(name, func(t *testing.T) {
			s := NewSelection("t-banana")
			run(s)

			assert.Equal(t, []Tag{
				{ID: "t-banana", Name: "banana"},
				{ID: "t-apple", Name: "apple"},
			}, s.Chips())
		})
	}
}

func TestResolveDoesNotResurrectRemovedTag(t *testing.T) {
	s := NewSelection("t-banana")
	s.Remove("t-banana")
	s.MergeResolved([]Tag{{ID: "t-banana", Name: "banana"}})

	assert.Empty(t, s.IDs())
}

func TestChipsFallBackToID(t *testing.T) {
	s := NewSelection("t-unknown")
	assert.Equal(t, []Tag{{ID: "t-unknown", Name: "t-unknown"}}, s.Chips())
}

func TestConcurrentMutation(t *testing.T) {
	s := NewSelection()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Add("t-apple")
		}()
		go func() {
			defer wg.Done()
			s.LoadDirectory(fruitDirectory())
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"t-apple"}, s.IDs())
	assert.True(t, s.DirectoryLoaded())
}
