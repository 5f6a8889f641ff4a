package scraper

import (
	"reflect"
	"testing"
)

func TestNumberFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  int
	}{
		{"https://shamela.ws/book/123/45", 45},
		{"/book/123/45#p1", 45},
		{"/book/123", 123},
		{"/book/123/", 0},
		{"12abc", 12},
		{"javascript:void(0)", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := NumberFromURL(tt.input); got != tt.want {
			t.Errorf("NumberFromURL(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestStartEndPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		volumes map[string]int
		pages   int
		want    map[string][2]int
	}{
		{
			name:    "empty",
			volumes: map[string]int{},
			pages:   10,
			want:    map[string][2]int{},
		},
		{
			name:    "numeric names sort numerically",
			volumes: map[string]int{"10": 90, "2": 11, "1": 1},
			pages:   120,
			want:    map[string][2]int{"1": {1, 10}, "2": {11, 89}, "10": {90, 120}},
		},
		{
			name:    "named volumes sort by start page",
			volumes: map[string]int{"المقدمة": 1, "الجزء الثاني": 40, "الجزء الأول": 5},
			pages:   60,
			want: map[string][2]int{
				"المقدمة":      {1, 4},
				"الجزء الأول":  {5, 39},
				"الجزء الثاني": {40, 60},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StartEndPages(tt.volumes, tt.pages); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("StartEndPages() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCutTOC(t *testing.T) {
	t.Parallel()

	toc := []TocItem{
		{Page: 1, Text: "a"},
		{Page: 3, Text: "b", Children: []TocItem{
			{Page: 3, Text: "b1"},
			{Page: 9, Text: "b2"},
		}},
		{Page: 5, Text: "c", Children: []TocItem{{Page: 12, Text: "c1"}}},
		{Page: 11, Text: "d"},
		{Page: 6, Text: "after break"},
	}

	got := CutTOC(toc, [2]int{2, 10})
	want := []TocItem{
		{Page: 3, Text: "b", Children: []TocItem{{Page: 3, Text: "b1"}, {Page: 9, Text: "b2"}}},
		{Page: 5, Text: "c"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CutTOC() = %+v, want %+v", got, want)
	}

	if got := CutTOC(toc, [2]int{100, 200}); len(got) != 0 {
		t.Errorf("Expected empty TOC, got %+v", got)
	}
}
