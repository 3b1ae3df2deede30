package dialogue

import (
	"testing"

	"storymap/internal/models"

	"github.com/google/go-cmp/cmp"
)

func goTo(text string, section int) models.Option {
	return models.Option{Text: text, Action: models.ActionGoto, Section: &section}
}

func closeOpt(text string) models.Option {
	return models.Option{Text: text, Action: models.ActionClose}
}

func labels(opts []VisibleOption) []string {
	out := []string{}
	for _, o := range opts {
		out = append(out, o.Label())
	}
	return out
}

func TestVisibleOptions(t *testing.T) {
	sections := []models.Section{{Speaker: "A", Text: "zero"}, {Speaker: "A", Text: "one"}, {Speaker: "A", Text: "two"}}

	tests := []struct {
		name    string
		options []models.Option
		current int
		want    []string
	}{
		{
			name:    "single close",
			options: []models.Option{closeOpt("Bye")},
			current: 0,
			want:    []string{"1. Bye"},
		},
		{
			name:    "two options to the same other section",
			options: []models.Option{goTo("Ask about boats", 1), goTo("Ask about fish", 1)},
			current: 0,
			want:    []string{"1. Ask about boats", "2. Ask about fish"},
		},
		{
			name:    "option to current section excluded and rest renumbered",
			options: []models.Option{goTo("Start over", 0), goTo("Again", 1), goTo("Onward", 2), closeOpt("Leave")},
			current: 1,
			want:    []string{"1. Start over", "2. Onward", "3. Leave"},
		},
		{
			name: "close kept even when its nominal section is current",
			options: []models.Option{
				{Text: "Leave", Action: models.ActionClose, Section: new(int)},
				goTo("Here", 0),
			},
			current: 0,
			want:    []string{"1. Leave"},
		},
		{
			name:    "no options",
			options: nil,
			current: 2,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.StoryPoint{ID: "p", Sections: sections, Options: tt.options}
			got := VisibleOptions(p, tt.current)
			if diff := cmp.Diff(tt.want, labels(got)); diff != "" {
				t.Errorf("labels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestVisibleOptionsProperties(t *testing.T) {
	sections := make([]models.Section, 4)
	var options []models.Option
	for i := 0; i < 12; i++ {
		if i%5 == 4 {
			options = append(options, closeOpt("close"))
			continue
		}
		options = append(options, goTo("go", i%4))
	}
	p := &models.StoryPoint{ID: "p", Sections: sections, Options: options}

	for current := range sections {
		got := VisibleOptions(p, current)
		lastSource := -1
		for i, o := range got {
			if o.Number != i+1 {
				t.Errorf("section %d: option %d numbered %d", current, i, o.Number)
			}
			if target, ok := o.Target(); ok && target == current {
				t.Errorf("section %d: offered option to the current section", current)
			}
			// Original relative order: find the source index after the previous one.
			src := -1
			for j := lastSource + 1; j < len(options); j++ {
				if options[j].Action == o.Action && cmp.Equal(options[j].Section, o.Section) {
					src = j
					break
				}
			}
			if src < 0 {
				t.Fatalf("section %d: option %d out of original order", current, i)
			}
			lastSource = src
		}
	}
}
