package dialogue

import (
	"fmt"

	"storymap/internal/models"
)

// MaxKeyedOption is the highest option number reachable from the keyboard
const MaxKeyedOption = 9

// VisibleOption is an option as offered for one section, with its number
type VisibleOption struct {
	Number int
	models.Option
}

// Label is the rendered text, e.g. "1. Bye"
func (o VisibleOption) Label() string {
	return fmt.Sprintf("%d. %s", o.Number, o.Text)
}

// VisibleOptions returns the options offered while viewing section current.
// Options leading to the section already on screen are dropped; close options
// are always kept. The rest are numbered from 1 in their original order.
func VisibleOptions(p *models.StoryPoint, current int) []VisibleOption {
	var out []VisibleOption
	for _, o := range p.Options {
		if target, ok := o.Target(); ok && target == current {
			continue
		}
		out = append(out, VisibleOption{Number: len(out) + 1, Option: o})
	}
	return out
}
