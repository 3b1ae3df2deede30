package dialogue

import (
	"errors"
	"testing"
	"time"

	"storymap/internal/models"
	"storymap/internal/view"

	"github.com/google/go-cmp/cmp"
)

type fakeSelector struct {
	selected string
	selects  int
	clears   int
}

func (f *fakeSelector) Select(id string) {
	f.selected = id
	f.selects++
}

func (f *fakeSelector) ClearSelection() {
	f.selected = ""
	f.clears++
}

func marketPoint() *models.StoryPoint {
	return &models.StoryPoint{
		ID:       "market",
		Title:    "Market",
		Sections: []models.Section{{Speaker: "A", Text: "Hi"}},
		Options:  []models.Option{closeOpt("Bye")},
	}
}

func dockPoint() *models.StoryPoint {
	return &models.StoryPoint{
		ID:    "dock",
		Title: "Dock",
		Sections: []models.Section{
			{Speaker: "Harbourmaster", Text: "Ahoy."},
			{Speaker: "Harbourmaster", Text: "The boats leave at dawn."},
			{Speaker: "Harbourmaster", Text: "Fish? Ask the market."},
		},
		Options: []models.Option{
			goTo("Ask about boats", 1),
			goTo("Ask about fish", 2),
			goTo("Back", 0),
			closeOpt("Leave"),
		},
	}
}

func newTestEngine() (*Engine, *fakeSelector, *ManualScheduler) {
	sched := NewManualScheduler()
	sel := &fakeSelector{}
	e := New(sched, sel, WelcomeContent{
		Title:   "Harbour Town",
		Section: models.Section{Speaker: "Guide", Text: "Welcome!"},
	}, nil)
	return e, sel, sched
}

func panelLabels(e *Engine) []string {
	var f view.Frame
	e.Render(&f)
	out := []string{}
	for _, o := range f.Panel.Options {
		out = append(out, o.Label)
	}
	return out
}

func TestMarketScenario(t *testing.T) {
	e, sel, _ := newTestEngine()
	p := marketPoint()

	if err := e.SelectPoint(p); err != nil {
		t.Fatalf("SelectPoint: %v", err)
	}
	st := e.State()
	if st.Mode != ModeDialogue || st.Point != p || st.Section != 0 {
		t.Fatalf("State() = %+v, want dialogue on market section 0", st)
	}
	if sel.selected != "market" {
		t.Errorf("selected marker = %q, want market", sel.selected)
	}
	if diff := cmp.Diff([]string{"1. Bye"}, panelLabels(e)); diff != "" {
		t.Errorf("options (-want +got):\n%s", diff)
	}

	if err := e.ChooseOption(1); err != nil {
		t.Fatalf("ChooseOption(1): %v", err)
	}
	st = e.State()
	if st.Mode != ModeHidden {
		t.Errorf("Mode = %v, want hidden", st.Mode)
	}
	if st.Point != p {
		t.Error("closing forgot the active point")
	}
	if sel.selected != "" {
		t.Errorf("marker %q still selected after close", sel.selected)
	}
}

func TestGotoNavigatesAndRefiltersOptions(t *testing.T) {
	e, _, _ := newTestEngine()
	if err := e.SelectPoint(dockPoint()); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"1. Ask about boats", "2. Ask about fish", "3. Leave"}, panelLabels(e)); diff != "" {
		t.Errorf("section 0 options (-want +got):\n%s", diff)
	}

	if err := e.ChooseOption(1); err != nil {
		t.Fatal(err)
	}
	if e.State().Section != 1 {
		t.Fatalf("Section = %d, want 1", e.State().Section)
	}
	if diff := cmp.Diff([]string{"1. Ask about fish", "2. Back", "3. Leave"}, panelLabels(e)); diff != "" {
		t.Errorf("section 1 options (-want +got):\n%s", diff)
	}

	var f view.Frame
	e.Render(&f)
	if f.Panel.Speaker != "Harbourmaster" || f.Panel.Title != "Dock" || f.Panel.PointID != "dock" {
		t.Errorf("panel = %+v", f.Panel)
	}
}

func TestCloseIgnoresNominalSection(t *testing.T) {
	e, _, _ := newTestEngine()
	one := 1
	p := &models.StoryPoint{
		ID:       "well",
		Sections: []models.Section{{Text: "a"}, {Text: "b"}},
		Options:  []models.Option{{Text: "Leave", Action: models.ActionClose, Section: &one}},
	}
	if err := e.SelectPoint(p); err != nil {
		t.Fatal(err)
	}
	if err := e.ChooseOption(1); err != nil {
		t.Fatal(err)
	}
	if e.Mode() != ModeHidden {
		t.Errorf("Mode = %v, want hidden", e.Mode())
	}
}

func TestKeySelectsNumberedOption(t *testing.T) {
	e, _, _ := newTestEngine()
	if err := e.SelectPoint(dockPoint()); err != nil {
		t.Fatal(err)
	}

	if handled, _ := e.Key('x'); handled {
		t.Error("non-digit key handled")
	}
	if handled, _ := e.Key('0'); handled {
		t.Error("key 0 handled")
	}
	if handled, _ := e.Key('7'); handled {
		t.Error("key beyond option count handled")
	}

	handled, err := e.Key('2')
	if !handled || err != nil {
		t.Fatalf("Key('2') = %v, %v", handled, err)
	}
	if e.State().Section != 2 {
		t.Errorf("Section = %d, want 2", e.State().Section)
	}

	if handled, _ := e.Key('3'); !handled {
		t.Fatal("Key('3') not handled")
	}
	if e.Mode() != ModeHidden {
		t.Fatalf("Mode = %v, want hidden", e.Mode())
	}
	if handled, _ := e.Key('1'); handled {
		t.Error("digit handled while panel hidden")
	}
}

func TestWelcomeMode(t *testing.T) {
	e, sel, _ := newTestEngine()

	if e.BackdropClick() {
		t.Error("backdrop click dismissed a hidden panel")
	}

	e.EnterWelcome()
	st := e.State()
	if st.Mode != ModeWelcome || st.Point != nil {
		t.Fatalf("State() = %+v, want welcome with no point", st)
	}
	var f view.Frame
	e.Render(&f)
	if !f.Panel.Visible || f.Panel.Mode != "welcome" || f.Panel.Title != "Harbour Town" || f.Panel.Speaker != "Guide" {
		t.Errorf("welcome panel = %+v", f.Panel)
	}
	if diff := cmp.Diff([]string{"1. Start exploring"}, panelLabels(e)); diff != "" {
		t.Errorf("welcome options (-want +got):\n%s", diff)
	}

	if !e.BackdropClick() {
		t.Fatal("backdrop click did not dismiss welcome")
	}
	if e.Mode() != ModeHidden {
		t.Errorf("Mode = %v, want hidden", e.Mode())
	}
	if sel.clears == 0 {
		t.Error("selection never cleared")
	}
}

func TestBackdropDoesNotDismissDialogue(t *testing.T) {
	e, _, _ := newTestEngine()
	if err := e.SelectPoint(marketPoint()); err != nil {
		t.Fatal(err)
	}
	if e.BackdropClick() {
		t.Error("backdrop click dismissed a story point dialogue")
	}
	if e.Mode() != ModeDialogue {
		t.Errorf("Mode = %v, want dialogue", e.Mode())
	}
}

func TestReselectSwitchesPoint(t *testing.T) {
	e, sel, _ := newTestEngine()
	dock := dockPoint()
	if err := e.SelectPoint(dock); err != nil {
		t.Fatal(err)
	}
	if err := e.ChooseOption(1); err != nil {
		t.Fatal(err)
	}

	market := marketPoint()
	if err := e.SelectPoint(market); err != nil {
		t.Fatal(err)
	}
	st := e.State()
	if st.Point != market || st.Section != 0 {
		t.Errorf("State() = %+v, want market section 0", st)
	}
	if sel.selected != "market" {
		t.Errorf("selected = %q, want market", sel.selected)
	}
}

func TestSpeedChangeRestartsReveal(t *testing.T) {
	e, _, sched := newTestEngine()
	p := &models.StoryPoint{
		ID:       "tower",
		Sections: []models.Section{{Speaker: "Keeper", Text: "The lamp burns all night."}},
		Options:  []models.Option{closeOpt("Bye")},
	}
	if err := e.SelectPoint(p); err != nil {
		t.Fatal(err)
	}

	sched.Advance(15 * 4 * time.Millisecond)
	if got := e.Reveal().Visible(); got != "The " {
		t.Fatalf("Visible() = %q, want %q", got, "The ")
	}

	e.SetSpeed(SpeedZen)
	if e.Speed() != SpeedZen {
		t.Fatalf("Speed() = %v", e.Speed())
	}
	if got := e.Reveal().Visible(); got != "" {
		t.Fatalf("Visible() after speed change = %q, want restart from zero", got)
	}
	sched.Advance(39 * time.Millisecond)
	if got := e.Reveal().Visible(); got != "" {
		t.Fatalf("Visible() = %q before the zen delay elapsed", got)
	}
	sched.Advance(time.Millisecond)
	if got := e.Reveal().Visible(); got != "T" {
		t.Fatalf("Visible() = %q, want %q", got, "T")
	}

	e.SetSpeed(SpeedFast)
	if got := e.Reveal().Visible(); got != "The lamp burns all night." {
		t.Errorf("Visible() = %q, want full text", got)
	}
	if sched.Pending() != 0 {
		t.Errorf("Pending() = %d after fast, want 0", sched.Pending())
	}
}

func TestSpeedChangeWhileHidden(t *testing.T) {
	e, _, sched := newTestEngine()
	e.SetSpeed(SpeedZen)
	if sched.Pending() != 0 {
		t.Errorf("hidden panel scheduled %d reveal steps", sched.Pending())
	}
}

func TestEngineErrors(t *testing.T) {
	e, _, _ := newTestEngine()

	if err := e.ShowSection(0); !errors.Is(err, ErrNoActivePoint) {
		t.Errorf("ShowSection without point = %v, want ErrNoActivePoint", err)
	}
	if err := e.ChooseOption(1); !errors.Is(err, ErrPanelHidden) {
		t.Errorf("ChooseOption while hidden = %v, want ErrPanelHidden", err)
	}
	if err := e.SelectPoint(nil); !errors.Is(err, ErrNoActivePoint) {
		t.Errorf("SelectPoint(nil) = %v, want ErrNoActivePoint", err)
	}

	if err := e.SelectPoint(marketPoint()); err != nil {
		t.Fatal(err)
	}
	if err := e.ShowSection(3); !errors.Is(err, ErrNoSuchSection) {
		t.Errorf("ShowSection(3) = %v, want ErrNoSuchSection", err)
	}
	if err := e.ChooseOption(4); !errors.Is(err, ErrNoSuchOption) {
		t.Errorf("ChooseOption(4) = %v, want ErrNoSuchOption", err)
	}
}

func TestSkipRevealCompletesText(t *testing.T) {
	e, _, sched := newTestEngine()
	if e.SkipReveal() {
		t.Error("SkipReveal() = true with the panel hidden")
	}

	if err := e.SelectPoint(dockPoint()); err != nil {
		t.Fatal(err)
	}
	sched.Advance(SpeedRelaxed.Delay())
	if got := e.Reveal().Visible(); got != "A" {
		t.Fatalf("Visible() = %q, want %q", got, "A")
	}

	if !e.SkipReveal() {
		t.Fatal("SkipReveal() = false mid-reveal")
	}
	if got := e.Reveal().Visible(); got != "Ahoy." || !e.Reveal().Done() {
		t.Errorf("after skip: Visible() = %q, Done() = %v", got, e.Reveal().Done())
	}
	if sched.Pending() != 0 {
		t.Errorf("Pending() = %d after skip", sched.Pending())
	}
	if e.SkipReveal() {
		t.Error("SkipReveal() = true with the text already shown")
	}
}
