package dialogue

// Revealer shows text one character at a time. Every Start bumps the
// generation; a callback carrying an older generation does nothing, so a
// restarted reveal never receives characters from the one it replaced.
type Revealer struct {
	sched    Scheduler
	onChange func()

	gen   uint64
	text  []rune
	shown int
	timer Timer
}

// NewRevealer creates a revealer. onChange, if set, runs after each step.
func NewRevealer(sched Scheduler, onChange func()) *Revealer {
	return &Revealer{sched: sched, onChange: onChange}
}

// Start begins revealing text from zero characters, cancelling any reveal
// in flight.
func (r *Revealer) Start(text string, speed Speed) {
	r.Cancel()
	r.text = []rune(text)
	r.shown = 0

	delay := speed.Delay()
	if delay == 0 || len(r.text) == 0 {
		r.shown = len(r.text)
		return
	}

	gen := r.gen
	var step func()
	step = func() {
		if gen != r.gen {
			return
		}
		r.shown++
		if r.shown < len(r.text) {
			r.timer = r.sched.AfterFunc(delay, step)
		} else {
			r.timer = nil
		}
		if r.onChange != nil {
			r.onChange()
		}
	}
	r.timer = r.sched.AfterFunc(delay, step)
}

// Cancel stops the reveal in flight and invalidates its callbacks.
func (r *Revealer) Cancel() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// Complete shows the remaining text immediately.
func (r *Revealer) Complete() {
	r.Cancel()
	r.shown = len(r.text)
}

// Clear cancels the reveal and drops its text.
func (r *Revealer) Clear() {
	r.Cancel()
	r.text = nil
	r.shown = 0
}

// Visible returns the characters revealed so far.
func (r *Revealer) Visible() string {
	return string(r.text[:r.shown])
}

// Done reports whether all text is visible.
func (r *Revealer) Done() bool {
	return r.shown == len(r.text)
}

// Generation identifies the current reveal.
func (r *Revealer) Generation() uint64 {
	return r.gen
}
