package recipes

// StepCursor walks through the steps of one recipe. Moves past either end
// are clamped.
type StepCursor struct {
	steps []string
	index int
}

// NewStepCursor starts at step n (zero based), clamped to the valid range.
func NewStepCursor(steps []string, n int) *StepCursor {
	c := &StepCursor{steps: steps}
	c.Jump(n)
	return c
}

func (c *StepCursor) Len() int {
	return len(c.steps)
}

// Index is the zero based position of the current step.
func (c *StepCursor) Index() int {
	return c.index
}

// Current returns the current step, or "" when there are no steps.
func (c *StepCursor) Current() string {
	if len(c.steps) == 0 {
		return ""
	}
	return c.steps[c.index]
}

func (c *StepCursor) Next() {
	c.Jump(c.index + 1)
}

func (c *StepCursor) Prev() {
	c.Jump(c.index - 1)
}

func (c *StepCursor) Jump(n int) {
	switch {
	case len(c.steps) == 0 || n < 0:
		c.index = 0
	case n >= len(c.steps):
		c.index = len(c.steps) - 1
	default:
		c.index = n
	}
}

func (c *StepCursor) HasPrev() bool {
	return c.index > 0
}

// Done reports whether the cursor is on the last step.
func (c *StepCursor) Done() bool {
	return c.index >= len(c.steps)-1
}

// Progress is the share of steps reached so far, in percent.
func (c *StepCursor) Progress() int {
	if len(c.steps) == 0 {
		return 0
	}
	return (c.index + 1) * 100 / len(c.steps)
}
