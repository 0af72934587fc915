package dbc

import "time"

// Op identifies which pass an Observer is being told about.
type Op int

const (
	OpDecode Op = iota
	OpEncode
)

func (o Op) String() string {
	if o == OpEncode {
		return "encode"
	}
	return "decode"
}

// Observer receives progress from the record loop. Calls are made
// synchronously on the goroutine running the pass and must return promptly.
type Observer interface {
	// Begin is called once before the first record with the record total.
	Begin(op Op, total int)
	// Step is called after each record with the number done so far.
	Step(op Op, done int)
	// End is called once after a successful pass.
	End(op Op, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) Begin(Op, int)         {}
func (nopObserver) Step(Op, int)          {}
func (nopObserver) End(Op, time.Duration) {}

// ProgressFunc adapts a plain function to Observer. It is called with
// done == total at the end of the pass as well as after every record.
type ProgressFunc func(op Op, done, total int)

type progressObserver struct {
	fn    ProgressFunc
	total int
}

// NewProgressObserver wraps fn as an Observer.
func NewProgressObserver(fn ProgressFunc) Observer {
	return &progressObserver{fn: fn}
}

func (p *progressObserver) Begin(op Op, total int) {
	p.total = total
}

func (p *progressObserver) Step(op Op, done int) {
	p.fn(op, done, p.total)
}

func (p *progressObserver) End(op Op, elapsed time.Duration) {
	p.fn(op, p.total, p.total)
}
