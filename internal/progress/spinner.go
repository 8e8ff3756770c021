package progress

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"pkt.systems/hconsole/internal/theme"
)

// DefaultTick is the redraw interval.
const DefaultTick = 50 * time.Millisecond

var frames = []string{`\`, "|", "/", "-"}

// Outcome is the end state of a spinner.
type Outcome int

const (
	// Done means the work finished successfully.
	Done Outcome = iota + 1
	// Fail means the work returned an error.
	Fail
	// Timeout means the deadline passed before the work finished.
	Timeout
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "Done"
	case Fail:
		return "Fail"
	case Timeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// Result describes how a spinner ended.
type Result struct {
	Outcome Outcome
	Message string
	Err     error
	Elapsed time.Duration
}

// Func is the unit of work a spinner waits on. It receives a context that is
// cancelled when the spinner times out.
type Func func(ctx context.Context) (string, error)

// Options tunes a Spinner.
type Options struct {
	Theme *theme.Theme
	Tick  time.Duration
}

type finished struct {
	message string
	err     error
}

// Spinner animates a label with elapsed time until its work completes, fails
// or times out. Exactly one end state is rendered.
type Spinner struct {
	out     io.Writer
	label   string
	timeout time.Duration
	theme   *theme.Theme
	tick    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	work   chan finished
	result chan Result
	once   sync.Once
}

// New prepares a spinner writing to out.
func New(out io.Writer, label string, timeout time.Duration, opts Options) *Spinner {
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	return &Spinner{
		out:     out,
		label:   label,
		timeout: timeout,
		theme:   opts.Theme,
		tick:    opts.Tick,
		work:    make(chan finished, 1),
		result:  make(chan Result, 1),
	}
}

// Start begins rendering. It must be called once before Consume.
func (s *Spinner) Start(ctx context.Context) {
	s.once.Do(func() {
		s.ctx, s.cancel = context.WithCancel(ctx)
		go s.loop()
	})
}

// Consume runs fn in the background; its outcome ends the spinner unless the
// timeout fires first, in which case the late outcome is ignored.
func (s *Spinner) Consume(fn Func) {
	go func() {
		msg, err := fn(s.ctx)
		s.work <- finished{message: msg, err: err}
	}()
}

// Wait blocks until the spinner has rendered its end state.
func (s *Spinner) Wait() Result {
	res := <-s.result
	s.result <- res
	return res
}

// Run is Start, Consume and Wait in one call.
func (s *Spinner) Run(ctx context.Context, fn Func) Result {
	s.Start(ctx)
	s.Consume(fn)
	return s.Wait()
}

func (s *Spinner) loop() {
	defer s.cancel()
	start := time.Now()
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	var deadline <-chan time.Time
	if s.timeout > 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	i := 0
	s.draw(frames[i], time.Since(start))
	for {
		select {
		case w := <-s.work:
			res := Result{Outcome: Done, Message: w.message, Elapsed: time.Since(start)}
			if w.err != nil {
				res = Result{Outcome: Fail, Message: w.err.Error(), Err: w.err, Elapsed: res.Elapsed}
			}
			s.finish(res)
			return
		case <-deadline:
			s.finish(Result{Outcome: Timeout, Elapsed: time.Since(start)})
			return
		case <-ticker.C:
			i = (i + 1) % len(frames)
			s.draw(frames[i], time.Since(start))
		}
	}
}

func (s *Spinner) draw(frame string, elapsed time.Duration) {
	fmt.Fprintf(s.out, "\r%s %s %d ms ", s.label, frame, elapsed.Milliseconds())
}

func (s *Spinner) finish(res Result) {
	tag := fmt.Sprintf("[%s %dms]", res.Outcome, res.Elapsed.Milliseconds())
	switch res.Outcome {
	case Done:
		tag = s.theme.Done(tag)
	case Fail:
		tag = s.theme.Fail(tag)
	case Timeout:
		tag = s.theme.Timeout(tag)
	}
	fmt.Fprintf(s.out, "\r\x1b[2K%s %s\r\n", tag, res.Message)
	s.result <- res
}
