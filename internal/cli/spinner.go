package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerTick = 80 * time.Millisecond

// spinner animates a message on w until stopped or ctx ends.
type spinner struct {
	w    io.Writer
	msg  string
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func startSpinner(ctx context.Context, w io.Writer, msg string) *spinner {
	s := &spinner{w: w, msg: msg, stop: make(chan struct{}), done: make(chan struct{})}
	go s.run(ctx)
	return s
}

func (s *spinner) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(spinnerTick)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			frame := spinnerFrames[i%len(spinnerFrames)]
			fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.msg))
		}
	}
}

// Stop waits for the animation to end and clears the line. Calling it more
// than once is fine.
func (s *spinner) Stop() {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.msg)+4))
	})
}

// withSpinner runs fn while a spinner shows msg.
func withSpinner(ctx context.Context, w io.Writer, msg string, fn func(context.Context) error) error {
	s := startSpinner(ctx, w, msg)
	defer s.Stop()
	return fn(ctx)
}
