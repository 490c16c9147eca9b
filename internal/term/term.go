package term

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// DefaultWidth is the width of output that is not a terminal.
const DefaultWidth = 80

// Output is where a command prints. Color and wrapping depend on whether
// it is a terminal.
type Output struct {
	w   io.Writer
	f   *os.File
	tty bool
}

func FromWriter(w io.Writer) *Output {
	o := &Output{w: w}
	if f, ok := w.(*os.File); ok {
		o.f = f
		o.tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return o
}

func (o *Output) Write(p []byte) (int, error) { return o.w.Write(p) }

func (o *Output) IsTTY() bool { return o.tty }

// Width returns the number of columns of the terminal or DefaultWidth.
func (o *Output) Width() int {
	if !o.tty {
		return DefaultWidth
	}
	w, _, err := term.GetSize(int(o.f.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}
