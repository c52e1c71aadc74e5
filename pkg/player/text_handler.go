package player

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/spindle/pkg/domain"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// initPump starts the background reader so Input can honor ctx.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, ev domain.Event) error {
	switch ev.Type {
	case domain.EventDialog:
		line := ev.Text
		if ev.Speaker != "" {
			line = ev.Speaker + ": " + ev.Text
		}
		_, err := fmt.Fprintln(h.Writer, h.render(line))
		return err

	case domain.EventOptions:
		if ev.Speaker != "" {
			if _, err := fmt.Fprintf(h.Writer, "%s:\n", ev.Speaker); err != nil {
				return err
			}
		}
		for i, opt := range ev.Options {
			marker := ""
			if opt.Used {
				marker = " (seen)"
			}
			if _, err := fmt.Fprintf(h.Writer, "  %d) %s%s\n", i+1, h.render(opt.Text), marker); err != nil {
				return err
			}
		}
		return nil

	case domain.EventEnd:
		_, err := fmt.Fprintln(h.Writer, "[end]")
		return err
	}
	return nil
}

func (h *TextHandler) render(s string) string {
	if h.Renderer == nil {
		return s
	}
	rendered, err := h.Renderer(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(rendered)
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}
