package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Spindle banner to w, colored when the terminal supports it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{`   ____       _           ____   `, "#818cf8"},
		{`  / __/__    (_)__  ___/ / /__   `, "#a78bfa"},
		{` _\ \/ _ \  / / _ \/ _  / / -_)  `, "#c084fc"},
		{`/___/ .__/ /_/_//_/\_,_/_/\__/   `, "#e879f9"},
		{`   /_/                           `, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
