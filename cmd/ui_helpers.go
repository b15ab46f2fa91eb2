package cmd

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// startInlineSpinner renders a single-line spinner with the given text,
// redrawing in place at the given interval. It returns a stop function that
// clears the line and waits for the render goroutine to finish.
//
// Used for short waits (connection checks, model pulls) where a full pterm
// area would be overkill.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				// Clear the spinner line completely before returning.
				width := len(frames[i%len(frames)]) + 1 + len(text)
				fmt.Fprintf(w, "\r%*s\r", width, "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], text)
				i++
			}
		}
	}()
	return func() {
		close(stop)
		wg.Wait()
	}
}
