package browser

import (
	"fmt"
	"math/rand"
	"time"
)

// RandomDelay waits for a random duration in [min, max]. A zero max disables it.
func RandomDelay(min, max time.Duration) {
	if max <= 0 {
		return
	}
	if min >= max {
		time.Sleep(min)
		return
	}
	time.Sleep(min + time.Duration(rand.Int63n(int64(max-min))))
}

// HumanScroll scrolls down in steps and back to the top so lazily rendered
// listings get attached before extraction.
func HumanScroll(page Page, pause time.Duration) error {
	for _, y := range []int{500, 1000} {
		if _, err := page.Evaluate(scrollTo(y)); err != nil {
			return err
		}
		RandomDelay(pause/2, pause)
	}
	_, err := page.Evaluate(scrollTo(0))
	return err
}

func scrollTo(y int) string {
	return fmt.Sprintf("window.scrollTo(0, %d)", y)
}
