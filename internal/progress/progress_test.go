package progress

import (
	"io"
	"sync"
	"testing"
)

func TestBarPublishConcurrently(t *testing.T) {
	bar := &Bar{enabled: true, out: io.Discard}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 1; i <= 25; i++ {
				bar.Publish(i, 25, "item")
			}
		}()
	}
	wg.Wait()
	bar.Finish("done")

	if bar.bar == nil {
		t.Fatal("expected the bar to be created on first publish")
	}
}

func TestBarDisabledIsNoop(t *testing.T) {
	bar := &Bar{out: io.Discard}
	bar.Publish(1, 10, "item")
	bar.Finish("done")
	if bar.bar != nil {
		t.Fatal("disabled bar must not allocate")
	}
}
