package cmd

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sentrascan/sentra/internal/scan"
)

// progressPrinter renders scan events as a single updating terminal
// line. Updates are coalesced through a buffered channel plus ticker so
// fast scans cannot flood stdout.
type progressPrinter struct {
	mu       sync.Mutex
	phase    string
	current  int
	total    int
	item     string
	updates  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newProgressPrinter() *progressPrinter {
	return &progressPrinter{
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (p *progressPrinter) Start() {
	go p.loop()
}

// Listen is the scan.Listener fed into every scanner.
func (p *progressPrinter) Listen(e scan.Event) {
	switch e.Kind {
	case scan.EventProgress:
		p.mu.Lock()
		p.phase = e.Progress.Phase
		p.current = e.Progress.Current
		p.total = e.Progress.Total
		p.item = e.Progress.Item
		p.mu.Unlock()

		select {
		case p.updates <- struct{}{}:
		default:
		}
	case scan.EventCompleted, scan.EventAborted:
		p.Stop()
	}
}

func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		fmt.Fprintf(os.Stdout, "\r%s\r", strings.Repeat(" ", 80))
	})
}

func (p *progressPrinter) loop() {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
			p.print()
		case <-ticker.C:
			p.print()
		case <-p.done:
			return
		}
	}
}

func (p *progressPrinter) print() {
	p.mu.Lock()
	phase, current, total, item := p.phase, p.current, p.total, p.item
	p.mu.Unlock()

	if phase == "" {
		return
	}
	percent := 0.0
	if total > 0 {
		percent = float64(current) / float64(total) * 100
	}
	if len(item) > 40 {
		item = item[:37] + "..."
	}
	fmt.Fprintf(os.Stdout, "\r[%s] %d/%d (%.1f%%) %s", phase, current, total, percent, item)
}
