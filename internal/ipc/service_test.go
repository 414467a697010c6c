package ipc

import (
	"sync"
	"testing"

	"github.com/fwarner/kidlock/internal/agent"
)

func TestPublishBeforeServeIsNoOp(t *testing.T) {
	s := NewService()

	// no connection yet; every publish path must return without panicking
	s.PublishEvent("login", "kid", map[string]any{"k": "v"})
	s.PublishUserStatus("kid", agent.StatusSnapshot{})
	s.PublishTamper(true, "Clock jumped backwards by 95 seconds")
}

func TestPublishConcurrentWithShutdown(t *testing.T) {
	s := NewService()

	// publishers run on the tick goroutine while Serve clears the
	// connection on shutdown; the nil store stands in for that transition
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.PublishEvent("logout", "kid", nil)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.conn.Store(nil)
		}
	}()
	wg.Wait()
}
