package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPoolSubmitDropWhenBusy(t *testing.T) {
	p := New()
	defer p.Close()
	ctx := context.Background()

	release := make(chan struct{})
	done := make(chan struct{})
	ok := p.Submit(ctx, func(context.Context) { <-release; close(done) })
	if !ok {
		t.Fatal("first submit should succeed")
	}
	if !p.Busy() {
		t.Fatal("pool should report busy while a job is in flight")
	}
	if p.Submit(ctx, func(context.Context) {}) {
		t.Fatal("second submit must drop while the first is in flight")
	}

	close(release)
	<-done

	deadline := time.Now().Add(time.Second)
	for p.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("pool stayed busy after job finished")
		}
		time.Sleep(time.Millisecond)
	}

	ran := make(chan struct{})
	if !p.Submit(ctx, func(context.Context) { close(ran) }) {
		t.Fatal("submit should succeed once idle")
	}
	<-ran
}

func TestPoolRecoversFromPanic(t *testing.T) {
	p := New()
	defer p.Close()

	p.Submit(context.Background(), func(context.Context) { panic("boom") })
	deadline := time.Now().Add(time.Second)
	for p.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("pool stayed busy after panic")
		}
		time.Sleep(time.Millisecond)
	}

	ran := make(chan struct{})
	if !p.Submit(context.Background(), func(context.Context) { close(ran) }) {
		t.Fatal("submit after panic should succeed")
	}
	<-ran
}

func TestSubmitAfterClose(t *testing.T) {
	p := New()
	p.Close()
	if p.Submit(context.Background(), func(context.Context) {}) {
		t.Error("submit after close must be refused")
	}
	p.Close()
}

func TestConcurrentSubmitAndClose(t *testing.T) {
	for i := 0; i < 200; i++ {
		p := New()
		start := make(chan struct{})
		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				p.Submit(context.Background(), func(context.Context) {})
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			p.Close()
		}()
		close(start)
		wg.Wait()
		p.Close()
	}
}
