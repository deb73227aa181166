package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_Do_CoalescesConcurrentCallers(t *testing.T) {
	var g SingleFlight
	var counter int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err, _ := g.Do("catalog", func() (any, error) {
				atomic.AddInt32(&counter, 1)
				time.Sleep(20 * time.Millisecond)
				return "snapshot", nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
			}
			if got, _ := v.(string); got != "snapshot" {
				t.Errorf("unexpected shared value %v", v)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
}

func TestSingleFlight_Do_SharesErrors(t *testing.T) {
	var g SingleFlight
	sentinel := errors.New("fetch failed")

	const workers = 8
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err, _ := g.Do("catalog", func() (any, error) {
				time.Sleep(10 * time.Millisecond)
				return nil, sentinel
			})
			errCh <- err
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if !errors.Is(err, sentinel) {
			t.Fatalf("expected shared sentinel error, got %v", err)
		}
	}
}

func TestSingleFlight_Do_DistinctKeysRunIndependently(t *testing.T) {
	var g SingleFlight
	var counter int32

	if _, err, _ := g.Do("a", func() (any, error) {
		atomic.AddInt32(&counter, 1)
		return nil, nil
	}); err != nil {
		t.Fatalf("call a failed: %v", err)
	}
	if _, err, _ := g.Do("b", func() (any, error) {
		atomic.AddInt32(&counter, 1)
		return nil, nil
	}); err != nil {
		t.Fatalf("call b failed: %v", err)
	}

	if got := atomic.LoadInt32(&counter); got != 2 {
		t.Fatalf("expected both keys to execute, got %d", got)
	}
}
