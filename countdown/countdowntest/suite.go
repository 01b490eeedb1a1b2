package countdowntest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/uResolve/countdown"
)

// BaseSuite defines a set of re-usable latch tests that can be executed
// against any concrete type that implements the countdown.Latch interface.
type BaseSuite struct {
	latch countdown.Latch
}

// SetLatch configures the test-suite to run all tests against an instance
// of countdown.Latch.
func (s *BaseSuite) SetLatch(l countdown.Latch) {
	s.latch = l
}

// TestCountDownReleasesWaiter verifies that a waiter returns once the
// count reaches zero and not before.
func (s *BaseSuite) TestCountDownReleasesWaiter(c *check.C) {
	ctx := context.TODO()
	graphID := uuid.New()
	c.Assert(s.latch.Init(ctx, graphID, 2), check.IsNil)

	waitErrCh := s.waitAsync(graphID)

	remaining, err := s.latch.CountDown(ctx, graphID)
	c.Assert(err, check.IsNil)
	c.Assert(remaining, check.Equals, int64(1))

	select {
	case err := <-waitErrCh:
		c.Fatalf("waiter released early; err: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	remaining, err = s.latch.CountDown(ctx, graphID)
	c.Assert(err, check.IsNil)
	c.Assert(remaining, check.Equals, int64(0))

	select {
	case err := <-waitErrCh:
		c.Assert(err, check.IsNil)
	case <-time.After(5 * time.Second):
		c.Fatal("timed out waiting for the latch to be released")
	}
}

// TestZeroCountIsReleased verifies that waiting on a latch initialized with
// a zero count returns immediately.
func (s *BaseSuite) TestZeroCountIsReleased(c *check.C) {
	graphID := uuid.New()
	c.Assert(s.latch.Init(context.TODO(), graphID, 0), check.IsNil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.Assert(s.latch.Wait(ctx, graphID), check.IsNil)
}

// TestCountNeverDropsBelowZero ensures that surplus count downs are
// harmless.
func (s *BaseSuite) TestCountNeverDropsBelowZero(c *check.C) {
	ctx := context.TODO()
	graphID := uuid.New()
	c.Assert(s.latch.Init(ctx, graphID, 1), check.IsNil)

	for i := 0; i < 3; i++ {
		remaining, err := s.latch.CountDown(ctx, graphID)
		c.Assert(err, check.IsNil)
		c.Assert(remaining, check.Equals, int64(0))
	}

	remaining, err := s.latch.Remaining(ctx, graphID)
	c.Assert(err, check.IsNil)
	c.Assert(remaining, check.Equals, int64(0))
}

// TestInvalidCount ensures that negative counts are rejected.
func (s *BaseSuite) TestInvalidCount(c *check.C) {
	err := s.latch.Init(context.TODO(), uuid.New(), -1)
	c.Assert(errors.Is(err, countdown.ErrInvalidCount), check.Equals, true)
}

// TestUnknownLatch verifies that operations on latches that were never
// initialized fail.
func (s *BaseSuite) TestUnknownLatch(c *check.C) {
	ctx := context.TODO()
	graphID := uuid.New()

	_, err := s.latch.CountDown(ctx, graphID)
	c.Assert(errors.Is(err, countdown.ErrUnknownLatch), check.Equals, true)

	_, err = s.latch.Remaining(ctx, graphID)
	c.Assert(errors.Is(err, countdown.ErrUnknownLatch), check.Equals, true)

	err = s.latch.Wait(ctx, graphID)
	c.Assert(errors.Is(err, countdown.ErrUnknownLatch), check.Equals, true)
}

// TestWaitHonorsContext verifies that a wait can be interrupted.
func (s *BaseSuite) TestWaitHonorsContext(c *check.C) {
	graphID := uuid.New()
	c.Assert(s.latch.Init(context.TODO(), graphID, 1), check.IsNil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.latch.Wait(ctx, graphID)
	c.Assert(errors.Is(err, context.DeadlineExceeded), check.Equals, true)
}

// TestDeleteReleasesWaiters verifies that deleting a latch wakes its
// waiters with an error.
func (s *BaseSuite) TestDeleteReleasesWaiters(c *check.C) {
	graphID := uuid.New()
	c.Assert(s.latch.Init(context.TODO(), graphID, 1), check.IsNil)

	waitErrCh := s.waitAsync(graphID)

	// Give the waiter a chance to block.
	time.Sleep(50 * time.Millisecond)
	c.Assert(s.latch.Delete(context.TODO(), graphID), check.IsNil)

	select {
	case err := <-waitErrCh:
		c.Assert(errors.Is(err, countdown.ErrUnknownLatch), check.Equals, true)
	case <-time.After(5 * time.Second):
		c.Fatal("timed out waiting for the waiter to return")
	}

	// Deleting twice is not an error.
	c.Assert(s.latch.Delete(context.TODO(), graphID), check.IsNil)
}

// TestConcurrentCountDown ensures that concurrent units of work never lose
// a decrement.
func (s *BaseSuite) TestConcurrentCountDown(c *check.C) {
	var (
		wg         sync.WaitGroup
		ctx        = context.TODO()
		graphID    = uuid.New()
		numWorkers = 10
		perWorker  = 25
	)

	c.Assert(s.latch.Init(ctx, graphID, int64(numWorkers*perWorker)), check.IsNil)
	waitErrCh := s.waitAsync(graphID)

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()

			for j := 0; j < perWorker; j++ {
				_, err := s.latch.CountDown(ctx, graphID)
				c.Check(err, check.IsNil)
			}
		}()
	}

	wg.Wait()

	select {
	case err := <-waitErrCh:
		c.Assert(err, check.IsNil)
	case <-time.After(5 * time.Second):
		c.Fatal("timed out waiting for the latch to be released")
	}

	remaining, err := s.latch.Remaining(ctx, graphID)
	c.Assert(err, check.IsNil)
	c.Assert(remaining, check.Equals, int64(0))
}

func (s *BaseSuite) waitAsync(graphID uuid.UUID) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		errCh <- s.latch.Wait(ctx, graphID)
	}()

	return errCh
}
