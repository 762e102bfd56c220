package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	queue "github.com/okian/ahcview/internal/adapters/mq/queue"
	worker "github.com/okian/ahcview/internal/adapters/mq/worker"
	model "github.com/okian/ahcview/internal/domain/model"
	logging "github.com/okian/ahcview/pkg/logger"
)

type recordingProcessor struct {
	mu   sync.Mutex
	seen []string
	fail map[string]error
}

func newRecordingProcessor() *recordingProcessor {
	return &recordingProcessor{fail: make(map[string]error)}
}

func (p *recordingProcessor) Process(_ context.Context, j worker.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, j.Key())
	return p.fail[j.Key()]
}

func (p *recordingProcessor) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.seen...)
}

func fetchJob(id string, ds model.Dataset) model.FetchJob {
	return model.FetchJob{ContestID: model.ContestID(id), Dataset: ds, RunID: "test"}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		proc := newRecordingProcessor()
		w := worker.NewInMemoryWorker(q, proc, worker.WithName("test-worker"))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		convey.So(q.Enqueue(ctx, fetchJob("ahc001", model.DatasetStandings)), convey.ShouldBeNil)
		convey.So(q.Enqueue(ctx, fetchJob("ahc001", model.DatasetExtended)), convey.ShouldBeNil)
		convey.So(q.Close(), convey.ShouldBeNil)

		convey.Convey("When it runs until the queue drains", func() {
			go w.Run(ctx)
			select {
			case <-w.Done():
			case <-ctx.Done():
			}

			convey.Convey("Then every job is processed in order", func() {
				convey.So(proc.keys(), convey.ShouldResemble, []string{"standings:ahc001", "extended:ahc001"})
			})

			convey.Convey("Then a later shutdown returns immediately", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When a job fails", func() {
			proc.fail["standings:ahc001"] = errors.New("boom")
			go w.Run(ctx)
			<-w.Done()

			convey.Convey("Then the worker keeps going", func() {
				convey.So(proc.keys(), convey.ShouldHaveLength, 2)
			})
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	convey.Convey("Given a worker blocked on an open queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q, worker.ProcessorFunc(func(context.Context, worker.Job) error { return nil }))
		go w.Run(context.Background())

		convey.Convey("When Shutdown is called", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err := w.Shutdown(ctx)

			convey.Convey("Then it stops promptly and can be called again", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})

			convey.Convey("Then jobs enqueued afterwards stay on the queue", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.Enqueue(ctx, fetchJob("ahc003", model.DatasetStandings)), convey.ShouldBeNil)
				time.Sleep(20 * time.Millisecond)
				convey.So(q.Len(), convey.ShouldEqual, 1)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		proc := newRecordingProcessor()
		pool := worker.NewPool(3, q, proc)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		convey.So(pool.Size(), convey.ShouldEqual, 3)

		for _, id := range []string{"ahc001", "ahc002", "ahc003", "ahc004", "ahc005"} {
			convey.So(q.Enqueue(ctx, fetchJob(id, model.DatasetStandings)), convey.ShouldBeNil)
		}
		convey.So(q.Close(), convey.ShouldBeNil)

		convey.Convey("When started and waited on", func() {
			pool.Start(ctx)
			err := pool.Wait(ctx)

			convey.Convey("Then every job is processed once", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(proc.keys(), convey.ShouldHaveLength, 5)
			})
		})

		convey.Convey("When shut down after start", func() {
			pool.Start(ctx)
			convey.Convey("Then shutdown succeeds", func() {
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		_ = logging.Init()
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), newRecordingProcessor())

		convey.Convey("Then one worker is created", func() {
			convey.So(pool.Size(), convey.ShouldEqual, 1)
		})
	})
}
