package systems

import (
	"errors"
	"sync"

	"github.com/spaghettifunk/bricklayer/engine/core"
)

/** @brief Describes a job to be run by the job system. */
type JobTask struct {
	/** @brief Invoked on a worker when the job starts. Required. */
	OnStart func() error
	/** @brief Invoked on the same worker when OnStart succeeds. Optional. */
	OnComplete func()
	/** @brief Invoked on the same worker when OnStart fails. Optional. */
	OnFailure func(err error)
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	quit       chan struct{}
	wg         sync.WaitGroup
	// pending counts submitted jobs that have not finished yet.
	pending sync.WaitGroup

	mu       sync.Mutex
	isClosed bool
}

var ErrNoWorkers = errors.New("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
var ErrJobSystemClosed = errors.New("job system already shut down")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
		quit:       make(chan struct{}),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for {
				select {
				case job := <-js.jobQueue:
					js.run(job)
					js.pending.Done()
				case <-js.quit:
					return
				}
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	if err := job.OnStart(); err != nil {
		core.LogDebug("job failed: %s", err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

/**
 * @brief Stops accepting jobs and waits for every submitted one, including
 * submissions still waiting for room in the queue, to finish. Must not be
 * called from inside a job.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.isClosed {
		js.mu.Unlock()
		return ErrJobSystemClosed
	}
	js.isClosed = true
	js.mu.Unlock()

	js.pending.Wait()
	close(js.quit)
	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue is full.
 * @param jt The job to be executed.
 */
func (js *JobSystem) Submit(jt JobTask) error {
	js.mu.Lock()
	if js.isClosed {
		js.mu.Unlock()
		return ErrJobSystemClosed
	}
	js.pending.Add(1)
	js.mu.Unlock()

	js.jobQueue <- jt
	return nil
}
