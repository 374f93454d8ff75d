package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/camden-git/namerecall/media"
	"github.com/camden-git/namerecall/monitoring"
)

var (
	// ErrSuperseded is delivered to a read replaced by a newer read for the same slot.
	ErrSuperseded = errors.New("avatar read superseded by a newer read")
	// ErrQueueFull is delivered when no worker queue space is left.
	ErrQueueFull = errors.New("avatar queue full")
	// ErrStopped is delivered to reads started or still queued after Stop.
	ErrStopped = errors.New("avatar reader stopped")
)

// AvatarResult is the single completion value of an avatar read.
type AvatarResult struct {
	Slot    string
	DataURI string
	Err     error
}

type avatarJob struct {
	slot     string
	data     []byte
	queuedAt time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan AvatarResult
	once     sync.Once
}

// finish delivers the job's one result; later calls are no-ops.
func (j *avatarJob) finish(res AvatarResult) bool {
	delivered := false
	j.once.Do(func() {
		res.Slot = j.slot
		j.done <- res
		close(j.done)
		j.cancel()
		delivered = true
	})
	return delivered
}

// AvatarReader turns uploaded photos into avatar data URIs on a small worker
// pool. Each read is an explicit task with one completion channel. A slot (one
// open person form) has at most one live read: starting another cancels the
// previous one, which then completes with ErrSuperseded.
type AvatarReader struct {
	JobQueue  chan *avatarJob
	Processor *media.Processor
	Wg        sync.WaitGroup
	StopChan  chan struct{}
	Pending   map[string]*avatarJob
	Mutex     sync.Mutex

	stopped bool
	encode  func([]byte) (string, error)
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

func NewAvatarReader(processor *media.Processor, queueSize, numWorkers int, metrics *monitoring.Metrics, logger *zap.Logger) *AvatarReader {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ar := &AvatarReader{
		JobQueue:  make(chan *avatarJob, queueSize),
		Processor: processor,
		StopChan:  make(chan struct{}),
		Pending:   make(map[string]*avatarJob),
		metrics:   metrics,
		logger:    logger.Named("avatar"),
	}
	ar.encode = processor.EncodeAvatarBytes

	ar.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go ar.worker(i)
	}
	ar.logger.Info("started avatar workers", zap.Int("workers", numWorkers), zap.Int("queue_size", queueSize))
	return ar
}

// Read starts an asynchronous read of data for slot. The returned channel
// receives exactly one result and is then closed.
func (ar *AvatarReader) Read(slot string, data []byte) <-chan AvatarResult {
	ctx, cancel := context.WithCancel(context.Background())
	job := &avatarJob{
		slot:     slot,
		data:     data,
		queuedAt: time.Now(),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan AvatarResult, 1),
	}

	ar.Mutex.Lock()
	if ar.stopped {
		ar.Mutex.Unlock()
		job.finish(AvatarResult{Err: ErrStopped})
		return job.done
	}
	if prev, ok := ar.Pending[slot]; ok {
		if prev.finish(AvatarResult{Err: ErrSuperseded}) {
			ar.logger.Debug("superseded pending avatar read", zap.String("slot", slot))
			ar.metrics.ObserveAvatarRead("superseded", time.Since(prev.queuedAt))
		}
	}
	ar.Pending[slot] = job

	// The send happens under the lock so Stop cannot drain the queue
	// between the stopped check and the enqueue.
	select {
	case ar.JobQueue <- job:
		ar.logger.Debug("queued avatar read", zap.String("slot", slot), zap.Int("bytes", len(data)))
	default:
		ar.logger.Warn("avatar job queue full", zap.String("slot", slot))
		delete(ar.Pending, slot)
		job.finish(AvatarResult{Err: ErrQueueFull})
	}
	ar.Mutex.Unlock()
	return job.done
}

// Cancel abandons the live read for slot, if any. Its channel receives ErrSuperseded.
func (ar *AvatarReader) Cancel(slot string) {
	ar.Mutex.Lock()
	job, ok := ar.Pending[slot]
	if ok {
		delete(ar.Pending, slot)
	}
	ar.Mutex.Unlock()
	if ok {
		job.finish(AvatarResult{Err: ErrSuperseded})
	}
}

// Await blocks until res delivers or ctx ends.
func Await(ctx context.Context, res <-chan AvatarResult) (AvatarResult, error) {
	select {
	case r := <-res:
		return r, r.Err
	case <-ctx.Done():
		return AvatarResult{}, ctx.Err()
	}
}

func (ar *AvatarReader) worker(id int) {
	defer ar.Wg.Done()
	for {
		select {
		case job, ok := <-ar.JobQueue:
			if !ok {
				return
			}
			ar.processJob(id, job)
		case <-ar.StopChan:
			ar.logger.Debug("avatar worker stopping", zap.Int("worker", id))
			return
		}
	}
}

func (ar *AvatarReader) processJob(id int, job *avatarJob) {
	defer ar.forget(job)
	if job.ctx.Err() != nil {
		// superseded while queued
		return
	}
	select {
	case <-ar.StopChan:
		job.finish(AvatarResult{Err: ErrStopped})
		return
	default:
	}

	uri, err := ar.encode(job.data)
	result := "ok"
	if err != nil {
		result = "error"
		ar.logger.Info("avatar read failed", zap.Int("worker", id), zap.String("slot", job.slot), zap.Error(err))
	}
	if job.finish(AvatarResult{DataURI: uri, Err: err}) {
		ar.metrics.ObserveAvatarRead(result, time.Since(job.queuedAt))
	}
}

// forget drops job from the pending map if it is still the slot's live read.
func (ar *AvatarReader) forget(job *avatarJob) {
	ar.Mutex.Lock()
	if ar.Pending[job.slot] == job {
		delete(ar.Pending, job.slot)
	}
	ar.Mutex.Unlock()
}

// Stop halts the workers. Reads still queued complete with ErrStopped.
func (ar *AvatarReader) Stop() {
	ar.Mutex.Lock()
	if ar.stopped {
		ar.Mutex.Unlock()
		return
	}
	ar.stopped = true
	ar.Mutex.Unlock()

	close(ar.StopChan)
	ar.Wg.Wait()

	for {
		select {
		case job := <-ar.JobQueue:
			job.finish(AvatarResult{Err: ErrStopped})
		default:
			ar.logger.Info("avatar workers stopped")
			return
		}
	}
}
