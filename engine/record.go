package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lixenwraith/tickgraph/event"
	"github.com/lixenwraith/tickgraph/future"
	"github.com/lixenwraith/tickgraph/graph"
)

// Recording is the in-memory result of Record
type Recording struct {
	Left       []float64
	Right      []float64
	SampleRate int
}

// Duration returns the recorded length
func (r Recording) Duration() time.Duration {
	if r.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(r.Left)) * time.Second / time.Duration(r.SampleRate)
}

// Channel returns one side as buffer-node sample data
func (r Recording) Channel(right bool) graph.Samples {
	if right {
		return graph.Samples{Data: r.Right, SampleRate: r.SampleRate}
	}
	return graph.Samples{Data: r.Left, SampleRate: r.SampleRate}
}

// recording is one offline session
// producer is settled by the mixer's done signal, consumer carries the result to the caller
type recording struct {
	mixer    *graph.RootMixer
	producer *future.Future[struct{}]
	consumer *future.Future[Recording]

	blocksL [][]float64
	blocksR [][]float64
	samples int
}

func (r *recording) append(left, right []float64) {
	r.blocksL = append(r.blocksL, append([]float64(nil), left...))
	r.blocksR = append(r.blocksR, append([]float64(nil), right...))
	r.samples += len(left)
}

func (r *recording) result(sampleRate int) Recording {
	out := Recording{
		Left:       make([]float64, 0, r.samples),
		Right:      make([]float64, 0, r.samples),
		SampleRate: sampleRate,
	}
	for i := range r.blocksL {
		out.Left = append(out.Left, r.blocksL[i]...)
		out.Right = append(out.Right, r.blocksR[i]...)
	}
	r.blocksL, r.blocksR = nil, nil
	return out
}

func (r *recording) abort(err error) {
	r.producer.Reject(err)
	r.consumer.Reject(err)
}

// Record renders the graph built by setup into memory, off the real-time path
//
// setup runs under the engine lock with a dedicated root mixer; calling Done on it
// completes the recording after the current block. The returned future resolves with
// the captured stream or is rejected when ctx ends or the engine is reset.
func (e *Engine) Record(ctx context.Context, setup func(*graph.RootMixer)) (*future.Future[Recording], error) {
	if setup == nil {
		return nil, ErrNoSetup
	}

	e.mu.Lock()
	if e.rec != nil {
		e.mu.Unlock()
		return nil, ErrRecordingPending
	}
	if e.state != StateIdle {
		state := e.state
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrBusy, state)
	}

	e.state = StateRecording
	e.clearWork()
	e.allocate()

	rec := &recording{
		producer: future.New[struct{}](),
		consumer: future.New[Recording](),
	}
	rec.mixer = graph.NewRootMixer(e)
	rec.mixer.On(event.KindDone, func(event.Event) {
		rec.producer.Resolve(struct{}{})
	})
	e.rec = rec
	e.roots = append(e.roots, rec.mixer)

	setup(rec.mixer)
	e.mu.Unlock()

	e.log.Debug().Int("stream_size", e.streamSize).Msg("recording started")
	go e.drive(ctx, rec)
	return rec.consumer, nil
}

// drive renders blocks back to back, sleeping RecordYield after every RecordThrottle of work
func (e *Engine) drive(ctx context.Context, rec *recording) {
	limit := 0
	if e.cfg.RecordLimit > 0 {
		limit = int(e.cfg.RecordLimit.Seconds() * float64(e.cfg.SampleRate))
	}
	mark := e.clock.Now()

	for {
		if err := ctx.Err(); err != nil {
			e.abortRecording(rec, fmt.Errorf("%w: %w", ErrRecordingAborted, err))
			return
		}

		e.mu.Lock()
		if e.rec != rec {
			e.mu.Unlock()
			return
		}
		e.Process()
		rec.append(e.strmL, e.strmR)
		if limit > 0 && rec.samples >= limit {
			rec.producer.Resolve(struct{}{})
		}
		if rec.producer.IsResolved() {
			e.finishRecording(rec)
			return
		}
		e.mu.Unlock()

		if e.clock.Now().Sub(mark) > e.cfg.RecordThrottle {
			if e.cfg.RecordYield > 0 {
				timer := time.NewTimer(e.cfg.RecordYield)
				select {
				case <-ctx.Done():
				case <-timer.C:
				}
				timer.Stop()
			}
			mark = e.clock.Now()
		}
	}
}

// finishRecording is entered with the lock held and releases it
func (e *Engine) finishRecording(rec *recording) {
	if rec.producer.Status() == future.Rejected {
		e.mu.Unlock()
		e.abortRecording(rec, ErrRecordingAborted)
		return
	}

	out := rec.result(e.cfg.SampleRate)
	e.rec = nil
	e.state = StateIdle
	e.clearWork()
	e.metrics.recording("completed")
	e.mu.Unlock()

	e.log.Debug().Int("samples", len(out.Left)).Msg("recording finished")
	rec.consumer.Resolve(out)
}

func (e *Engine) abortRecording(rec *recording, err error) {
	e.mu.Lock()
	if e.rec == rec {
		e.rec = nil
		e.state = StateIdle
		e.clearWork()
		e.metrics.recording("aborted")
	}
	e.mu.Unlock()

	e.log.Warn().Err(err).Msg("recording aborted")
	rec.abort(err)
}
