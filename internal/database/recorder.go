package database

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ahmed-226/BidTreasure-sub000/internal/auction"
	"github.com/ahmed-226/BidTreasure-sub000/pkg/types"
)

// Recorder archives accepted bids and auction results off the engine's event
// hooks. Writes happen on a single background goroutine so a slow database
// can never stall a bid; when the queue is full the record is dropped with a
// warning instead of blocking the engine.
type Recorder struct {
	db      Service
	queue   chan func(context.Context)
	timeout time.Duration

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

const recorderQueueSize = 256

func NewRecorder(db Service) *Recorder {
	r := &Recorder{
		db:      db,
		queue:   make(chan func(context.Context), recorderQueueSize),
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Attach subscribes the recorder to the engine's bid and end events.
func (r *Recorder) Attach(engine *auction.Engine) {
	engine.OnBidAccepted(func(_ types.Snapshot, bid types.Bid) {
		r.enqueue(func(ctx context.Context) {
			if err := r.db.InsertBid(ctx, bid); err != nil {
				log.Error("Error archiving bid: ", err)
			}
		})
	})
	engine.OnAuctionEnded(func(snap types.Snapshot) {
		r.enqueue(func(ctx context.Context) {
			if err := r.db.InsertResult(ctx, snap); err != nil {
				log.Error("Error archiving auction result: ", err)
			}
		})
	})
}

func (r *Recorder) enqueue(job func(context.Context)) {
	select {
	case r.queue <- job:
	default:
		log.Warn("Archive queue full, dropping record")
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for {
		select {
		case job := <-r.queue:
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			job(ctx)
			cancel()
		case <-r.done:
			// Drain whatever is still queued before shutting down.
			for {
				select {
				case job := <-r.queue:
					ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
					job(ctx)
					cancel()
				default:
					return
				}
			}
		}
	}
}

// Close flushes pending records and stops the background writer.
func (r *Recorder) Close() {
	r.once.Do(func() { close(r.done) })
	r.wg.Wait()
}
