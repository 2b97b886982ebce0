package analysis

import (
	"context"
	"errors"
	"log"
	"sync"

	domain "github.com/rejlers/edrs-backend/internal/domain/analysis"
	"github.com/rejlers/edrs-backend/internal/domain/diagrams"
	"github.com/rejlers/edrs-backend/internal/domain/projects"
)

// ErrQueueFull is returned when the analysis backlog is at capacity.
var ErrQueueFull = errors.New("analysis queue is full")

type job struct {
	session *domain.Session
	diagram *diagrams.Diagram
	project *projects.Project
	caller  string
}

// Pool runs analysis jobs on a fixed set of workers so a burst of
// uploads can't spawn an unbounded number of OpenAI calls.
type Pool struct {
	svc  *Service
	jobs chan job
	stop chan struct{}
	wg   sync.WaitGroup
}

func NewPool(svc *Service, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	p := &Pool{
		svc:  svc,
		jobs: make(chan job, queueSize),
		stop: make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case j := <-p.jobs:
			log.Printf("analysis: worker=%d session=%s diagram=%s start", id, j.session.ID, j.diagram.ID)
			p.svc.run(j)
		}
	}
}

func (p *Pool) enqueue(j job) error {
	select {
	case p.jobs <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop signals workers, waits for in-flight jobs, then fails whatever is
// still queued so no diagram stays wedged in processing across a restart.
func (p *Pool) Stop() {
	close(p.stop)
	p.wg.Wait()
	for {
		select {
		case j := <-p.jobs:
			p.svc.abort(context.Background(), j.session, "shut down before the run started")
		default:
			return
		}
	}
}
