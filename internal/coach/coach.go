// Package coach turns an extraction into a prompt for an external text
// generator and tracks the outcome of each analysis.
package coach

import (
	"context"
	"errors"
	"sync"
	"time"

	"baristalog/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrCapabilityUnavailable is returned synchronously when no text generator
// is configured.
var ErrCapabilityUnavailable = errors.New("coaching is not available")

// FailureMessage is the user-facing text of every failed analysis.
const FailureMessage = "Could not analyze"

// AnalysisFailure reports that the generator was called and failed.
type AnalysisFailure struct {
	RKey string
	Err  error
}

func (e *AnalysisFailure) Error() string {
	return FailureMessage
}

func (e *AnalysisFailure) Unwrap() error {
	return e.Err
}

type State string

const (
	StateDisabled    State = "disabled"
	StateUnavailable State = "unavailable"
	StateIdle        State = "idle"
	StateInProgress  State = "in_progress"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Result is the coaching outcome for one extraction.
type Result struct {
	RKey      string    `json:"rkey"`
	State     State     `json:"state"`
	Summary   string    `json:"summary,omitempty"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`

	err error
}

// Err returns an *AnalysisFailure for failed results and nil otherwise.
func (r Result) Err() error {
	if r.State != StateFailed {
		return nil
	}
	return &AnalysisFailure{RKey: r.RKey, Err: r.err}
}

// Settings reports whether the user has coaching switched on.
type Settings interface {
	AICoachingEnabled(ctx context.Context) bool
}

// Extractions looks up whether an extraction still exists.
type Extractions interface {
	GetExtractionByRKey(ctx context.Context, rkey string) (*models.Extraction, error)
}

// job is one running analysis.
type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Coach runs at most one analysis per extraction at a time. Analyses run in
// their own goroutine and never hold store locks.
type Coach struct {
	capability  Capability
	settings    Settings
	extractions Extractions
	results     *ResultCache

	mu       sync.Mutex
	inflight map[string]*job
}

func New(capability Capability, settings Settings, extractions Extractions, results *ResultCache) *Coach {
	if results == nil {
		results = NewResultCache(DefaultResultTTL)
	}
	return &Coach{
		capability:  capability,
		settings:    settings,
		extractions: extractions,
		results:     results,
		inflight:    make(map[string]*job),
	}
}

func (c *Coach) available() bool {
	return c.capability != nil && c.capability.Available()
}

// Status reports the current state for rkey without starting anything.
func (c *Coach) Status(ctx context.Context, rkey string) Result {
	if !c.settings.AICoachingEnabled(ctx) {
		return Result{RKey: rkey, State: StateDisabled}
	}
	if !c.available() {
		return Result{RKey: rkey, State: StateUnavailable}
	}
	if r, ok := c.results.Get(rkey); ok {
		return r
	}
	return Result{RKey: rkey, State: StateIdle}
}

// Analyze starts coaching for target and returns a channel that receives
// the outcome once. If a result already exists, or an analysis for target
// is running, no new call is made and the existing outcome is delivered.
// A failed analysis is retried only by calling Analyze again.
func (c *Coach) Analyze(ctx context.Context, target *models.Extraction, history []*models.Extraction) (<-chan Result, error) {
	if !c.settings.AICoachingEnabled(ctx) {
		return deliver(Result{RKey: target.RKey, State: StateDisabled}), nil
	}
	if !c.available() {
		return nil, ErrCapabilityUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if j, ok := c.inflight[target.RKey]; ok {
		return c.await(target.RKey, j), nil
	}
	if r, ok := c.results.Get(target.RKey); ok && r.State == StateDone {
		return deliver(r), nil
	}

	// The analysis outlives the request that started it.
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j := &job{cancel: cancel, done: make(chan struct{})}
	c.inflight[target.RKey] = j
	c.results.Set(Result{RKey: target.RKey, State: StateInProgress})

	prompt := BuildPrompt(target, history)
	go c.run(jobCtx, target.RKey, prompt, j)

	return c.await(target.RKey, j), nil
}

func (c *Coach) run(ctx context.Context, rkey, prompt string, j *job) {
	defer close(j.done)
	defer j.cancel()

	summary, err := c.capability.Generate(ctx, Instructions, prompt)

	// A delete racing this lookup is covered by Forget, which the deleter
	// calls after the row is gone.
	_, lookupErr := c.extractions.GetExtractionByRKey(ctx, rkey)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Forget removes the job; a replaced or cancelled job must not write.
	if c.inflight[rkey] != j || ctx.Err() != nil {
		return
	}
	delete(c.inflight, rkey)

	if lookupErr != nil {
		log.Debug().Err(lookupErr).Str("rkey", rkey).Msg("Discarding coaching result for missing extraction")
		c.results.Invalidate(rkey)
		return
	}

	if err != nil {
		log.Warn().Err(err).Str("rkey", rkey).Msg("Coaching analysis failed")
		c.results.Set(Result{RKey: rkey, State: StateFailed, Message: FailureMessage, err: err})
		return
	}
	c.results.Set(Result{RKey: rkey, State: StateDone, Summary: summary})
}

// await returns a channel that receives the cached outcome after j ends.
func (c *Coach) await(rkey string, j *job) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		<-j.done
		r, ok := c.results.Get(rkey)
		if !ok {
			// Forgotten while running.
			r = Result{RKey: rkey, State: StateIdle}
		}
		ch <- r
		close(ch)
	}()
	return ch
}

func deliver(r Result) <-chan Result {
	ch := make(chan Result, 1)
	ch <- r
	close(ch)
	return ch
}

// Forget cancels any running analysis for rkey and drops its result. Call
// it when the extraction is deleted or edited.
func (c *Coach) Forget(rkey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if j, ok := c.inflight[rkey]; ok {
		j.cancel()
		delete(c.inflight, rkey)
	}
	c.results.Invalidate(rkey)
}

// ForgetAll cancels every running analysis and empties the result cache.
func (c *Coach) ForgetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for rkey, j := range c.inflight {
		j.cancel()
		delete(c.inflight, rkey)
	}
	c.results.InvalidateAll()
}
