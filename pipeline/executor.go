package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/researchd/core"
	"github.com/poiesic/researchd/storage"
)

// DefaultStageTimeout bounds a single collaborator invocation unless the
// stage overrides it.
const DefaultStageTimeout = 30 * time.Minute

// Executor drives tasks through a pipeline graph. It owns two worker
// pools: one for whole-task runs (cross-task parallelism) and one for
// stage invocations (independent ready stages of a single task). Keeping
// them separate means a full task pool can never starve stage execution.
type Executor struct {
	tasks        storage.TaskRepository
	taskPool     *ants.Pool
	stagePool    *ants.Pool
	stageTimeout time.Duration
	retry        RetryPolicy
	logger       *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor) error

// WithPoolSize sets the worker pool sizes for task and stage execution.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Executor) error {
		if size < 1 {
			size = 1
		}

		// Release old pools
		if e.taskPool != nil {
			e.taskPool.Release()
		}
		if e.stagePool != nil {
			e.stagePool.Release()
		}

		// Create new pools
		taskPool, err := ants.NewPool(size, ants.WithNonblocking(true))
		if err != nil {
			return err
		}

		stagePool, err := ants.NewPool(size)
		if err != nil {
			taskPool.Release()
			return err
		}

		e.taskPool = taskPool
		e.stagePool = stagePool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithStageTimeout sets the default per-invocation timeout for stages
// that don't declare their own.
func WithStageTimeout(timeout time.Duration) Option {
	return func(e *Executor) error {
		if timeout > 0 {
			e.stageTimeout = timeout
		}
		return nil
	}
}

// WithRetryPolicy sets the default retry policy for stages that don't
// declare their own.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(e *Executor) error {
		e.retry = policy.normalized()
		return nil
	}
}

// NewExecutor creates a new pipeline executor.
func NewExecutor(tasks storage.TaskRepository, opts ...Option) (*Executor, error) {
	if tasks == nil {
		return nil, ErrTaskRepositoryRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	// The task pool is nonblocking: when it is saturated, Submit fails
	// fast and RunPending falls back to a plain goroutine instead of
	// stalling the poller behind tasks that are waiting out retries.
	taskPool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	stagePool, err := ants.NewPool(poolSize)
	if err != nil {
		taskPool.Release()
		return nil, err
	}

	e := &Executor{
		tasks:        tasks,
		taskPool:     taskPool,
		stagePool:    stagePool,
		stageTimeout: DefaultStageTimeout,
		retry:        DefaultRetryPolicy(),
		logger:       slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(e); optErr != nil {
			e.Release()
			return nil, optErr
		}
	}

	return e, nil
}

// Release shuts down the worker pools.
func (e *Executor) Release() {
	if e.taskPool != nil {
		e.taskPool.Release()
	}
	if e.stagePool != nil {
		e.stagePool.Release()
	}
}

// stageResult carries one stage attempt's outcome back to the frontier loop.
type stageResult struct {
	name   string
	output string
	err    error
	fatal  bool // storage fault while recording the attempt; never retried
}

// Run drives the task from PENDING to a terminal status.
//
// Stage outcomes, including a task ending FAILED, are data: they are
// persisted to the store and Run returns the terminal task with a nil
// error. A non-nil error means the run could not proceed at all
// (unknown task, task not PENDING, unreachable stage, storage fault).
func (e *Executor) Run(ctx context.Context, g *Graph, id core.TaskID) (*core.Task, error) {
	if g == nil {
		return nil, ErrGraphRequired
	}

	task, err := e.tasks.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status != core.StatusPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrTaskNotPending, id, task.Status)
	}
	// The RUNNING transition is the claim: it only succeeds from PENDING,
	// so a concurrent Run on the same task loses here instead of
	// double-executing stages.
	if task, err = e.tasks.UpdateTaskStatus(ctx, id, core.StatusRunning); err != nil {
		if errors.Is(err, storage.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: %s was claimed concurrently", ErrTaskNotPending, id)
		}
		return nil, err
	}

	e.logger.Info("task started", "task", id, "graph", g.Fingerprint(), "stages", g.Len())

	completed := make(map[string]struct{}, g.Len())
	outputs := make(Outputs, g.Len())

	// Stages see the submission parameters plus the query itself under
	// the reserved "query" key.
	parameters := maps.Clone(task.Parameters)
	if parameters == nil {
		parameters = make(map[string]string, 1)
	}
	parameters["query"] = task.Query

	// Attempt counters continue from any history already on the task.
	attemptBase := make(map[string]int, g.Len())
	for _, name := range g.Stages() {
		attemptBase[name] = task.AttemptsFor(name)
	}

	for len(completed) < g.Len() {
		ready := g.ReadyStages(completed)
		if len(ready) == 0 {
			// Cannot happen for a validated graph; fail instead of spinning.
			if _, ferr := e.tasks.UpdateTaskStatus(context.WithoutCancel(ctx), id, core.StatusFailed); ferr != nil {
				return nil, ferr
			}
			return nil, fmt.Errorf("%w: completed %d of %d stages", ErrStageUnreachable, len(completed), g.Len())
		}

		// Run the whole frontier; independent stages execute concurrently.
		prior := maps.Clone(outputs)
		results := e.runFrontier(ctx, g, id, ready, parameters, prior, attemptBase)

		// Fail fast: once any stage permanently fails, no further frontier
		// is scheduled. Stages of this frontier already ran to a decision
		// and their attempts are recorded.
		var failed *stageResult
		for i := range results {
			res := &results[i]
			if res.err != nil {
				if failed == nil {
					failed = res
				}
				continue
			}
			completed[res.name] = struct{}{}
			outputs[res.name] = res.output
		}
		if failed != nil {
			e.logger.Warn("task failed", "task", id, "stage", failed.name, "error", failed.err)
			return e.tasks.UpdateTaskStatus(context.WithoutCancel(ctx), id, core.StatusFailed)
		}
	}

	report := outputs[g.Terminal()]
	if report == "" {
		if _, ferr := e.tasks.UpdateTaskStatus(context.WithoutCancel(ctx), id, core.StatusFailed); ferr != nil {
			return nil, ferr
		}
		return nil, fmt.Errorf("%w: %q", ErrEmptyStageOutput, g.Terminal())
	}

	task, err = e.tasks.CompleteTask(ctx, id, report)
	if err != nil {
		return nil, err
	}
	e.logger.Info("task completed", "task", id, "attempts", len(task.Attempts))
	return task, nil
}

// RunPending executes every PENDING task in the store against the graph,
// in parallel on the task pool. Returns the number of tasks picked up.
func (e *Executor) RunPending(ctx context.Context, g *Graph) (int, error) {
	if g == nil {
		return 0, ErrGraphRequired
	}

	pending, err := e.tasks.ListTasksByStatus(ctx, core.StatusPending)
	if err != nil {
		return 0, err
	}

	var wg sync.WaitGroup
	for _, task := range pending {
		id := task.Id
		wg.Add(1)
		run := func() {
			defer wg.Done()
			if _, runErr := e.Run(ctx, g, id); runErr != nil {
				e.logger.Error("task run aborted", "task", id, "error", runErr)
			}
		}
		// A task waiting out a retry delay keeps its pool slot for the
		// whole run. Overflow goes to plain goroutines so a backlog of
		// waiting tasks cannot stall fresh PENDING work.
		if submitErr := e.taskPool.Submit(run); submitErr != nil {
			go run()
		}
	}
	wg.Wait()
	return len(pending), nil
}

// runFrontier drives every ready stage to a decision: a recorded SUCCESS
// attempt, or a recorded FAILURE attempt after which the retry policy gave
// up. Pool workers only ever execute a single attempt; retry delays are
// waited out here on timers, so a stage in backoff never occupies a worker.
func (e *Executor) runFrontier(ctx context.Context, g *Graph, id core.TaskID, ready []string, parameters map[string]string, prior Outputs, attemptBase map[string]int) []stageResult {
	results := make(chan stageResult, len(ready))
	due := make(chan string, len(ready))

	dispatch := func(def StageDefinition, attempt int) {
		run := func() {
			results <- e.attemptStage(ctx, id, def, parameters, prior, attempt)
		}
		if submitErr := e.stagePool.Submit(run); submitErr != nil {
			run()
		}
	}

	defs := make(map[string]StageDefinition, len(ready))
	schedules := make(map[string]backoff.BackOff, len(ready))
	attempts := make(map[string]int, len(ready))
	for _, name := range ready {
		def, _ := g.Stage(name)
		policy := e.retry
		if def.Retry != nil {
			policy = *def.Retry
		}
		defs[name] = def
		schedules[name] = policy.backOff(ctx)
		attempts[name] = attemptBase[name] + 1
		dispatch(def, attempts[name])
	}

	waiting := make(map[string]*time.Timer, len(ready))
	defer func() {
		for _, timer := range waiting {
			timer.Stop()
		}
	}()

	decided := make([]stageResult, 0, len(ready))
	inFlight := len(ready)
	done := ctx.Done()
	for inFlight > 0 || len(waiting) > 0 {
		select {
		case <-done:
			// Abort retry waits immediately; in-flight attempts still run
			// to a recorded decision.
			done = nil
			for name, timer := range waiting {
				timer.Stop()
				decided = append(decided, stageResult{name: name, err: ctx.Err()})
			}
			clear(waiting)

		case name := <-due:
			if _, ok := waiting[name]; !ok {
				// The wait was aborted before the timer fired.
				continue
			}
			delete(waiting, name)
			inFlight++
			dispatch(defs[name], attempts[name])

		case res := <-results:
			inFlight--
			if res.err == nil {
				if attempts[res.name] > attemptBase[res.name]+1 {
					e.logger.Debug("stage succeeded after retry", "task", id, "stage", res.name, "attempt", attempts[res.name])
				}
				decided = append(decided, res)
				continue
			}
			if res.fatal {
				decided = append(decided, res)
				continue
			}
			if def := defs[res.name]; !def.Idempotent && !IsRetryable(res.err) {
				// The side effect may already be committed; never re-run.
				e.logger.Warn("non-idempotent stage gave up", "task", id, "stage", res.name, "error", res.err)
				decided = append(decided, res)
				continue
			}
			delay := schedules[res.name].NextBackOff()
			if delay == backoff.Stop {
				decided = append(decided, res)
				continue
			}
			e.logger.Debug("stage failed, will retry", "task", id, "stage", res.name, "attempt", attempts[res.name], "delay", delay, "error", res.err)
			attempts[res.name]++
			name := res.name
			waiting[name] = time.AfterFunc(delay, func() { due <- name })
		}
	}
	return decided
}

// attemptStage makes one numbered attempt at a stage and records it.
func (e *Executor) attemptStage(ctx context.Context, id core.TaskID, def StageDefinition, parameters map[string]string, prior Outputs, attempt int) stageResult {
	started := time.Now().UTC()
	output, stageErr := e.invoke(ctx, def, parameters, prior)
	finished := time.Now().UTC()

	record := core.StageAttempt{
		Stage:      def.Name,
		Attempt:    attempt,
		StartedAt:  started,
		FinishedAt: finished,
		Outcome:    core.OutcomeSuccess,
	}
	if stageErr != nil {
		record.Outcome = core.OutcomeFailure
		record.ErrorDetail = stageErr.Error()
	}
	// Record the attempt even when ctx was cancelled mid-flight, so
	// status can never contradict the stage history.
	if _, err := e.tasks.AppendStageAttempt(context.WithoutCancel(ctx), id, record); err != nil {
		return stageResult{name: def.Name, err: err, fatal: true}
	}
	return stageResult{name: def.Name, output: output, err: stageErr}
}

// invoke calls the stage's collaborator under the stage timeout. Panics
// are converted to errors so a faulty collaborator fails its attempt
// instead of the process.
func (e *Executor) invoke(ctx context.Context, def StageDefinition, parameters map[string]string, prior Outputs) (output string, err error) {
	timeout := e.stageTimeout
	if def.Timeout > 0 {
		timeout = def.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", def.Name, r)
		}
	}()
	return def.Run(ctx, parameters, prior)
}
