package internal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pborman/uuid"
	"github.com/uber-go/tally"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go.flowcore.dev/sdk/converter"
	"go.flowcore.dev/sdk/internal/bridge"
	"go.flowcore.dev/sdk/internal/common/metrics"
	"go.flowcore.dev/sdk/temporal"
)

const (
	defaultMaxConcurrentWorkflowTasks   = 2
	defaultMaxConcurrentActivities      = 10
	defaultWorkerStopTimeout            = 10 * time.Second
	defaultHeartbeatInterval            = time.Second
	defaultStickyScheduleToStartTimeout = 5 * time.Second
)

// WorkerExecutionParameters configures an AggregatedWorker.
type WorkerExecutionParameters struct {
	Namespace string
	TaskQueue string

	// BuildID identifies the worker code revision for versioning.
	BuildID string

	// Identity tracks this worker in server-side introspection.
	Identity string

	// APIKey is kept with the worker's parameters; the worker itself does
	// not attach it to any call.
	APIKey string

	// ServerHostname correlates worker instrumentation with the cluster
	// it polls.
	ServerHostname string

	MaxConcurrentWorkflowTaskExecutionSize int
	MaxConcurrentActivityExecutionSize     int

	// TaskQueueActivitiesPerSecond rate-limits activity starts across the
	// whole worker. Zero means unlimited.
	TaskQueueActivitiesPerSecond float64

	// HeartbeatInterval is the activity heartbeat coalescing window.
	HeartbeatInterval time.Duration

	// StickyScheduleToStartTimeout bounds how long a task may wait on
	// this worker's sticky queue before the server falls back to the
	// regular queue.
	StickyScheduleToStartTimeout time.Duration

	WorkerStopTimeout time.Duration

	DataConverter    converter.DataConverter
	FailureConverter temporal.FailureConverter
	Logger           *zap.Logger
	MetricsScope     tally.Scope
	Interceptors     []WorkerInterceptor
}

// AggregatedWorker runs the workflow-task and activity-task poll loops
// against a single BridgeWorker, each as a pool of goroutines bounded by
// the configured concurrency limits. Local activities scheduled by
// workflow code run in-process through the tunnel, never leaving the
// worker.
type AggregatedWorker struct {
	bw       bridge.BridgeWorker
	params   WorkerExecutionParameters
	wfTasks  *WorkflowTaskHandler
	actTasks *ActivityTaskHandler

	// stickyUUID names this worker's sticky queue for cache-affine
	// workflow task routing.
	stickyUUID string

	laTunnel        *localActivityTunnel
	activityLimiter *rate.Limiter

	metricsScope *metrics.TaggedScope

	inFlightWorkflowTasks atomic.Int32
	inFlightActivities    atomic.Int32

	wg      sync.WaitGroup
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
}

// NewAggregatedWorker constructs a worker over bw with params, defaulting
// unset converters/concurrency to the package defaults.
func NewAggregatedWorker(bw bridge.BridgeWorker, params WorkerExecutionParameters) *AggregatedWorker {
	if params.DataConverter == nil {
		params.DataConverter = converter.DefaultDataConverter
	}
	if params.FailureConverter == nil {
		params.FailureConverter = temporal.NewDefaultFailureConverter(params.DataConverter, false)
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Identity == "" {
		params.Identity = defaultIdentity()
	}
	if params.MaxConcurrentWorkflowTaskExecutionSize <= 0 {
		params.MaxConcurrentWorkflowTaskExecutionSize = defaultMaxConcurrentWorkflowTasks
	}
	if params.MaxConcurrentActivityExecutionSize <= 0 {
		params.MaxConcurrentActivityExecutionSize = defaultMaxConcurrentActivities
	}
	if params.HeartbeatInterval <= 0 {
		params.HeartbeatInterval = defaultHeartbeatInterval
	}
	if params.StickyScheduleToStartTimeout <= 0 {
		params.StickyScheduleToStartTimeout = defaultStickyScheduleToStartTimeout
	}
	if params.WorkerStopTimeout <= 0 {
		params.WorkerStopTimeout = defaultWorkerStopTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if params.TaskQueueActivitiesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(params.TaskQueueActivitiesPerSecond), 1)
	}

	wfTasks := NewWorkflowTaskHandler(params.DataConverter, params.FailureConverter, params.Logger, params.Interceptors)
	if params.MetricsScope != nil {
		wfTasks.metricsScope = params.MetricsScope
	}

	return &AggregatedWorker{
		bw:              bw,
		params:          params,
		wfTasks:         wfTasks,
		actTasks:        NewActivityTaskHandler(params.DataConverter, params.FailureConverter, params.Logger, params.Interceptors, params.HeartbeatInterval),
		stickyUUID:      uuid.New(),
		laTunnel:        newLocalActivityTunnel(params.MaxConcurrentActivityExecutionSize),
		activityLimiter: limiter,
		metricsScope:    metrics.NewTaggedScope(params.MetricsScope),
		stopCh:          make(chan struct{}),
	}
}

// StickyQueueName returns the worker-unique sticky queue identifier the
// server routes cache-affine workflow tasks to.
func (w *AggregatedWorker) StickyQueueName() string {
	return w.params.TaskQueue + ":" + w.stickyUUID
}

// Start launches the poll-loop goroutine pools; safe to call once.
func (w *AggregatedWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errors.New("internal: worker already started")
	}
	w.started = true

	w.laTunnel.start(w.actTasks, &w.wg)

	for i := 0; i < w.params.MaxConcurrentWorkflowTaskExecutionSize; i++ {
		w.wg.Add(1)
		go w.workflowPollLoop()
	}
	for i := 0; i < w.params.MaxConcurrentActivityExecutionSize; i++ {
		w.wg.Add(1)
		go w.activityPollLoop()
	}
	w.params.Logger.Info("worker started",
		zap.String("namespace", w.params.Namespace),
		zap.String("task_queue", w.params.TaskQueue),
		zap.String("build_id", w.params.BuildID),
		zap.String("identity", w.params.Identity),
		zap.String("server_hostname", w.params.ServerHostname),
	)
	return nil
}

// Run starts the worker and blocks until interruptCh fires, then stops it.
func (w *AggregatedWorker) Run(interruptCh <-chan interface{}) error {
	if err := w.Start(); err != nil {
		return err
	}
	if interruptCh != nil {
		<-interruptCh
	} else {
		<-w.stopCh
	}
	w.Stop()
	return nil
}

// Stop signals every poll loop to exit, waits up to WorkerStopTimeout for
// in-flight tasks to finish, then evicts every cached workflow run.
func (w *AggregatedWorker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	select {
	case <-w.stopCh:
		return
	default:
	}
	close(w.stopCh)
	w.bw.InitiateShutdown()
	w.laTunnel.stop()

	done := make(chan struct{})
	go func() { w.wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(w.params.WorkerStopTimeout):
		w.params.Logger.Warn("worker stop timeout reached with tasks still in flight",
			zap.Int32("workflow_tasks", w.inFlightWorkflowTasks.Load()),
			zap.Int32("activities", w.inFlightActivities.Load()),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.params.WorkerStopTimeout)
	defer cancel()
	_ = w.bw.FinalizeShutdown(ctx)

	w.wfTasks.EvictAll()
	w.params.Logger.Info("worker stopped", zap.String("task_queue", w.params.TaskQueue))
}

func (w *AggregatedWorker) workflowPollLoop() {
	defer w.wg.Done()
	ctx := context.Background()
	for {
		select {
		case <-w.stopCh:
			return
		default:
		}
		act, err := w.bw.PollWorkflowActivation(ctx)
		if err != nil {
			if errors.Is(err, bridge.ErrBridgeShutdown) {
				return
			}
			w.params.Logger.Warn("poll workflow activation failed", zap.Error(err))
			continue
		}
		if act == nil {
			continue
		}

		w.inFlightWorkflowTasks.Inc()
		sw := w.metricsScope.Timer(metrics.WorkflowTaskExecutionLatency).Start()
		completion := w.processWorkflowActivation(ctx, act)
		sw.Stop()
		w.metricsScope.Counter(metrics.WorkflowTaskCounter).Inc(1)
		if completion.Failed != nil {
			w.metricsScope.Counter(metrics.WorkflowTaskFailedCounter).Inc(1)
		}
		w.metricsScope.Gauge(metrics.StickyCacheSize).Update(float64(w.wfTasks.CachedRunCount()))
		w.inFlightWorkflowTasks.Dec()

		if err := w.bw.CompleteWorkflowActivation(ctx, completion); err != nil {
			w.params.Logger.Warn("complete workflow activation failed", zap.Error(err))
		}
	}
}

// processWorkflowActivation applies the activation and then drains any
// local activities it scheduled: each one runs through the tunnel, its
// resolution is fed back as a synthetic activation, and only the final
// accumulated command set is completed back to the server.
func (w *AggregatedWorker) processWorkflowActivation(ctx context.Context, act *bridge.Activation) *bridge.Completion {
	completion := w.wfTasks.ProcessActivation(act)
	for {
		if completion.Failed != nil {
			return completion
		}
		commands, localActivities := splitLocalActivityCommands(completion.Successful.Commands)
		if len(localActivities) == 0 {
			completion.Successful.Commands = commands
			return completion
		}

		w.metricsScope.Counter(metrics.LocalActivityExecutionCounter).Inc(int64(len(localActivities)))
		laSw := w.metricsScope.Timer(metrics.LocalActivityExecutionLatency).Start()
		results := w.laTunnel.executeAll(ctx, localActivities)
		laSw.Stop()
		jobs := make([]bridge.Job, 0, len(results))
		for _, r := range results {
			jobs = append(jobs, bridge.ResolveActivityJob{Seq: r.seq, Result: r.result})
		}
		next := w.wfTasks.ProcessActivation(&bridge.Activation{
			RunID:     act.RunID,
			Timestamp: act.Timestamp,
			Jobs:      jobs,
		})
		if next.Failed != nil {
			return next
		}
		next.Successful.Commands = append(commands, next.Successful.Commands...)
		completion = next
	}
}

func splitLocalActivityCommands(commands []bridge.Command) ([]bridge.Command, []bridge.ScheduleLocalActivityCommand) {
	var rest []bridge.Command
	var local []bridge.ScheduleLocalActivityCommand
	for _, c := range commands {
		if la, ok := c.(bridge.ScheduleLocalActivityCommand); ok {
			local = append(local, la)
			continue
		}
		rest = append(rest, c)
	}
	return rest, local
}

func (w *AggregatedWorker) activityPollLoop() {
	defer w.wg.Done()
	ctx := context.Background()
	for {
		select {
		case <-w.stopCh:
			return
		default:
		}
		task, err := w.bw.PollActivityTask(ctx)
		if err != nil {
			if errors.Is(err, bridge.ErrBridgeShutdown) {
				return
			}
			w.params.Logger.Warn("poll activity task failed", zap.Error(err))
			continue
		}
		if task == nil {
			continue
		}
		if err := w.activityLimiter.Wait(ctx); err != nil {
			return
		}

		w.inFlightActivities.Inc()
		w.metricsScope.Counter(metrics.ActivityPollCounter).Inc(1)
		completion := w.actTasks.Execute(ctx, w.bw, task)
		w.inFlightActivities.Dec()

		if completion == nil {
			// Completing asynchronously through the client surface.
			continue
		}
		if completion.Cancelled != nil {
			w.metricsScope.Counter(metrics.ActivityTaskCanceledCounter).Inc(1)
		}
		if err := w.bw.CompleteActivityTask(ctx, completion); err != nil {
			w.params.Logger.Warn("complete activity task failed", zap.Error(err))
		}
	}
}

// CachedWorkflowRunCount reports how many workflow runs this worker
// currently holds resident in its sticky execution cache.
func (w *AggregatedWorker) CachedWorkflowRunCount() int { return w.wfTasks.CachedRunCount() }

// --- local activity tunnel ---

type localActivityTask struct {
	cmd      bridge.ScheduleLocalActivityCommand
	resultCh chan localActivityResult
}

type localActivityResult struct {
	seq    uint32
	result bridge.ActivityResolution
}

// localActivityTunnel feeds locally scheduled activities to a bounded pool
// of executor goroutines through a channel pair.
type localActivityTunnel struct {
	taskCh  chan *localActivityTask
	stopCh  chan struct{}
	workers int
	once    sync.Once
}

func newLocalActivityTunnel(workers int) *localActivityTunnel {
	return &localActivityTunnel{
		taskCh:  make(chan *localActivityTask, workers),
		stopCh:  make(chan struct{}),
		workers: workers,
	}
}

func (t *localActivityTunnel) start(handler *ActivityTaskHandler, wg *sync.WaitGroup) {
	for i := 0; i < t.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-t.stopCh:
					return
				case task := <-t.taskCh:
					task.resultCh <- localActivityResult{
						seq:    task.cmd.Seq,
						result: handler.executeLocal(task.cmd),
					}
				}
			}
		}()
	}
}

func (t *localActivityTunnel) stop() { t.once.Do(func() { close(t.stopCh) }) }

// executeAll runs every command through the pool and blocks for all
// results, returned in command order.
func (t *localActivityTunnel) executeAll(ctx context.Context, commands []bridge.ScheduleLocalActivityCommand) []localActivityResult {
	tasks := make([]*localActivityTask, len(commands))
	for i, cmd := range commands {
		task := &localActivityTask{cmd: cmd, resultCh: make(chan localActivityResult, 1)}
		tasks[i] = task
		select {
		case t.taskCh <- task:
		case <-t.stopCh:
			task.resultCh <- localActivityResult{seq: cmd.Seq, result: cancelledResolution()}
		}
	}
	results := make([]localActivityResult, len(tasks))
	for i, task := range tasks {
		results[i] = <-task.resultCh
	}
	return results
}

func cancelledResolution() bridge.ActivityResolution {
	return bridge.ActivityResolution{Cancelled: &bridge.Failure{
		Message: "worker is shutting down",
		Info:    bridge.CancelledFailureInfo{},
	}}
}
