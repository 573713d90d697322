package bridge

import "time"

// EventType identifies the kind of a history event. Only the close events
// carry dedicated attribute structs; everything else the client surfaces
// verbatim as an opaque event.
type EventType int

const (
	EventTypeUnspecified EventType = iota
	EventTypeWorkflowExecutionStarted
	EventTypeWorkflowExecutionCompleted
	EventTypeWorkflowExecutionFailed
	EventTypeWorkflowExecutionTimedOut
	EventTypeWorkflowExecutionCanceled
	EventTypeWorkflowExecutionTerminated
	EventTypeWorkflowExecutionContinuedAsNew
	EventTypeWorkflowTaskScheduled
	EventTypeWorkflowTaskStarted
	EventTypeWorkflowTaskCompleted
	EventTypeActivityTaskScheduled
	EventTypeActivityTaskStarted
	EventTypeActivityTaskCompleted
	EventTypeActivityTaskFailed
	EventTypeTimerStarted
	EventTypeTimerFired
	EventTypeWorkflowExecutionSignaled
	EventTypeMarkerRecorded
)

// HistoryEvent is one authoritative server record of what has happened for
// a run. Exactly one attributes field matching EventType is set for close
// events; other event kinds may leave all of them nil.
type HistoryEvent struct {
	EventID   int64
	EventTime time.Time
	EventType EventType

	WorkflowExecutionCompletedAttributes      *WorkflowExecutionCompletedAttributes
	WorkflowExecutionFailedAttributes         *WorkflowExecutionFailedAttributes
	WorkflowExecutionTimedOutAttributes       *WorkflowExecutionTimedOutAttributes
	WorkflowExecutionCanceledAttributes       *WorkflowExecutionCanceledAttributes
	WorkflowExecutionTerminatedAttributes     *WorkflowExecutionTerminatedAttributes
	WorkflowExecutionContinuedAsNewAttributes *WorkflowExecutionContinuedAsNewAttributes
}

type WorkflowExecutionCompletedAttributes struct {
	Result            []*Payload
	NewExecutionRunID string
}

type WorkflowExecutionFailedAttributes struct {
	Failure           *Failure
	RetryState        RetryState
	NewExecutionRunID string
}

type WorkflowExecutionTimedOutAttributes struct {
	RetryState        RetryState
	NewExecutionRunID string
}

type WorkflowExecutionCanceledAttributes struct {
	Details []*Payload
}

type WorkflowExecutionTerminatedAttributes struct {
	Reason  string
	Details []*Payload
}

type WorkflowExecutionContinuedAsNewAttributes struct {
	NewExecutionRunID string
	WorkflowType      string
	Input             []*Payload
}

// HistoryEventFilterType selects how much of the history a
// GetWorkflowExecutionHistory call returns.
type HistoryEventFilterType int

const (
	// HistoryEventFilterTypeAllEvent returns every event.
	HistoryEventFilterTypeAllEvent HistoryEventFilterType = iota
	// HistoryEventFilterTypeCloseEvent returns only the close event.
	HistoryEventFilterTypeCloseEvent
)
