package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "taskforge"

// Metrics holds all TaskForge metric instruments.
type Metrics struct {
	TasksProcessed metric.Int64Counter
	TasksFailed    metric.Int64Counter
	ToolCalls      metric.Int64Counter
	ToolFailures   metric.Int64Counter
	TaskDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TasksProcessed, err = meter.Int64Counter("taskforge.tasks.processed",
		metric.WithDescription("Number of task processing passes completed"))
	if err != nil {
		return nil, err
	}

	m.TasksFailed, err = meter.Int64Counter("taskforge.tasks.failed",
		metric.WithDescription("Number of tasks resolved as failed"))
	if err != nil {
		return nil, err
	}

	m.ToolCalls, err = meter.Int64Counter("taskforge.toolcalls",
		metric.WithDescription("Number of tool invocations"))
	if err != nil {
		return nil, err
	}

	m.ToolFailures, err = meter.Int64Counter("taskforge.toolcalls.failed",
		metric.WithDescription("Number of tool invocations with a failed outcome"))
	if err != nil {
		return nil, err
	}

	m.TaskDuration, err = meter.Float64Histogram("taskforge.task.duration_seconds",
		metric.WithDescription("Task processing pass duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
