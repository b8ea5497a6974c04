// Package metrics exposes Prometheus instrumentation for the project store.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
)

const namespace = "pandora"

// StoreMetrics holds the collectors shared by instrumented stores.
type StoreMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewStoreMetrics creates the collectors and registers them with reg.
func NewStoreMetrics(reg prometheus.Registerer) (*StoreMetrics, error) {
	m := &StoreMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "project_store",
			Name:      "operations_total",
			Help:      "Project store operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "project_store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of project store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	if err := reg.Register(m.operations); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		m.operations = already.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := reg.Register(m.duration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		m.duration = already.ExistingCollector.(*prometheus.HistogramVec)
	}
	return m, nil
}

func (m *StoreMetrics) observe(op string, start time.Time, err error) {
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.operations.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apierrors.KindOf(err).String()
}

// InstrumentProjects wraps repo so that every call is counted and timed.
func InstrumentProjects(repo repository.ProjectRepository, m *StoreMetrics) repository.ProjectRepository {
	return &instrumentedProjects{next: repo, m: m}
}

type instrumentedProjects struct {
	next repository.ProjectRepository
	m    *StoreMetrics
}

func (r *instrumentedProjects) Create(ctx context.Context, project *models.Project) (err error) {
	defer func(start time.Time) { r.m.observe("create", start, err) }(time.Now())
	return r.next.Create(ctx, project)
}

func (r *instrumentedProjects) FindByID(ctx context.Context, id string) (_ *models.Project, err error) {
	defer func(start time.Time) { r.m.observe("find", start, err) }(time.Now())
	return r.next.FindByID(ctx, id)
}

func (r *instrumentedProjects) Update(ctx context.Context, id string, upd repository.ProjectUpdate) (_ repository.UpdateResult, err error) {
	defer func(start time.Time) { r.m.observe("update", start, err) }(time.Now())
	return r.next.Update(ctx, id, upd)
}

func (r *instrumentedProjects) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { r.m.observe("delete", start, err) }(time.Now())
	return r.next.Delete(ctx, id)
}

func (r *instrumentedProjects) AddTask(ctx context.Context, projectID string, in repository.TaskInput, creatorID string) (_ *models.Task, err error) {
	defer func(start time.Time) { r.m.observe("add_task", start, err) }(time.Now())
	return r.next.AddTask(ctx, projectID, in, creatorID)
}

func (r *instrumentedProjects) FindTask(ctx context.Context, projectID, taskID string) (_ *models.Task, err error) {
	defer func(start time.Time) { r.m.observe("find_task", start, err) }(time.Now())
	return r.next.FindTask(ctx, projectID, taskID)
}

func (r *instrumentedProjects) UpdateTask(ctx context.Context, projectID, taskID string, upd repository.TaskUpdate) (err error) {
	defer func(start time.Time) { r.m.observe("update_task", start, err) }(time.Now())
	return r.next.UpdateTask(ctx, projectID, taskID, upd)
}

func (r *instrumentedProjects) UpdateTaskStatus(ctx context.Context, projectID, taskID string, status models.TaskStatus) (err error) {
	defer func(start time.Time) { r.m.observe("update_task_status", start, err) }(time.Now())
	return r.next.UpdateTaskStatus(ctx, projectID, taskID, status)
}

func (r *instrumentedProjects) DeleteTask(ctx context.Context, projectID, taskID string) (err error) {
	defer func(start time.Time) { r.m.observe("delete_task", start, err) }(time.Now())
	return r.next.DeleteTask(ctx, projectID, taskID)
}

func (r *instrumentedProjects) ListVisibleTo(ctx context.Context, userID string) (_ []models.Project, err error) {
	defer func(start time.Time) { r.m.observe("list_visible", start, err) }(time.Now())
	return r.next.ListVisibleTo(ctx, userID)
}

func (r *instrumentedProjects) ListAll(ctx context.Context) (_ []models.Project, err error) {
	defer func(start time.Time) { r.m.observe("list_all", start, err) }(time.Now())
	return r.next.ListAll(ctx)
}

func (r *instrumentedProjects) UpcomingTasks(ctx context.Context, filter repository.UpcomingFilter) (_ []repository.TaskSummary, err error) {
	defer func(start time.Time) { r.m.observe("upcoming_tasks", start, err) }(time.Now())
	return r.next.UpcomingTasks(ctx, filter)
}

func (r *instrumentedProjects) UnassignUser(ctx context.Context, userID string) (_ int64, err error) {
	defer func(start time.Time) { r.m.observe("unassign_user", start, err) }(time.Now())
	return r.next.UnassignUser(ctx, userID)
}

func (r *instrumentedProjects) DetachWorkPackage(ctx context.Context, projectID, workPackageID string) (_ int64, err error) {
	defer func(start time.Time) { r.m.observe("detach_work_package", start, err) }(time.Now())
	return r.next.DetachWorkPackage(ctx, projectID, workPackageID)
}

func (r *instrumentedProjects) Stats(ctx context.Context) (_ repository.ProjectStats, err error) {
	defer func(start time.Time) { r.m.observe("stats", start, err) }(time.Now())
	return r.next.Stats(ctx)
}
