package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
)

// stubProjects answers FindByID from a fixed map and leaves everything else
// to the embedded nil interface.
type stubProjects struct {
	repository.ProjectRepository
	projects map[string]*models.Project
}

func (s *stubProjects) FindByID(_ context.Context, id string) (*models.Project, error) {
	if p, ok := s.projects[id]; ok {
		return p, nil
	}
	return nil, apierrors.NotFound("project")
}

func TestInstrumentProjects_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewStoreMetrics(reg)
	require.NoError(t, err)

	repo := InstrumentProjects(&stubProjects{projects: map[string]*models.Project{"p1": {ID: "p1"}}}, m)

	_, err = repo.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	_, err = repo.FindByID(context.Background(), "p2")
	assert.ErrorIs(t, err, apierrors.ErrNotFound)
	_, err = repo.FindByID(context.Background(), "p3")
	assert.ErrorIs(t, err, apierrors.ErrNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("find", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("find", "not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestNewStoreMetrics_ReRegistrationIsTolerated(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewStoreMetrics(reg)
	require.NoError(t, err)
	second, err := NewStoreMetrics(reg)
	require.NoError(t, err)

	assert.Same(t, first.operations, second.operations)
}
