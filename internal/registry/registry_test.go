package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/polytrack/internal/configstore"
	"github.com/dbsmedya/polytrack/internal/tracker"
)

func newTestRegistry(t *testing.T) (*Registry, *MemoryRegistrar) {
	t.Helper()
	tr := tracker.New(configstore.NewMemory(), "default", nil)
	reg := NewMemoryRegistrar()
	r := New(tr, reg, nil)
	require.NoError(t, r.Initialize(context.Background()))
	return r, reg
}

func addTarget(t *testing.T, r *Registry, typ, table, model string) {
	t.Helper()
	require.NoError(t, r.AddPolymorphicTarget(context.Background(), typ, table, model, nil))
}

func TestOperationsBeforeInitialize(t *testing.T) {
	tr := tracker.New(configstore.NewMemory(), "default", nil)
	r := New(tr, NewMemoryRegistrar(), nil)
	ctx := context.Background()

	assert.ErrorIs(t, r.RegisterPolymorphicRelationship("activity_logs", "loggable", "loggable", "loggable_id", "loggable_type"), ErrNotInitialized)
	assert.ErrorIs(t, r.RegisterPolymorphicTargetRelationships("activity_logs", "loggable", "loggable_id", "loggable_type", false), ErrNotInitialized)
	assert.ErrorIs(t, r.RegisterReversePolymorphicRelationships("jobs", "loggable", "activity_logs", "loggable_id"), ErrNotInitialized)
	assert.ErrorIs(t, r.AddPolymorphicTarget(ctx, "loggable", "jobs", "Job", nil), ErrNotInitialized)
	assert.ErrorIs(t, r.RemovePolymorphicTarget(ctx, "loggable", "jobs"), ErrNotInitialized)
	assert.ErrorIs(t, r.DeactivatePolymorphicTarget(ctx, "loggable", "jobs"), ErrNotInitialized)

	_, err := r.ValidTargets("loggable", false)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = r.IsValidTarget("loggable", "jobs", false)
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.Empty(t, r.DiscoverPolymorphicRelationships())
}

func TestInitializeIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)
	assert.NoError(t, r.Initialize(context.Background()))
}

func TestRegisterPolymorphicRelationship(t *testing.T) {
	r, reg := newTestRegistry(t)
	addTarget(t, r, "loggable", "jobs", "Job")
	addTarget(t, r, "loggable", "tasks", "Task")

	require.NoError(t, r.RegisterPolymorphicRelationship("activity_logs", "loggable", "loggable", "loggable_id", "loggable_type"))

	d, ok := reg.Metadata("loggable")
	require.True(t, ok)
	assert.Equal(t, KindPolymorphic, d.Kind)
	assert.Equal(t, "activity_logs", d.SourceTable)
	assert.Equal(t, "loggable_id", d.IDField)
	assert.Equal(t, "loggable_type", d.TypeField)
	assert.Equal(t, "loggable", d.PolymorphicType)
	assert.Equal(t, []string{"jobs", "tasks"}, d.ValidTargets)
	assert.True(t, IsPolymorphic(d))
}

func TestRegisterPolymorphicTargetRelationships(t *testing.T) {
	r, reg := newTestRegistry(t)
	addTarget(t, r, "loggable", "jobs", "Job")
	addTarget(t, r, "loggable", "tasks", "Task")

	require.NoError(t, r.RegisterPolymorphicTargetRelationships("activity_logs", "loggable", "loggable_id", "loggable_type", false))

	names := reg.ValidRelationships()
	assert.ElementsMatch(t, []string{"activity_logs.loggableJob", "activity_logs.loggableTask"}, names)

	d, ok := reg.Metadata("activity_logs.loggableJob")
	require.True(t, ok)
	assert.Equal(t, KindDirect, d.Kind)
	assert.Equal(t, "activity_logs", d.SourceTable)
	assert.Equal(t, "jobs", d.TargetTable)
	assert.Equal(t, "Job", d.TargetModel)
	assert.Equal(t, "loggable", d.PolymorphicType)
	assert.False(t, d.Reverse)
	assert.False(t, IsPolymorphic(d))
}

func TestFanoutResyncsOnTargetChanges(t *testing.T) {
	r, reg := newTestRegistry(t)
	addTarget(t, r, "loggable", "jobs", "Job")

	require.NoError(t, r.RegisterPolymorphicTargetRelationships("activity_logs", "loggable", "loggable_id", "loggable_type", false))
	assert.Equal(t, []string{"activity_logs.loggableJob"}, reg.ValidRelationships())

	// a later add shows up without re-registering
	addTarget(t, r, "loggable", "tasks", "Task")
	assert.ElementsMatch(t, []string{"activity_logs.loggableJob", "activity_logs.loggableTask"}, reg.ValidRelationships())

	// deactivation removes the concrete entry
	require.NoError(t, r.DeactivatePolymorphicTarget(context.Background(), "loggable", "jobs"))
	assert.Equal(t, []string{"activity_logs.loggableTask"}, reg.ValidRelationships())

	// removal does too
	require.NoError(t, r.RemovePolymorphicTarget(context.Background(), "loggable", "tasks"))
	assert.Empty(t, reg.ValidRelationships())
}

func TestFanoutIncludesInactiveWhenAsked(t *testing.T) {
	r, reg := newTestRegistry(t)
	addTarget(t, r, "loggable", "jobs", "Job")
	require.NoError(t, r.DeactivatePolymorphicTarget(context.Background(), "loggable", "jobs"))

	require.NoError(t, r.RegisterPolymorphicTargetRelationships("activity_logs", "loggable", "loggable_id", "loggable_type", true))
	assert.Equal(t, []string{"activity_logs.loggableJob"}, reg.ValidRelationships())
}

func TestUmbrellaResyncsOnTargetChanges(t *testing.T) {
	r, reg := newTestRegistry(t)
	addTarget(t, r, "notable", "jobs", "Job")

	require.NoError(t, r.RegisterPolymorphicRelationship("notes", "notable", "notable", "notable_id", "notable_type"))

	addTarget(t, r, "notable", "tasks", "Task")
	d, ok := reg.Metadata("notable")
	require.True(t, ok)
	assert.Equal(t, []string{"jobs", "tasks"}, d.ValidTargets)

	require.NoError(t, r.RemovePolymorphicTarget(context.Background(), "notable", "jobs"))
	d, _ = reg.Metadata("notable")
	assert.Equal(t, []string{"tasks"}, d.ValidTargets)
}

func TestRegisterReversePolymorphicRelationships(t *testing.T) {
	r, reg := newTestRegistry(t)
	addTarget(t, r, "loggable", "jobs", "Job")

	require.NoError(t, r.RegisterReversePolymorphicRelationships("jobs", "loggable", "activity_logs", "loggable_id"))

	d, ok := reg.Metadata("jobs.activityLogs")
	require.True(t, ok)
	assert.Equal(t, KindDirect, d.Kind)
	assert.True(t, d.Reverse)
	assert.Equal(t, "jobs", d.SourceTable)
	assert.Equal(t, "activity_logs", d.TargetTable)
	assert.Equal(t, "loggable", d.PolymorphicType)
}

func TestValidTargetPassThrough(t *testing.T) {
	r, _ := newTestRegistry(t)
	addTarget(t, r, "loggable", "jobs", "Job")

	targets, err := r.ValidTargets("loggable", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"jobs"}, targets)

	ok, err := r.IsValidTarget("loggable", "jobs", false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsValidTarget("loggable", "users", false)
	require.NoError(t, err)
	assert.False(t, ok)

	targets, err = r.ValidTargets("billable", false)
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestDiscoverPolymorphicRelationships(t *testing.T) {
	r, _ := newTestRegistry(t)
	addTarget(t, r, "loggable", "jobs", "Job")

	require.NoError(t, r.RegisterPolymorphicRelationship("activity_logs", "loggable", "loggable", "loggable_id", "loggable_type"))
	require.NoError(t, r.RegisterPolymorphicTargetRelationships("activity_logs", "loggable", "loggable_id", "loggable_type", false))

	found := r.DiscoverPolymorphicRelationships()
	require.Len(t, found, 1)
	assert.Equal(t, "loggable", found[0].Name)
	assert.Equal(t, KindPolymorphic, found[0].Kind)
}

func TestAddTargetErrorPropagates(t *testing.T) {
	r, _ := newTestRegistry(t)
	err := r.AddPolymorphicTarget(context.Background(), "", "jobs", "Job", nil)
	assert.Error(t, err)
}

// errorRegistrar fails every Register call.
type errorRegistrar struct{}

func (errorRegistrar) Register(Descriptor) error          { return errors.New("registration rejected") }
func (errorRegistrar) ValidRelationships() []string       { return nil }
func (errorRegistrar) Metadata(string) (Descriptor, bool) { return Descriptor{}, false }

func TestRegistrarErrorPropagates(t *testing.T) {
	tr := tracker.New(configstore.NewMemory(), "default", nil)
	r := New(tr, errorRegistrar{}, nil)
	require.NoError(t, r.Initialize(context.Background()))
	require.NoError(t, tr.AddTarget(context.Background(), "loggable", "jobs", "Job", nil))

	err := r.RegisterPolymorphicRelationship("activity_logs", "loggable", "loggable", "loggable_id", "loggable_type")
	assert.ErrorContains(t, err, "registration rejected")

	err = r.RegisterPolymorphicTargetRelationships("activity_logs", "loggable", "loggable_id", "loggable_type", false)
	assert.ErrorContains(t, err, "registration rejected")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "direct", KindDirect.String())
	assert.Equal(t, "polymorphic", KindPolymorphic.String())
}

func TestToCamel(t *testing.T) {
	assert.Equal(t, "activityLogs", toCamel("activity_logs"))
	assert.Equal(t, "jobs", toCamel("jobs"))
	assert.Equal(t, "", toCamel(""))
}
