package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/vehicle-select/engine/domain"
)

var fixedNow = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

type fakeResolver struct {
	mu        sync.Mutex
	makes     map[int][]string
	makesErr  error
	models    map[string][]string
	modelsErr error
	// gate, when set, blocks Makes for the keyed year until closed.
	gate map[int]chan struct{}
	// modelsGate blocks Models for the keyed make until closed.
	modelsGate map[string]chan struct{}
}

func (f *fakeResolver) Makes(_ context.Context, year int) ([]string, error) {
	f.mu.Lock()
	g := f.gate[year]
	f.mu.Unlock()
	if g != nil {
		<-g
	}
	if f.makesErr != nil {
		return nil, f.makesErr
	}
	if len(f.makes[year]) == 0 {
		return nil, domain.ErrNoMakes
	}
	return f.makes[year], nil
}

func (f *fakeResolver) Models(_ context.Context, _ int, mk string) ([]string, error) {
	f.mu.Lock()
	g := f.modelsGate[mk]
	f.mu.Unlock()
	if g != nil {
		<-g
	}
	if f.modelsErr != nil {
		return nil, f.modelsErr
	}
	m, ok := f.models[mk]
	if !ok {
		return []string{domain.CatchAllModel}, domain.ErrNoModels
	}
	return m, nil
}

func newResolver() *fakeResolver {
	return &fakeResolver{
		makes:  map[int][]string{2020: {"TOYOTA", "VOLVO"}, 2021: {"BMW"}},
		models: map[string][]string{"TOYOTA": {"Camry", "Corolla", "Other"}},
	}
}

func TestSelector_Cascade(t *testing.T) {
	var got []domain.Vehicle
	s := New(newResolver(), WithClock(fixedNow), WithOnSelect(func(_ context.Context, v domain.Vehicle) error {
		got = append(got, v)
		return nil
	}))
	ctx := context.Background()

	v, err := s.SelectYear(ctx, 2020)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, v.Status)
	assert.Equal(t, []string{"TOYOTA", "VOLVO"}, v.Makes)

	v, err = s.SelectMake(ctx, "TOYOTA")
	require.NoError(t, err)
	assert.Equal(t, []string{"Camry", "Corolla", "Other"}, v.Models)

	v, err = s.SelectModel(ctx, "Corolla")
	require.NoError(t, err)
	assert.Equal(t, "Corolla", v.Model)
	assert.Equal(t, []domain.Vehicle{{Year: 2020, Make: "TOYOTA", Model: "Corolla"}}, got)
}

func TestSelector_YearChangeClearsDownstream(t *testing.T) {
	s := New(newResolver(), WithClock(fixedNow))
	ctx := context.Background()
	_, _ = s.SelectYear(ctx, 2020)
	_, _ = s.SelectMake(ctx, "TOYOTA")
	_, _ = s.SelectModel(ctx, "Camry")

	v, err := s.SelectYear(ctx, 2021)
	require.NoError(t, err)
	assert.Empty(t, v.Make)
	assert.Empty(t, v.Model)
	assert.Nil(t, v.Models)
	assert.Equal(t, []string{"BMW"}, v.Makes)

	v, err = s.SelectYear(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, View{Status: StatusIdle}, v)
}

func TestSelector_YearOutOfRange(t *testing.T) {
	s := New(newResolver(), WithClock(fixedNow))
	_, err := s.SelectYear(context.Background(), 1990)
	assert.ErrorIs(t, err, domain.ErrYearOutOfRange)
	assert.Equal(t, StatusIdle, s.View().Status)
}

func TestSelector_NoMakesMessage(t *testing.T) {
	s := New(newResolver(), WithClock(fixedNow))
	v, err := s.SelectYear(context.Background(), 1999)
	require.NoError(t, err)
	assert.Equal(t, StatusError, v.Status)
	assert.Equal(t, domain.MsgNoMakes, v.Message)
	assert.Empty(t, v.Makes)
}

func TestSelector_FetchFailureMessage(t *testing.T) {
	r := newResolver()
	r.makesErr = domain.NewFetchError(domain.LevelMakes, domain.CategoryTruck, errors.New("boom"))
	s := New(r, WithClock(fixedNow))
	v, err := s.SelectYear(context.Background(), 2020)
	require.NoError(t, err)
	assert.Equal(t, domain.MsgMakesFailed, v.Message)
	assert.NotContains(t, v.Message, "boom")
}

func TestSelector_NoModelsKeepsCatchAll(t *testing.T) {
	s := New(newResolver(), WithClock(fixedNow))
	ctx := context.Background()
	_, _ = s.SelectYear(ctx, 2020)
	v, err := s.SelectMake(ctx, "VOLVO")
	require.NoError(t, err)
	assert.Equal(t, []string{"Other"}, v.Models)
	assert.Equal(t, domain.MsgNoModels, v.Message)

	v, err = s.SelectModel(ctx, "Other")
	require.NoError(t, err)
	assert.Equal(t, "Other", v.Model)
}

func TestSelector_ModelFetchFailureClearsList(t *testing.T) {
	r := newResolver()
	s := New(r, WithClock(fixedNow))
	ctx := context.Background()
	_, _ = s.SelectYear(ctx, 2020)
	_, _ = s.SelectMake(ctx, "TOYOTA")

	r.modelsErr = errors.New("timeout")
	v, err := s.SelectMake(ctx, "VOLVO")
	require.NoError(t, err)
	assert.Nil(t, v.Models)
	assert.Equal(t, domain.MsgModelsFailed, v.Message)
}

func TestSelector_Preconditions(t *testing.T) {
	s := New(newResolver(), WithClock(fixedNow))
	ctx := context.Background()

	_, err := s.SelectMake(ctx, "TOYOTA")
	assert.ErrorIs(t, err, domain.ErrIncompleteSelection)

	_, err = s.SelectModel(ctx, "Camry")
	assert.ErrorIs(t, err, domain.ErrIncompleteSelection)

	_, _ = s.SelectYear(ctx, 2020)
	_, err = s.SelectMake(ctx, "FERRARI")
	assert.ErrorIs(t, err, domain.ErrUnsupportedMake)

	_, _ = s.SelectMake(ctx, "TOYOTA")
	_, err = s.SelectModel(ctx, "Supra")
	assert.ErrorIs(t, err, domain.ErrUnknownModel)

	v, err := s.SelectMake(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, v.Make)
	assert.Nil(t, v.Models)
}

func TestSelector_StaleMakesDiscarded(t *testing.T) {
	r := newResolver()
	gate := make(chan struct{})
	r.gate = map[int]chan struct{}{2020: gate}
	s := New(r, WithClock(fixedNow))
	ctx := context.Background()

	done := make(chan View)
	go func() {
		v, _ := s.SelectYear(ctx, 2020)
		done <- v
	}()
	require.Eventually(t, func() bool { return s.View().Loading() }, time.Second, time.Millisecond)

	v, err := s.SelectYear(ctx, 2021)
	require.NoError(t, err)
	assert.Equal(t, []string{"BMW"}, v.Makes)

	close(gate)
	<-done
	cur := s.View()
	assert.Equal(t, 2021, cur.Year)
	assert.Equal(t, []string{"BMW"}, cur.Makes)
	assert.Equal(t, StatusResolved, cur.Status)
}

func TestSelector_ClearMakeKeepsPendingMakes(t *testing.T) {
	r := newResolver()
	gate := make(chan struct{})
	r.gate = map[int]chan struct{}{2020: gate}
	s := New(r, WithClock(fixedNow))
	ctx := context.Background()

	done := make(chan View)
	go func() {
		v, _ := s.SelectYear(ctx, 2020)
		done <- v
	}()
	require.Eventually(t, func() bool { return s.View().Loading() }, time.Second, time.Millisecond)

	v, err := s.SelectMake(ctx, "")
	require.NoError(t, err)
	assert.True(t, v.Loading(), "makes are still loading for the same year")

	close(gate)
	<-done
	cur := s.View()
	assert.Equal(t, 2020, cur.Year)
	assert.Equal(t, []string{"TOYOTA", "VOLVO"}, cur.Makes)
	assert.Equal(t, StatusResolved, cur.Status)
}

func TestSelector_ClearMakeDuringModelsLoad(t *testing.T) {
	r := newResolver()
	gate := make(chan struct{})
	r.modelsGate = map[string]chan struct{}{"TOYOTA": gate}
	s := New(r, WithClock(fixedNow))
	ctx := context.Background()
	_, err := s.SelectYear(ctx, 2020)
	require.NoError(t, err)

	done := make(chan View)
	go func() {
		v, _ := s.SelectMake(ctx, "TOYOTA")
		done <- v
	}()
	require.Eventually(t, func() bool { return s.View().Loading() }, time.Second, time.Millisecond)

	v, err := s.SelectMake(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, v.Status)
	assert.Empty(t, v.Make)

	close(gate)
	<-done
	cur := s.View()
	assert.Empty(t, cur.Make)
	assert.Nil(t, cur.Models)
	assert.Equal(t, StatusResolved, cur.Status)
	assert.Equal(t, []string{"TOYOTA", "VOLVO"}, cur.Makes)
}

func TestSelector_ClearMakeKeepsMakesError(t *testing.T) {
	r := newResolver()
	r.makesErr = errors.New("upstream down")
	s := New(r, WithClock(fixedNow))
	ctx := context.Background()
	_, _ = s.SelectYear(ctx, 2020)

	v, err := s.SelectMake(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, StatusError, v.Status)
	assert.Equal(t, domain.MsgMakesFailed, v.Message)
}

func TestSelector_CallbackError(t *testing.T) {
	s := New(newResolver(), WithClock(fixedNow), WithOnSelect(func(context.Context, domain.Vehicle) error {
		return errors.New("publish failed")
	}))
	ctx := context.Background()
	_, _ = s.SelectYear(ctx, 2020)
	_, _ = s.SelectMake(ctx, "TOYOTA")
	v, err := s.SelectModel(ctx, "Camry")
	assert.Error(t, err)
	assert.Equal(t, "Camry", v.Model)
}

func TestSelector_ViewIsCopy(t *testing.T) {
	s := New(newResolver(), WithClock(fixedNow))
	v, _ := s.SelectYear(context.Background(), 2020)
	v.Makes[0] = "MUTATED"
	assert.Equal(t, "TOYOTA", s.View().Makes[0])
}

func TestSelector_Years(t *testing.T) {
	s := New(newResolver(), WithClock(fixedNow))
	years := s.Years()
	assert.Equal(t, 2025, years[0])
	assert.Equal(t, domain.MinModelYear, years[len(years)-1])
}

func TestStore(t *testing.T) {
	st := NewStore(func() *Selector { return New(newResolver(), WithClock(fixedNow)) })
	id, sel := st.Create()
	require.NotNil(t, sel)
	assert.Equal(t, 1, st.Len())

	got, err := st.Get(id)
	require.NoError(t, err)
	assert.Same(t, sel, got)

	_, err = st.Get("not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get("6f1c1c52-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)

	st.Delete(id)
	assert.Equal(t, 0, st.Len())
}
