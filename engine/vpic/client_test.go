package vpic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/vehicle-select/engine/domain"
	"github.com/WessleyAI/vehicle-select/pkg/metrics"
	"github.com/WessleyAI/vehicle-select/pkg/resilience"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.RateLimit = 0
	cfg.Breaker = resilience.BreakerOpts{FailThreshold: 2, Timeout: time.Minute}
	return New(cfg, opts...), srv
}

func TestMakesForVehicleType(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Count":2,"Message":"Response returned successfully","Results":[
			{"MakeId":448,"MakeName":"TOYOTA","VehicleTypeId":2,"VehicleTypeName":"Passenger Car"},
			{"MakeId":474,"MakeName":"HONDA","VehicleTypeId":2,"VehicleTypeName":"Passenger Car"}]}`))
	})

	recs, err := c.MakesForVehicleType(context.Background(), domain.CategoryMPV, 2020)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "TOYOTA", recs[0].MakeName)
	assert.Equal(t, "Passenger Car", recs[1].VehicleTypeName)
	assert.Equal(t, "/GetMakesForVehicleType/multipurpose%20passenger%20vehicle%20%28mpv%29", gotPath)
	assert.Equal(t, "year=2020&format=json", gotQuery)
	assert.Contains(t, gotUA, "wessley-vehicle-select")
}

func TestModelsForMakeYear(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"Count":1,"Results":[{"Make_ID":449,"Make_Name":"MERCEDES-BENZ","Model_ID":1,"Model_Name":"Sprinter"}]}`))
	})

	recs, err := c.ModelsForMakeYear(context.Background(), "Mercedes-Benz", 2019, domain.CategoryTruck)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Sprinter", recs[0].ModelName)
	assert.Equal(t, 1, recs[0].ModelID)
	assert.Equal(t, "/GetModelsForMakeYear/make/Mercedes-Benz/modelyear/2019/vehicletype/truck", gotPath)
}

func TestModelsForMakeYear_EscapesMake(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"Results":[]}`))
	})

	recs, err := c.ModelsForMakeYear(context.Background(), "LAND ROVER", 2021, domain.CategoryPassengerCar)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.True(t, strings.HasPrefix(gotPath, "/GetModelsForMakeYear/make/LAND%20ROVER/"), gotPath)
}

func TestGet_StatusError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.MakesForVehicleType(context.Background(), domain.CategoryTruck, 2020)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}

func TestGet_DecodeError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := c.MakesForVehicleType(context.Background(), domain.CategoryTruck, 2020)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestGet_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := c.MakesForVehicleType(ctx, domain.CategoryTruck, 2020)
		require.Error(t, err)
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())

	_, err := c.MakesForVehicleType(ctx, domain.CategoryTruck, 2020)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGet_ContextCanceled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Results":[]}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.MakesForVehicleType(ctx, domain.CategoryTruck, 2020)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGet_RecordsMetrics(t *testing.T) {
	reg := metrics.New()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Results":[{"MakeName":"KIA"}]}`))
	}, WithMetrics(reg))

	_, err := c.MakesForVehicleType(context.Background(), domain.CategoryPassengerCar, 2022)
	require.NoError(t, err)

	out := reg.Render()
	assert.Contains(t, out, `vselect_vpic_requests_total{endpoint="makes",outcome="ok"} 1`)
	assert.Contains(t, out, "vselect_vpic_request_duration_seconds_count")
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, 15*time.Second, c.http.Timeout)
	assert.Equal(t, 3, c.limiter.Burst())

	hc := &http.Client{}
	c = New(Config{}, WithHTTPClient(hc))
	assert.Same(t, hc, c.http)
}

func TestBreaker_HalfOpenAdmitsFullStep(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"Results":[{"MakeName":"TOYOTA"}]}`))
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	assert.Equal(t, len(domain.Categories), cfg.Breaker.HalfOpenMax)
	cfg.BaseURL = srv.URL
	cfg.RateLimit = 0
	cfg.Breaker.FailThreshold = 1
	cfg.Breaker.Timeout = 20 * time.Millisecond
	c := New(cfg)

	_, err := c.MakesForVehicleType(context.Background(), domain.CategoryPassengerCar, 2020)
	require.Error(t, err)
	require.Equal(t, resilience.StateOpen, c.BreakerState())
	time.Sleep(30 * time.Millisecond)

	// one resolution step after recovery: all categories at once
	var wg sync.WaitGroup
	errs := make([]error, len(domain.Categories))
	for i, cat := range domain.Categories {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.MakesForVehicleType(context.Background(), cat, 2020)
		}()
	}
	wg.Wait()
	for i, err := range errs {
		assert.NoError(t, err, "category %s", domain.Categories[i])
	}
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}
