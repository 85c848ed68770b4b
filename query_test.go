package gocrm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newStateServer answers with one doctor registered in the requested state.
func newStateServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload []searchRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payload[0].Doctor.State == "AC" {
			json.NewEncoder(w).Encode(RawResponse{Status: "erro"})
			return
		}
		row := mockRawDoctor()
		row.State = FlexString(payload[0].Doctor.State)
		json.NewEncoder(w).Encode(mockAPIResponse([]RawDoctor{row}))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestQuery_Criteria(t *testing.T) {
	q := NewQuery(nil).State("rs").CRM("43327").Name("Nayhany")

	criteria := q.Criteria()
	assert.Equal(t, "RS", criteria.State)
	require.NotNil(t, criteria.CRM)
	assert.Equal(t, "43327", *criteria.CRM)
	require.NotNil(t, criteria.Name)
	assert.Equal(t, "Nayhany", *criteria.Name)

	q.CRM("1")
	assert.Equal(t, "43327", *criteria.CRM, "snapshot must not change with the builder")
}

func TestQuery_Reset(t *testing.T) {
	q := NewQuery(nil).State("SP").CRM("1").Name("x")

	q.Reset()

	assert.Equal(t, SearchCriteria{}, q.Criteria())
}

func TestQuery_ResetThenSearchMatchesOneShot(t *testing.T) {
	ctx := context.Background()

	_, builderErr := NewQuery(nil).State("RS").Reset().Search(ctx)
	_, oneShotErr := Search(ctx, SearchCriteria{State: ""})

	require.Error(t, builderErr)
	require.Error(t, oneShotErr)
	assert.Equal(t, ErrCodeInvalidState, CodeOf(builderErr))
	assert.Equal(t, CodeOf(oneShotErr), CodeOf(builderErr))
	assert.Equal(t, oneShotErr.Error(), builderErr.Error())
}

func TestQuery_Search(t *testing.T) {
	server := newStateServer(t)
	client := NewClient(WithBaseURL(server.URL))

	result, err := client.Query().State("mg").Name("Nayhany").Search(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Doctors, 1)
	assert.Equal(t, "MG", result.Doctors[0].State)
	assert.Equal(t, 1, result.Total)
}

func TestQuery_SearchPropagatesErrors(t *testing.T) {
	server := newStateServer(t)
	client := NewClient(WithBaseURL(server.URL))

	_, err := client.Query().State("RS").CRM("12-34").Search(context.Background())
	assert.Equal(t, ErrCodeInvalidCRM, CodeOf(err))

	_, err = client.Query().State("AC").Search(context.Background())
	assert.Equal(t, ErrCodeUpstream, CodeOf(err))
}

func TestSearchMany(t *testing.T) {
	server := newStateServer(t)
	client := NewClient(WithBaseURL(server.URL), WithConcurrency(2))

	states := []string{"RS", "SP", "MG", "BA", "PE"}
	criteria := make([]SearchCriteria, len(states))
	for i, uf := range states {
		criteria[i] = SearchCriteria{State: uf}
	}

	results, err := client.SearchMany(context.Background(), criteria)
	require.NoError(t, err)
	require.Len(t, results, len(states))
	for i, uf := range states {
		require.NotNil(t, results[i])
		assert.Equal(t, uf, results[i].Doctors[0].State)
	}
}

func TestSearchMany_PartialFailure(t *testing.T) {
	server := newStateServer(t)
	client := NewClient(WithBaseURL(server.URL), WithConcurrency(1))

	results, err := client.SearchMany(context.Background(), []SearchCriteria{
		{State: "RS"},
		{State: "XX"},
	})
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidState, CodeOf(err))
	require.Len(t, results, 2)
	assert.Nil(t, results[1])
}

func TestSearchMany_Empty(t *testing.T) {
	results, err := NewClient().SearchMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestConcurrentSearches(t *testing.T) {
	server := newStateServer(t)
	client := NewClient(WithBaseURL(server.URL))

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Query().State("RS").Search(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestSearch_Tracing(t *testing.T) {
	server := newStateServer(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	client := NewClient(WithBaseURL(server.URL), WithTracerProvider(tp))

	_, err := client.Search(context.Background(), SearchCriteria{State: "RS"})
	require.NoError(t, err)
	_, err = client.Search(context.Background(), SearchCriteria{State: "AC"})
	require.Error(t, err)

	var searches, children []sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		if span.Name() == "gocrm.Search" {
			searches = append(searches, span)
		} else {
			children = append(children, span)
		}
	}
	require.Len(t, searches, 2)

	ok := searches[0]
	assert.Contains(t, ok.Attributes(), attribute.String("crm.state", "RS"))
	assert.Contains(t, ok.Attributes(), attribute.Int("crm.result_count", 1))
	assert.Contains(t, ok.Attributes(), attribute.Int("crm.total", 1))
	assert.NotEqual(t, codes.Error, ok.Status().Code)

	failed := searches[1]
	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.Contains(t, failed.Attributes(), attribute.String("crm.state", "AC"))

	// The instrumented transport records the HTTP call under each search span.
	require.Len(t, children, 2)
	for i, search := range searches {
		assert.Equal(t, search.SpanContext().TraceID(), children[i].SpanContext().TraceID())
		assert.Equal(t, search.SpanContext().SpanID(), children[i].Parent().SpanID())
	}
}

func TestSearch_Logging(t *testing.T) {
	server := newStateServer(t)
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	client := NewClient(WithBaseURL(server.URL), WithLogger(logger))

	_, err := client.Search(context.Background(), SearchCriteria{State: "RS"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"request_id"`)
	assert.Contains(t, buf.String(), "Search finished")

	buf.Reset()
	_, err = client.Search(context.Background(), SearchCriteria{State: "AC"})
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"status":"erro"`)
}
