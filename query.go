package gocrm

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var defaultClient = sync.OnceValue(func() *Client { return NewClient() })

// Search runs a one-shot search with a default Client.
func Search(ctx context.Context, criteria SearchCriteria) (*SearchResult, error) {
	return defaultClient().Search(ctx, criteria)
}

// Search validates criteria, queries the portal and normalizes the response.
// Validation errors are returned before any request is made. Every error is an *Error.
func (c *Client) Search(ctx context.Context, criteria SearchCriteria) (result *SearchResult, err error) {
	ctx, span := c.tracer.Start(ctx, "gocrm.Search", trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	log := c.logger.With().Str("request_id", uuid.NewString()).Logger()

	validated, err := ValidateCriteria(criteria)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected search criteria")
		return nil, err
	}
	span.SetAttributes(attribute.String("crm.state", validated.State))

	body, err := BuildPayload(validated)
	if err != nil {
		// Unreachable: searchRequest holds only strings and ints.
		return nil, newError(ErrCodeUpstream, "failed to encode request", err)
	}

	log.Debug().Str("state", validated.State).Msg("Searching doctors")

	raw, err := c.post(ctx, body)
	if err != nil {
		log.Warn().Err(err).Msg("Search request failed")
		return nil, newError(ErrCodeNetwork, "network error", err)
	}

	result, err = ParseResponse(*raw)
	if err != nil {
		log.Warn().Str("status", raw.Status).Msg("Portal returned an error status")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("crm.result_count", len(result.Doctors)),
		attribute.Int("crm.total", result.Total),
	)
	log.Debug().Int("returned", len(result.Doctors)).Int("total", result.Total).Msg("Search finished")

	return result, nil
}

// SearchMany runs one search per criteria concurrently, at most the configured
// concurrency at a time. Results are in input order. On failure the first error
// is returned along with whatever results completed; failed slots are nil.
func (c *Client) SearchMany(ctx context.Context, criteria []SearchCriteria) ([]*SearchResult, error) {
	results := make([]*SearchResult, len(criteria))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, cr := range criteria {
		i, cr := i, cr
		g.Go(func() error {
			result, err := c.Search(ctx, cr)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

// Query accumulates search criteria through chained setters.
// A Query is not safe for concurrent use; give each goroutine its own.
//
//	result, err := client.Query().State("RS").CRM("43327").Search(ctx)
type Query struct {
	client *Client
	state  *string
	crm    *string
	name   *string
}

// NewQuery returns an empty Query that searches with client, or with a default
// Client when client is nil.
func NewQuery(client *Client) *Query {
	return &Query{client: client}
}

// Query returns an empty Query bound to c.
func (c *Client) Query() *Query {
	return NewQuery(c)
}

// State sets the state (UF). It is upper-cased immediately.
func (q *Query) State(uf string) *Query {
	q.state = String(strings.ToUpper(uf))
	return q
}

// CRM sets the registration number.
func (q *Query) CRM(number string) *Query {
	q.crm = String(number)
	return q
}

// Name sets the (partial) doctor name.
func (q *Query) Name(name string) *Query {
	q.name = String(name)
	return q
}

// Reset clears every field back to unset.
func (q *Query) Reset() *Query {
	q.state = nil
	q.crm = nil
	q.name = nil
	return q
}

// Criteria returns a snapshot of the accumulated fields. Later changes to q
// do not affect the returned value.
func (q *Query) Criteria() SearchCriteria {
	var criteria SearchCriteria
	if q.state != nil {
		criteria.State = *q.state
	}
	if q.crm != nil {
		criteria.CRM = String(*q.crm)
	}
	if q.name != nil {
		criteria.Name = String(*q.name)
	}
	return criteria
}

// Search runs the accumulated criteria. It behaves exactly like Client.Search.
func (q *Query) Search(ctx context.Context) (*SearchResult, error) {
	client := q.client
	if client == nil {
		client = defaultClient()
	}
	return client.Search(ctx, q.Criteria())
}
