// Package service implements the phone-match resolver: recognize a loyalty
// customer by phone number against the registry, enrolling a minimal record
// when no match exists.
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"loyalty-gateway/internal/enroll/metrics"
	"loyalty-gateway/internal/registry"
	"loyalty-gateway/internal/tracer"
	dErrors "loyalty-gateway/pkg/domain-errors"
)

// pageSize is the fixed page size for walking the registry's customer list.
const pageSize = 100

// minPhoneLength is the shortest input accepted for resolution.
const minPhoneLength = 8

// RegistryAPI is the slice of the registry client the resolver needs.
type RegistryAPI interface {
	ListCustomers(ctx context.Context, page, size int, includeDeleted bool) (*registry.SearchPage, error)
	CreateCustomers(ctx context.Context, batch []registry.CustomerPayload) ([]registry.CustomerRef, json.RawMessage, error)
	GetCustomer(ctx context.Context, customerID string) (*registry.Customer, error)
}

// Resolution is the outcome of a phone resolution.
// IsNew is true only when no existing match was found and a record was created.
type Resolution struct {
	Customer *registry.Customer
	IsNew    bool
}

// Service resolves phone numbers to registry customers. Concurrent
// resolutions for the same phone number share one search-then-create
// sequence, so identical kiosk submissions create at most one customer.
type Service struct {
	registry RegistryAPI
	logger   *slog.Logger
	tracer   tracer.Tracer
	metrics  *metrics.Metrics
	inflight singleflight.Group
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer sets the tracer for the service.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithMetrics enables Prometheus metrics for resolutions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a phone-match resolver backed by the given registry client.
func New(reg RegistryAPI, opts ...Option) *Service {
	s := &Service{
		registry: reg,
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve looks up the customer whose stored phone matches one of the input's
// candidate forms, creating a minimal record when none exists. Validation
// failures short-circuit before any registry call.
func (s *Service) Resolve(ctx context.Context, phoneNumber string) (*Resolution, error) {
	if len(phoneNumber) < minPhoneLength {
		s.metrics.RecordResolution(metrics.OutcomeInvalid)
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid phone number")
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanEnrollResolve)
	result, err, _ := s.inflight.Do(phoneNumber, func() (any, error) {
		return s.resolve(ctx, phoneNumber)
	})
	if err != nil {
		span.End(err)
		s.metrics.RecordResolution(metrics.OutcomeError)
		return nil, err
	}

	resolution := result.(*Resolution)
	span.SetAttributes(tracer.Bool(tracer.AttrIsNew, resolution.IsNew))
	span.End(nil)
	if resolution.IsNew {
		s.metrics.RecordResolution(metrics.OutcomeCreated)
	} else {
		s.metrics.RecordResolution(metrics.OutcomeMatched)
	}
	return resolution, nil
}

// resolve runs the search-then-create sequence for one phone number.
func (s *Service) resolve(ctx context.Context, phoneNumber string) (*Resolution, error) {
	candidates := candidateSet(phoneNumber)

	// Walk the full customer list in fixed pages, scanning each page in
	// order for the first exact candidate match. The reported total page
	// count is re-read after every page; it is only reliable once results
	// exist.
	page := 1
	pagesTotal := 1
	pagesFetched := 0
	for page <= pagesTotal {
		searchPage, err := s.registry.ListCustomers(ctx, page, pageSize, false)
		if err != nil {
			return nil, err
		}
		pagesFetched++

		for i := range searchPage.Results {
			if _, ok := candidates[searchPage.Results[i].Phone]; ok {
				s.metrics.RecordPagesScanned(pagesFetched)
				s.logger.InfoContext(ctx, "phone matched existing customer",
					"customer_id", searchPage.Results[i].ID,
					"pages_fetched", pagesFetched,
				)
				return &Resolution{Customer: &searchPage.Results[i]}, nil
			}
		}

		pagesTotal = searchPage.PagesTotal
		page++
	}
	s.metrics.RecordPagesScanned(pagesFetched)

	customer, err := s.enroll(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	return &Resolution{Customer: customer, IsNew: true}, nil
}

// enroll creates a minimal customer record for the phone number and re-fetches
// it by the returned identifier; the create response may be partial.
func (s *Service) enroll(ctx context.Context, phoneNumber string) (*registry.Customer, error) {
	payload := registry.CustomerPayload{
		Phone:                     phoneNumber,
		PrivacyPolicyAccepted:     registry.Bool(false),
		MarketingContactPermitted: registry.Bool(false),
	}

	refs, _, err := s.registry.CreateCustomers(ctx, []registry.CustomerPayload{payload})
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 || refs[0].ID == "" {
		return nil, dErrors.New(dErrors.CodeUpstream, "registry returned no created record")
	}

	customer, err := s.registry.GetCustomer(ctx, refs[0].ID)
	if err != nil {
		// "Created but re-fetch failed" is terminal, never a degraded success.
		return nil, err
	}

	s.logger.InfoContext(ctx, "enrolled new customer", "customer_id", customer.ID)
	return customer, nil
}
