// Package service implements the profile upsert resolver: search the registry
// for an existing loyalty profile and create one when absent, or update an
// existing record by identifier.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"

	"loyalty-gateway/internal/profile/metrics"
	"loyalty-gateway/internal/profile/models"
	"loyalty-gateway/internal/registry"
	"loyalty-gateway/internal/tracer"
	dErrors "loyalty-gateway/pkg/domain-errors"
)

// RegistryAPI is the slice of the registry client the resolver needs.
type RegistryAPI interface {
	SearchCustomers(ctx context.Context, filter url.Values) ([]registry.Customer, error)
	CreateCustomers(ctx context.Context, batch []registry.CustomerPayload) ([]registry.CustomerRef, json.RawMessage, error)
	UpdateCustomer(ctx context.Context, customerID string, payload registry.CustomerPayload) error
}

// UpsertResult is the outcome of an upsert. When AlreadyExists is set the
// registry was not mutated; otherwise Created carries the registry's raw
// creation response for relay.
type UpsertResult struct {
	AlreadyExists bool
	Created       json.RawMessage
}

// Service resolves loyalty form profiles against the registry.
type Service struct {
	registry RegistryAPI
	logger   *slog.Logger
	tracer   tracer.Tracer
	metrics  *metrics.Metrics
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

// WithMetrics enables Prometheus metrics for upserts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a profile upsert resolver backed by the given registry client.
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

// Upsert searches the registry for the profile and creates it when absent.
// Any existing match short-circuits without mutation; this system never
// merges or reconciles duplicate profiles.
func (s *Service) Upsert(ctx context.Context, profile models.Profile) (result *UpsertResult, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanProfileUpsert)
	defer func() { span.End(err) }()

	if err = requireContactFields(profile); err != nil {
		s.metrics.RecordUpsert(metrics.OutcomeInvalid)
		return nil, err
	}

	existing, err := s.registry.SearchCustomers(ctx, searchFilter(profile))
	if err != nil {
		s.metrics.RecordUpsert(metrics.OutcomeError)
		return nil, err
	}
	if len(existing) > 0 {
		span.SetAttributes(tracer.Bool(tracer.AttrAlreadyThere, true))
		s.metrics.RecordUpsert(metrics.OutcomeExists)
		s.logger.InfoContext(ctx, "profile already enrolled", "matches", len(existing))
		return &UpsertResult{AlreadyExists: true}, nil
	}

	_, raw, err := s.registry.CreateCustomers(ctx, []registry.CustomerPayload{Normalize(profile)})
	if err != nil {
		s.metrics.RecordUpsert(metrics.OutcomeError)
		return nil, err
	}

	s.metrics.RecordUpsert(metrics.OutcomeCreated)
	return &UpsertResult{Created: raw}, nil
}

// Update normalizes the profile and patches the named customer directly.
// It is a separate entry point; no search precedes the mutation.
func (s *Service) Update(ctx context.Context, customerID string, profile models.Profile) (id string, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanProfileUpdate)
	defer func() { span.End(err) }()

	if customerID == "" {
		s.metrics.RecordUpdate(metrics.OutcomeInvalid)
		return "", dErrors.New(dErrors.CodeInvalidInput, "customer id is required")
	}
	if err = requireContactFields(profile); err != nil {
		s.metrics.RecordUpdate(metrics.OutcomeInvalid)
		return "", err
	}

	if err = s.registry.UpdateCustomer(ctx, customerID, Normalize(profile)); err != nil {
		s.metrics.RecordUpdate(metrics.OutcomeError)
		return "", err
	}

	s.metrics.RecordUpdate(metrics.OutcomeUpdated)
	return customerID, nil
}

// requireContactFields enforces the form's mandatory contact fields.
func requireContactFields(profile models.Profile) error {
	if profile.Email == "" || profile.Phone == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email and phone are required fields")
	}
	return nil
}

// searchFilter queries by email when present, falling back to name. A single
// unpaged query is trusted to surface any match.
func searchFilter(profile models.Profile) url.Values {
	filter := url.Values{}
	if profile.Email != "" {
		filter.Set("email", profile.Email)
	} else {
		filter.Set("name", profile.Name)
	}
	return filter
}
