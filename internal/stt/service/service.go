package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/smallbiznis/scriba/internal/observability/metrics"
	"github.com/smallbiznis/scriba/internal/stt/adapters"
	"github.com/smallbiznis/scriba/internal/stt/domain"
	"go.uber.org/zap"
)

type service struct {
	registry        *adapters.Registry
	defaultProvider string
	log             *zap.Logger
	metrics         *metrics.Metrics
}

// NewService builds the orchestrator over the adapter registry.
func NewService(registry *adapters.Registry, defaultProvider string, log *zap.Logger, m *metrics.Metrics) domain.Service {
	return &service{
		registry:        registry,
		defaultProvider: strings.ToLower(strings.TrimSpace(defaultProvider)),
		log:             log.Named("stt"),
		metrics:         m,
	}
}

func (s *service) AvailableProviders() []string {
	return s.registry.Names()
}

func (s *service) DefaultProvider() string {
	if s.registry.Exists(s.defaultProvider) {
		return s.defaultProvider
	}
	names := s.registry.Names()
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

func (s *service) SupportedFormats(provider string) ([]string, error) {
	adapter, err := s.registry.Get(provider)
	if err != nil {
		return nil, err
	}
	return adapter.SupportedFormats(), nil
}

func (s *service) AllSupportedFormats() []string {
	seen := map[string]struct{}{}
	for _, name := range s.registry.Names() {
		adapter, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		for _, format := range adapter.SupportedFormats() {
			seen[format] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for format := range seen {
		out = append(out, format)
	}
	sort.Strings(out)
	return out
}

func (s *service) MaxFileSize(provider string) (int64, error) {
	adapter, err := s.registry.Get(provider)
	if err != nil {
		return 0, err
	}
	return adapter.MaxFileSize(), nil
}

func (s *service) IsFormatSupported(filename, provider string) bool {
	ext := domain.FileExtension(filename)
	if ext == "" {
		return false
	}
	if strings.TrimSpace(provider) != "" {
		formats, err := s.SupportedFormats(provider)
		if err != nil {
			return false
		}
		for _, f := range formats {
			if f == ext {
				return true
			}
		}
		return false
	}
	for _, f := range s.AllSupportedFormats() {
		if f == ext {
			return true
		}
	}
	return false
}

func (s *service) TranscribeWithProvider(ctx context.Context, provider string, job domain.Job) domain.Result {
	adapter, err := s.registry.Get(provider)
	if err != nil {
		return domain.Result{Provider: provider, Err: err}
	}
	return s.callAdapter(ctx, adapter, job)
}

// TranscribeWithFallback walks the provider chain sequentially. The first
// successful result wins; an adapter is never retried.
func (s *service) TranscribeWithFallback(ctx context.Context, job domain.Job, preferred string) domain.Result {
	chain := s.fallbackChain(preferred)
	if len(chain) == 0 {
		return domain.Result{Err: domain.ErrNoProviders}
	}

	var last domain.Result
	tried := 0
	for _, name := range chain {
		if ctx.Err() != nil {
			last.Err = ctx.Err()
			break
		}
		adapter, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		tried++
		last = s.callAdapter(ctx, adapter, job)
		if last.Ok() {
			s.metrics.RecordFallbackDepth(tried)
			return last
		}
		s.log.Warn("provider failed, falling back",
			zap.String("provider", name),
			zap.Error(last.Err),
		)
	}

	s.metrics.RecordFallbackDepth(tried)
	if last.Provider == "" {
		last.Err = fmt.Errorf("%v: %w", last.Err, domain.ErrAllProvidersFailed)
	} else {
		last.Err = fmt.Errorf("last provider %s: %v: %w", last.Provider, last.Err, domain.ErrAllProvidersFailed)
	}
	return last
}

// fallbackChain orders providers: preferred first when registered, then the
// configured default, then the rest in registration order, de-duplicated.
func (s *service) fallbackChain(preferred string) []string {
	var chain []string
	seen := map[string]struct{}{}
	push := func(name string) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || !s.registry.Exists(name) {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		chain = append(chain, name)
	}

	push(preferred)
	push(s.defaultProvider)
	for _, name := range s.registry.Names() {
		push(name)
	}
	return chain
}

func (s *service) callAdapter(ctx context.Context, adapter domain.Adapter, job domain.Job) domain.Result {
	start := time.Now()
	result := adapter.Transcribe(ctx, job)
	if result.Elapsed == 0 {
		result.Elapsed = time.Since(start)
	}

	status := "ok"
	if !result.Ok() {
		status = "error"
	}
	s.metrics.RecordTranscription(adapter.Name(), status, result.Elapsed)
	s.log.Info("transcription attempt",
		zap.String("provider", adapter.Name()),
		zap.String("status", status),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result
}
