package provider

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rxtech-lab/market-analyzer/internal/logger"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultRequestsPerSecond is the default request rate of a RetryProvider.
	DefaultRequestsPerSecond = 5
	// DefaultMaxElapsedTime bounds the total time spent retrying one fetch.
	DefaultMaxElapsedTime = 30 * time.Second
)

// RetryConfig configures a RetryProvider.
type RetryConfig struct {
	// RequestsPerSecond limits outgoing fetches. Zero or less disables the limit.
	RequestsPerSecond float64
	// Burst is the limiter bucket size.
	Burst int
	// MaxElapsedTime stops retrying after this long.
	MaxElapsedTime time.Duration
	// InitialInterval is the first retry delay.
	InitialInterval time.Duration
}

// DefaultRetryConfig returns 5 requests per second with a 30 second retry budget.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             1,
		MaxElapsedTime:    DefaultMaxElapsedTime,
		InitialInterval:   backoff.DefaultInitialInterval,
	}
}

// RetryProvider rate limits and retries another provider.
type RetryProvider struct {
	next    Provider
	limiter *rate.Limiter
	config  RetryConfig
	logger  *logger.Logger
}

// NewRetryProvider wraps next.
func NewRetryProvider(next Provider, config RetryConfig, log *logger.Logger) *RetryProvider {
	if log == nil {
		log = logger.NewNopLogger()
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	burst := config.Burst
	if burst < 1 {
		burst = 1
	}

	return &RetryProvider{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		config:  config,
		logger:  log.Named("provider_retry"),
	}
}

func (p *RetryProvider) Type() ProviderType {
	return p.next.Type()
}

// Fetch calls the wrapped provider until it succeeds, the error is permanent
// or the retry budget runs out. Validation errors are never retried.
func (p *RetryProvider) Fetch(ctx context.Context, params FetchParams) ([]types.MarketData, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = p.config.MaxElapsedTime

	if p.config.InitialInterval > 0 {
		policy.InitialInterval = p.config.InitialInterval
	}

	operation := func() ([]types.MarketData, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		data, err := p.next.Fetch(ctx, params)
		if err == nil {
			return data, nil
		}

		if isPermanent(ctx, err) {
			return nil, backoff.Permanent(err)
		}

		return nil, err
	}

	notify := func(err error, wait time.Duration) {
		p.logger.Warn("Fetch failed, retrying",
			zap.String("provider", string(p.next.Type())),
			zap.String("ticker", params.Ticker),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	data, err := backoff.RetryNotifyWithData(operation, backoff.WithContext(policy, ctx), notify)
	if err != nil {
		if errors.GetCode(err) != errors.ErrCodeUnknown {
			return nil, err
		}

		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s from %s", params.Ticker, p.next.Type())
	}

	return data, nil
}

func isPermanent(ctx context.Context, err error) bool {
	if ctx.Err() != nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return errors.IsValidation(err) || errors.HasCode(err, errors.ErrCodeMarketDataParseFailed) || errors.HasCode(err, errors.ErrCodeInvalidTimespan)
}
