// Package redis stores per-run usage metrics and per provider/model
// aggregates in Redis. Generated text is never stored.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/streambench/internal/domain"
	"github.com/davidbz/streambench/internal/observability"
)

const pairSeparator = "|"

// Ledger implements domain.UsageRecorder on Redis hashes.
type Ledger struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewClient opens a Redis client for the ledger and checks connectivity.
func NewClient(ctx context.Context, config Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// NewLedger creates a new ledger over an open client.
func NewLedger(client *redis.Client, config Config) *Ledger {
	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "streambench"
	}

	return &Ledger{
		client: client,
		prefix: prefix,
		ttl:    time.Duration(config.RecordTTL) * time.Hour,
	}
}

func (l *Ledger) recordKey(runID, outputKey string) string {
	return fmt.Sprintf("%s:usage:run:%s:%s", l.prefix, runID, outputKey)
}

func (l *Ledger) totalsKey(provider domain.ProviderName, model string) string {
	return fmt.Sprintf("%s:usage:totals:%s:%s", l.prefix, provider, strings.ToLower(model))
}

func (l *Ledger) pairsKey() string {
	return l.prefix + ":usage:pairs"
}

// Record stores one completed variant and folds it into the aggregates.
func (l *Ledger) Record(ctx context.Context, record domain.UsageRecord) error {
	if record.RunID == "" || record.OutputKey == "" {
		return errors.New("run id and output key are required")
	}

	logger := observability.FromContext(ctx)
	metrics := record.Metrics
	model := strings.ToLower(metrics.Model)

	pipe := l.client.TxPipeline()

	key := l.recordKey(record.RunID, record.OutputKey)
	pipe.HSet(ctx, key,
		"provider", string(metrics.Provider),
		"model", metrics.Model,
		"latency_ms", metrics.LatencyMs,
		"prompt_tokens", metrics.Usage.Prompt(),
		"completion_tokens", metrics.Usage.Completion(),
		"total_tokens", metrics.Usage.Total(),
		"cost_usd", strconv.FormatFloat(metrics.EstimatedCostUSD, 'f', -1, 64),
		"pricing_source_url", metrics.PricingSourceURL,
		"recorded_at", time.Now().Unix(),
	)
	if l.ttl > 0 {
		pipe.Expire(ctx, key, l.ttl)
	}

	totals := l.totalsKey(metrics.Provider, model)
	pipe.HIncrBy(ctx, totals, "runs", 1)
	pipe.HIncrBy(ctx, totals, "prompt_tokens", int64(metrics.Usage.Prompt()))
	pipe.HIncrBy(ctx, totals, "completion_tokens", int64(metrics.Usage.Completion()))
	pipe.HIncrBy(ctx, totals, "total_tokens", int64(metrics.Usage.Total()))
	pipe.HIncrBy(ctx, totals, "latency_ms", metrics.LatencyMs)
	pipe.HIncrByFloat(ctx, totals, "cost_usd", metrics.EstimatedCostUSD)
	pipe.SAdd(ctx, l.pairsKey(), string(metrics.Provider)+pairSeparator+model)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("usage record failed", observability.Error(err))
		return fmt.Errorf("failed to record usage: %w", err)
	}

	logger.Debug("usage recorded",
		observability.String("key", key),
		observability.Int("total_tokens", metrics.Usage.Total()))
	return nil
}

// Get reads back one stored record.
func (l *Ledger) Get(ctx context.Context, runID, outputKey string) (*domain.UsageRecord, error) {
	fields, err := l.client.HGetAll(ctx, l.recordKey(runID, outputKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read usage: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("usage not found for run %s output %s", runID, outputKey)
	}

	return &domain.UsageRecord{
		RunID:     runID,
		OutputKey: outputKey,
		Metrics: domain.CompletionMetrics{
			Provider:  domain.ProviderName(fields["provider"]),
			Model:     fields["model"],
			LatencyMs: parseInt(fields["latency_ms"]),
			Usage: domain.TokenUsage{
				PromptTokens:     domain.Tokens(int(parseInt(fields["prompt_tokens"]))),
				CompletionTokens: domain.Tokens(int(parseInt(fields["completion_tokens"]))),
				TotalTokens:      domain.Tokens(int(parseInt(fields["total_tokens"]))),
			},
			EstimatedCostUSD: parseFloat(fields["cost_usd"]),
			PricingSourceURL: fields["pricing_source_url"],
		},
	}, nil
}

// Totals returns the aggregates of every provider/model pair seen so far.
func (l *Ledger) Totals(ctx context.Context) ([]domain.UsageTotal, error) {
	pairs, err := l.client.SMembers(ctx, l.pairsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list usage pairs: %w", err)
	}
	sort.Strings(pairs)

	pipe := l.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(pairs))
	for _, pair := range pairs {
		provider, model, _ := strings.Cut(pair, pairSeparator)
		cmds = append(cmds, pipe.HGetAll(ctx, l.totalsKey(domain.ProviderName(provider), model)))
	}
	if len(cmds) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to read usage totals: %w", err)
		}
	}

	totals := make([]domain.UsageTotal, 0, len(pairs))
	for i, pair := range pairs {
		provider, model, _ := strings.Cut(pair, pairSeparator)
		fields := cmds[i].Val()
		totals = append(totals, domain.UsageTotal{
			Provider:         domain.ProviderName(provider),
			Model:            model,
			Runs:             parseInt(fields["runs"]),
			PromptTokens:     parseInt(fields["prompt_tokens"]),
			CompletionTokens: parseInt(fields["completion_tokens"]),
			TotalTokens:      parseInt(fields["total_tokens"]),
			LatencyMs:        parseInt(fields["latency_ms"]),
			CostUSD:          parseFloat(fields["cost_usd"]),
		})
	}

	return totals, nil
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// Close closes the underlying client.
func (l *Ledger) Close() error {
	return l.client.Close()
}
