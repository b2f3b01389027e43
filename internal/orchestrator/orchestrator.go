// Package orchestrator composes the whole resolution pipeline behind one
// entry point. Resolve always returns a QueryResponse, whatever fails
// upstream.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"ledger-assistant/internal/aggregate"
	cerrors "ledger-assistant/internal/common/errors"
	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/common/metrics"
	"ledger-assistant/internal/handlers"
	"ledger-assistant/internal/intent"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/understand"
)

// CategoryChain is one category's handler chain; Handle never returns nil.
type CategoryChain interface {
	Category() models.Category
	Handle(ctx context.Context, req models.QueryRequest) *handlers.Result
}

// Understander is the AI adapter; nil answer means nothing actionable.
type Understander interface {
	Understand(ctx context.Context, req models.QueryRequest, conversation map[string]interface{}) *understand.Answer
}

// ContextStore is the per-(tenant, channel) conversation state.
type ContextStore interface {
	Get(tenantID, channelID string) *models.ConversationContext
	Update(tenantID, channelID string, mutate func(*models.ConversationContext))
	Len() int
}

// CacheStore memoizes responses per (tenant, verbatim query text).
type CacheStore interface {
	Get(ctx context.Context, tenantID, queryText string) (*models.CacheEntry, error)
	Set(ctx context.Context, tenantID, queryText string, data interface{}, humanText string) error
}

type Orchestrator struct {
	classifier *intent.Classifier
	contexts   ContextStore
	cache      CacheStore
	adapter    Understander
	chains     map[models.Category]CategoryChain
	now        func() time.Time
	logger     logger.Logger
}

func New(classifier *intent.Classifier, contexts ContextStore, cache CacheStore, adapter Understander, chains map[models.Category]CategoryChain, now func() time.Time, log logger.Logger) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		classifier: classifier,
		contexts:   contexts,
		cache:      cache,
		adapter:    adapter,
		chains:     chains,
		now:        now,
		logger:     log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// strategy is one step of the fallback chain. Returning nil advances to the
// next strategy.
type strategy struct {
	name string
	run  func(ctx context.Context) *models.QueryResponse
}

// Resolve is the single entry point of the pipeline: shortcut expansion,
// continuation check, then the ordered strategy fold, then response
// assembly, cache write and context update.
func (o *Orchestrator) Resolve(ctx context.Context, req models.QueryRequest) (resp *models.QueryResponse) {
	start := o.now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic during resolve", map[string]interface{}{"panic": r})
			resp = errorResponse()
		}
		if resp != nil {
			resp.ElapsedMs = o.now().Sub(start).Milliseconds()
		}
	}()

	req.Text = expandShortcut(req.Text)
	if req.Text == "" {
		return &models.QueryResponse{
			Success:   false,
			Category:  models.CategoryGeneral,
			HumanText: "Please type a question about your business.\nApne business ke baare mein kuch poochhein.",
		}
	}

	conv := o.contexts.Get(req.TenantID, req.ChannelID)
	if req.SessionID == "" {
		req.SessionID = conv.SessionID
	}

	strategyName := ""
	if n, isCont := parseContinuation(req.Text); isCont {
		if r := o.resolveContinuation(conv, n); r != nil {
			strategyName = "continuation"
			resp = r
		}
	}

	if resp == nil {
		for _, s := range o.strategies(req, conv) {
			if r := s.run(ctx); r != nil {
				strategyName = s.name
				resp = r
				break
			}
			metrics.StrategyFallbacks.WithLabelValues(s.name).Inc()
		}
	}

	if resp == nil {
		strategyName = "none"
		resp = errorResponse()
	}

	o.finish(ctx, req, resp, strategyName, start)
	return resp
}

func (o *Orchestrator) strategies(req models.QueryRequest, conv *models.ConversationContext) []strategy {
	return []strategy{
		{name: "aggregator", run: func(ctx context.Context) *models.QueryResponse {
			if _, ok := aggregate.DetectKind(req.Text); !ok {
				return nil
			}
			return o.runChain(ctx, models.CategoryAnalytical, req)
		}},
		{name: "cache", run: func(ctx context.Context) *models.QueryResponse {
			entry, err := o.cache.Get(ctx, req.TenantID, req.Text)
			if err != nil || entry == nil {
				return nil
			}
			metrics.CacheHits.WithLabelValues(req.TenantID).Inc()
			return &models.QueryResponse{
				Success:   true,
				Category:  models.CategoryCached,
				Data:      entry.Data,
				HumanText: entry.HumanText,
				CacheHit:  true,
			}
		}},
		{name: "understanding", run: func(ctx context.Context) *models.QueryResponse {
			if o.adapter == nil {
				return nil
			}
			var conversation map[string]interface{}
			if conv.LastQueryText != "" {
				conversation = map[string]interface{}{
					"lastQuery":    conv.LastQueryText,
					"lastCategory": string(conv.LastCategory),
				}
			}
			answer := o.adapter.Understand(ctx, req, conversation)
			if answer == nil {
				return nil
			}
			if answer.SearchTerm != "" {
				searchReq := req
				searchReq.Text = answer.SearchTerm
				r := o.runChain(ctx, models.CategoryLedger, searchReq)
				if r == nil || !r.Success {
					return nil
				}
				return r
			}
			return &models.QueryResponse{
				Success:   true,
				Category:  models.CategoryGeneral,
				Data:      answer.Data,
				HumanText: answer.HumanText,
			}
		}},
		{name: "classifier", run: func(ctx context.Context) *models.QueryResponse {
			cat := o.classifier.Classify(req.Text)
			if cat == models.CategoryGeneral {
				return greetingResponse(req.Text)
			}
			return o.runChain(ctx, cat, req)
		}},
	}
}

func (o *Orchestrator) runChain(ctx context.Context, cat models.Category, req models.QueryRequest) *models.QueryResponse {
	chain, ok := o.chains[cat]
	if !ok {
		return nil
	}
	res := chain.Handle(ctx, req)
	if res == nil {
		return nil
	}
	return &models.QueryResponse{
		Success:     res.Success,
		Category:    res.Category,
		Data:        res.Data,
		HumanText:   res.HumanText,
		Suggestions: res.Suggestions,
	}
}

// finish writes the cache entry, refreshes the conversation context and
// emits the analytics event without blocking the reply.
func (o *Orchestrator) finish(ctx context.Context, req models.QueryRequest, resp *models.QueryResponse, strategyName string, start time.Time) {
	if o.cache != nil && resp.Success && !resp.CacheHit &&
		strategyName != "continuation" && resp.HumanText != "" &&
		resp.Category != models.CategoryError && resp.Category != models.CategoryGeneral {
		if err := o.cache.Set(ctx, req.TenantID, req.Text, resp.Data, resp.HumanText); err != nil {
			o.logger.Warn("cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}

	// only successful resolutions touch the conversation state; a failed
	// selection must not wipe a live disambiguation list
	if resp.Success {
		o.contexts.Update(req.TenantID, req.ChannelID, func(c *models.ConversationContext) {
			c.LastQueryText = req.Text
			c.LastResponseText = resp.HumanText
			c.LastCategory = resp.Category
			c.LastResultSet = toResultSet(resp.Data)
		})
	}

	if resp.Success {
		metrics.QueriesResolved.WithLabelValues(string(resp.Category), strategyName).Inc()
	} else {
		metrics.QueriesFailed.WithLabelValues(errorCode(resp)).Inc()
	}
	metrics.ResolveDuration.WithLabelValues(string(resp.Category)).Observe(o.now().Sub(start).Seconds())
	metrics.ContextsActive.Set(float64(o.contexts.Len()))

	go o.logger.Info("analytics event", map[string]interface{}{
		"tenantId": req.TenantID,
		"category": string(resp.Category),
		"strategy": strategyName,
		"success":  resp.Success,
		"cacheHit": resp.CacheHit,
	})
}

// toResultSet keeps only list-shaped data; everything else clears the
// disambiguation list.
func toResultSet(data interface{}) []interface{} {
	switch v := data.(type) {
	case []interface{}:
		return v
	case []models.LedgerRecord:
		out := make([]interface{}, len(v))
		for i, r := range v {
			out[i] = r
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(v))
		for i, r := range v {
			out[i] = r
		}
		return out
	default:
		return nil
	}
}

// errorCode labels failed resolutions by their structured error code when
// one is attached, falling back to the response category.
func errorCode(resp *models.QueryResponse) string {
	if stdErr, ok := resp.Data.(*cerrors.StandardError); ok {
		return string(stdErr.Code)
	}
	return string(resp.Category)
}

func errorResponse() *models.QueryResponse {
	return &models.QueryResponse{
		Success:  false,
		Category: models.CategoryError,
		HumanText: "Sorry, I couldn't understand that. Please rephrase your question.\n" +
			"Maaf kijiye, samajh nahi aaya. Kripya dobara poochhein.",
		Suggestions: []string{
			"total sales this month",
			"cash balance",
			"balance of <ledger name>",
		},
	}
}

func greetingResponse(text string) *models.QueryResponse {
	t := strings.ToLower(text)
	greeting := "Namaste! Ask me about your sales, purchases, balances, stock or outstanding payments."
	if strings.Contains(t, "thank") || strings.Contains(t, "dhanyavad") {
		greeting = "You're welcome! Aur kuch poochhna ho to bataiye."
	}
	return &models.QueryResponse{
		Success:   true,
		Category:  models.CategoryGeneral,
		HumanText: greeting,
		Suggestions: []string{
			"total sales this month",
			"cash balance",
			"outstanding receivables",
		},
	}
}
