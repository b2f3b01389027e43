package handlers

import (
	"context"
	"errors"

	cerrors "ledger-assistant/internal/common/errors"
	"ledger-assistant/internal/common/logger"
	"ledger-assistant/internal/models"
	"ledger-assistant/internal/source"
	"ledger-assistant/internal/txstore"
)

// Chain runs a category's handlers in order. The first handler returning a
// result wins; errors and not-applicable verdicts advance to the next one.
type Chain struct {
	category    models.Category
	displayName string
	handlers    []Handler
	logger      logger.Logger
}

func NewChain(category models.Category, displayName string, log logger.Logger, handlers ...Handler) *Chain {
	return &Chain{
		category:    category,
		displayName: displayName,
		handlers:    handlers,
		logger:      log.WithFields(map[string]interface{}{"category": string(category)}),
	}
}

func (c *Chain) Category() models.Category { return c.category }

// Handle never returns nil: when every handler fails it produces the generic
// ask-more-specifically response for the category. Data-layer failures are
// the exception: telling the user the record does not exist while the source
// is down would be wrong, so those surface as connect/retry guidance instead.
func (c *Chain) Handle(ctx context.Context, req models.QueryRequest) *Result {
	var dataErr error
	for _, h := range c.handlers {
		res, err := h.Handle(ctx, req)
		if err != nil {
			c.logger.Warn("handler failed, trying next", map[string]interface{}{
				"handler": h.Name(),
				"error":   err.Error(),
			})
			if dataErr == nil && isDataLayerError(err) {
				dataErr = err
			}
			continue
		}
		if res == nil {
			continue
		}
		res.Category = c.category
		res.HumanText = c.displayName + "\n" + res.HumanText
		return res
	}

	if dataErr != nil {
		return dataFailureResult(c.category, dataErr)
	}

	return &Result{
		Success:  false,
		Category: c.category,
		HumanText: "I couldn't find that in " + c.displayName + ". " +
			"Please ask more specifically.\nKripya thoda aur detail mein poochhein.",
		Suggestions: []string{
			"total sales this month",
			"cash balance",
			"outstanding receivables",
		},
	}
}

func isDataLayerError(err error) bool {
	return errors.Is(err, source.ErrNotConnected) ||
		errors.Is(err, source.ErrQueryTimeout) ||
		errors.Is(err, source.ErrQueryFailed) ||
		errors.Is(err, txstore.ErrQueryTimeout) ||
		errors.Is(err, txstore.ErrQueryExecutionFailed)
}

func dataFailureResult(cat models.Category, err error) *Result {
	switch {
	case errors.Is(err, source.ErrNotConnected):
		return &Result{
			Success:  false,
			Category: cat,
			Data:     cerrors.NewNotConnectedError(err.Error()),
			HumanText: "The accounting source is not connected right now. Please reconnect it and ask again.\n" +
				"Accounting source se connection nahi hai. Kripya use dobara connect karke phir se poochhein.",
		}
	case errors.Is(err, source.ErrQueryTimeout):
		return &Result{
			Success:  false,
			Category: cat,
			Data:     cerrors.NewSourceQueryTimeoutError(),
			HumanText: "The accounting source took too long to answer. Please try again in a moment.\n" +
				"Accounting source se jawab aane mein der ho rahi hai. Kripya thodi der baad phir se poochhein.",
		}
	case errors.Is(err, txstore.ErrQueryTimeout):
		return &Result{
			Success:  false,
			Category: cat,
			Data:     cerrors.NewQueryTimeoutError(string(cat)),
			HumanText: "Reading your synced data took too long. Please try again in a moment.\n" +
				"Aapka data padhne mein der ho rahi hai. Kripya thodi der baad phir se poochhein.",
		}
	case errors.Is(err, txstore.ErrQueryExecutionFailed):
		return &Result{
			Success:  false,
			Category: cat,
			Data:     cerrors.NewQueryExecutionFailedError(string(cat), err),
			HumanText: "Couldn't read your synced data. Please try again.\n" +
				"Aapka data nahi padha ja saka. Kripya phir se try karein.",
		}
	default:
		return &Result{
			Success:  false,
			Category: cat,
			Data:     cerrors.NewSourceQueryFailedError(err),
			HumanText: "Couldn't read from the accounting source. Please try again.\n" +
				"Accounting source se data nahi mil paya. Kripya phir se try karein.",
		}
	}
}
