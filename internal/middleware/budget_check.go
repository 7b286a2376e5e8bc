package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const ctxBudgetKey contextKey = "parsed_budget"

// parsedBudget is stored in context so the handler can read the totals
// without re-parsing the body.
type parsedBudget struct {
	TotalBudget      int64 `json:"total_budget"`
	BudgetPerCreator int64 `json:"budget_per_creator"`
	CreatorsCount    int   `json:"creators_count"`
}

// BudgetFromCtx returns the total budget parsed by BudgetCheck, or 0 if not set.
func BudgetFromCtx(ctx context.Context) int64 {
	if b, ok := ctx.Value(ctxBudgetKey).(*parsedBudget); ok {
		return b.TotalBudget
	}
	return 0
}

// BudgetCheck rejects malformed campaign budgets before the handler runs.
// Reads the body to extract the budget fields, then replaces r.Body so
// downstream handlers can re-read it.
func BudgetCheck() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc := AccountFromCtx(r.Context())
			if acc == nil {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			bodyBytes, err := io.ReadAll(r.Body)
			r.Body.Close()
			if err != nil {
				http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
				return
			}
			// Restore body for the handler.
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			var peek parsedBudget
			if err := json.Unmarshal(bodyBytes, &peek); err != nil {
				http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
				return
			}
			if peek.TotalBudget <= 0 {
				http.Error(w, `{"error":"total_budget must be > 0"}`, http.StatusBadRequest)
				return
			}
			if peek.BudgetPerCreator <= 0 {
				http.Error(w, `{"error":"budget_per_creator must be > 0"}`, http.StatusBadRequest)
				return
			}
			if peek.CreatorsCount < 1 {
				http.Error(w, `{"error":"creators_count must be at least 1"}`, http.StatusBadRequest)
				return
			}
			if peek.BudgetPerCreator*int64(peek.CreatorsCount) > peek.TotalBudget {
				http.Error(w, fmt.Sprintf(`{"error":"budget_per_creator %d x creators_count %d exceeds total_budget %d"}`,
					peek.BudgetPerCreator, peek.CreatorsCount, peek.TotalBudget), http.StatusBadRequest)
				return
			}

			ctx := context.WithValue(r.Context(), ctxBudgetKey, &peek)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
