package server

import (
	"errors"
	"net/http"
	"strings"

	"auction-predictor/src/analysis"
	"auction-predictor/src/helpers"
	"auction-predictor/src/models"

	"github.com/go-playground/validator/v10"
)

// -----------------------------------------------------------------------------

// errorResponse maps pipeline errors to an HTTP status and client message.
func errorResponse(err error) (int, string) {
	var (
		validation  *helpers.ValidationError
		data        *helpers.DataError
		notFound    *helpers.ModelNotFoundError
		mismatch    *helpers.SchemaMismatchError
		computation *helpers.ComputationError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.As(err, &data):
		return http.StatusBadRequest, data.Message
	case errors.As(err, &notFound):
		return http.StatusInternalServerError, notFound.Message
	case errors.As(err, &mismatch):
		return http.StatusInternalServerError, mismatch.Message
	case errors.As(err, &computation):
		return http.StatusInternalServerError, "Prediction computation failed"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// -----------------------------------------------------------------------------

// bindingMessage turns gin binding failures into short field messages.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch {
		case field == "quantity":
			msgs = append(msgs, "quantity must be greater than 0")
		case field == "productgroup":
			msgs = append(msgs, "product_group is required")
		default:
			msgs = append(msgs, field+" is required")
		}
	}
	return strings.Join(msgs, "; ")
}

// -----------------------------------------------------------------------------

// groupSet normalizes requested product groups. Unrecognized names are ignored.
func groupSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		if g := analysis.NormalizeProductGroup(n); g != "" {
			out[g] = struct{}{}
		}
	}
	return out
}

// -----------------------------------------------------------------------------

func filterGroups(results []models.MPredictionResult, groups map[string]struct{}) []models.MPredictionResult {
	if len(groups) == 0 {
		return results
	}
	out := make([]models.MPredictionResult, 0, len(results))
	for _, r := range results {
		if _, ok := groups[r.ProductGroup]; ok {
			out = append(out, r)
		}
	}
	return out
}
