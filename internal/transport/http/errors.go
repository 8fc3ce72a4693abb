package http

import (
	"errors"
	"net/http"
	"strconv"

	"evdash/internal/charts"
	apierrors "evdash/internal/errors"
	"evdash/internal/services"
)

// mapServiceError converts service sentinels into API errors. Errors it
// does not know pass through and become a 500 or a timeout problem.
func mapServiceError(err error) error {
	var fe *services.FilterError
	switch {
	case errors.As(err, &fe):
		errs := make([]apierrors.ValidationError, len(fe.Fields))
		for i, f := range fe.Fields {
			errs[i] = apierrors.ValidationError{Field: f.Field, Message: f.Error()}
		}
		return apierrors.NewValidationErrors(errs)
	case errors.Is(err, services.ErrInvalidInput):
		return apierrors.InvalidRequestWithError(err)
	case errors.Is(err, services.ErrFiltersHidden):
		return apierrors.New(http.StatusConflict, "FILTERS_HIDDEN",
			"Filters are hidden; toggle them on before changing selections")
	case errors.Is(err, services.ErrUnknownPanel):
		return apierrors.NewWithDetails(http.StatusNotFound, "PANEL_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, services.ErrSessionNotFound):
		return apierrors.NotFoundError("session")
	case errors.Is(err, services.ErrUnknownExport):
		return apierrors.NotFoundError("export")
	case errors.Is(err, charts.ErrUnknownFormat):
		return apierrors.NewWithDetails(http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	}
	return err
}

// parseFilterQuery reads the filter controls from the query string. Absent
// keys stay nil.
func parseFilterQuery(r *http.Request) (services.FilterRequest, error) {
	q := r.URL.Query()
	var req services.FilterRequest

	str := func(key string) *string {
		if !q.Has(key) {
			return nil
		}
		v := q.Get(key)
		return &v
	}
	req.Maker = str("maker")
	req.Category = str("category")
	req.VehicleClass = str("vehicle_class")

	if q.Has("year") {
		year, err := strconv.Atoi(q.Get("year"))
		if err != nil {
			return services.FilterRequest{}, apierrors.ErrValidation("year", "year must be an integer")
		}
		req.Year = &year
	}
	return req, nil
}
