package chartserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rebeliceyang/lazychart/internal/chartdata"
	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/rs/zerolog"
)

type (
	QueryError struct {
		Message   string `json:"message"`
		ErrorType string `json:"error_type"`
	}

	QueryErrorBody struct {
		Errors []QueryError `json:"errors"`
	}
)

const (
	errorTypeInvalidPayload = "INVALID_PAYLOAD_SCHEMA_ERROR"
	errorTypeEngine         = "GENERIC_DB_ENGINE_ERROR"
)

func (s *HTTPServer) ChartDataHandler(c *CustomContext) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second*60)
	defer cancel()

	logger := zerolog.Ctx(ctx)

	var reqBody chartdata.Request
	if err := ValidateRequest(c, &reqBody); err != nil {
		return err
	}

	specs, err := s.plan(reqBody)
	if err != nil {
		return c.JSON(http.StatusBadRequest, QueryErrorBody{
			Errors: []QueryError{{Message: err.Error(), ErrorType: errorTypeInvalidPayload}},
		})
	}

	withData := reqBody.ResultType != chartdata.ResultTypeQuery
	withQuery := reqBody.ResultType == chartdata.ResultTypeQuery || reqBody.ResultType == chartdata.ResultTypeFull

	result := make([]models.QueryResult, 0, len(specs))
	for _, spec := range specs {
		b := NewBuilder(s.source.Dialect())
		stmt, err := b.Select(spec)
		if err != nil {
			return c.JSON(http.StatusBadRequest, QueryErrorBody{
				Errors: []QueryError{{Message: err.Error(), ErrorType: errorTypeInvalidPayload}},
			})
		}

		qr := models.QueryResult{Data: []models.Record{}, ColNames: []string{}}
		if withQuery {
			qr.Query = stmt
		}
		if withData {
			rs, err := s.source.Query(ctx, stmt, b.Args()...)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return c.InternalError(err, "chart data query cancelled")
			}
			if err != nil {
				logger.Warn().Err(err).Str("sql", stmt).Msg("chart data query failed")
				return c.JSON(http.StatusBadRequest, QueryErrorBody{
					Errors: []QueryError{{Message: err.Error(), ErrorType: errorTypeEngine}},
				})
			}
			qr.ColNames = rs.Columns
			qr.RowCount = len(rs.Rows)
			for _, row := range rs.Rows {
				qr.Data = append(qr.Data, models.Record(row))
			}
		}
		result = append(result, qr)
	}

	logger.Debug().
		Str("result_type", reqBody.ResultType).
		Str("datasource", reqBody.FormData.Datasource()).
		Int("queries", len(result)).
		Msg("chart data served")

	return c.JSON(http.StatusOK, chartdata.Response{Result: result})
}

// plan picks the statements a result type needs
func (s *HTTPServer) plan(req chartdata.Request) ([]QuerySpec, error) {
	if req.ResultType == chartdata.ResultTypeSamples {
		spec, err := SamplesQuery(req.FormData, s.opts.SamplesRowLimit)
		if err != nil {
			return nil, err
		}
		return []QuerySpec{spec}, nil
	}
	return BuildQueries(req.FormData, s.opts.DefaultRowLimit)
}
