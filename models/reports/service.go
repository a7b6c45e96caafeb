package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/sales_report_backend/config"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/mmdatafocus/sales_report_backend/models/reports")

// SalesReportService runs the sales aggregations against a ledger.
type SalesReportService struct {
	ledger    Ledger
	converter CurrencyConverter
	logger    *logrus.Logger
	now       func() time.Time
}

func NewSalesReportService(ledger Ledger, converter CurrencyConverter) *SalesReportService {
	return &SalesReportService{
		ledger:    ledger,
		converter: converter,
		logger:    config.GetLogger(),
		now:       time.Now,
	}
}

func (s *SalesReportService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "reports."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *SalesReportService) debug(fields logrus.Fields, msg string) {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(fields).Debug(msg)
}

// prepareFilter normalizes the filter and resolves its target currency once.
func (s *SalesReportService) prepareFilter(ctx context.Context, filter *FilterSpec) error {
	if err := filter.Normalize(); err != nil {
		return err
	}
	if filter.TargetCurrency == nil {
		cur, err := ResolveTargetCurrency(ctx, s.ledger, filter.TargetCurrencyId)
		if err != nil {
			return err
		}
		filter.TargetCurrency = cur
		filter.TargetCurrencyId = cur.ID
	}
	return nil
}

func (s *SalesReportService) prepareSupplierFilter(ctx context.Context, filter *SupplierFilter) error {
	if err := filter.Normalize(); err != nil {
		return err
	}
	if filter.TargetCurrency == nil {
		cur, err := ResolveTargetCurrency(ctx, s.ledger, filter.TargetCurrencyId)
		if err != nil {
			return err
		}
		filter.TargetCurrency = cur
		filter.TargetCurrencyId = cur.ID
	}
	return nil
}
