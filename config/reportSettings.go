package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultReferenceCurrency = "USD"
	defaultSessionTTLSeconds = 3600
	defaultReportSlowMs      = 500

	defaultExportURLTTLSeconds = 900
)

// ReferenceCurrencySymbol is the target currency used when a report request
// does not name one.
//
// Set via env:
// - REPORT_REFERENCE_CURRENCY=USD
func ReferenceCurrencySymbol() string {
	v := strings.ToUpper(strings.TrimSpace(os.Getenv("REPORT_REFERENCE_CURRENCY")))
	if v == "" {
		return defaultReferenceCurrency
	}
	return v
}

// RevenueAccountTypes lists the account types whose lines count as sales in
// the category report.
//
// Set via env:
// - REPORT_REVENUE_ACCOUNT_TYPES="income,income_other"
func RevenueAccountTypes() []string {
	raw := os.Getenv("REPORT_REVENUE_ACCOUNT_TYPES")
	if strings.TrimSpace(raw) == "" {
		return []string{"income", "income_other"}
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ReportSessionTTL is how long an untouched report session survives in Redis.
func ReportSessionTTL() time.Duration {
	ttl := defaultSessionTTLSeconds
	if v := strings.TrimSpace(os.Getenv("REPORT_SESSION_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

// ReportSlowThreshold: report builds slower than this are logged.
func ReportSlowThreshold() time.Duration {
	ms := int64(defaultReportSlowMs)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return time.Duration(ms) * time.Millisecond
}

// ReportExportUploadEnabled allows ?upload=true on export endpoints to push
// the workbook to GCS_BUCKET.
func ReportExportUploadEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("REPORT_EXPORT_UPLOAD")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// ReportExportURLTTL is the lifetime of the signed download URL returned for
// an uploaded export.
//
// Set via env:
// - REPORT_EXPORT_URL_TTL_SECONDS=900
func ReportExportURLTTL() time.Duration {
	secs := defaultExportURLTTLSeconds
	if v := strings.TrimSpace(os.Getenv("REPORT_EXPORT_URL_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			secs = n
		}
	}
	return time.Duration(secs) * time.Second
}
