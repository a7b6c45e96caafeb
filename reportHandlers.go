package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/sales_report_backend/config"
	"github.com/mmdatafocus/sales_report_backend/models"
	"github.com/mmdatafocus/sales_report_backend/models/reports"
	"github.com/mmdatafocus/sales_report_backend/utils"
)

type uploadFunc func(ctx context.Context, objectName string, data []byte, contentType string) error

type signFunc func(ctx context.Context, objectName string, expires time.Duration) (string, error)

// reportHandlers serves the category and supplier report sessions.
type reportHandlers struct {
	store      reports.SessionStore
	newService func() *reports.SalesReportService
	upload     uploadFunc
	sign       signFunc
}

func newReportHandlers(store reports.SessionStore, newService func() *reports.SalesReportService) *reportHandlers {
	return &reportHandlers{
		store:      store,
		newService: newService,
		upload:     utils.UploadBytesToGCS,
		sign:       utils.SignDownloadURL,
	}
}

// defaultReportService reads the configured database.
func defaultReportService() *reports.SalesReportService {
	return reports.NewSalesReportService(models.NewLedgerStore(nil), models.NewRateTableConverter(nil))
}

func (h *reportHandlers) register(rg *gin.RouterGroup) {
	category := rg.Group("/category-sales")
	category.POST("", h.createCategoryReport)
	category.POST("/:id/generate", h.generateCategoryReport)
	category.POST("/:id/daily", h.openDaily)
	category.POST("/:id/invoices", h.openInvoices)
	category.POST("/:id/back", h.categoryBack)
	category.GET("/:id", h.getCategoryReport)
	category.GET("/:id/export", h.exportCategoryReport)

	supplier := rg.Group("/supplier-sales")
	supplier.POST("", h.createSupplierReport)
	supplier.POST("/:id/generate", h.generateSupplierReport)
	supplier.POST("/:id/supplier-month", h.openSupplierMonth)
	supplier.POST("/:id/invoice-lines", h.openInvoiceLines)
	supplier.POST("/:id/back", h.supplierBack)
	supplier.GET("/:id", h.getSupplierReport)
	supplier.GET("/:id/export", h.exportSupplierReport)
}

type categoryReportRequest struct {
	DateFrom             string `json:"date_from" binding:"required"`
	DateTo               string `json:"date_to" binding:"required"`
	CategoryIds          []int  `json:"category_ids"`
	ProductIds           []int  `json:"product_ids"`
	IncludeSubcategories *bool  `json:"include_subcategories"`
	CurrencyId           int    `json:"currency_id" binding:"gte=0"`
}

func (req categoryReportRequest) toFilter() (reports.FilterSpec, error) {
	from, to, err := parseWindow(req.DateFrom, req.DateTo)
	if err != nil {
		return reports.FilterSpec{}, err
	}
	return reports.FilterSpec{
		DateFrom:             from,
		DateTo:               to,
		CategoryIds:          req.CategoryIds,
		ProductIds:           req.ProductIds,
		IncludeSubcategories: utils.DereferencePtr(req.IncludeSubcategories, true),
		TargetCurrencyId:     req.CurrencyId,
	}, nil
}

type supplierReportRequest struct {
	DateFrom    string `json:"date_from" binding:"required"`
	DateTo      string `json:"date_to" binding:"required"`
	SupplierIds []int  `json:"supplier_ids"`
	CurrencyId  int    `json:"currency_id" binding:"gte=0"`
}

func (req supplierReportRequest) toFilter() (reports.SupplierFilter, error) {
	from, to, err := parseWindow(req.DateFrom, req.DateTo)
	if err != nil {
		return reports.SupplierFilter{}, err
	}
	return reports.SupplierFilter{
		DateFrom:         from,
		DateTo:           to,
		SupplierIds:      req.SupplierIds,
		TargetCurrencyId: req.CurrencyId,
	}, nil
}

type dailyRequest struct {
	Month      string `json:"month"`
	CategoryId int    `json:"category_id" binding:"gte=0"`
}

type invoicesRequest struct {
	Date       string `json:"date"`
	CategoryId int    `json:"category_id" binding:"gte=0"`
}

type supplierMonthRequest struct {
	SupplierId int    `json:"supplier_id" binding:"gte=0"`
	Month      string `json:"month"`
}

type invoiceLinesRequest struct {
	InvoiceId int `json:"invoice_id" binding:"required,gt=0"`
}

func parseWindow(dateFrom, dateTo string) (time.Time, time.Time, error) {
	from, err := utils.ParseDate(dateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date_from: %v", reports.ErrInvalidFilter, err)
	}
	to, err := utils.ParseDate(dateTo)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date_to: %v", reports.ErrInvalidFilter, err)
	}
	return from, to, nil
}

func (h *reportHandlers) createCategoryReport(c *gin.Context) {
	var req categoryReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter, err := req.toFilter()
	if err != nil {
		h.fail(c, "createCategoryReport", req, err)
		return
	}

	ctx := c.Request.Context()
	svc := h.newService()
	report, err := svc.NewCategorySalesReport(ctx, filter)
	if err != nil {
		h.fail(c, "createCategoryReport", req, err)
		return
	}
	if err := svc.Generate(ctx, report); err != nil {
		h.fail(c, "createCategoryReport", req, err)
		return
	}
	if err := h.store.Save(ctx, reports.SessionKindCategory, report.ID, report); err != nil {
		h.fail(c, "createCategoryReport", report.ID, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *reportHandlers) generateCategoryReport(c *gin.Context) {
	ctx := c.Request.Context()
	svc := h.newService()
	report, err := reports.UpdateSession(ctx, h.store, reports.SessionKindCategory, c.Param("id"),
		func(r *reports.CategorySalesReport) error {
			return svc.Generate(ctx, r)
		})
	if err != nil {
		h.fail(c, "generateCategoryReport", c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *reportHandlers) openDaily(c *gin.Context) {
	var req dailyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	svc := h.newService()
	report, err := reports.UpdateSession(ctx, h.store, reports.SessionKindCategory, c.Param("id"),
		func(r *reports.CategorySalesReport) error {
			return svc.OpenDaily(ctx, r, req.Month, req.CategoryId)
		})
	if err != nil {
		h.fail(c, "openDaily", req, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *reportHandlers) openInvoices(c *gin.Context) {
	var req invoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// An empty date reaches the drill-down as the zero date and is reported there.
	var date time.Time
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := utils.ParseDate(req.Date)
		if err != nil {
			h.fail(c, "openInvoices", req, fmt.Errorf("%w: date: %v", reports.ErrInvalidFilter, err))
			return
		}
		date = parsed
	}

	ctx := c.Request.Context()
	svc := h.newService()
	report, err := reports.UpdateSession(ctx, h.store, reports.SessionKindCategory, c.Param("id"),
		func(r *reports.CategorySalesReport) error {
			return svc.OpenInvoices(ctx, r, date, req.CategoryId)
		})
	if err != nil {
		h.fail(c, "openInvoices", req, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *reportHandlers) categoryBack(c *gin.Context) {
	report, err := reports.UpdateSession(c.Request.Context(), h.store, reports.SessionKindCategory, c.Param("id"),
		func(r *reports.CategorySalesReport) error {
			r.Back()
			return nil
		})
	if err != nil {
		h.fail(c, "categoryBack", c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *reportHandlers) getCategoryReport(c *gin.Context) {
	report, err := reports.LoadSession[reports.CategorySalesReport](c.Request.Context(), h.store, reports.SessionKindCategory, c.Param("id"))
	if err != nil {
		h.fail(c, "getCategoryReport", c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *reportHandlers) exportCategoryReport(c *gin.Context) {
	report, err := reports.LoadSession[reports.CategorySalesReport](c.Request.Context(), h.store, reports.SessionKindCategory, c.Param("id"))
	if err != nil {
		h.fail(c, "exportCategoryReport", c.Param("id"), err)
		return
	}
	data, err := reports.CategoryWorkbook(report)
	if err != nil {
		h.fail(c, "exportCategoryReport", c.Param("id"), err)
		return
	}
	h.sendWorkbook(c, report.ExcelFilename, data)
}

func (h *reportHandlers) createSupplierReport(c *gin.Context) {
	var req supplierReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter, err := req.toFilter()
	if err != nil {
		h.fail(c, "createSupplierReport", req, err)
		return
	}

	ctx := c.Request.Context()
	svc := h.newService()
	report, err := svc.NewSupplierSalesReport(ctx, filter)
	if err != nil {
		h.fail(c, "createSupplierReport", req, err)
		return
	}
	if err := svc.GenerateSupplier(ctx, report); err != nil {
		h.fail(c, "createSupplierReport", req, err)
		return
	}
	if err := h.store.Save(ctx, reports.SessionKindSupplier, report.ID, report); err != nil {
		h.fail(c, "createSupplierReport", report.ID, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *reportHandlers) generateSupplierReport(c *gin.Context) {
	ctx := c.Request.Context()
	svc := h.newService()
	report, err := reports.UpdateSession(ctx, h.store, reports.SessionKindSupplier, c.Param("id"),
		func(r *reports.SupplierSalesReport) error {
			return svc.GenerateSupplier(ctx, r)
		})
	if err != nil {
		h.fail(c, "generateSupplierReport", c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *reportHandlers) openSupplierMonth(c *gin.Context) {
	var req supplierMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	svc := h.newService()
	report, err := reports.UpdateSession(ctx, h.store, reports.SessionKindSupplier, c.Param("id"),
		func(r *reports.SupplierSalesReport) error {
			return svc.OpenSupplierMonth(ctx, r, req.SupplierId, req.Month)
		})
	if err != nil {
		h.fail(c, "openSupplierMonth", req, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *reportHandlers) openInvoiceLines(c *gin.Context) {
	var req invoiceLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	svc := h.newService()
	report, err := reports.UpdateSession(ctx, h.store, reports.SessionKindSupplier, c.Param("id"),
		func(r *reports.SupplierSalesReport) error {
			return svc.OpenSupplierInvoiceLines(ctx, r, req.InvoiceId)
		})
	if err != nil {
		h.fail(c, "openInvoiceLines", req, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *reportHandlers) supplierBack(c *gin.Context) {
	report, err := reports.UpdateSession(c.Request.Context(), h.store, reports.SessionKindSupplier, c.Param("id"),
		func(r *reports.SupplierSalesReport) error {
			r.Back()
			return nil
		})
	if err != nil {
		h.fail(c, "supplierBack", c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *reportHandlers) getSupplierReport(c *gin.Context) {
	report, err := reports.LoadSession[reports.SupplierSalesReport](c.Request.Context(), h.store, reports.SessionKindSupplier, c.Param("id"))
	if err != nil {
		h.fail(c, "getSupplierReport", c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *reportHandlers) exportSupplierReport(c *gin.Context) {
	report, err := reports.LoadSession[reports.SupplierSalesReport](c.Request.Context(), h.store, reports.SessionKindSupplier, c.Param("id"))
	if err != nil {
		h.fail(c, "exportSupplierReport", c.Param("id"), err)
		return
	}
	data, err := reports.SupplierWorkbook(report)
	if err != nil {
		h.fail(c, "exportSupplierReport", c.Param("id"), err)
		return
	}
	h.sendWorkbook(c, report.ExcelFilename, data)
}

// sendWorkbook streams the workbook, or uploads it when ?upload=true.
func (h *reportHandlers) sendWorkbook(c *gin.Context, filename string, data []byte) {
	upload, _ := strconv.ParseBool(c.DefaultQuery("upload", "false"))
	if !upload {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, utils.XlsxContentType, data)
		return
	}
	if !config.ReportExportUploadEnabled() {
		c.JSON(http.StatusForbidden, gin.H{"error": "export upload is disabled"})
		return
	}

	ctx := c.Request.Context()
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	objectName := utils.ExportObjectName(businessId, filename)
	if err := h.upload(ctx, objectName, data, utils.XlsxContentType); err != nil {
		h.fail(c, "sendWorkbook", objectName, err)
		return
	}
	// Without a signer the plain object URL is returned.
	url, err := h.sign(ctx, objectName, config.ReportExportURLTTL())
	if err != nil {
		config.GetLogger().WithField("object", objectName).Warn("export url not signed: " + err.Error())
		url = utils.BuildObjectAccessURL(objectName)
	}
	c.JSON(http.StatusOK, gin.H{
		"filename": filename,
		"object":   objectName,
		"url":      url,
	})
}

// reportErrorStatus maps report errors to HTTP status codes.
func reportErrorStatus(err error) int {
	var convErr *reports.ConversionError
	switch {
	case errors.Is(err, reports.ErrNoCategories),
		errors.Is(err, reports.ErrNoProducts),
		errors.Is(err, reports.ErrNoSuppliers),
		errors.Is(err, reports.ErrInvalidFilter),
		errors.Is(err, reports.ErrMissingContext):
		return http.StatusBadRequest
	case errors.Is(err, reports.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, reports.ErrReportBusy):
		return http.StatusConflict
	case errors.As(err, &convErr), errors.Is(err, reports.ErrNoExchangeRate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, utils.ErrorRedisNotReady), errors.Is(err, utils.ErrorStorageNotAvailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, utils.ErrorBusinessIdRequired):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// failureData tags the logged request with its caller.
func failureData(ctx context.Context, data any) map[string]any {
	out := map[string]any{"request": data}
	if userId, ok := utils.GetUserIdFromContext(ctx); ok {
		out["userId"] = userId
	}
	if username, ok := utils.GetUsernameFromContext(ctx); ok {
		out["username"] = username
	}
	if businessId, ok := utils.GetBusinessIdFromContext(ctx); ok {
		out["businessId"] = businessId
	}
	return out
}

func (h *reportHandlers) fail(c *gin.Context, funcName string, data any, err error) {
	status := reportErrorStatus(err)
	if status >= http.StatusUnprocessableEntity {
		config.LogError(config.GetLogger(), "reports", funcName, c.FullPath(), failureData(c.Request.Context(), data), err)
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
