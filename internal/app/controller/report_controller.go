package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minlee/storefront-backend/internal/errors"
	"github.com/minlee/storefront-backend/internal/middleware"
	"github.com/minlee/storefront-backend/internal/report"
)

type ReportController struct {
	salesReport report.SalesReportService
}

func NewReportController(salesReport report.SalesReportService) *ReportController {
	return &ReportController{
		salesReport: salesReport,
	}
}

// ExportSales streams the sales workbook as an xlsx download. Admin only.
// GET /api/v1/admin/reports/sales
func (ctrl *ReportController) ExportSales(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	f, err := ctrl.salesReport.BuildSalesWorkbook()
	if err != nil {
		log.Error("Failed to build sales report", err, nil)
		errors.InternalError(c, "Failed to generate report")
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("sales-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)

	if err := f.Write(c.Writer); err != nil {
		log.Error("Failed to stream sales report", err, nil)
	}
}
