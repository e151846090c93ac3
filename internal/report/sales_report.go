package report

import (
	"fmt"

	"github.com/minlee/storefront-backend/internal/app/model"
	"github.com/minlee/storefront-backend/internal/app/repository"
	"github.com/minlee/storefront-backend/pkg/logger"
	"github.com/minlee/storefront-backend/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SalesReportService builds the admin sales workbook: one row per order
// plus a detail sheet with the order lines.
type SalesReportService interface {
	BuildSalesWorkbook() (*excelize.File, error)
}

type salesReportService struct {
	orderRepo repository.OrderRepository
}

func NewSalesReportService(orderRepo repository.OrderRepository) SalesReportService {
	return &salesReportService{orderRepo: orderRepo}
}

const (
	ordersSheet = "Orders"
	linesSheet  = "Order Lines"
)

func (s *salesReportService) BuildSalesWorkbook() (*excelize.File, error) {
	orders, err := s.orderRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for report: %w", err)
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", ordersSheet)
	if _, err := f.NewSheet(linesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := s.writeOrders(f, orders); err != nil {
		f.Close()
		return nil, err
	}
	if err := s.writeLines(f, orders); err != nil {
		f.Close()
		return nil, err
	}

	logger.Info("Sales workbook generated", map[string]interface{}{
		"order_count": len(orders),
	})
	return f, nil
}

func (s *salesReportService) writeOrders(f *excelize.File, orders []model.Order) error {
	header := []interface{}{
		"Order ID", "Placed At", "Customer", "Email",
		"Items", "Shipping", "Tax", "Total",
		"Payment Method", "Paid", "Delivered",
	}
	if err := f.SetSheetRow(ordersSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	grandTotal := decimal.Zero
	for i, order := range orders {
		total, err := money.Parse(order.TotalPrice)
		if err != nil {
			return fmt.Errorf("order %d has a malformed total: %w", order.ID, err)
		}
		grandTotal = grandTotal.Add(total)

		row := []interface{}{
			order.ID,
			order.CreatedAt.Format("2006-01-02 15:04"),
			order.User.Name,
			order.User.Email,
			order.ItemsPrice,
			order.ShippingPrice,
			order.TaxPrice,
			order.TotalPrice,
			string(order.PaymentMethod),
			paidLabel(order.IsPaid),
			paidLabel(order.IsDelivered),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write order row: %w", err)
		}
	}

	summary := []interface{}{"", "", "", "", "", "", "Grand Total", money.Format(grandTotal)}
	cell := fmt.Sprintf("A%d", len(orders)+3)
	if err := f.SetSheetRow(ordersSheet, cell, &summary); err != nil {
		return fmt.Errorf("failed to write summary row: %w", err)
	}
	return nil
}

func (s *salesReportService) writeLines(f *excelize.File, orders []model.Order) error {
	header := []interface{}{"Order ID", "Product", "Slug", "Unit Price", "Qty", "Line Total"}
	if err := f.SetSheetRow(linesSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rowNum := 2
	for _, order := range orders {
		for _, item := range order.OrderItems {
			price, err := money.Parse(item.Price)
			if err != nil {
				return fmt.Errorf("order item %d has a malformed price: %w", item.ID, err)
			}
			lineTotal := money.Round2(price.Mul(decimal.NewFromInt(int64(item.Qty))))

			row := []interface{}{
				order.ID,
				item.Name,
				item.Slug,
				item.Price,
				item.Qty,
				money.Format(lineTotal),
			}
			cell := fmt.Sprintf("A%d", rowNum)
			if err := f.SetSheetRow(linesSheet, cell, &row); err != nil {
				return fmt.Errorf("failed to write line row: %w", err)
			}
			rowNum++
		}
	}
	return nil
}

func paidLabel(flag bool) string {
	if flag {
		return "Yes"
	}
	return "No"
}
