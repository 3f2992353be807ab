package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// Document is a rendered download.
type Document struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportRequest carries the raw admin filter for a spreadsheet export.
type ExportRequest struct {
	Status    string
	StartDate string
	EndDate   string
}

type orderExporter interface {
	Export(ctx context.Context, filter orders.Filter) ([]models.Order, error)
}

type orderFinder interface {
	FindByIdentifier(ctx context.Context, orderIdentifier string) (*models.Order, error)
}

// Service renders read-only order documents.
type Service interface {
	ExportOrders(ctx context.Context, req ExportRequest) (*Document, error)
	Invoice(ctx context.Context, actor orders.Actor, orderIdentifier string) (*Document, error)
}

type service struct {
	exporter orderExporter
	finder   orderFinder
	logg     *logger.Logger
}

// NewService wires the report renderers.
func NewService(exporter orderExporter, finder orderFinder, logg *logger.Logger) (Service, error) {
	if exporter == nil {
		return nil, fmt.Errorf("order exporter required")
	}
	if finder == nil {
		return nil, fmt.Errorf("order finder required")
	}
	return &service{exporter: exporter, finder: finder, logg: logg}, nil
}

func (s *service) ExportOrders(ctx context.Context, req ExportRequest) (*Document, error) {
	filter, err := orders.NewFilter(req.Status, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	rows, err := s.exporter.Export(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := renderOrdersWorkbook(rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render orders workbook")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"rows":       len(rows),
			"status":     req.Status,
			"start_date": req.StartDate,
			"end_date":   req.EndDate,
		})
		s.logg.Info(logCtx, "orders exported")
	}
	return &Document{
		FileName:    exportFileName(req.StartDate, req.EndDate),
		ContentType: ContentTypeXLSX,
		Data:        data,
	}, nil
}

func (s *service) Invoice(ctx context.Context, actor orders.Actor, orderIdentifier string) (*Document, error) {
	identifier := strings.TrimSpace(orderIdentifier)
	if identifier == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order identifier required")
	}
	order, err := s.finder.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}

	data, err := renderInvoice(order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice")
	}
	return &Document{
		FileName:    "invoice_" + order.OrderIdentifier + ".pdf",
		ContentType: ContentTypePDF,
		Data:        data,
	}, nil
}

// exportFileName names the workbook after its date bounds. Open bounds read "all".
func exportFileName(start, end string) string {
	part := func(v string) string {
		if v = strings.TrimSpace(v); v == "" {
			return "all"
		}
		return v
	}
	return fmt.Sprintf("orders_%s_to_%s.xlsx", part(start), part(end))
}
