package returns

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/internal/orders"
	"github.com/khoatrankai/autoparts-backoffice/internal/partners"
	"github.com/khoatrankai/autoparts-backoffice/internal/products"
	"github.com/khoatrankai/autoparts-backoffice/internal/stock"
	"github.com/khoatrankai/autoparts-backoffice/internal/warehouses"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
	"github.com/khoatrankai/autoparts-backoffice/pkg/metrics"
	"github.com/khoatrankai/autoparts-backoffice/pkg/refcode"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service handles customer returns. Stock crediting and the refund's debt
// relief happen in the same transaction as the document write.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Return, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Return, error)
	List(ctx context.Context, partnerID uuid.UUID) ([]models.Return, error)
}

// LineInput is one returned line with its agreed refund price.
type LineInput struct {
	ProductID   uuid.UUID
	Quantity    int
	RefundPrice decimal.Decimal
}

// CreateInput captures a return request. OrderID is optional; when given, the
// originating order must exist and be completed, and is marked returned.
type CreateInput struct {
	PartnerID   uuid.UUID
	OrderID     *uuid.UUID
	WarehouseID uuid.UUID
	StaffID     uuid.UUID
	Items       []LineInput
	Reason      string
	Code        string
}

type service struct {
	tx        txRunner
	returns   *Repository
	orders    *orders.Repository
	partners  *partners.Repository
	products  *products.Repository
	warehouse *warehouses.Repository
	ledger    *stock.Ledger
	journal   *stock.Journal
	logg      *logger.Logger
	metrics   *metrics.WorkflowMetrics
}

// NewService builds the return workflow service.
func NewService(
	tx txRunner,
	returnsRepo *Repository,
	ordersRepo *orders.Repository,
	partnersRepo *partners.Repository,
	productsRepo *products.Repository,
	warehousesRepo *warehouses.Repository,
	ledger *stock.Ledger,
	journal *stock.Journal,
	logg *logger.Logger,
	workflowMetrics *metrics.WorkflowMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if returnsRepo == nil {
		return nil, fmt.Errorf("returns repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if partnersRepo == nil {
		return nil, fmt.Errorf("partners repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if warehousesRepo == nil {
		return nil, fmt.Errorf("warehouses repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if journal == nil {
		return nil, fmt.Errorf("movement journal required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		returns:   returnsRepo,
		orders:    ordersRepo,
		partners:  partnersRepo,
		products:  productsRepo,
		warehouse: warehousesRepo,
		ledger:    ledger,
		journal:   journal,
		logg:      logg,
		metrics:   workflowMetrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Return, error) {
	started := time.Now()
	if err := validateCreateInput(input); err != nil {
		s.metrics.IncRejection("return_create", string(pkgerrors.CodeValidation))
		return nil, err
	}

	code := input.Code
	if code == "" {
		code = refcode.Generate(refcode.PrefixReturn)
	}
	ctx = s.logg.WithReference(ctx, code)

	var created *models.Return
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		returnsRepo := s.returns.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)
		partnersRepo := s.partners.WithTx(tx)
		productsRepo := s.products.WithTx(tx)
		warehousesRepo := s.warehouse.WithTx(tx)
		ledger := s.ledger.WithTx(tx)
		journal := s.journal.WithTx(tx)

		partner, err := partnersRepo.FindByIDForUpdate(ctx, input.PartnerID)
		if err != nil {
			return err
		}
		if err := warehousesRepo.MustExist(ctx, input.WarehouseID); err != nil {
			return err
		}

		if input.OrderID != nil {
			order, err := ordersRepo.FindByIDForUpdate(ctx, *input.OrderID)
			if err != nil {
				return err
			}
			if order.Status != enums.OrderStatusCompleted {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("order %s is %s, only completed orders can be returned", order.Code, order.Status))
			}
		}

		productIDs := make([]uuid.UUID, len(input.Items))
		for i, item := range input.Items {
			productIDs[i] = item.ProductID
		}
		productByID, err := productsRepo.FindByIDs(ctx, productIDs)
		if err != nil {
			return err
		}

		totalRefund := decimal.Zero
		items := make([]models.ReturnItem, 0, len(input.Items))
		for _, line := range input.Items {
			product := productByID[line.ProductID]

			balance, err := ledger.Adjust(ctx, line.ProductID, input.WarehouseID, line.Quantity)
			if err != nil {
				return err
			}
			if err := journal.Append(ctx, &models.MovementEntry{
				ProductID:     line.ProductID,
				WarehouseID:   input.WarehouseID,
				Kind:          enums.MovementKindReturn,
				ChangeAmount:  line.Quantity,
				BalanceAfter:  balance,
				ReferenceCode: code,
			}); err != nil {
				return err
			}

			totalRefund = totalRefund.Add(line.RefundPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
			items = append(items, models.ReturnItem{
				ProductID:   product.ID,
				SKU:         product.SKU,
				Name:        product.Name,
				Quantity:    line.Quantity,
				RefundPrice: line.RefundPrice,
			})
		}

		ret := &models.Return{
			Code:        code,
			PartnerID:   partner.ID,
			OrderID:     input.OrderID,
			WarehouseID: input.WarehouseID,
			TotalRefund: totalRefund,
			Reason:      input.Reason,
			Status:      enums.DocumentStatusCompleted,
			Items:       items,
		}
		if _, err := returnsRepo.Create(ctx, ret); err != nil {
			return err
		}

		// The refund relieves the customer's debt and backs the revenue out.
		if err := partnersRepo.ApplyAdjustment(ctx, partner.ID, totalRefund.Neg(), totalRefund.Neg()); err != nil {
			return err
		}

		if input.OrderID != nil {
			if err := ordersRepo.UpdateStatus(ctx, *input.OrderID, string(enums.OrderStatusReturned)); err != nil {
				return err
			}
		}

		created = ret
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejection("return_create", string(typed.Code()))
		}
		s.logg.Error(ctx, "return create failed", err)
		return nil, err
	}

	for range created.Items {
		s.metrics.IncMovement(string(enums.MovementKindReturn))
	}
	s.metrics.ObserveDuration("return_create", time.Since(started))
	s.logg.Info(ctx, "return recorded")
	return created, nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return id required")
	}
	return s.returns.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, partnerID uuid.UUID) ([]models.Return, error) {
	return s.returns.List(ctx, partnerID)
}

func validateCreateInput(input CreateInput) error {
	if input.PartnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}
	if input.WarehouseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "return requires at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.RefundPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item refund price must not be negative")
		}
	}
	return nil
}
