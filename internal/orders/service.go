package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/internal/audit"
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

// Service executes sales order fulfillment.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, string, error)
}

// LineInput is one requested order line. UnitPrice overrides the product's
// retail price when set; the effective price is snapshotted onto the item.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

// CreateInput captures everything a fulfillment attempt needs.
type CreateInput struct {
	PartnerID   uuid.UUID
	WarehouseID uuid.UUID
	StaffID     uuid.UUID
	Items       []LineInput
	Discount    decimal.Decimal
	PaidAmount  decimal.Decimal
	Note        string
	Code        string
}

type service struct {
	tx        txRunner
	orders    *Repository
	partners  *partners.Repository
	products  *products.Repository
	warehouse *warehouses.Repository
	ledger    *stock.Ledger
	journal   *stock.Journal
	audit     audit.Service
	logg      *logger.Logger
	metrics   *metrics.WorkflowMetrics
}

// NewService builds the order fulfillment service.
func NewService(
	tx txRunner,
	ordersRepo *Repository,
	partnersRepo *partners.Repository,
	productsRepo *products.Repository,
	warehousesRepo *warehouses.Repository,
	ledger *stock.Ledger,
	journal *stock.Journal,
	auditSvc audit.Service,
	logg *logger.Logger,
	workflowMetrics *metrics.WorkflowMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
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
	if auditSvc == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		orders:    ordersRepo,
		partners:  partnersRepo,
		products:  productsRepo,
		warehouse: warehousesRepo,
		ledger:    ledger,
		journal:   journal,
		audit:     auditSvc,
		logg:      logg,
		metrics:   workflowMetrics,
	}, nil
}

// Create fulfills a sales order atomically: stock debits, journal entries,
// snapshots, credit check, partner balances, cash receipt, and audit row all
// commit or roll back together.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	started := time.Now()
	if err := validateCreateInput(input); err != nil {
		s.metrics.IncRejection("order_fulfillment", string(pkgerrors.CodeValidation))
		return nil, err
	}

	code := input.Code
	if code == "" {
		code = refcode.Generate(refcode.PrefixOrder)
	}
	ctx = s.logg.WithReference(ctx, code)
	ctx = s.logg.WithStaffID(ctx, input.StaffID.String())
	ctx = s.logg.WithWarehouseID(ctx, input.WarehouseID.String())

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
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
		if partner.Status == enums.PartnerStatusLocked {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("partner %s is locked from trading", partner.Code))
		}
		if err := warehousesRepo.MustExist(ctx, input.WarehouseID); err != nil {
			return err
		}

		productIDs := make([]uuid.UUID, len(input.Items))
		for i, item := range input.Items {
			productIDs[i] = item.ProductID
		}
		productByID, err := productsRepo.FindByIDs(ctx, productIDs)
		if err != nil {
			return err
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(input.Items))
		for _, line := range input.Items {
			product := productByID[line.ProductID]

			balance, err := ledger.Adjust(ctx, line.ProductID, input.WarehouseID, -line.Quantity)
			if err != nil {
				return err
			}
			if err := journal.Append(ctx, &models.MovementEntry{
				ProductID:     line.ProductID,
				WarehouseID:   input.WarehouseID,
				Kind:          enums.MovementKindSale,
				ChangeAmount:  -line.Quantity,
				BalanceAfter:  balance,
				ReferenceCode: code,
			}); err != nil {
				return err
			}

			unitPrice := product.RetailPrice
			if line.UnitPrice != nil {
				unitPrice = *line.UnitPrice
			}
			total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				SKU:       product.SKU,
				Name:      product.Name,
				Quantity:  line.Quantity,
				UnitPrice: unitPrice,
			})
		}

		final := total.Sub(input.Discount)
		if final.IsNegative() {
			final = decimal.Zero
		}
		debtDelta := final.Sub(input.PaidAmount)

		if err := partners.CheckCredit(partner, debtDelta); err != nil {
			return err
		}

		order := &models.Order{
			Code:        code,
			PartnerID:   partner.ID,
			WarehouseID: input.WarehouseID,
			StaffID:     input.StaffID,
			TotalAmount: total,
			Discount:    input.Discount,
			FinalAmount: final,
			PaidAmount:  input.PaidAmount,
			Status:      enums.OrderStatusCompleted,
			Note:        input.Note,
			Items:       items,
		}
		if _, err := ordersRepo.Create(ctx, order); err != nil {
			return err
		}

		if err := partnersRepo.ApplyAdjustment(ctx, partner.ID, debtDelta, final); err != nil {
			return err
		}

		if input.PaidAmount.IsPositive() {
			if err := ordersRepo.CreateCashReceipt(ctx, &models.CashReceipt{
				OrderID:   order.ID,
				PartnerID: partner.ID,
				Amount:    input.PaidAmount,
			}); err != nil {
				return err
			}
		}

		details, _ := json.Marshal(map[string]string{
			"code":         code,
			"final_amount": final.String(),
			"debt_delta":   debtDelta.String(),
		})
		if _, err := s.audit.WithTx(audit.NewRepository(tx)).Record(ctx, audit.RecordInput{
			ActorID:  input.StaffID,
			Action:   "order.fulfilled",
			Entity:   "order",
			EntityID: order.ID.String(),
			Details:  details,
		}); err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejection("order_fulfillment", string(typed.Code()))
		}
		s.logg.Error(ctx, "order fulfillment failed", err)
		return nil, err
	}

	for range created.Items {
		s.metrics.IncMovement(string(enums.MovementKindSale))
	}
	s.metrics.ObserveDuration("order_fulfillment", time.Since(started))
	s.logg.Info(ctx, "order fulfilled")
	return created, nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.orders.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Order, string, error) {
	return s.orders.List(ctx, filter)
}

func validateCreateInput(input CreateInput) error {
	if input.PartnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}
	if input.WarehouseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse id required")
	}
	if input.StaffID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item unit price must not be negative")
		}
	}
	if input.Discount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}
	if input.PaidAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "paid amount must not be negative")
	}
	return nil
}
