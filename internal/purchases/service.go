package purchases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

// Service drives inbound receiving. Stock crediting is an explicit step of
// completion, in the same transaction as the header write. A draft persists
// the document only; Complete applies the ledger side exactly once.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context, status string) ([]models.PurchaseOrder, error)
}

// LineInput is one received purchase line.
type LineInput struct {
	ProductID   uuid.UUID
	Quantity    int
	ImportPrice decimal.Decimal
}

// CreateInput captures a purchase receipt.
type CreateInput struct {
	SupplierID  uuid.UUID
	WarehouseID uuid.UUID
	StaffID     uuid.UUID
	Items       []LineInput
	Discount    decimal.Decimal
	PaidAmount  decimal.Decimal
	Status      enums.DocumentStatus
	Note        string
	Code        string
}

type service struct {
	tx        txRunner
	purchases *Repository
	partners  *partners.Repository
	products  *products.Repository
	warehouse *warehouses.Repository
	ledger    *stock.Ledger
	journal   *stock.Journal
	logg      *logger.Logger
	metrics   *metrics.WorkflowMetrics
}

// NewService builds the receiving workflow service.
func NewService(
	tx txRunner,
	purchasesRepo *Repository,
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
	if purchasesRepo == nil {
		return nil, fmt.Errorf("purchases repository required")
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
		purchases: purchasesRepo,
		partners:  partnersRepo,
		products:  productsRepo,
		warehouse: warehousesRepo,
		ledger:    ledger,
		journal:   journal,
		logg:      logg,
		metrics:   workflowMetrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error) {
	started := time.Now()
	if err := validateCreateInput(input); err != nil {
		s.metrics.IncRejection("purchase_create", string(pkgerrors.CodeValidation))
		return nil, err
	}

	code := input.Code
	if code == "" {
		code = refcode.Generate(refcode.PrefixPurchase)
	}
	ctx = s.logg.WithReference(ctx, code)

	var created *models.PurchaseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		purchasesRepo := s.purchases.WithTx(tx)
		partnersRepo := s.partners.WithTx(tx)
		productsRepo := s.products.WithTx(tx)
		warehousesRepo := s.warehouse.WithTx(tx)

		supplier, err := partnersRepo.FindByID(ctx, input.SupplierID)
		if err != nil {
			return err
		}
		if supplier.Type != enums.PartnerTypeSupplier {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("partner %s is not a supplier", supplier.Code))
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
		items := make([]models.PurchaseItem, 0, len(input.Items))
		for _, line := range input.Items {
			product := productByID[line.ProductID]
			total = total.Add(line.ImportPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
			items = append(items, models.PurchaseItem{
				ProductID:   product.ID,
				SKU:         product.SKU,
				Name:        product.Name,
				Quantity:    line.Quantity,
				ImportPrice: line.ImportPrice,
			})
		}

		final := total.Sub(input.Discount)
		if final.IsNegative() {
			final = decimal.Zero
		}

		purchase := &models.PurchaseOrder{
			Code:        code,
			SupplierID:  supplier.ID,
			WarehouseID: input.WarehouseID,
			StaffID:     input.StaffID,
			TotalAmount: total,
			Discount:    input.Discount,
			FinalAmount: final,
			PaidAmount:  input.PaidAmount,
			Status:      input.Status,
			Note:        input.Note,
			Items:       items,
		}
		if _, err := purchasesRepo.Create(ctx, purchase); err != nil {
			return err
		}

		if input.Status == enums.DocumentStatusCompleted {
			if err := s.applyCompletion(ctx, tx, purchase); err != nil {
				return err
			}
		}

		created = purchase
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejection("purchase_create", string(typed.Code()))
		}
		s.logg.Error(ctx, "purchase create failed", err)
		return nil, err
	}

	if created.Status == enums.DocumentStatusCompleted {
		for range created.Items {
			s.metrics.IncMovement(string(enums.MovementKindPurchase))
		}
	}
	s.metrics.ObserveDuration("purchase_create", time.Since(started))
	s.logg.Info(ctx, "purchase recorded")
	return created, nil
}

// Complete promotes a draft receipt, crediting stock and raising the supplier
// payable in the same transaction.
func (s *service) Complete(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	started := time.Now()
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}

	var completed *models.PurchaseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		purchasesRepo := s.purchases.WithTx(tx)

		purchase, err := purchasesRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := purchasesRepo.ClaimDraft(ctx, id); err != nil {
			return err
		}
		if err := s.applyCompletion(ctx, tx, purchase); err != nil {
			return err
		}

		purchase.Status = enums.DocumentStatusCompleted
		completed = purchase
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejection("purchase_complete", string(typed.Code()))
		}
		return nil, err
	}

	for range completed.Items {
		s.metrics.IncMovement(string(enums.MovementKindPurchase))
	}
	s.metrics.ObserveDuration("purchase_complete", time.Since(started))
	ctx = s.logg.WithReference(ctx, completed.Code)
	s.logg.Info(ctx, "purchase completed")
	return completed, nil
}

// applyCompletion credits stock per line, journals the purchase entries, and
// raises the supplier payable by final minus paid.
func (s *service) applyCompletion(ctx context.Context, tx *gorm.DB, purchase *models.PurchaseOrder) error {
	ledger := s.ledger.WithTx(tx)
	journal := s.journal.WithTx(tx)
	partnersRepo := s.partners.WithTx(tx)

	for _, item := range purchase.Items {
		balance, err := ledger.Adjust(ctx, item.ProductID, purchase.WarehouseID, item.Quantity)
		if err != nil {
			return err
		}
		if err := journal.Append(ctx, &models.MovementEntry{
			ProductID:     item.ProductID,
			WarehouseID:   purchase.WarehouseID,
			Kind:          enums.MovementKindPurchase,
			ChangeAmount:  item.Quantity,
			BalanceAfter:  balance,
			ReferenceCode: purchase.Code,
		}); err != nil {
			return err
		}
	}

	payable := purchase.FinalAmount.Sub(purchase.PaidAmount)
	if !payable.IsZero() {
		if err := partnersRepo.ApplyAdjustment(ctx, purchase.SupplierID, payable, decimal.Zero); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	return s.purchases.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, status string) ([]models.PurchaseOrder, error) {
	return s.purchases.List(ctx, status)
}

func validateCreateInput(input CreateInput) error {
	if input.SupplierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	if input.WarehouseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse id required")
	}
	if input.StaffID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase requires at least one item")
	}
	switch input.Status {
	case enums.DocumentStatusDraft, enums.DocumentStatusCompleted:
	default:
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("purchase status must be draft or completed, got %q", input.Status))
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.ImportPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item import price must not be negative")
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
