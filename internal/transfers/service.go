package transfers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

// Service drives the transfer state machine. pending is the only state that
// accepts transitions; completed and cancelled are terminal.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Transfer, error)
	Receive(ctx context.Context, id uuid.UUID) (*models.Transfer, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Transfer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*TransferView, error)
	List(ctx context.Context, status string) ([]models.Transfer, error)
}

// LineInput is one requested transfer line.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateInput captures a transfer request.
type CreateInput struct {
	FromWarehouseID uuid.UUID
	ToWarehouseID   uuid.UUID
	StaffID         uuid.UUID
	Items           []LineInput
	Note            string
	Code            string
}

// ItemView decorates a transfer item with a display valuation derived from
// the product's current cost price. The valuation is never stored and drifts
// when cost price changes.
type ItemView struct {
	models.TransferItem
	SKU   string
	Name  string
	Price decimal.Decimal
	Total decimal.Decimal
}

// TransferView is a transfer with derived per-item valuations.
type TransferView struct {
	models.Transfer
	ItemViews  []ItemView
	TotalValue decimal.Decimal
}

type service struct {
	tx        txRunner
	transfers *Repository
	products  *products.Repository
	warehouse *warehouses.Repository
	ledger    *stock.Ledger
	journal   *stock.Journal
	logg      *logger.Logger
	metrics   *metrics.WorkflowMetrics
}

// NewService builds the transfer workflow service.
func NewService(
	tx txRunner,
	transfersRepo *Repository,
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
	if transfersRepo == nil {
		return nil, fmt.Errorf("transfers repository required")
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
		transfers: transfersRepo,
		products:  productsRepo,
		warehouse: warehousesRepo,
		ledger:    ledger,
		journal:   journal,
		logg:      logg,
		metrics:   workflowMetrics,
	}, nil
}

// Create debits the source warehouse immediately and stages the transfer as
// pending. The stock is reserved by being physically removed, not earmarked.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Transfer, error) {
	started := time.Now()
	if err := validateCreateInput(input); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejection("transfer_create", string(typed.Code()))
		}
		return nil, err
	}

	code := input.Code
	if code == "" {
		code = refcode.Generate(refcode.PrefixTransfer)
	}
	ctx = s.logg.WithReference(ctx, code)

	var created *models.Transfer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		transfersRepo := s.transfers.WithTx(tx)
		productsRepo := s.products.WithTx(tx)
		warehousesRepo := s.warehouse.WithTx(tx)
		ledger := s.ledger.WithTx(tx)
		journal := s.journal.WithTx(tx)

		if err := warehousesRepo.MustExist(ctx, input.FromWarehouseID); err != nil {
			return err
		}
		if err := warehousesRepo.MustExist(ctx, input.ToWarehouseID); err != nil {
			return err
		}

		productIDs := make([]uuid.UUID, len(input.Items))
		for i, item := range input.Items {
			productIDs[i] = item.ProductID
		}
		if _, err := productsRepo.FindByIDs(ctx, productIDs); err != nil {
			return err
		}

		items := make([]models.TransferItem, 0, len(input.Items))
		for _, line := range input.Items {
			balance, err := ledger.Adjust(ctx, line.ProductID, input.FromWarehouseID, -line.Quantity)
			if err != nil {
				return err
			}
			if err := journal.Append(ctx, &models.MovementEntry{
				ProductID:     line.ProductID,
				WarehouseID:   input.FromWarehouseID,
				Kind:          enums.MovementKindTransferOut,
				ChangeAmount:  -line.Quantity,
				BalanceAfter:  balance,
				ReferenceCode: code,
			}); err != nil {
				return err
			}
			items = append(items, models.TransferItem{ProductID: line.ProductID, Quantity: line.Quantity})
		}

		transfer := &models.Transfer{
			Code:            code,
			FromWarehouseID: input.FromWarehouseID,
			ToWarehouseID:   input.ToWarehouseID,
			StaffID:         input.StaffID,
			Status:          enums.TransferStatusPending,
			Note:            input.Note,
			Items:           items,
		}
		if _, err := transfersRepo.Create(ctx, transfer); err != nil {
			return err
		}

		created = transfer
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejection("transfer_create", string(typed.Code()))
		}
		s.logg.Error(ctx, "transfer create failed", err)
		return nil, err
	}

	for range created.Items {
		s.metrics.IncMovement(string(enums.MovementKindTransferOut))
	}
	s.metrics.ObserveDuration("transfer_create", time.Since(started))
	s.logg.Info(ctx, "transfer created")
	return created, nil
}

// Receive credits every line into the destination warehouse at the quantity
// originally shipped, then completes the transfer.
func (s *service) Receive(ctx context.Context, id uuid.UUID) (*models.Transfer, error) {
	started := time.Now()
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer id required")
	}

	var received *models.Transfer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		transfersRepo := s.transfers.WithTx(tx)
		ledger := s.ledger.WithTx(tx)
		journal := s.journal.WithTx(tx)

		transfer, err := transfersRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		// Claim before crediting so a concurrent receive/reject cannot both
		// apply their stock mutations.
		if err := transfersRepo.ClaimPending(ctx, id, enums.TransferStatusCompleted, ""); err != nil {
			return err
		}

		for _, item := range transfer.Items {
			balance, err := ledger.Adjust(ctx, item.ProductID, transfer.ToWarehouseID, item.Quantity)
			if err != nil {
				return err
			}
			if err := journal.Append(ctx, &models.MovementEntry{
				ProductID:     item.ProductID,
				WarehouseID:   transfer.ToWarehouseID,
				Kind:          enums.MovementKindTransferIn,
				ChangeAmount:  item.Quantity,
				BalanceAfter:  balance,
				ReferenceCode: transfer.Code,
			}); err != nil {
				return err
			}
		}

		transfer.Status = enums.TransferStatusCompleted
		received = transfer
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejection("transfer_receive", string(typed.Code()))
		}
		return nil, err
	}

	for range received.Items {
		s.metrics.IncMovement(string(enums.MovementKindTransferIn))
	}
	s.metrics.ObserveDuration("transfer_receive", time.Since(started))
	ctx = s.logg.WithReference(ctx, received.Code)
	s.logg.Info(ctx, "transfer received")
	return received, nil
}

// Reject compensates the creation-time debit by crediting every line back to
// the source warehouse, then cancels the transfer.
func (s *service) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Transfer, error) {
	started := time.Now()
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer id required")
	}

	var rejected *models.Transfer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		transfersRepo := s.transfers.WithTx(tx)
		ledger := s.ledger.WithTx(tx)
		journal := s.journal.WithTx(tx)

		transfer, err := transfersRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		note := transfer.Note
		if reason != "" {
			if note != "" {
				note += " | "
			}
			note += "rejected: " + strings.TrimSpace(reason)
		}
		if err := transfersRepo.ClaimPending(ctx, id, enums.TransferStatusCancelled, note); err != nil {
			return err
		}

		for _, item := range transfer.Items {
			balance, err := ledger.Adjust(ctx, item.ProductID, transfer.FromWarehouseID, item.Quantity)
			if err != nil {
				return err
			}
			if err := journal.Append(ctx, &models.MovementEntry{
				ProductID:     item.ProductID,
				WarehouseID:   transfer.FromWarehouseID,
				Kind:          enums.MovementKindTransferReturn,
				ChangeAmount:  item.Quantity,
				BalanceAfter:  balance,
				ReferenceCode: transfer.Code,
				Note:          reason,
			}); err != nil {
				return err
			}
		}

		transfer.Status = enums.TransferStatusCancelled
		transfer.Note = note
		rejected = transfer
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejection("transfer_reject", string(typed.Code()))
		}
		return nil, err
	}

	for range rejected.Items {
		s.metrics.IncMovement(string(enums.MovementKindTransferReturn))
	}
	s.metrics.ObserveDuration("transfer_reject", time.Since(started))
	ctx = s.logg.WithReference(ctx, rejected.Code)
	s.logg.Info(ctx, "transfer rejected")
	return rejected, nil
}

// FindByID loads the transfer and derives per-item display valuations from
// the products' current cost prices.
func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*TransferView, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer id required")
	}

	transfer, err := s.transfers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, len(transfer.Items))
	for i, item := range transfer.Items {
		productIDs[i] = item.ProductID
	}
	productByID, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	view := &TransferView{Transfer: *transfer, TotalValue: decimal.Zero}
	for _, item := range transfer.Items {
		product := productByID[item.ProductID]
		total := product.CostPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.ItemViews = append(view.ItemViews, ItemView{
			TransferItem: item,
			SKU:          product.SKU,
			Name:         product.Name,
			Price:        product.CostPrice,
			Total:        total,
		})
		view.TotalValue = view.TotalValue.Add(total)
	}
	return view, nil
}

func (s *service) List(ctx context.Context, status string) ([]models.Transfer, error) {
	return s.transfers.List(ctx, status)
}

func validateCreateInput(input CreateInput) error {
	if input.FromWarehouseID == uuid.Nil || input.ToWarehouseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "source and destination warehouses required")
	}
	if input.FromWarehouseID == input.ToWarehouseID {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "source and destination warehouses must differ")
	}
	if input.StaffID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "staff id required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer requires at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	return nil
}
