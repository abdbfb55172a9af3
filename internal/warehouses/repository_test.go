package warehouses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
)

func TestRepositoryCreateAndMustExist(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Warehouse{
		Code:     "KHO-TRUNG-TAM",
		Name:     "Central warehouse",
		Type:     enums.WarehouseTypeMain,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create warehouse: %v", err)
	}

	if err := repo.MustExist(ctx, created.ID); err != nil {
		t.Fatalf("must exist: %v", err)
	}

	err = repo.MustExist(ctx, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRepositoryMustExistInactive(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.Warehouse{
		Code: "CN-Q7",
		Name: "District 7 branch",
		Type: enums.WarehouseTypeBranch,
	})
	if err != nil {
		t.Fatalf("create warehouse: %v", err)
	}
	if err := db.Model(&models.Warehouse{}).Where("id = ?", created.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate warehouse: %v", err)
	}

	err = repo.MustExist(ctx, created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for inactive warehouse, got %v", err)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:warehouses_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Warehouse{}); err != nil {
		t.Fatalf("migrate warehouses: %v", err)
	}
	return db
}
