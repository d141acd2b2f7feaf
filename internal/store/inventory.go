package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/rbac"
)

// InventoryStore manages non-consumable items by category and consumable materials.
type InventoryStore interface {
	ListCategories(ctx context.Context, scope rbac.Scope) ([]model.NonConsumableCategory, error)
	GetCategory(ctx context.Context, scope rbac.Scope, id uint) (*model.NonConsumableCategory, error)
	CreateCategory(ctx context.Context, scope rbac.Scope, in CategoryInput) (*model.NonConsumableCategory, error)
	UpdateCategory(ctx context.Context, scope rbac.Scope, id uint, apply func(*CategoryInput) error) (*model.NonConsumableCategory, error)
	DeleteCategory(ctx context.Context, scope rbac.Scope, id uint) error

	ListItems(ctx context.Context, scope rbac.Scope, categoryID *uint) ([]model.NonConsumableItem, error)
	GetItem(ctx context.Context, scope rbac.Scope, id uint) (*model.NonConsumableItem, error)
	CreateItem(ctx context.Context, scope rbac.Scope, in ItemInput) (*model.NonConsumableItem, error)
	UpdateItem(ctx context.Context, scope rbac.Scope, id uint, apply func(*ItemInput) error) (*model.NonConsumableItem, error)
	DeleteItem(ctx context.Context, scope rbac.Scope, id uint) error
	MoveItem(ctx context.Context, scope rbac.Scope, id uint, in MoveInput) (*model.NonConsumableItem, error)

	ListMaterials(ctx context.Context, scope rbac.Scope, f Filter) ([]model.Material, error)
	GetMaterial(ctx context.Context, scope rbac.Scope, id uint) (*model.Material, error)
	CreateMaterial(ctx context.Context, scope rbac.Scope, in MaterialInput) (*model.Material, error)
	UpdateMaterial(ctx context.Context, scope rbac.Scope, id uint, apply func(*MaterialInput) error) (*model.Material, error)
	DeleteMaterial(ctx context.Context, scope rbac.Scope, id uint) error

	ListMovements(ctx context.Context, scope rbac.Scope, materialID uint) ([]model.MaterialMovement, error)
	CreateMovement(ctx context.Context, scope rbac.Scope, materialID uint, in MovementInput) (*model.MaterialMovement, error)
	DeleteMovement(ctx context.Context, scope rbac.Scope, materialID, movementID uint) error
}

// CategoryInput creates or replaces a category.
type CategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ItemInput creates or replaces an item. A new item's quantity starts in the company store.
type ItemInput struct {
	CategoryID    uint   `json:"categoryId" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Unit          string `json:"unit"`
	TotalQuantity int    `json:"totalQuantity"`
}

// MoveInput shifts quantity between an item's buckets.
type MoveInput struct {
	From     model.Bucket `json:"from" binding:"required"`
	To       model.Bucket `json:"to" binding:"required"`
	Quantity int          `json:"quantity" binding:"required"`
}

// MaterialInput creates or replaces a material.
type MaterialInput struct {
	ProjectID uint   `json:"projectId"`
	Name      string `json:"name" binding:"required"`
	Unit      string `json:"unit"`
}

// MovementInput records stock received or consumed.
type MovementInput struct {
	Date     model.Date         `json:"date"`
	Type     model.MovementType `json:"type" binding:"required,oneof=inward consumed"`
	Quantity decimal.Decimal    `json:"quantity"`
	VendorID *uint              `json:"vendorId"`
	Notes    string             `json:"notes"`
}

// uniqueCategoryName rejects a name already used by another category, ignoring case.
func uniqueCategoryName(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	q := tx.Model(&model.NonConsumableCategory{}).Where("LOWER(name) = ?", toLower(name))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if count > 0 {
		return categoryNameTaken()
	}
	return nil
}

func categoryNameTaken() error {
	return apperr.Fields(map[string]string{"name": "a category with this name already exists"})
}

func (s *gormStore) ListCategories(ctx context.Context, _ rbac.Scope) ([]model.NonConsumableCategory, error) {
	var out []model.NonConsumableCategory
	if err := s.db.WithContext(ctx).Order("name, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (s *gormStore) GetCategory(ctx context.Context, _ rbac.Scope, id uint) (*model.NonConsumableCategory, error) {
	var c model.NonConsumableCategory
	if err := first(s.db.WithContext(ctx), &c, id, "category", false); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *gormStore) CreateCategory(ctx context.Context, _ rbac.Scope, in CategoryInput) (*model.NonConsumableCategory, error) {
	name := trimmed(in.Name)
	if name == "" {
		return nil, apperr.Fields(map[string]string{"name": "is required"})
	}
	c := model.NonConsumableCategory{Name: name, Description: in.Description}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := uniqueCategoryName(tx, name, 0); err != nil {
			return err
		}
		return onDuplicate(tx.Create(&c).Error, categoryNameTaken)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *gormStore) UpdateCategory(ctx context.Context, _ rbac.Scope, id uint, apply func(*CategoryInput) error) (*model.NonConsumableCategory, error) {
	var c model.NonConsumableCategory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := first(tx, &c, id, "category", true); err != nil {
			return err
		}
		in := CategoryInput{Name: c.Name, Description: c.Description}
		if err := apply(&in); err != nil {
			return err
		}
		name := trimmed(in.Name)
		if name == "" {
			return apperr.Fields(map[string]string{"name": "is required"})
		}
		if err := uniqueCategoryName(tx, name, id); err != nil {
			return err
		}
		c.Name, c.Description = name, in.Description
		return onDuplicate(tx.Save(&c).Error, categoryNameTaken)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *gormStore) DeleteCategory(ctx context.Context, _ rbac.Scope, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.NonConsumableCategory
		if err := first(tx, &c, id, "category", true); err != nil {
			return err
		}
		if err := blockIfReferenced(tx, "category", id,
			ref{&model.NonConsumableItem{}, "category_id", "items"},
		); err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
}

func (s *gormStore) ListItems(ctx context.Context, _ rbac.Scope, categoryID *uint) ([]model.NonConsumableItem, error) {
	q := s.db.WithContext(ctx)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	var out []model.NonConsumableItem
	if err := q.Order("name, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return out, nil
}

func (s *gormStore) GetItem(ctx context.Context, _ rbac.Scope, id uint) (*model.NonConsumableItem, error) {
	var it model.NonConsumableItem
	if err := first(s.db.WithContext(ctx), &it, id, "item", false); err != nil {
		return nil, err
	}
	return &it, nil
}

func validateItem(tx *gorm.DB, in ItemInput) error {
	v := violations{}
	v.required("name", in.Name)
	if in.TotalQuantity < 0 {
		v.add("totalQuantity", "must not be negative")
	}
	if in.CategoryID == 0 {
		v.add("categoryId", "is required")
	}
	if err := v.err(); err != nil {
		return err
	}
	var c model.NonConsumableCategory
	return first(tx, &c, in.CategoryID, "category", false)
}

func (s *gormStore) CreateItem(ctx context.Context, _ rbac.Scope, in ItemInput) (*model.NonConsumableItem, error) {
	it := model.NonConsumableItem{
		CategoryID: in.CategoryID, Name: trimmed(in.Name), Unit: in.Unit,
		TotalQuantity: in.TotalQuantity, CompanyStore: in.TotalQuantity,
	}
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if err := validateItem(tx, in); err != nil {
			return err
		}
		if err := tx.Create(&it).Error; err != nil {
			return fmt.Errorf("create item: %w", err)
		}
		fx.ledger("inventory", "create_item")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *gormStore) UpdateItem(ctx context.Context, _ rbac.Scope, id uint, apply func(*ItemInput) error) (*model.NonConsumableItem, error) {
	var it model.NonConsumableItem
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if err := first(tx, &it, id, "item", true); err != nil {
			return err
		}
		in := ItemInput{CategoryID: it.CategoryID, Name: it.Name, Unit: it.Unit, TotalQuantity: it.TotalQuantity}
		if err := apply(&in); err != nil {
			return err
		}
		if err := validateItem(tx, in); err != nil {
			return err
		}
		if err := it.Resize(in.TotalQuantity); err != nil {
			return apperr.Fields(map[string]string{"totalQuantity": err.Error()})
		}
		it.CategoryID, it.Name, it.Unit = in.CategoryID, trimmed(in.Name), in.Unit
		if err := tx.Save(&it).Error; err != nil {
			return fmt.Errorf("update item %d: %w", id, err)
		}
		fx.ledger("inventory", "update_item")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *gormStore) DeleteItem(ctx context.Context, _ rbac.Scope, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.NonConsumableItem{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("item")
	}
	return nil
}

// MoveItem shifts quantity between buckets under a row lock.
func (s *gormStore) MoveItem(ctx context.Context, _ rbac.Scope, id uint, in MoveInput) (*model.NonConsumableItem, error) {
	var it model.NonConsumableItem
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if err := first(tx, &it, id, "item", true); err != nil {
			return err
		}
		if err := it.Move(in.From, in.To, in.Quantity); err != nil {
			return apperr.Validation("%s", err.Error())
		}
		if err := tx.Model(&it).Updates(map[string]any{
			"company_store": it.CompanyStore,
			"in_use":        it.InUse,
			"under_repair":  it.UnderRepair,
			"lost":          it.Lost,
		}).Error; err != nil {
			return fmt.Errorf("move item %d: %w", id, err)
		}
		fx.ledger("inventory", "move_item")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *gormStore) material(tx *gorm.DB, scope rbac.Scope, id uint, lock bool) (*model.Material, error) {
	var m model.Material
	if err := first(tx, &m, id, "material", lock); err != nil {
		return nil, err
	}
	if !scope.Allows(m.ProjectID) {
		return nil, apperr.AccessDenied("material")
	}
	return &m, nil
}

func (s *gormStore) ListMaterials(ctx context.Context, scope rbac.Scope, f Filter) ([]model.Material, error) {
	q := scoped(s.db.WithContext(ctx), scope, "project_id")
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(f.Search))
	}
	var out []model.Material
	if err := q.Order("name, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return out, nil
}

func (s *gormStore) GetMaterial(ctx context.Context, scope rbac.Scope, id uint) (*model.Material, error) {
	return s.material(s.db.WithContext(ctx), scope, id, false)
}

func (s *gormStore) CreateMaterial(ctx context.Context, scope rbac.Scope, in MaterialInput) (*model.Material, error) {
	if in.ProjectID == 0 {
		if own, ok := scope.ProjectID(); ok {
			in.ProjectID = own
		}
	}
	v := violations{}
	v.required("name", in.Name)
	if in.ProjectID == 0 {
		v.add("projectId", "is required")
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	m := model.Material{ProjectID: in.ProjectID, Name: trimmed(in.Name), Unit: in.Unit, CurrentStock: decimal.Zero}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireProject(tx, scope, in.ProjectID); err != nil {
			return err
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormStore) UpdateMaterial(ctx context.Context, scope rbac.Scope, id uint, apply func(*MaterialInput) error) (*model.Material, error) {
	var m *model.Material
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if m, err = s.material(tx, scope, id, true); err != nil {
			return err
		}
		in := MaterialInput{ProjectID: m.ProjectID, Name: m.Name, Unit: m.Unit}
		if err := apply(&in); err != nil {
			return err
		}
		if trimmed(in.Name) == "" {
			return apperr.Fields(map[string]string{"name": "is required"})
		}
		if in.ProjectID != m.ProjectID {
			return apperr.Fields(map[string]string{"projectId": "cannot be changed"})
		}
		m.Name, m.Unit = trimmed(in.Name), in.Unit
		return tx.Save(m).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMaterial removes a material and its movement history.
func (s *gormStore) DeleteMaterial(ctx context.Context, scope rbac.Scope, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.material(tx, scope, id, true); err != nil {
			return err
		}
		if err := tx.Where("material_id = ?", id).Delete(&model.MaterialMovement{}).Error; err != nil {
			return fmt.Errorf("delete movements of material %d: %w", id, err)
		}
		return tx.Delete(&model.Material{}, id).Error
	})
}

func (s *gormStore) ListMovements(ctx context.Context, scope rbac.Scope, materialID uint) ([]model.MaterialMovement, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.material(db, scope, materialID, false); err != nil {
		return nil, err
	}
	var out []model.MaterialMovement
	if err := db.Where("material_id = ?", materialID).Order("date, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return out, nil
}

func (s *gormStore) CreateMovement(ctx context.Context, scope rbac.Scope, materialID uint, in MovementInput) (*model.MaterialMovement, error) {
	v := violations{}
	v.date("date", in.Date)
	v.positive("quantity", in.Quantity)
	if in.Type != model.MovementInward && in.Type != model.MovementConsumed {
		v.add("type", "must be inward or consumed")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	mv := model.MaterialMovement{MaterialID: materialID, Date: in.Date, Type: in.Type, Quantity: in.Quantity, Notes: in.Notes}
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		m, err := s.material(tx, scope, materialID, true)
		if err != nil {
			return err
		}
		if in.VendorID != nil && *in.VendorID != 0 {
			if _, err := s.vendor(tx, *in.VendorID, false); err != nil {
				return err
			}
			mv.VendorID = in.VendorID
		}
		stock := m.CurrentStock.Add(mv.Signed())
		if stock.IsNegative() {
			return apperr.Validation("cannot consume %s: only %s in stock", in.Quantity.String(), m.CurrentStock.String())
		}
		if err := tx.Create(&mv).Error; err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		if err := tx.Model(m).Update("current_stock", stock).Error; err != nil {
			return fmt.Errorf("update stock of material %d: %w", materialID, err)
		}
		fx.ledger("inventory", "create_movement")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &mv, nil
}

// DeleteMovement reverses a movement. Reversals that would leave negative stock are rejected.
func (s *gormStore) DeleteMovement(ctx context.Context, scope rbac.Scope, materialID, movementID uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		m, err := s.material(tx, scope, materialID, true)
		if err != nil {
			return err
		}
		var mv model.MaterialMovement
		if err := tx.Where("material_id = ?", materialID).First(&mv, movementID).Error; err != nil {
			return notFound(err, "movement")
		}
		stock := m.CurrentStock.Sub(mv.Signed())
		if stock.IsNegative() {
			return apperr.Validation("removing this movement would leave negative stock")
		}
		if err := tx.Delete(&mv).Error; err != nil {
			return fmt.Errorf("delete movement %d: %w", movementID, err)
		}
		if err := tx.Model(m).Update("current_stock", stock).Error; err != nil {
			return fmt.Errorf("update stock of material %d: %w", materialID, err)
		}
		fx.ledger("inventory", "delete_movement")
		return nil
	})
}
