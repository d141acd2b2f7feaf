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

// ProjectStore manages projects and their balance adjustments.
type ProjectStore interface {
	ListProjects(ctx context.Context, scope rbac.Scope, f Filter) ([]model.Project, error)
	GetProject(ctx context.Context, scope rbac.Scope, id uint) (*model.Project, error)
	CreateProject(ctx context.Context, scope rbac.Scope, in ProjectInput) (*model.Project, error)
	UpdateProject(ctx context.Context, scope rbac.Scope, id uint, apply func(*ProjectInput) error) (*model.Project, error)
	DeleteProject(ctx context.Context, scope rbac.Scope, id uint) error

	ListAdjustments(ctx context.Context, scope rbac.Scope, projectID uint) ([]model.ProjectBalanceAdjustment, error)
	CreateAdjustment(ctx context.Context, scope rbac.Scope, projectID uint, in AdjustmentInput) (*model.ProjectBalanceAdjustment, error)
	DeleteAdjustment(ctx context.Context, scope rbac.Scope, projectID, adjustmentID uint) error
}

// ProjectInput creates or replaces a project's editable fields.
type ProjectInput struct {
	Name            string              `json:"name" binding:"required"`
	Location        string              `json:"location"`
	Description     string              `json:"description"`
	AllocatedBudget decimal.Decimal     `json:"allocatedBudget"`
	Status          model.ProjectStatus `json:"status"`
	StartDate       model.Date          `json:"startDate"`
	EndDate         model.Date          `json:"endDate"`
}

func (in *ProjectInput) validate() error {
	v := violations{}
	v.required("name", in.Name)
	v.nonNegative("allocatedBudget", in.AllocatedBudget)
	if in.Status == "" {
		in.Status = model.ProjectActive
	}
	if !in.Status.Valid() {
		v.add("status", "must be one of active, on_hold, completed")
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate.Time) {
		v.add("endDate", "must not be before startDate")
	}
	return v.err()
}

func (in ProjectInput) apply(p *model.Project) {
	p.Name = trimmed(in.Name)
	p.Location = in.Location
	p.Description = in.Description
	p.AllocatedBudget = in.AllocatedBudget
	p.Status = in.Status
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
}

func projectInput(p *model.Project) ProjectInput {
	return ProjectInput{
		Name: p.Name, Location: p.Location, Description: p.Description,
		AllocatedBudget: p.AllocatedBudget, Status: p.Status,
		StartDate: p.StartDate, EndDate: p.EndDate,
	}
}

// AdjustmentInput records a signed correction to a project's balance.
type AdjustmentInput struct {
	Date      model.Date      `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason" binding:"required"`
	CreatedBy uint            `json:"-"`
}

func (in *AdjustmentInput) validate() error {
	v := violations{}
	v.date("date", in.Date)
	if in.Amount.IsZero() {
		v.add("amount", "must not be zero")
	}
	v.cents("amount", in.Amount)
	v.required("reason", in.Reason)
	return v.err()
}

func (s *gormStore) ListProjects(ctx context.Context, scope rbac.Scope, f Filter) ([]model.Project, error) {
	q := scoped(s.db.WithContext(ctx), scope, "id")
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(f.Search))
	}
	var projects []model.Project
	if err := q.Order("name, id").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *gormStore) GetProject(ctx context.Context, scope rbac.Scope, id uint) (*model.Project, error) {
	return s.getProject(s.db.WithContext(ctx), scope, id, false)
}

func (s *gormStore) getProject(tx *gorm.DB, scope rbac.Scope, id uint, lock bool) (*model.Project, error) {
	if !scope.Allows(id) {
		return nil, apperr.AccessDenied("project")
	}
	var p model.Project
	if err := first(tx, &p, id, "project", lock); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *gormStore) CreateProject(ctx context.Context, scope rbac.Scope, in ProjectInput) (*model.Project, error) {
	if scope.Restricted() {
		return nil, apperr.Forbidden("project-scoped users cannot create projects")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := model.Project{Spent: decimal.Zero}
	in.apply(&p)
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &p, nil
}

func (s *gormStore) UpdateProject(ctx context.Context, scope rbac.Scope, id uint, apply func(*ProjectInput) error) (*model.Project, error) {
	var p *model.Project
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		var err error
		if p, err = s.getProject(tx, scope, id, true); err != nil {
			return err
		}
		in := projectInput(p)
		if err := apply(&in); err != nil {
			return err
		}
		if err := in.validate(); err != nil {
			return err
		}
		wasOver := p.OverBudget()
		in.apply(p)
		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("update project %d: %w", id, err)
		}
		if !wasOver && p.OverBudget() {
			fx.exceeded = append(fx.exceeded, p.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *gormStore) DeleteProject(ctx context.Context, scope rbac.Scope, id uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if _, err := s.getProject(tx, scope, id, true); err != nil {
			return err
		}
		err := blockIfReferenced(tx, "project", id,
			ref{&model.Contractor{}, "project_id", "contractors"},
			ref{&model.Machine{}, "project_id", "machines"},
			ref{&model.Expense{}, "project_id", "expenses"},
			ref{&model.Material{}, "project_id", "materials"},
			ref{&model.Employee{}, "project_id", "employees"},
			ref{&model.EmployeePayment{}, "project_id", "employee payments"},
			ref{&model.VendorBill{}, "project_id", "vendor bills"},
			ref{&model.VendorPayment{}, "project_id", "vendor payments"},
			ref{&model.BankAccount{}, "project_id", "bank accounts"},
			ref{&model.User{}, "assigned_project_id", "assigned users"},
		)
		if err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&model.ProjectBalanceAdjustment{}).Error; err != nil {
			return fmt.Errorf("delete adjustments of project %d: %w", id, err)
		}
		if err := tx.Exec("DELETE FROM subscription_projects WHERE project_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete subscriptions of project %d: %w", id, err)
		}
		return tx.Delete(&model.Project{}, id).Error
	})
}

func (s *gormStore) ListAdjustments(ctx context.Context, scope rbac.Scope, projectID uint) ([]model.ProjectBalanceAdjustment, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.getProject(db, scope, projectID, false); err != nil {
		return nil, err
	}
	var out []model.ProjectBalanceAdjustment
	if err := db.Where("project_id = ?", projectID).Order("date, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	return out, nil
}

func (s *gormStore) CreateAdjustment(ctx context.Context, scope rbac.Scope, projectID uint, in AdjustmentInput) (*model.ProjectBalanceAdjustment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	adj := model.ProjectBalanceAdjustment{
		ProjectID: projectID, Date: in.Date, Amount: in.Amount,
		Reason: trimmed(in.Reason), CreatedBy: in.CreatedBy,
	}
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if _, err := s.getProject(tx, scope, projectID, true); err != nil {
			return err
		}
		if err := tx.Create(&adj).Error; err != nil {
			return fmt.Errorf("create adjustment: %w", err)
		}
		fx.ledger("project", "create_adjustment")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &adj, nil
}

func (s *gormStore) DeleteAdjustment(ctx context.Context, scope rbac.Scope, projectID, adjustmentID uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if _, err := s.getProject(tx, scope, projectID, true); err != nil {
			return err
		}
		res := tx.Where("project_id = ?", projectID).Delete(&model.ProjectBalanceAdjustment{}, adjustmentID)
		if res.Error != nil {
			return fmt.Errorf("delete adjustment %d: %w", adjustmentID, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("adjustment")
		}
		fx.ledger("project", "delete_adjustment")
		return nil
	})
}

// touchProject recomputes a project's spent from all its outflows and records a
// budget-exceeded transition. Callers hold the transaction.
func touchProject(tx *gorm.DB, fx *effects, projectID uint) error {
	var p model.Project
	if err := first(tx, &p, projectID, "project", true); err != nil {
		return err
	}

	spent := decimal.Zero
	for _, src := range []struct {
		model  any
		column string
	}{
		{&model.Expense{}, "project_id"},
		{&model.ContractorPayment{}, "project_id"},
		{&model.MachinePayment{}, "project_id"},
		{&model.VendorPayment{}, "project_id"},
		{&model.EmployeePayment{}, "project_id"},
	} {
		var amounts []decimal.Decimal
		if err := tx.Model(src.model).Where(src.column+" = ?", projectID).Pluck("amount", &amounts).Error; err != nil {
			return fmt.Errorf("sum outflows of project %d: %w", projectID, err)
		}
		for _, a := range amounts {
			spent = spent.Add(a)
		}
	}

	wasOver := p.OverBudget()
	p.Spent = spent
	if err := tx.Model(&p).Update("spent", spent).Error; err != nil {
		return fmt.Errorf("update spent of project %d: %w", projectID, err)
	}
	if !wasOver && p.OverBudget() {
		fx.exceeded = append(fx.exceeded, projectID)
	}
	return nil
}

// touchProjects is touchProject over a set of optional project ids.
func touchProjects(tx *gorm.DB, fx *effects, ids ...*uint) error {
	seen := map[uint]bool{}
	for _, id := range ids {
		if id == nil || *id == 0 || seen[*id] {
			continue
		}
		seen[*id] = true
		if err := touchProject(tx, fx, *id); err != nil {
			return err
		}
	}
	return nil
}
