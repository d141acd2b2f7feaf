package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/ledger"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/parse"
	"sitebooks-backend/internal/rbac"
)

// EmployeeStore manages employees, attendance and wage payments.
type EmployeeStore interface {
	ListEmployees(ctx context.Context, scope rbac.Scope, f Filter) ([]model.Employee, error)
	GetEmployee(ctx context.Context, scope rbac.Scope, id uint) (*model.Employee, error)
	CreateEmployee(ctx context.Context, scope rbac.Scope, in EmployeeInput) (*model.Employee, error)
	UpdateEmployee(ctx context.Context, scope rbac.Scope, id uint, apply func(*EmployeeInput) error) (*model.Employee, error)
	DeleteEmployee(ctx context.Context, scope rbac.Scope, id uint) error

	ListAttendance(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.EmployeeAttendance, error)
	MarkAttendance(ctx context.Context, scope rbac.Scope, id uint, in AttendanceInput) (*model.EmployeeAttendance, error)

	ListEmployeePayments(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.EmployeePayment, error)
	CreateEmployeePayment(ctx context.Context, scope rbac.Scope, id uint, in PaymentInput) (*model.EmployeePayment, error)
	DeleteEmployeePayment(ctx context.Context, scope rbac.Scope, id, paymentID uint) error

	EmployeeSummary(ctx context.Context, scope rbac.Scope, id uint, month string) (*EmployeeSummary, error)
}

// EmployeeInput creates or replaces an employee's editable fields.
type EmployeeInput struct {
	ProjectID        *uint                  `json:"projectId"`
	Name             string                 `json:"name" binding:"required"`
	Phone            string                 `json:"phone"`
	Designation      string                 `json:"designation"`
	CompensationType model.CompensationType `json:"compensationType" binding:"required,oneof=fixed daily"`
	MonthlySalary    decimal.Decimal        `json:"monthlySalary"`
	DailyRate        decimal.Decimal        `json:"dailyRate"`
	IsActive         *bool                  `json:"isActive"`
}

func (in *EmployeeInput) validate() error {
	v := violations{}
	v.required("name", in.Name)
	switch in.CompensationType {
	case model.CompensationFixed:
		v.positive("monthlySalary", in.MonthlySalary)
	case model.CompensationDaily:
		v.positive("dailyRate", in.DailyRate)
	default:
		v.add("compensationType", "must be fixed or daily")
	}
	v.nonNegative("monthlySalary", in.MonthlySalary)
	v.nonNegative("dailyRate", in.DailyRate)
	return v.err()
}

func (in EmployeeInput) apply(e *model.Employee) {
	e.ProjectID, e.Name, e.Phone, e.Designation = in.ProjectID, trimmed(in.Name), in.Phone, in.Designation
	e.CompensationType, e.MonthlySalary, e.DailyRate = in.CompensationType, in.MonthlySalary, in.DailyRate
	e.IsActive = boolOr(in.IsActive, e.IsActive)
}

// AttendanceInput marks an employee's status on a date.
type AttendanceInput struct {
	Date   model.Date             `json:"date"`
	Status model.AttendanceStatus `json:"status" binding:"required"`
}

// EmployeeSummary is an employee's attendance, earnings and payments for a month.
type EmployeeSummary struct {
	Employee    model.Employee  `json:"employee"`
	Month       string          `json:"month"`
	DaysInMonth int             `json:"daysInMonth"`
	Present     int             `json:"present"`
	HalfDays    int             `json:"halfDays"`
	Absent      int             `json:"absent"`
	PaidDays    decimal.Decimal `json:"paidDays"`
	Earned      decimal.Decimal `json:"earned"`
	Paid        decimal.Decimal `json:"paid"`
	Balance     decimal.Decimal `json:"balance"`
}

func (s *gormStore) employee(tx *gorm.DB, scope rbac.Scope, id uint, lock bool) (*model.Employee, error) {
	var e model.Employee
	if err := first(tx, &e, id, "employee", lock); err != nil {
		return nil, err
	}
	if !scope.AllowsOptional(e.ProjectID) {
		return nil, apperr.AccessDenied("employee")
	}
	return &e, nil
}

func (s *gormStore) ListEmployees(ctx context.Context, scope rbac.Scope, f Filter) ([]model.Employee, error) {
	q := scoped(s.db.WithContext(ctx), scope, "project_id")
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(f.Search))
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []model.Employee
	if err := q.Order("name, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return out, nil
}

func (s *gormStore) GetEmployee(ctx context.Context, scope rbac.Scope, id uint) (*model.Employee, error) {
	return s.employee(s.db.WithContext(ctx), scope, id, false)
}

func (s *gormStore) CreateEmployee(ctx context.Context, scope rbac.Scope, in EmployeeInput) (*model.Employee, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	e := model.Employee{IsActive: true}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if in.ProjectID, err = requireOptionalProject(tx, scope, in.ProjectID); err != nil {
			return err
		}
		in.apply(&e)
		return tx.Create(&e).Error
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *gormStore) UpdateEmployee(ctx context.Context, scope rbac.Scope, id uint, apply func(*EmployeeInput) error) (*model.Employee, error) {
	var e *model.Employee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if e, err = s.employee(tx, scope, id, true); err != nil {
			return err
		}
		active := e.IsActive
		in := EmployeeInput{
			ProjectID: e.ProjectID, Name: e.Name, Phone: e.Phone, Designation: e.Designation,
			CompensationType: e.CompensationType, MonthlySalary: e.MonthlySalary, DailyRate: e.DailyRate, IsActive: &active,
		}
		if err := apply(&in); err != nil {
			return err
		}
		if err := in.validate(); err != nil {
			return err
		}
		if in.ProjectID, err = requireOptionalProject(tx, scope, in.ProjectID); err != nil {
			return err
		}
		in.apply(e)
		return tx.Save(e).Error
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEmployee removes an employee without payments, dropping their attendance.
func (s *gormStore) DeleteEmployee(ctx context.Context, scope rbac.Scope, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.employee(tx, scope, id, true); err != nil {
			return err
		}
		if err := blockIfReferenced(tx, "employee", id,
			ref{&model.EmployeePayment{}, "employee_id", "payments"},
		); err != nil {
			return err
		}
		if err := tx.Where("employee_id = ?", id).Delete(&model.EmployeeAttendance{}).Error; err != nil {
			return fmt.Errorf("delete attendance of employee %d: %w", id, err)
		}
		return tx.Delete(&model.Employee{}, id).Error
	})
}

func (s *gormStore) ListAttendance(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.EmployeeAttendance, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.employee(db, scope, id, false); err != nil {
		return nil, err
	}
	var out []model.EmployeeAttendance
	if err := dateRange(db.Where("employee_id = ?", id), "date", r).Order("date").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return out, nil
}

// MarkAttendance upserts the employee's status for one date.
func (s *gormStore) MarkAttendance(ctx context.Context, scope rbac.Scope, id uint, in AttendanceInput) (*model.EmployeeAttendance, error) {
	v := violations{}
	v.date("date", in.Date)
	if !in.Status.Valid() {
		v.add("status", "must be one of present, absent, half_day")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	var out model.EmployeeAttendance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.employee(tx, scope, id, false); err != nil {
			return err
		}
		row := model.EmployeeAttendance{EmployeeID: id, Date: in.Date, Status: in.Status}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("mark attendance: %w", err)
		}
		return tx.Where("employee_id = ? AND date = ?", id, in.Date).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *gormStore) ListEmployeePayments(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) ([]model.EmployeePayment, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.employee(db, scope, id, false); err != nil {
		return nil, err
	}
	var out []model.EmployeePayment
	if err := dateRange(db.Where("employee_id = ?", id), "date", r).Order("date, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list employee payments: %w", err)
	}
	return out, nil
}

func (s *gormStore) CreateEmployeePayment(ctx context.Context, scope rbac.Scope, id uint, in PaymentInput) (*model.EmployeePayment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var p model.EmployeePayment
	err := s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		e, err := s.employee(tx, scope, id, true)
		if err != nil {
			return err
		}
		p = model.EmployeePayment{
			EmployeeID: id, ProjectID: e.ProjectID, Date: in.Date, Amount: in.Amount,
			PaymentMode: in.PaymentMode, Remarks: in.Remarks,
		}
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("create employee payment: %w", err)
		}
		fx.ledger("employee", "create_payment")
		return touchProjects(tx, fx, p.ProjectID)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *gormStore) DeleteEmployeePayment(ctx context.Context, scope rbac.Scope, id, paymentID uint) error {
	return s.transact(ctx, func(tx *gorm.DB, fx *effects) error {
		if _, err := s.employee(tx, scope, id, true); err != nil {
			return err
		}
		var p model.EmployeePayment
		if err := tx.Where("employee_id = ?", id).First(&p, paymentID).Error; err != nil {
			return notFound(err, "payment")
		}
		if err := tx.Delete(&p).Error; err != nil {
			return fmt.Errorf("delete employee payment %d: %w", paymentID, err)
		}
		fx.ledger("employee", "delete_payment")
		return touchProjects(tx, fx, p.ProjectID)
	})
}

func (s *gormStore) EmployeeSummary(ctx context.Context, scope rbac.Scope, id uint, month string) (*EmployeeSummary, error) {
	from, to, err := parse.ParseMonth(month)
	if err != nil {
		return nil, apperr.Fields(map[string]string{"month": err.Error()})
	}
	db := s.db.WithContext(ctx)
	e, err := s.employee(db, scope, id, false)
	if err != nil {
		return nil, err
	}
	r := parse.Range{From: from, To: to}

	attendance, err := s.ListAttendance(ctx, scope, id, r)
	if err != nil {
		return nil, err
	}
	payments, err := s.ListEmployeePayments(ctx, scope, id, r)
	if err != nil {
		return nil, err
	}

	sum := EmployeeSummary{Employee: *e, Month: from.Format(parse.MonthLayout), DaysInMonth: parse.DaysIn(from), Paid: decimal.Zero}
	statuses := make([]model.AttendanceStatus, 0, len(attendance))
	for _, a := range attendance {
		statuses = append(statuses, a.Status)
		switch a.Status {
		case model.AttendancePresent:
			sum.Present++
		case model.AttendanceHalfDay:
			sum.HalfDays++
		case model.AttendanceAbsent:
			sum.Absent++
		}
	}
	for _, p := range payments {
		sum.Paid = sum.Paid.Add(p.Amount)
	}
	sum.PaidDays = ledger.PaidDays(statuses)
	sum.Earned = ledger.Earned(*e, sum.PaidDays, sum.DaysInMonth)
	sum.Balance = sum.Earned.Sub(sum.Paid)
	return &sum, nil
}
