package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"sitebooks-backend/internal/ledger"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/parse"
	"sitebooks-backend/internal/rbac"
)

// ReportStore computes project-wide reports.
type ReportStore interface {
	ProjectLedger(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) (*ProjectLedgerReport, error)
	CashExpenses(ctx context.Context, scope rbac.Scope, projectID uint, date model.Date) (*ledger.CashReport, error)
}

// ProjectLedgerReport is a project with its computed ledger.
type ProjectLedgerReport struct {
	Project     model.Project                    `json:"project"`
	Adjustments []model.ProjectBalanceAdjustment `json:"adjustments"`
	ledger.ProjectBook
}

func (s *gormStore) ProjectLedger(ctx context.Context, scope rbac.Scope, id uint, r parse.Range) (*ProjectLedgerReport, error) {
	db := s.db.WithContext(ctx)
	p, err := s.getProject(db, scope, id, false)
	if err != nil {
		return nil, err
	}
	outflows, err := projectOutflows(db, id, nil)
	if err != nil {
		return nil, err
	}
	var rows []model.ProjectBalanceAdjustment
	if err := db.Where("project_id = ?", id).Order("date, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load adjustments of project %d: %w", id, err)
	}
	adjustments := make([]ledger.Adjustment, 0, len(rows))
	for _, a := range rows {
		adjustments = append(adjustments, ledger.Adjustment{ID: a.ID, Date: a.Date, Amount: a.Amount, Reason: a.Reason})
	}
	book := ledger.BuildProject(p.AllocatedBudget, outflows, adjustments).Window(r)
	return &ProjectLedgerReport{Project: *p, Adjustments: rows, ProjectBook: book}, nil
}

// CashExpenses lists the cash outflows of a project on one date.
func (s *gormStore) CashExpenses(ctx context.Context, scope rbac.Scope, projectID uint, date model.Date) (*ledger.CashReport, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.getProject(db, scope, projectID, false); err != nil {
		return nil, err
	}
	outflows, err := projectOutflows(db, projectID, &date)
	if err != nil {
		return nil, err
	}
	report := ledger.BuildCashReport(projectID, date, outflows)
	return &report, nil
}

// projectOutflows loads every expense and payment of a project, optionally on one date.
func projectOutflows(tx *gorm.DB, projectID uint, on *model.Date) ([]ledger.Outflow, error) {
	where := func(q *gorm.DB) *gorm.DB {
		q = q.Where("project_id = ?", projectID)
		if on != nil {
			q = q.Where("date = ?", *on)
		}
		return q.Order("date, id")
	}
	var out []ledger.Outflow

	var expenses []model.Expense
	if err := where(tx).Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	for _, e := range expenses {
		out = append(out, ledger.Outflow{
			Kind: ledger.OutflowExpense, RefID: e.ID, Date: e.Date, Category: e.Category,
			PaidTo: e.PaidTo, Description: e.Description, Amount: e.Amount, Mode: e.PaymentMode,
		})
	}

	var contractorPays []model.ContractorPayment
	if err := where(tx).Find(&contractorPays).Error; err != nil {
		return nil, fmt.Errorf("load contractor payments: %w", err)
	}
	contractors, err := partyNames(tx, &model.Contractor{}, contractorPays, func(p model.ContractorPayment) uint { return p.ContractorID })
	if err != nil {
		return nil, err
	}
	for _, p := range contractorPays {
		out = append(out, ledger.Outflow{
			Kind: ledger.OutflowContractorPayment, RefID: p.ID, Date: p.Date,
			PaidTo: contractors[p.ContractorID], Description: p.Remarks, Amount: p.Amount, Mode: p.PaymentMode,
		})
	}

	var machinePays []model.MachinePayment
	if err := where(tx).Find(&machinePays).Error; err != nil {
		return nil, fmt.Errorf("load machine payments: %w", err)
	}
	machines, err := partyNames(tx, &model.Machine{}, machinePays, func(p model.MachinePayment) uint { return p.MachineID })
	if err != nil {
		return nil, err
	}
	for _, p := range machinePays {
		out = append(out, ledger.Outflow{
			Kind: ledger.OutflowMachinePayment, RefID: p.ID, Date: p.Date,
			PaidTo: machines[p.MachineID], Description: p.Remarks, Amount: p.Amount, Mode: p.PaymentMode,
		})
	}

	var vendorPays []model.VendorPayment
	if err := where(tx).Find(&vendorPays).Error; err != nil {
		return nil, fmt.Errorf("load vendor payments: %w", err)
	}
	vendors, err := partyNames(tx, &model.Vendor{}, vendorPays, func(p model.VendorPayment) uint { return p.VendorID })
	if err != nil {
		return nil, err
	}
	for _, p := range vendorPays {
		out = append(out, ledger.Outflow{
			Kind: ledger.OutflowVendorPayment, RefID: p.ID, Date: p.Date,
			PaidTo: vendors[p.VendorID], Description: p.Remarks, Amount: p.Amount, Mode: p.PaymentMode,
		})
	}

	var employeePays []model.EmployeePayment
	if err := where(tx).Find(&employeePays).Error; err != nil {
		return nil, fmt.Errorf("load employee payments: %w", err)
	}
	employees, err := partyNames(tx, &model.Employee{}, employeePays, func(p model.EmployeePayment) uint { return p.EmployeeID })
	if err != nil {
		return nil, err
	}
	for _, p := range employeePays {
		out = append(out, ledger.Outflow{
			Kind: ledger.OutflowEmployeePayment, RefID: p.ID, Date: p.Date,
			PaidTo: employees[p.EmployeeID], Description: p.Remarks, Amount: p.Amount, Mode: p.PaymentMode,
		})
	}
	return out, nil
}

type named struct {
	ID   uint
	Name string
}

// partyNames maps the party ids referenced by rows to their names.
func partyNames[R any](tx *gorm.DB, table any, rows []R, partyID func(R) uint) (map[uint]string, error) {
	names := make(map[uint]string)
	if len(rows) == 0 {
		return names, nil
	}
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, partyID(r))
	}
	var found []named
	if err := tx.Model(table).Select("id, name").Where("id IN ?", ids).Scan(&found).Error; err != nil {
		return nil, fmt.Errorf("load party names: %w", err)
	}
	for _, n := range found {
		names[n.ID] = n.Name
	}
	return names, nil
}
