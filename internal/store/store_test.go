package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/parse"
	"sitebooks-backend/internal/rbac"
)

var all = rbac.Unrestricted()

// newTestStore opens a private in-memory SQLite database with every table migrated.
func newTestStore(t *testing.T, opts Options) (Store, *gorm.DB) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	require.NoError(t, EnsureIndexes(db))
	return NewGormStore(db, opts), db
}

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func mustProject(t *testing.T, s Store, name, budget string) *model.Project {
	t.Helper()
	p, err := s.CreateProject(context.Background(), all, ProjectInput{Name: name, AllocatedBudget: dec(budget)})
	require.NoError(t, err)
	return p
}

func mustContractor(t *testing.T, s Store, projectID uint) *model.Contractor {
	t.Helper()
	c, err := s.CreateContractor(context.Background(), all, ContractorInput{ProjectID: projectID, Name: "Ravi Masonry"})
	require.NoError(t, err)
	return c
}

func TestContractorLedgerScenario(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, Options{})
	p := mustProject(t, s, "Tower A", "100000")
	c := mustContractor(t, s, p.ID)

	entry, err := s.CreateContractorEntry(ctx, all, c.ID, EntryInput{Date: model.MustDate("2024-01-01"), Amount: dec("1000")})
	require.NoError(t, err)
	payment, err := s.CreateContractorPayment(ctx, all, c.ID, PaymentInput{Date: model.MustDate("2024-01-02"), Amount: dec("600")})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCash, payment.PaymentMode)

	_, err = s.CreateContractorAllocation(ctx, all, c.ID, AllocationInput{PaymentID: payment.ID, EntryID: entry.ID, Amount: dec("600")})
	require.NoError(t, err)

	report, err := s.ContractorLedger(ctx, all, c.ID, parse.Range{})
	require.NoError(t, err)
	assert.Equal(t, "1000", report.Totals.TotalOwed.String())
	assert.Equal(t, "600", report.Totals.TotalPaid.String())
	assert.Equal(t, "400", report.Totals.Outstanding.String())
	assert.Equal(t, "400", report.Totals.NetBalance.String())
	require.Len(t, report.Lines, 2)
	assert.Equal(t, "400", report.Lines[1].Balance.String())

	got, err := s.GetProject(ctx, all, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Spent.Equal(dec("600")))
}

func TestAllocationLimits(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, Options{})
	p := mustProject(t, s, "Tower A", "0")
	c := mustContractor(t, s, p.ID)

	entry, err := s.CreateContractorEntry(ctx, all, c.ID, EntryInput{Date: model.MustDate("2024-01-01"), Amount: dec("500")})
	require.NoError(t, err)
	payment, err := s.CreateContractorPayment(ctx, all, c.ID, PaymentInput{Date: model.MustDate("2024-01-02"), Amount: dec("800")})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		amount string
		kind   apperr.Kind
	}{
		{name: "exceeds entry", amount: "501", kind: apperr.KindValidation},
		{name: "zero", amount: "0", kind: apperr.KindValidation},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateContractorAllocation(ctx, all, c.ID, AllocationInput{PaymentID: payment.ID, EntryID: entry.ID, Amount: dec(tc.amount)})
			assert.True(t, apperr.Is(err, tc.kind), "got %v", err)
		})
	}

	_, err = s.CreateContractorAllocation(ctx, all, c.ID, AllocationInput{PaymentID: payment.ID, EntryID: entry.ID, Amount: dec("500")})
	require.NoError(t, err)

	second, err := s.CreateContractorEntry(ctx, all, c.ID, EntryInput{Date: model.MustDate("2024-01-03"), Amount: dec("400")})
	require.NoError(t, err)
	_, err = s.CreateContractorAllocation(ctx, all, c.ID, AllocationInput{PaymentID: payment.ID, EntryID: second.ID, Amount: dec("301")})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "payment side over-allocation: %v", err)

	_, err = s.UpdateContractorEntry(ctx, all, c.ID, entry.ID, func(in *EntryInput) error {
		in.Amount = dec("499")
		return nil
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "shrinking below allocations: %v", err)
}

func TestAmountsAreLimitedToCents(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, Options{})
	p := mustProject(t, s, "Tower A", "0")
	c := mustContractor(t, s, p.ID)

	testCases := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{name: "Whole", amount: "1000"},
		{name: "Two places", amount: "1000.25"},
		{name: "Trailing zero", amount: "1000.250"},
		{name: "Three places", amount: "1000.255", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateContractorEntry(ctx, all, c.ID, EntryInput{Date: model.MustDate("2024-01-01"), Amount: dec(tc.amount)})
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "at most 2 decimal places", appErr.Details["amount"])
		})
	}

	_, err := s.UpdateProject(ctx, all, p.ID, func(in *ProjectInput) error {
		in.AllocatedBudget = dec("500.001")
		return nil
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDeletePaymentCascadesAllocations(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t, Options{})
	p := mustProject(t, s, "Tower A", "0")
	c := mustContractor(t, s, p.ID)

	entry, err := s.CreateContractorEntry(ctx, all, c.ID, EntryInput{Date: model.MustDate("2024-01-01"), Amount: dec("1000")})
	require.NoError(t, err)
	payment, err := s.CreateContractorPayment(ctx, all, c.ID, PaymentInput{Date: model.MustDate("2024-01-02"), Amount: dec("600")})
	require.NoError(t, err)
	_, err = s.CreateContractorAllocation(ctx, all, c.ID, AllocationInput{PaymentID: payment.ID, EntryID: entry.ID, Amount: dec("600")})
	require.NoError(t, err)

	require.NoError(t, s.DeleteContractorPayment(ctx, all, c.ID, payment.ID))

	var count int64
	require.NoError(t, db.Model(&model.ContractorPaymentAllocation{}).Count(&count).Error)
	assert.Zero(t, count)

	got, err := s.GetProject(ctx, all, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Spent.IsZero())

	err = s.DeleteContractor(ctx, all, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "contractor with entries: %v", err)
}

func TestBudgetExceededFiresOnTransition(t *testing.T) {
	ctx := context.Background()
	var exceeded []uint
	s, _ := newTestStore(t, Options{BudgetExceeded: func(id uint) { exceeded = append(exceeded, id) }})
	p := mustProject(t, s, "Tower A", "1000")

	_, err := s.CreateExpense(ctx, all, ExpenseInput{ProjectID: p.ID, Date: model.MustDate("2024-02-01"), Category: "Cement", Amount: dec("900")})
	require.NoError(t, err)
	assert.Empty(t, exceeded)

	_, err = s.CreateExpense(ctx, all, ExpenseInput{ProjectID: p.ID, Date: model.MustDate("2024-02-02"), Category: "Steel", Amount: dec("200")})
	require.NoError(t, err)
	assert.Equal(t, []uint{p.ID}, exceeded)

	_, err = s.CreateExpense(ctx, all, ExpenseInput{ProjectID: p.ID, Date: model.MustDate("2024-02-03"), Category: "Steel", Amount: dec("50")})
	require.NoError(t, err)
	assert.Len(t, exceeded, 1, "already over budget")
}

func TestVendorTotals(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, Options{})
	p := mustProject(t, s, "Tower A", "0")

	v, err := s.CreateVendor(ctx, all, VendorInput{Name: "Shree Cement"})
	require.NoError(t, err)
	_, err = s.CreateVendor(ctx, all, VendorInput{Name: "shree cement"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = s.CreateVendorBill(ctx, all, v.ID, VendorBillInput{Date: model.MustDate("2024-03-01"), Amount: dec("5000"), ProjectID: &p.ID})
	require.NoError(t, err)
	_, err = s.CreateVendorPayment(ctx, all, v.ID, VendorPaymentInput{Date: model.MustDate("2024-03-05"), Amount: dec("3500"), ProjectID: &p.ID})
	require.NoError(t, err)

	got, err := s.GetVendor(ctx, all, v.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalBilled.Equal(dec("5000")))
	assert.True(t, got.TotalPaid.Equal(dec("3500")))
	assert.True(t, got.Remaining.Equal(dec("1500")))

	report, err := s.VendorLedger(ctx, all, v.ID, parse.Range{})
	require.NoError(t, err)
	assert.Equal(t, "1500", report.Totals.NetBalance.String())
	assert.True(t, report.Totals.Outstanding.Equal(got.Remaining))
	assert.Equal(t, 1, report.Totals.UnsettledEntries)
}

func TestPaidUpVendorLedgerIsSettled(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, Options{})

	v, err := s.CreateVendor(ctx, all, VendorInput{Name: "Shree Cement"})
	require.NoError(t, err)
	_, err = s.CreateVendorBill(ctx, all, v.ID, VendorBillInput{Date: model.MustDate("2024-03-01"), Amount: dec("5000")})
	require.NoError(t, err)
	_, err = s.CreateVendorPayment(ctx, all, v.ID, VendorPaymentInput{Date: model.MustDate("2024-03-05"), Amount: dec("5000")})
	require.NoError(t, err)

	report, err := s.VendorLedger(ctx, all, v.ID, parse.Range{})
	require.NoError(t, err)
	assert.True(t, report.Vendor.Remaining.IsZero())
	assert.True(t, report.Totals.Outstanding.IsZero(), report.Totals.Outstanding.String())
	assert.True(t, report.Totals.UnallocatedPaid.IsZero(), report.Totals.UnallocatedPaid.String())
	assert.Equal(t, 0, report.Totals.UnsettledEntries)
	require.Len(t, report.Entries, 1)
	assert.True(t, report.Entries[0].Settled)
}

func TestBankBalance(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, Options{})

	a, err := s.CreateBankAccount(ctx, all, BankAccountInput{AccountName: "Site current", OpeningBalance: dec("1000")})
	require.NoError(t, err)
	_, err = s.CreateBankTransaction(ctx, all, a.ID, BankTransactionInput{Date: model.MustDate("2024-01-01"), Type: model.BankCredit, Amount: dec("500")})
	require.NoError(t, err)
	debit, err := s.CreateBankTransaction(ctx, all, a.ID, BankTransactionInput{Date: model.MustDate("2024-01-02"), Type: model.BankDebit, Amount: dec("300")})
	require.NoError(t, err)

	got, err := s.GetBankAccount(ctx, all, a.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(dec("1200")), got.CurrentBalance.String())

	require.NoError(t, s.DeleteBankTransaction(ctx, all, a.ID, debit.ID))
	got, err = s.GetBankAccount(ctx, all, a.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(dec("1500")), got.CurrentBalance.String())
}

func TestCategoryNameIsCaseInsensitiveUnique(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t, Options{})

	c, err := s.CreateCategory(ctx, all, CategoryInput{Name: "Scaffolding"})
	require.NoError(t, err)
	_, err = s.CreateCategory(ctx, all, CategoryInput{Name: "  SCAFFOLDING "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	var count int64
	require.NoError(t, db.Model(&model.NonConsumableCategory{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = s.CreateItem(ctx, all, ItemInput{CategoryID: c.ID, Name: "Pipe clamp", TotalQuantity: 10})
	require.NoError(t, err)
	err = s.DeleteCategory(ctx, all, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestNameIndexesIgnoreCase(t *testing.T) {
	_, db := newTestStore(t, Options{})

	require.NoError(t, db.Create(&model.NonConsumableCategory{Name: "Scaffolding"}).Error)
	err := db.Create(&model.NonConsumableCategory{Name: "SCAFFOLDING"}).Error
	require.Error(t, err)
	assert.True(t, apperr.Is(onDuplicate(err, categoryNameTaken), apperr.KindValidation))

	require.NoError(t, db.Create(&model.Vendor{Name: "Shree Cement"}).Error)
	err = db.Create(&model.Vendor{Name: "shree cement"}).Error
	assert.True(t, apperr.Is(onDuplicate(err, vendorNameTaken), apperr.KindValidation))

	require.NoError(t, EnsureIndexes(db), "creating the indexes again is a no-op")
}

func TestMoveItemKeepsPartition(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, Options{})
	c, err := s.CreateCategory(ctx, all, CategoryInput{Name: "Tools"})
	require.NoError(t, err)
	it, err := s.CreateItem(ctx, all, ItemInput{CategoryID: c.ID, Name: "Drill", TotalQuantity: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, it.CompanyStore)

	it, err = s.MoveItem(ctx, all, it.ID, MoveInput{From: model.BucketCompanyStore, To: model.BucketInUse, Quantity: 4})
	require.NoError(t, err)
	it, err = s.MoveItem(ctx, all, it.ID, MoveInput{From: model.BucketInUse, To: model.BucketUnderRepair, Quantity: 1})
	require.NoError(t, err)

	_, err = s.MoveItem(ctx, all, it.ID, MoveInput{From: model.BucketUnderRepair, To: model.BucketLost, Quantity: 2})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	got, err := s.GetItem(ctx, all, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.CompanyStore)
	assert.Equal(t, 3, got.InUse)
	assert.Equal(t, 1, got.UnderRepair)
	assert.NoError(t, got.CheckPartition())

	_, err = s.UpdateItem(ctx, all, it.ID, func(in *ItemInput) error {
		in.TotalQuantity = 3
		return nil
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "cannot shrink below items out of store")
}

func TestMaterialStock(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, Options{})
	p := mustProject(t, s, "Tower A", "0")

	m, err := s.CreateMaterial(ctx, all, MaterialInput{ProjectID: p.ID, Name: "Cement", Unit: "bag"})
	require.NoError(t, err)
	assert.True(t, m.CurrentStock.IsZero())

	in, err := s.CreateMovement(ctx, all, m.ID, MovementInput{Date: model.MustDate("2024-01-01"), Type: model.MovementInward, Quantity: dec("100")})
	require.NoError(t, err)
	_, err = s.CreateMovement(ctx, all, m.ID, MovementInput{Date: model.MustDate("2024-01-02"), Type: model.MovementConsumed, Quantity: dec("40")})
	require.NoError(t, err)
	_, err = s.CreateMovement(ctx, all, m.ID, MovementInput{Date: model.MustDate("2024-01-03"), Type: model.MovementConsumed, Quantity: dec("61")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = s.DeleteMovement(ctx, all, m.ID, in.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "reversing inward would go negative")

	got, err := s.GetMaterial(ctx, all, m.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentStock.Equal(dec("60")), got.CurrentStock.String())
}

func TestAttendanceAndSummary(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, Options{})
	p := mustProject(t, s, "Tower A", "0")

	e, err := s.CreateEmployee(ctx, all, EmployeeInput{
		ProjectID: &p.ID, Name: "Suresh", CompensationType: model.CompensationDaily, DailyRate: dec("800"),
	})
	require.NoError(t, err)

	_, err = s.MarkAttendance(ctx, all, e.ID, AttendanceInput{Date: model.MustDate("2024-02-01"), Status: model.AttendanceAbsent})
	require.NoError(t, err)
	_, err = s.MarkAttendance(ctx, all, e.ID, AttendanceInput{Date: model.MustDate("2024-02-01"), Status: model.AttendancePresent})
	require.NoError(t, err)
	_, err = s.MarkAttendance(ctx, all, e.ID, AttendanceInput{Date: model.MustDate("2024-02-02"), Status: model.AttendanceHalfDay})
	require.NoError(t, err)

	rows, err := s.ListAttendance(ctx, all, e.ID, parse.Range{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.AttendancePresent, rows[0].Status)

	_, err = s.CreateEmployeePayment(ctx, all, e.ID, PaymentInput{Date: model.MustDate("2024-02-05"), Amount: dec("1000")})
	require.NoError(t, err)

	sum, err := s.EmployeeSummary(ctx, all, e.ID, "2024-02")
	require.NoError(t, err)
	assert.Equal(t, 29, sum.DaysInMonth)
	assert.Equal(t, 1, sum.Present)
	assert.Equal(t, 1, sum.HalfDays)
	assert.True(t, sum.Earned.Equal(dec("1200")), sum.Earned.String())
	assert.True(t, sum.Balance.Equal(dec("200")), sum.Balance.String())

	_, err = s.EmployeeSummary(ctx, all, e.ID, "February")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestProjectScopeHidesOtherProjects(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, Options{})
	mine := mustProject(t, s, "Tower A", "0")
	other := mustProject(t, s, "Tower B", "0")
	c := mustContractor(t, s, other.ID)
	scope := rbac.ProjectOnly(mine.ID)

	_, err := s.GetContractor(ctx, scope, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindAccessDenied))
	_, err = s.GetProject(ctx, scope, other.ID)
	assert.True(t, apperr.Is(err, apperr.KindAccessDenied))

	projects, err := s.ListProjects(ctx, scope, Filter{})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, mine.ID, projects[0].ID)

	created, err := s.CreateContractor(ctx, scope, ContractorInput{Name: "Defaulted"})
	require.NoError(t, err)
	assert.Equal(t, mine.ID, created.ProjectID)

	_, err = s.CreateProject(ctx, scope, ProjectInput{Name: "Tower C"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestProjectLedgerAndCashReport(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, Options{})
	p := mustProject(t, s, "Tower A", "10000")
	c := mustContractor(t, s, p.ID)

	_, err := s.CreateExpense(ctx, all, ExpenseInput{ProjectID: p.ID, Date: model.MustDate("2024-04-01"), Category: "Cement", Amount: dec("700")})
	require.NoError(t, err)
	_, err = s.CreateExpense(ctx, all, ExpenseInput{ProjectID: p.ID, Date: model.MustDate("2024-04-01"), Category: "Diesel", Amount: dec("300"), PaymentMode: model.PaymentUPI})
	require.NoError(t, err)
	_, err = s.CreateContractorPayment(ctx, all, c.ID, PaymentInput{Date: model.MustDate("2024-04-01"), Amount: dec("2000")})
	require.NoError(t, err)
	_, err = s.CreateAdjustment(ctx, all, p.ID, AdjustmentInput{Date: model.MustDate("2024-04-02"), Amount: dec("500"), Reason: "Client advance"})
	require.NoError(t, err)

	report, err := s.ProjectLedger(ctx, all, p.ID, parse.Range{})
	require.NoError(t, err)
	assert.True(t, report.TotalSpent.Equal(dec("3000")))
	assert.True(t, report.Balance.Equal(dec("7500")))
	assert.Len(t, report.Lines, 4)

	cash, err := s.CashExpenses(ctx, all, p.ID, model.MustDate("2024-04-01"))
	require.NoError(t, err)
	assert.Equal(t, 2, cash.Count)
	assert.True(t, cash.GrandTotal.Equal(dec("2700")))
	require.Len(t, cash.Categories, 2)
	assert.Equal(t, "Cement", cash.Categories[0].Category)
	assert.Equal(t, "Ravi Masonry", cash.Categories[1].Items[0].PaidTo)
}

func TestUserAuthentication(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, Options{})
	p := mustProject(t, s, "Tower A", "0")

	_, err := s.CreateUser(ctx, all, UserInput{Username: "site1", Password: "secret-pass", Role: model.RoleSiteManager})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "site manager needs a project")

	u, err := s.CreateUser(ctx, all, UserInput{Username: "site1", Password: "secret-pass", Role: model.RoleSiteManager, AssignedProjectID: &p.ID})
	require.NoError(t, err)
	assert.True(t, u.IsActive)

	_, err = s.CreateUser(ctx, all, UserInput{Username: "SITE1", Password: "secret-pass", Role: model.RoleAdmin})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	got, err := s.Authenticate(ctx, "site1", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Authenticate(ctx, "site1", "wrong-pass")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	inactive := false
	_, err = s.UpdateUser(ctx, all, u.ID, func(in *UserInput) error {
		in.IsActive = &inactive
		return nil
	})
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, "site1", "secret-pass")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSubscriptionsFollowScope(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, Options{})
	mine := mustProject(t, s, "Tower A", "0")
	other := mustProject(t, s, "Tower B", "0")

	sub := model.PushSubscription{Endpoint: "https://push.example/abc", P256DH: "key", Auth: "auth", UserID: 7}
	require.NoError(t, s.PutSubscription(ctx, rbac.ProjectOnly(mine.ID), sub, []uint{mine.ID, other.ID}))

	_, ids, err := s.GetSubscription(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, []uint{mine.ID}, ids)

	subs, err := s.SubscriptionsForProject(ctx, mine.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	require.NoError(t, s.DeleteSubscription(ctx, sub.Endpoint))
	_, _, err = s.GetSubscription(ctx, sub.Endpoint)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestEntryLocksPartyOnPostgres(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewGormStore(db, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "contractors" WHERE "contractors"."id" = $1 ORDER BY "contractors"."id" LIMIT $2 FOR UPDATE`)).
		WithArgs(5, 1).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	_, err := s.CreateContractorEntry(context.Background(), all, 5, EntryInput{Date: model.MustDate("2024-01-01"), Amount: dec("10")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
