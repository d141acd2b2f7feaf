package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/metrics"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/rbac"
)

// Store defines the interface for all database operations.
type Store interface {
	ProjectStore
	BankStore
	ContractorStore
	MachineStore
	VendorStore
	EmployeeStore
	ExpenseStore
	InventoryStore
	UserStore
	ReportStore
	SubscriptionStore

	DB() *gorm.DB
	Ping(ctx context.Context) error
}

// Options carries the optional collaborators of a store.
type Options struct {
	Logger  *logrus.Logger
	Metrics *metrics.Metrics
	// BudgetExceeded is called after commit for every project whose spending
	// moved above its allocated budget. It must not block.
	BudgetExceeded func(projectID uint)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db             *gorm.DB
	log            *logrus.Logger
	metrics        *metrics.Metrics
	budgetExceeded func(projectID uint)
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts Options) Store {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &gormStore{
		db:             db,
		log:            logger,
		metrics:        opts.Metrics,
		budgetExceeded: opts.BudgetExceeded,
	}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// effects collects work that must only happen once a transaction has committed.
type effects struct {
	exceeded  []uint
	mutations [][2]string
}

func (fx *effects) ledger(name, op string) {
	fx.mutations = append(fx.mutations, [2]string{name, op})
}

// transact runs fn in a transaction and fires its effects after commit.
func (s *gormStore) transact(ctx context.Context, fn func(tx *gorm.DB, fx *effects) error) error {
	fx := &effects{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, fx)
	})
	if err != nil {
		return err
	}

	for _, m := range fx.mutations {
		s.metrics.LedgerMutation(m[0], m[1])
	}
	for _, id := range fx.exceeded {
		s.log.WithField("project_id", id).Warn("project spending exceeded its allocated budget")
		if s.budgetExceeded != nil {
			s.budgetExceeded(id)
		}
	}
	return nil
}

// forUpdate adds a row lock on dialects that support it.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// scoped restricts q to the scope's project using column.
func scoped(q *gorm.DB, scope rbac.Scope, column string) *gorm.DB {
	if !scope.Restricted() {
		return q
	}
	id, ok := scope.ProjectID()
	if !ok {
		return q.Where("1 = 0")
	}
	return q.Where(column+" = ?", id)
}

// notFound converts gorm's missing-record error to a NotFound of resource.
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(resource)
	}
	if isDuplicate(err) {
		return apperr.Conflict("%s already exists", resource)
	}
	return err
}

// isDuplicate reports a unique index violation. SQLite errors are not translated
// by its gorm driver and are matched by message.
func isDuplicate(err error) bool {
	return err != nil && (errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed"))
}

// onDuplicate replaces a unique index violation in err with taken.
func onDuplicate(err error, taken func() error) error {
	if isDuplicate(err) {
		return taken()
	}
	return err
}

// caseInsensitiveIndexes back the name checks made before inserts and renames.
var caseInsensitiveIndexes = []struct{ name, table, column string }{
	{name: "idx_non_consumable_categories_lower_name", table: "non_consumable_categories", column: "name"},
	{name: "idx_vendors_lower_name", table: "vendors", column: "name"},
	{name: "idx_users_lower_username", table: "users", column: "username"},
}

// EnsureIndexes creates the unique expression indexes AutoMigrate cannot declare.
func EnsureIndexes(db *gorm.DB) error {
	for _, idx := range caseInsensitiveIndexes {
		stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (LOWER(%s))", idx.name, idx.table, idx.column)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// first loads the row with id into dst, locking it when lock is set.
func first(tx *gorm.DB, dst any, id uint, resource string, lock bool) error {
	q := tx
	if lock {
		q = forUpdate(tx)
	}
	if err := q.First(dst, id).Error; err != nil {
		return notFound(err, resource)
	}
	return nil
}

// requireProject checks the project exists and is visible in scope.
func requireProject(tx *gorm.DB, scope rbac.Scope, id uint) error {
	if id == 0 {
		return apperr.Fields(map[string]string{"projectId": "is required"})
	}
	if !scope.Allows(id) {
		return apperr.AccessDenied("project")
	}
	var count int64
	if err := tx.Model(&model.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check project %d: %w", id, err)
	}
	if count == 0 {
		return apperr.NotFound("project")
	}
	return nil
}

// requireOptionalProject is requireProject for nullable project references.
// Restricted scopes default a missing project to their own.
func requireOptionalProject(tx *gorm.DB, scope rbac.Scope, id *uint) (*uint, error) {
	if id == nil || *id == 0 {
		if own, ok := scope.ProjectID(); ok {
			return &own, nil
		}
		if scope.Restricted() {
			return nil, apperr.AccessDenied("project")
		}
		return nil, nil
	}
	if err := requireProject(tx, scope, *id); err != nil {
		return nil, err
	}
	return id, nil
}

// blockIfReferenced rejects deletes while rows in the given models still point at id.
func blockIfReferenced(tx *gorm.DB, resource string, id uint, refs ...ref) error {
	for _, r := range refs {
		var count int64
		if err := tx.Model(r.model).Where(r.column+" = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("count %s: %w", r.label, err)
		}
		if count > 0 {
			return apperr.Conflict("%s still has %d %s", resource, count, r.label)
		}
	}
	return nil
}

type ref struct {
	model  any
	column string
	label  string
}

func trimmed(s string) string { return strings.TrimSpace(s) }

var likeStripper = strings.NewReplacer("%", "", "_", "")

// likePattern builds a case-insensitive substring pattern for LOWER(column) LIKE ?.
func likePattern(s string) string {
	return "%" + strings.ToLower(likeStripper.Replace(strings.TrimSpace(s))) + "%"
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func toLower(s string) string { return strings.ToLower(trimmed(s)) }
