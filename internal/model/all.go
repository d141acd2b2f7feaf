package model

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&Project{},
		&ProjectBalanceAdjustment{},
		&BankAccount{},
		&BankTransaction{},
		&Contractor{},
		&ContractorEntry{},
		&ContractorPayment{},
		&ContractorPaymentAllocation{},
		&Machine{},
		&MachineEntry{},
		&MachinePayment{},
		&MachinePaymentAllocation{},
		&Vendor{},
		&VendorBill{},
		&VendorPayment{},
		&Expense{},
		&Employee{},
		&EmployeeAttendance{},
		&EmployeePayment{},
		&NonConsumableCategory{},
		&NonConsumableItem{},
		&Material{},
		&MaterialMovement{},
		&User{},
		&PushSubscription{},
	}
}
