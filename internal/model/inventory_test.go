package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNonConsumableItem_Move(t *testing.T) {
	testCases := []struct {
		name      string
		from, to  Bucket
		qty       int
		expected  NonConsumableItem
		expectErr bool
	}{
		{
			name: "Store to site",
			from: BucketCompanyStore, to: BucketInUse, qty: 4,
			expected: NonConsumableItem{TotalQuantity: 10, CompanyStore: 6, InUse: 4},
		},
		{
			name: "Whole store to repair",
			from: BucketCompanyStore, to: BucketUnderRepair, qty: 10,
			expected: NonConsumableItem{TotalQuantity: 10, UnderRepair: 10},
		},
		{name: "More than available", from: BucketCompanyStore, to: BucketLost, qty: 11, expectErr: true},
		{name: "Zero quantity", from: BucketCompanyStore, to: BucketLost, qty: 0, expectErr: true},
		{name: "Same bucket", from: BucketInUse, to: BucketInUse, qty: 1, expectErr: true},
		{name: "Unknown bucket", from: "warehouse", to: BucketInUse, qty: 1, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			item := NonConsumableItem{TotalQuantity: 10, CompanyStore: 10}
			err := item.Move(tc.from, tc.to, tc.qty)
			if tc.expectErr {
				assert.Error(t, err)
				assert.Equal(t, 10, item.CompanyStore, "failed move must not change quantities")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, item)
		})
	}
}

func TestNonConsumableItem_Resize(t *testing.T) {
	item := NonConsumableItem{TotalQuantity: 10, CompanyStore: 2, InUse: 8}

	assert.NoError(t, item.Resize(15))
	assert.Equal(t, 7, item.CompanyStore)
	assert.NoError(t, item.CheckPartition())

	assert.Error(t, item.Resize(5), "8 units are in use")
	assert.Equal(t, 15, item.TotalQuantity)
}

func TestNonConsumableItem_CheckPartition(t *testing.T) {
	assert.NoError(t, NonConsumableItem{TotalQuantity: 3, CompanyStore: 1, InUse: 1, Lost: 1}.CheckPartition())
	assert.Error(t, NonConsumableItem{TotalQuantity: 3, CompanyStore: 1}.CheckPartition())
	assert.Error(t, NonConsumableItem{TotalQuantity: 0, CompanyStore: 1, Lost: -1}.CheckPartition())
}
