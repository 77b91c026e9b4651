package models_test

import (
	"github.com/google/uuid"
	"github.com/licensedesk/backend/internal/models"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestImportItemCreate() {
	item := suite.createTestItem(models.ImportItem{
		SerialNumber: 3,
		Description:  " Copper Cathodes ",
		HSCode:       "7403 11 00",
		Unit:         "kgs ",
		Quantity:     decimal.NewFromInt(1000),
		CIFValue:     decimal.NewFromInt(5000),
	})

	suite.Assert().Equal("Copper Cathodes", item.Description)
	suite.Assert().Equal("KGS", item.Unit)
	suite.Assert().True(item.BalanceQuantity.Equal(decimal.NewFromInt(1000)), "Balance quantity must start at the entitlement")
	suite.Assert().True(item.BalanceCIFValue.Equal(decimal.NewFromInt(5000)), "Balance value must start at the entitlement")
	suite.Assert().Equal(uint64(0), item.Version)
	suite.Assert().True(item.AllottedQuantity().IsZero())
	suite.Assert().True(item.AllottedCIFValue().IsZero())
}

func (suite *TestSuiteStandard) TestImportItemCreateBalanceIgnored() {
	item := suite.createTestItem(models.ImportItem{
		SerialNumber:    1,
		Quantity:        decimal.NewFromInt(10),
		CIFValue:        decimal.NewFromInt(20),
		BalanceQuantity: decimal.NewFromInt(2),
		BalanceCIFValue: decimal.NewFromInt(3),
		Version:         7,
	})

	suite.Assert().True(item.BalanceQuantity.Equal(decimal.NewFromInt(10)))
	suite.Assert().True(item.BalanceCIFValue.Equal(decimal.NewFromInt(20)))
	suite.Assert().Equal(uint64(0), item.Version)
}

func (suite *TestSuiteStandard) TestImportItemNoLicense() {
	err := models.DB.Create(&models.ImportItem{LicenseID: uuid.New(), SerialNumber: 1}).Error
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestImportItemNegativeEntitlement() {
	license := suite.createTestLicense(models.License{})

	err := models.DB.Create(&models.ImportItem{LicenseID: license.ID, SerialNumber: 1, Quantity: decimal.NewFromInt(-1)}).Error
	suite.Assert().ErrorIs(err, models.ErrItemEntitlementNegative)
}

func (suite *TestSuiteStandard) TestImportItemValidate() {
	tests := []struct {
		name string
		item models.ImportItem
		err  error
	}{
		{"Balance above entitlement", models.ImportItem{Quantity: decimal.NewFromInt(5), BalanceQuantity: decimal.NewFromInt(6)}, models.ErrItemBalanceOutOfRange},
		{"Negative balance", models.ImportItem{CIFValue: decimal.NewFromInt(5), BalanceCIFValue: decimal.NewFromInt(-1)}, models.ErrItemBalanceOutOfRange},
		{"Negative value", models.ImportItem{CIFValue: decimal.NewFromInt(-5)}, models.ErrItemEntitlementNegative},
		{"Partially allotted", models.ImportItem{Quantity: decimal.NewFromInt(5), BalanceQuantity: decimal.NewFromInt(2)}, nil},
	}

	for _, tt := range tests {
		err := tt.item.Validate()
		if tt.err == nil {
			suite.Assert().Nil(err, tt.name)
			continue
		}
		suite.Assert().ErrorIs(err, tt.err, tt.name)
	}
}

func (suite *TestSuiteStandard) TestImportItemDeleteWithLines() {
	item := suite.createTestItem(models.ImportItem{SerialNumber: 1, Quantity: decimal.NewFromInt(10), CIFValue: decimal.NewFromInt(10)})
	allotment := suite.createTestAllotment(models.Allotment{Company: "Acme"})

	hasLines, err := item.HasLines(models.DB)
	suite.Require().Nil(err)
	suite.Assert().False(hasLines)

	line := models.AllotmentLine{ItemID: item.ID, AllotmentID: allotment.ID, Quantity: decimal.NewFromInt(1), CIFValue: decimal.NewFromInt(1)}
	suite.Require().Nil(models.DB.Create(&line).Error)

	hasLines, err = item.HasLines(models.DB)
	suite.Require().Nil(err)
	suite.Assert().True(hasLines)

	err = models.DB.Delete(&item).Error
	suite.Assert().ErrorIs(err, models.ErrItemHasLines)
}
