package ledger_test

import (
	"context"

	"github.com/licensedesk/backend/internal/ledger"
	"github.com/licensedesk/backend/internal/models"
)

func (suite *TestSuiteStandard) TestAudit() {
	item, allotment := suite.createScenario()
	untouched := suite.createTestItem(models.ImportItem{LicenseID: item.LicenseID, SerialNumber: 2, Quantity: d(10), CIFValue: d(10)})

	_, err := suite.engine().Allot(context.Background(), ledger.Command{ItemID: item.ID, AllotmentID: allotment.ID, Quantity: d(200)})
	suite.Require().Nil(err)

	drifts, err := ledger.Audit(context.Background(), models.DB)
	suite.Require().Nil(err)
	suite.Assert().Len(drifts, 0)

	// Change the balance behind the engine's back
	err = models.DB.Model(&models.ImportItem{}).Where("id = ?", item.ID).Update("balance_quantity", d(750)).Error
	suite.Require().Nil(err)

	drifts, err = ledger.Audit(context.Background(), models.DB)
	suite.Require().Nil(err)
	suite.Require().Len(drifts, 1)

	suite.Assert().Equal(item.ID, drifts[0].ItemID)
	suite.Assert().Equal(item.LicenseID, drifts[0].LicenseID)
	suite.Assert().True(drifts[0].BalanceQuantity.Equal(d(750)))
	suite.Assert().True(drifts[0].ExpectedBalanceQuantity.Equal(d(800)))
	suite.Assert().True(drifts[0].ExpectedBalanceCIFValue.Equal(d(4000)))
	suite.Assert().NotEqual(untouched.ID, drifts[0].ItemID)
}

func (suite *TestSuiteStandard) TestAuditDatabaseError() {
	suite.CloseDB()

	_, err := ledger.Audit(context.Background(), models.DB)
	suite.Assert().ErrorIs(err, models.ErrGeneral)
}

func (suite *TestSuiteStandard) TestSnapshot() {
	item, allotment := suite.createScenario()

	b, err := ledger.Snapshot(models.DB, item.ID, allotment.ID)
	suite.Require().Nil(err)
	suite.Assert().Nil(b.Line)
	suite.Assert().True(b.ItemQuantity.Equal(d(1000)))
	suite.Assert().True(b.AllottedQuantity.IsZero())

	_, err = suite.engine().Allot(context.Background(), ledger.Command{ItemID: item.ID, AllotmentID: allotment.ID, Quantity: d(200)})
	suite.Require().Nil(err)

	// The existing line is released for the snapshot
	b, err = ledger.Snapshot(models.DB, item.ID, allotment.ID)
	suite.Require().Nil(err)
	suite.Require().NotNil(b.Line)
	suite.Assert().True(b.ItemQuantity.Equal(d(1000)), "Item quantity is %s", b.ItemQuantity)
	suite.Assert().True(b.ItemValue.Equal(d(5000)), "Item value is %s", b.ItemValue)
	suite.Assert().True(b.AllottedQuantity.IsZero())
	suite.Assert().True(b.AllottedValue.IsZero())
}
