package v1_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	v1 "github.com/licensedesk/backend/internal/controllers/v1"
	"github.com/licensedesk/backend/internal/models"
	"github.com/licensedesk/backend/test"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestLicensesCreate() {
	l := createTestLicense(suite.T(), v1.LicenseEditable{
		Number:   " 0310823456 ",
		Kind:     "advance",
		Exporter: "Shree Exports",
	})

	suite.Assert().Equal("0310823456", l.Data.Number)
	suite.Assert().Equal(models.LicenseKindAdvance, l.Data.Kind)
	suite.Assert().Equal(fmt.Sprintf("http://example.com/v1/licenses/%s", l.Data.ID), l.Data.Links.Self)
	suite.Assert().Equal(fmt.Sprintf("http://example.com/v1/import-items?license=%s", l.Data.ID), l.Data.Links.ImportItems)
	suite.Assert().Equal(fmt.Sprintf("http://example.com/v1/licenses/%s/ledger", l.Data.ID), l.Data.Links.Ledger)
	suite.Assert().Equal(fmt.Sprintf("http://example.com/v1/import-items/import?license=%s", l.Data.ID), l.Data.Links.Import)
}

func (suite *TestSuiteStandard) TestLicensesCreateErrors() {
	createTestLicense(suite.T(), v1.LicenseEditable{Number: "0310823456"})

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/licenses", []v1.LicenseEditable{
		{Number: "0310823456"},
		{Number: "0310823457", Kind: "EPCG"},
		{Number: "0310823458"},
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	var response v1.LicenseCreateResponse
	test.DecodeResponse(suite.T(), &r, &response)

	suite.Require().Len(response.Data, 3)
	suite.Assert().Equal(models.ErrLicenseNumberNotUnique.Error(), *response.Data[0].Error)
	suite.Assert().Equal(models.ErrLicenseKindInvalid.Error(), *response.Data[1].Error)
	suite.Assert().Equal("0310823458", response.Data[2].Data.Number)

	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/licenses", `{ "number": "not an array" }`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	r = test.Request(suite.T(), http.MethodPost, "http://example.com/v1/licenses", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

// TestLicensesDBClosed verifies that errors are processed correctly when
// the database is closed.
func (suite *TestSuiteStandard) TestLicensesDBClosed() {
	tests := []struct {
		name string             // Name of the test
		test func(t *testing.T) // Code to run
	}{
		{
			"Creation fails",
			func(t *testing.T) {
				createTestLicense(t, v1.LicenseEditable{}, http.StatusInternalServerError)
			},
		},
		{
			"GET fails",
			func(t *testing.T) {
				recorder := test.Request(t, http.MethodGet, "http://example.com/v1/licenses", "")
				test.AssertHTTPStatus(t, &recorder, http.StatusInternalServerError)

				var response v1.LicenseListResponse
				test.DecodeResponse(t, &recorder, &response)
				assert.Contains(t, *response.Error, models.ErrGeneral.Error())
			},
		},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			suite.CloseDB()

			tt.test(t)
		})
	}
}

func (suite *TestSuiteStandard) TestLicensesOptions() {
	tests := []struct {
		name   string
		path   string
		status int
		allow  string
	}{
		{"No license with this ID", uuid.New().String(), http.StatusNotFound, ""},
		{"Not a valid UUID", "NotParseableAsUUID", http.StatusBadRequest, ""},
		{"License exists", createTestLicense(suite.T(), v1.LicenseEditable{}).Data.ID.String(), http.StatusNoContent, "OPTIONS, GET, PATCH, DELETE"},
		{"Ledger", createTestLicense(suite.T(), v1.LicenseEditable{}).Data.ID.String() + "/ledger", http.StatusNoContent, "OPTIONS, GET"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodOptions, "http://example.com/v1/licenses/"+tt.path, "")
			test.AssertHTTPStatus(t, &r, tt.status)
			assert.Equal(t, tt.allow, r.Header().Get("allow"))
		})
	}
}

func (suite *TestSuiteStandard) TestLicensesGetSingle() {
	l := createTestLicense(suite.T(), v1.LicenseEditable{})

	tests := []struct {
		name   string
		id     string
		status int
		method string
	}{
		{"GET Existing License", l.Data.ID.String(), http.StatusOK, http.MethodGet},
		{"GET ID nil", uuid.Nil.String(), http.StatusNotFound, http.MethodGet},
		{"GET No License with this ID", uuid.New().String(), http.StatusNotFound, http.MethodGet},
		{"GET Invalid ID (positive number)", "23", http.StatusBadRequest, http.MethodGet},
		{"GET Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodGet},
		{"PATCH Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodPatch},
		{"PATCH No License with this ID", uuid.New().String(), http.StatusNotFound, http.MethodPatch},
		{"DELETE Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodDelete},
		{"DELETE No License with this ID", uuid.New().String(), http.StatusNotFound, http.MethodDelete},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, tt.method, fmt.Sprintf("http://example.com/v1/licenses/%s", tt.id), "")
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestLicensesGetFilter() {
	_ = createTestLicense(suite.T(), v1.LicenseEditable{
		Number:   "0310823456",
		Port:     "INNSA1",
		Exporter: "Shree Exports",
		Note:     "Transferred from Mumbai",
	})

	_ = createTestLicense(suite.T(), v1.LicenseEditable{
		Number:   "0310823457",
		Kind:     models.LicenseKindAdvance,
		Port:     "INMAA1",
		Exporter: "Ganesh Polymers",
	})

	_ = createTestLicense(suite.T(), v1.LicenseEditable{
		Number: "5210004455",
		Port:   "INNSA1",
		Note:   "Shree group",
	})

	tests := []struct {
		name  string
		query string
		len   int
		total int64
	}{
		{"Number", "number=031082", 2, 2},
		{"Kind", "kind=ADVANCE", 1, 1},
		{"Port", "port=INNSA1", 2, 2},
		{"Exporter", "exporter=Polymers", 1, 1},
		{"Empty exporter", "exporter=", 1, 1},
		{"Search", "search=shree", 2, 2},
		{"Offset 2", "offset=2", 1, 3},
		{"Limit 2", "limit=2", 2, 3},
		{"Limit 0", "limit=0", 0, 3},
		{"Limit -1", "limit=-1", 3, 3},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/licenses?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response v1.LicenseListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.len, "Request ID: %s", r.Header().Get("x-request-id"))
			assert.Equal(t, tt.total, response.Pagination.Total)
		})
	}
}

func (suite *TestSuiteStandard) TestLicensesUpdate() {
	l := createTestLicense(suite.T(), v1.LicenseEditable{Number: "0310823456", Port: "INNSA1"})

	r := test.Request(suite.T(), http.MethodPatch, l.Data.Links.Self, map[string]any{
		"exporter": "Shree Exports",
		"port":     "",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var updated v1.LicenseResponse
	test.DecodeResponse(suite.T(), &r, &updated)
	suite.Assert().Equal("Shree Exports", updated.Data.Exporter)
	suite.Assert().Equal("", updated.Data.Port)
	suite.Assert().Equal("0310823456", updated.Data.Number)
}

func (suite *TestSuiteStandard) TestLicensesUpdateFails() {
	issued := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	l := createTestLicense(suite.T(), v1.LicenseEditable{IssuedOn: &issued})

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"Invalid body", `{ "number": 2 }`, http.StatusBadRequest},
		{"Broken body", `{ "number": "0310" `, http.StatusBadRequest},
		{"Empty number", map[string]any{"number": ""}, http.StatusBadRequest},
		{"Expiry before issue", map[string]any{"expiresOn": issued.AddDate(0, -1, 0)}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPatch, l.Data.Links.Self, tt.body)
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestLicensesDelete() {
	l := createTestLicense(suite.T(), v1.LicenseEditable{})
	i := createTestImportItem(suite.T(), v1.ImportItemEditable{LicenseID: l.Data.ID, SerialNumber: 1})

	r := test.Request(suite.T(), http.MethodDelete, l.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	var response struct {
		Error string `json:"error"`
	}
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Equal(models.ErrLicenseHasItems.Error(), response.Error)

	r = test.Request(suite.T(), http.MethodDelete, i.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodDelete, l.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNoContent)

	r = test.Request(suite.T(), http.MethodGet, l.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestLicensesLedger() {
	l := createTestLicense(suite.T(), v1.LicenseEditable{})
	first := createTestImportItem(suite.T(), v1.ImportItemEditable{LicenseID: l.Data.ID, SerialNumber: 2, Quantity: d(1000), CIFValue: d(5000)})
	_ = createTestImportItem(suite.T(), v1.ImportItemEditable{LicenseID: l.Data.ID, SerialNumber: 1, Quantity: d(100), CIFValue: d(250)})
	a := createTestAllotment(suite.T(), v1.AllotmentEditable{RequiredQuantity: d(500), RequiredValue: d(2500), UnitPrice: d(5)})

	allot(suite.T(), first.Data.ID, a.Data.ID, 200, 0)

	r := test.Request(suite.T(), http.MethodGet, l.Data.Links.Ledger, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.LicenseLedgerResponse
	test.DecodeResponse(suite.T(), &r, &response)

	ledger := response.Data
	suite.Require().Len(ledger.Items, 2)
	suite.Assert().Equal(1, ledger.Items[0].SerialNumber, "Items must be sorted by serial number")
	suite.Assert().Equal(int64(0), ledger.Items[0].Lines)
	suite.Assert().Equal(int64(1), ledger.Items[1].Lines)
	suite.Assert().True(ledger.Items[1].AllottedQuantity.Equal(d(200)), "Allotted quantity is %s", ledger.Items[1].AllottedQuantity)
	suite.Assert().True(ledger.Items[1].BalanceCIFValue.Equal(d(4000)), "Balance value is %s", ledger.Items[1].BalanceCIFValue)
	suite.Assert().True(ledger.CIFValue.Equal(d(5250)), "CIF value is %s", ledger.CIFValue)
	suite.Assert().True(ledger.AllottedCIFValue.Equal(d(1000)), "Allotted CIF value is %s", ledger.AllottedCIFValue)
	suite.Assert().True(ledger.BalanceCIFValue.Equal(d(4250)), "Balance CIF value is %s", ledger.BalanceCIFValue)

	r = test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/licenses/%s/ledger", uuid.New()), "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)
}
