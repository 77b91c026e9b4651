package v1_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"testing"

	"github.com/google/uuid"
	v1 "github.com/licensedesk/backend/internal/controllers/v1"
	"github.com/licensedesk/backend/internal/models"
	"github.com/licensedesk/backend/test"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upload sends content as file upload to the import endpoint.
func upload(t *testing.T, license, filename, content string) v1.ImportItemImportResponse {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	require.Nil(t, err)
	_, err = part.Write([]byte(content))
	require.Nil(t, err)
	require.Nil(t, writer.Close())

	path := "http://example.com/v1/import-items/import"
	if license != "" {
		path = fmt.Sprintf("%s?license=%s", path, license)
	}

	r := test.Request(t, http.MethodPost, path, body, map[string]string{"Content-Type": writer.FormDataContentType()})

	var response v1.ImportItemImportResponse
	test.DecodeResponse(t, &r, &response)
	response.Error = statusError(r.Code, response.Error)

	return response
}

// statusError prefixes the error with the status code so that tests can
// check both with one assertion.
func statusError(code int, err *string) *string {
	s := fmt.Sprintf("%d", code)
	if err != nil {
		s = fmt.Sprintf("%d %s", code, *err)
	}

	return &s
}

func (suite *TestSuiteStandard) TestImportItemsCreate() {
	i := createTestImportItem(suite.T(), v1.ImportItemEditable{
		SerialNumber: 1,
		Description:  "Polypropylene granules",
		HSCode:       "39021000",
		Unit:         "kgs",
		Quantity:     d(1000),
		CIFValue:     d(5000),
	})

	suite.Assert().Equal("KGS", i.Data.Unit)
	suite.Assert().True(i.Data.BalanceQuantity.Equal(d(1000)), "Balance quantity is %s", i.Data.BalanceQuantity)
	suite.Assert().True(i.Data.BalanceCIFValue.Equal(d(5000)), "Balance value is %s", i.Data.BalanceCIFValue)
	suite.Assert().True(i.Data.AllottedQuantity.IsZero())
	suite.Assert().Equal(uint64(0), i.Data.Version)
	suite.Assert().Equal(fmt.Sprintf("http://example.com/v1/licenses/%s", i.Data.LicenseID), i.Data.Links.License)
	suite.Assert().Equal(fmt.Sprintf("http://example.com/v1/allotment-lines?item=%s", i.Data.ID), i.Data.Links.AllotmentLines)
}

func (suite *TestSuiteStandard) TestImportItemsCreateErrors() {
	l := createTestLicense(suite.T(), v1.LicenseEditable{})
	createTestImportItem(suite.T(), v1.ImportItemEditable{LicenseID: l.Data.ID, SerialNumber: 1})

	tests := []struct {
		name   string
		item   v1.ImportItemEditable
		status int
		err    error
	}{
		{"Duplicate serial number", v1.ImportItemEditable{LicenseID: l.Data.ID, SerialNumber: 1}, http.StatusBadRequest, models.ErrItemSerialNotUnique},
		{"Negative quantity", v1.ImportItemEditable{LicenseID: l.Data.ID, SerialNumber: 2, Quantity: d(-1)}, http.StatusBadRequest, models.ErrItemEntitlementNegative},
		{"No license", v1.ImportItemEditable{LicenseID: uuid.New(), SerialNumber: 1}, http.StatusNotFound, models.ErrResourceNotFound},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodPost, "http://example.com/v1/import-items", []v1.ImportItemEditable{tt.item})
			test.AssertHTTPStatus(t, &r, tt.status)

			var response v1.ImportItemCreateResponse
			test.DecodeResponse(t, &r, &response)
			assert.Contains(t, *response.Data[0].Error, tt.err.Error())
		})
	}
}

func (suite *TestSuiteStandard) TestImportItemsOptions() {
	tests := []struct {
		name   string
		path   string
		status int
		allow  string
	}{
		{"No import item with this ID", uuid.New().String(), http.StatusNotFound, ""},
		{"Not a valid UUID", "NotParseableAsUUID", http.StatusBadRequest, ""},
		{"Import item exists", createTestImportItem(suite.T(), v1.ImportItemEditable{}).Data.ID.String(), http.StatusNoContent, "OPTIONS, GET, PATCH, DELETE"},
		{"Import", "import", http.StatusNoContent, "OPTIONS, POST"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodOptions, "http://example.com/v1/import-items/"+tt.path, "")
			test.AssertHTTPStatus(t, &r, tt.status)
			assert.Equal(t, tt.allow, r.Header().Get("allow"))
		})
	}
}

func (suite *TestSuiteStandard) TestImportItemsGetSingle() {
	i := createTestImportItem(suite.T(), v1.ImportItemEditable{})

	tests := []struct {
		name   string
		id     string
		status int
		method string
	}{
		{"GET Existing import item", i.Data.ID.String(), http.StatusOK, http.MethodGet},
		{"GET ID nil", uuid.Nil.String(), http.StatusNotFound, http.MethodGet},
		{"GET No import item with this ID", uuid.New().String(), http.StatusNotFound, http.MethodGet},
		{"GET Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodGet},
		{"PATCH Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodPatch},
		{"DELETE Invalid ID (string)", "notaUUID", http.StatusBadRequest, http.MethodDelete},
		{"DELETE No import item with this ID", uuid.New().String(), http.StatusNotFound, http.MethodDelete},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, tt.method, fmt.Sprintf("http://example.com/v1/import-items/%s", tt.id), "")
			test.AssertHTTPStatus(t, &r, tt.status)
		})
	}
}

func (suite *TestSuiteStandard) TestImportItemsGetFilter() {
	l1 := createTestLicense(suite.T(), v1.LicenseEditable{})
	l2 := createTestLicense(suite.T(), v1.LicenseEditable{})

	_ = createTestImportItem(suite.T(), v1.ImportItemEditable{LicenseID: l1.Data.ID, SerialNumber: 1, Description: "Polypropylene granules", HSCode: "39021000", Unit: "KGS"})
	_ = createTestImportItem(suite.T(), v1.ImportItemEditable{LicenseID: l1.Data.ID, SerialNumber: 2, Description: "Polyethylene", HSCode: "39011010", Unit: "KGS"})
	_ = createTestImportItem(suite.T(), v1.ImportItemEditable{LicenseID: l2.Data.ID, SerialNumber: 1, Description: "Copper cathodes", HSCode: "74031100", Unit: "MTS"})

	tests := []struct {
		name  string
		query string
		len   int
		total int64
	}{
		{"License 1", fmt.Sprintf("license=%s", l1.Data.ID), 2, 2},
		{"License not existing", fmt.Sprintf("license=%s", uuid.New()), 0, 0},
		{"Unit", "unit=kgs", 2, 2},
		{"HS code exact", "hsCode=39021000", 1, 1},
		{"HS code prefix without wildcard", "hsCode=3902", 0, 0},
		{"HS code glob", "hsCode=3901*", 1, 1},
		{"HS code glob all chapter 39", "hsCode=39*", 2, 2},
		{"HS code glob suffix", "hsCode=*00", 2, 2},
		{"HS code glob with license", fmt.Sprintf("hsCode=*00&license=%s", l2.Data.ID), 1, 1},
		{"HS code glob with limit", "hsCode=39*&limit=1", 1, 2},
		{"HS code glob with offset", "hsCode=39*&offset=5", 0, 2},
		{"Search", "search=poly", 2, 2},
		{"Offset 1", "offset=1", 2, 3},
		{"Limit 0", "limit=0", 0, 3},
		{"Limit -1", "limit=-1", 3, 3},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := test.Request(t, http.MethodGet, fmt.Sprintf("http://example.com/v1/import-items?%s", tt.query), "")
			test.AssertHTTPStatus(t, &r, http.StatusOK)

			var response v1.ImportItemListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.len, "Request ID: %s", r.Header().Get("x-request-id"))
			assert.Equal(t, tt.total, response.Pagination.Total)
		})
	}

	r := test.Request(suite.T(), http.MethodGet, "http://example.com/v1/import-items?license=NotAUUID", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestImportItemsUpdate() {
	i := createTestImportItem(suite.T(), v1.ImportItemEditable{SerialNumber: 1, Quantity: d(100), CIFValue: d(500)})
	other := createTestLicense(suite.T(), v1.LicenseEditable{})

	r := test.Request(suite.T(), http.MethodPatch, i.Data.Links.Self, map[string]any{
		"description": "Copper wire",
		"quantity":    "150",
	})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var updated v1.ImportItemResponse
	test.DecodeResponse(suite.T(), &r, &updated)
	suite.Assert().Equal("Copper wire", updated.Data.Description)
	suite.Assert().True(updated.Data.Quantity.Equal(d(150)), "Quantity is %s", updated.Data.Quantity)
	suite.Assert().True(updated.Data.BalanceQuantity.Equal(d(150)), "Balance quantity must follow the entitlement, is %s", updated.Data.BalanceQuantity)
	suite.Assert().True(updated.Data.CIFValue.Equal(d(500)), "CIF value must not change, is %s", updated.Data.CIFValue)
	suite.Assert().Equal(uint64(1), updated.Data.Version)

	r = test.Request(suite.T(), http.MethodPatch, i.Data.Links.Self, map[string]any{"licenseId": other.Data.ID})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)
	test.DecodeResponse(suite.T(), &r, &updated)
	suite.Assert().Equal(other.Data.ID, updated.Data.LicenseID)

	r = test.Request(suite.T(), http.MethodPatch, i.Data.Links.Self, map[string]any{"licenseId": uuid.New()})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusNotFound)

	r = test.Request(suite.T(), http.MethodPatch, i.Data.Links.Self, map[string]any{"cifValue": "-5"})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	r = test.Request(suite.T(), http.MethodPatch, i.Data.Links.Self, `{ "serialNumber": "one" }`)
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestImportItemsEntitlementLocked() {
	i := createTestImportItem(suite.T(), v1.ImportItemEditable{SerialNumber: 1, Quantity: d(100), CIFValue: d(500)})
	a := createTestAllotment(suite.T(), v1.AllotmentEditable{RequiredQuantity: d(50), RequiredValue: d(250)})
	allot(suite.T(), i.Data.ID, a.Data.ID, 10, 0)

	r := test.Request(suite.T(), http.MethodPatch, i.Data.Links.Self, map[string]any{"cifValue": "600"})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)

	var response v1.ImportItemResponse
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Contains(*response.Error, "cannot be changed while allotment lines reference it")

	// Other fields can still be changed
	r = test.Request(suite.T(), http.MethodPatch, i.Data.Links.Self, map[string]any{"description": "Zinc ingots"})
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	item := getImportItem(suite.T(), i.Data.ID)
	suite.Assert().True(item.BalanceQuantity.Equal(d(90)), "Balance quantity is %s", item.BalanceQuantity)

	r = test.Request(suite.T(), http.MethodDelete, i.Data.Links.Self, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestImportItemsImport() {
	l := createTestLicense(suite.T(), v1.LicenseEditable{})

	csv := "S.No.,Description,ITC HS Code,Unit,Quantity,CIF Value (USD)\n" +
		"1,Polypropylene granules,39021000,kgs,\"1,000\",5000\n" +
		",,,,,\n" +
		"2,Polyethylene,39011010,KGS,250.5,\"1,002.00\"\n"

	response := upload(suite.T(), l.Data.ID.String(), "items.csv", csv)
	suite.Require().Equal("201", *response.Error)
	suite.Require().Len(response.Data, 2)
	suite.Assert().Equal(1, response.Data[0].Data.SerialNumber)
	suite.Assert().True(response.Data[0].Data.Quantity.Equal(d(1000)), "Quantity is %s", response.Data[0].Data.Quantity)
	suite.Assert().Equal("KGS", response.Data[0].Data.Unit)
	suite.Assert().True(response.Data[1].Data.CIFValue.Equal(d(1002)), "CIF value is %s", response.Data[1].Data.CIFValue)
	suite.Assert().True(response.Data[1].Data.BalanceQuantity.Equal(d(250.5)), "Balance quantity is %s", response.Data[1].Data.BalanceQuantity)

	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/import-items?license=%s", l.Data.ID), "")
	var list v1.ImportItemListResponse
	test.DecodeResponse(suite.T(), &r, &list)
	suite.Assert().Len(list.Data, 2)
}

func (suite *TestSuiteStandard) TestImportItemsImportXLS() {
	l := createTestLicense(suite.T(), v1.LicenseEditable{})

	content, err := os.ReadFile("../../importer/testdata/items.xls")
	suite.Require().Nil(err)

	response := upload(suite.T(), l.Data.ID.String(), "items.xls", string(content))
	suite.Require().Equal("201", *response.Error)
	suite.Require().Len(response.Data, 2)
	suite.Assert().Equal("39021000", response.Data[0].Data.HSCode)
	suite.Assert().True(response.Data[0].Data.CIFValue.Equal(decimal.RequireFromString("5000.5")), "CIF value is %s", response.Data[0].Data.CIFValue)
	suite.Assert().True(response.Data[1].Data.BalanceQuantity.Equal(d(250)), "Balance quantity is %s", response.Data[1].Data.BalanceQuantity)
}

func (suite *TestSuiteStandard) TestImportItemsImportRejected() {
	l := createTestLicense(suite.T(), v1.LicenseEditable{})
	createTestImportItem(suite.T(), v1.ImportItemEditable{LicenseID: l.Data.ID, SerialNumber: 3})

	csv := "Sr No,Item,Qty,CIF\n" +
		"1,Copper,10,100\n" +
		"2,Zinc,ten,100\n" +
		"3,Lead,5,50\n"

	response := upload(suite.T(), l.Data.ID.String(), "items.csv", csv)
	suite.Assert().Contains(*response.Error, "400 some rows of the file could not be imported")
	suite.Require().Len(response.Data, 3)
	suite.Assert().Nil(response.Data[0].Data, "Created items must be rolled back")
	suite.Assert().Nil(response.Data[0].Error)
	suite.Assert().Contains(*response.Data[1].Error, "row 3: quantity")
	suite.Assert().Contains(*response.Data[2].Error, "row 4: "+models.ErrItemSerialNotUnique.Error())

	// Nothing was imported
	r := test.Request(suite.T(), http.MethodGet, fmt.Sprintf("http://example.com/v1/import-items?license=%s", l.Data.ID), "")
	var list v1.ImportItemListResponse
	test.DecodeResponse(suite.T(), &r, &list)
	suite.Assert().Len(list.Data, 1)
}

func (suite *TestSuiteStandard) TestImportItemsImportErrors() {
	l := createTestLicense(suite.T(), v1.LicenseEditable{}).Data.ID.String()

	tests := []struct {
		name     string
		license  string
		filename string
		content  string
		err      string
	}{
		{"No license", "", "items.csv", "S.No,Qty,CIF\n1,2,3\n", "400 the license parameter must be set"},
		{"Invalid license", "NotAUUID", "items.csv", "S.No,Qty,CIF\n1,2,3\n", "400 the specified resource ID is not a valid UUID"},
		{"License not existing", uuid.NewString(), "items.csv", "S.No,Qty,CIF\n1,2,3\n", "404 there is no license"},
		{"Wrong suffix", l, "items.pdf", "S.No,Qty,CIF\n1,2,3\n", "400 this endpoint only supports files of the following types"},
		{"Header only", l, "items.csv", "S.No,Qty,CIF\n", "400"},
		{"Missing column", l, "items.csv", "S.No,Qty\n1,2\n", "400"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			response := upload(t, tt.license, tt.filename, tt.content)
			assert.Contains(t, *response.Error, tt.err)
		})
	}

	r := test.Request(suite.T(), http.MethodPost, "http://example.com/v1/import-items/import?license="+l, "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusBadRequest)
}
