package v1_test

import (
	"net/http"
	"testing"

	v1 "github.com/licensedesk/backend/internal/controllers/v1"
	"github.com/licensedesk/backend/test"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestV1() {
	r := test.Request(suite.T(), http.MethodGet, "http://example.com/v1", "")
	test.AssertHTTPStatus(suite.T(), &r, http.StatusOK)

	var response v1.Response
	test.DecodeResponse(suite.T(), &r, &response)
	suite.Assert().Equal("http://example.com/v1/licenses", response.Links.Licenses)
	suite.Assert().Equal("http://example.com/v1/allot", response.Links.Allot)
	suite.Assert().Equal("http://example.com/v1/reports/balances", response.Links.Balances)
}

func (suite *TestSuiteStandard) TestOptionsHeaders() {
	tests := []struct {
		path  string
		allow string
	}{
		{"/v1", "OPTIONS, GET"},
		{"/v1/licenses", "OPTIONS, GET, POST"},
		{"/v1/import-items", "OPTIONS, GET, POST"},
		{"/v1/allotments", "OPTIONS, GET, POST"},
		{"/v1/allotment-lines", "OPTIONS, GET"},
		{"/v1/allot", "OPTIONS, POST"},
		{"/v1/audit", "OPTIONS, GET"},
		{"/v1/reports/balances", "OPTIONS, GET"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.path, func(t *testing.T) {
			r := test.Request(t, http.MethodOptions, "http://example.com"+tt.path, "")
			test.AssertHTTPStatus(t, &r, http.StatusNoContent)
			assert.Equal(t, tt.allow, r.Header().Get("allow"))
		})
	}
}
