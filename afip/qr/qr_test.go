package qr

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AssembleOrg/afip-hub/afip/model"
)

func approvedVoucher() (*model.Voucher, *model.VoucherResult) {
	v := &model.Voucher{
		SalesPoint:   1,
		VoucherType:  model.FacturaB,
		DocType:      model.DocTypeDNI,
		DocNumber:    "0",
		Number:       1,
		Date:         "20251205",
		AmountTotal:  decimal.RequireFromString("1210.00"),
		Currency:     "PES",
		CurrencyRate: decimal.NewFromInt(1),
	}
	res := &model.VoucherResult{
		Result:        model.Approved,
		CAE:           "71234567890123",
		CAEExpiry:     "20251215",
		VoucherNumber: 1,
		VoucherDate:   "20251205",
	}
	return v, res
}

func TestBuildCanonicalPayload(t *testing.T) {

	v, res := approvedVoucher()

	code, err := Build(20123456789, v, res)
	require.NoError(t, err)

	assert.Equal(t, "2025-12-05", code.Payload.Fecha)
	assert.Equal(t, int64(71234567890123), code.Payload.CodAut)
	assert.Equal(t, "E", code.Payload.TipoCodAut)

	const canonical = `{"ver":1,"fecha":"2025-12-05","cuit":20123456789,"ptoVta":1,"tipoCmp":6,"nroCmp":1,` +
		`"importe":1210.00,"moneda":"PES","ctz":1,"tipoDocRec":96,"nroDocRec":0,"tipoCodAut":"E","codAut":71234567890123}`

	assert.Equal(t, canonical, string(code.JSON))
	assert.True(t, strings.HasPrefix(code.URL, VerificationURL))
	assert.True(t, strings.HasSuffix(code.URL, base64.StdEncoding.EncodeToString([]byte(canonical))))
}

func TestBuildIsDeterministic(t *testing.T) {

	v, res := approvedVoucher()

	first, err := Build(20123456789, v, res)
	require.NoError(t, err)
	second, err := Build(20123456789, v, res)
	require.NoError(t, err)

	assert.Equal(t, first.JSON, second.JSON)
	assert.Equal(t, first.URL, second.URL)
}

func TestBuildPartiallyApprovedStillEncodes(t *testing.T) {

	v, res := approvedVoucher()
	res.Result = model.PartiallyApproved

	_, err := Build(20123456789, v, res)
	assert.NoError(t, err)
}

func TestBuildRejectsUnauthorized(t *testing.T) {

	v, res := approvedVoucher()
	res.Result = model.Rejected

	_, err := Build(20123456789, v, res)

	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestBuildRejectsBadInputs(t *testing.T) {

	var verr *model.ValidationError

	v, res := approvedVoucher()
	v.Date = "05/12/2025"
	_, err := Build(20123456789, v, res)
	assert.ErrorAs(t, err, &verr)

	v, res = approvedVoucher()
	res.CAE = "not-numeric"
	_, err = Build(20123456789, v, res)
	assert.ErrorAs(t, err, &verr)

	v, res = approvedVoucher()
	v.DocNumber = ""
	_, err = Build(20123456789, v, res)
	assert.ErrorAs(t, err, &verr)
}

func TestBuildFallsBackToVoucherNumber(t *testing.T) {

	v, res := approvedVoucher()
	v.Number = 9
	res.VoucherNumber = 0 // some responses omit CbteDesde

	code, err := Build(20123456789, v, res)
	require.NoError(t, err)
	assert.Equal(t, int64(9), code.Payload.NroCmp)
}
