package wsfe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AssembleOrg/afip-hub/afip/model"
	"github.com/AssembleOrg/afip-hub/afip/soap"
)

var testAuth = Auth{Token: "tok", Sign: "sig", Cuit: 20000000001}

// fixed calendar for every wsfe test
var testClock = clockwork.NewFakeClockAt(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))

const testToday = "20260831"

func wsfeResult(op, inner string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
<soap:Body>
<%sResponse xmlns="http://ar.gov.afip.dif.FEV1/">
<%sResult>%s</%sResult>
</%sResponse>
</soap:Body>
</soap:Envelope>`, op, op, inner, op, op)
}

// stubService serves canned results keyed by operation name and records
// which operations were called.
func stubService(t *testing.T, responses map[string]string) (Service, *[]string) {
	t.Helper()

	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := strings.Trim(r.Header.Get("SOAPAction"), `"`)
		op := strings.TrimPrefix(action, "http://ar.gov.afip.dif.FEV1/")
		calls = append(calls, op)

		inner, ok := responses[op]
		if !ok {
			t.Errorf("unexpected operation %q", op)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(wsfeResult(op, inner)))
	}))
	t.Cleanup(server.Close)

	return NewWithClock(soap.New(), server.URL, testClock), &calls
}

func TestLastAuthorized(t *testing.T) {

	service, calls := stubService(t, map[string]string{
		"FECompUltimoAutorizado": `<PtoVta>1</PtoVta><CbteTipo>6</CbteTipo><CbteNro>5</CbteNro>`,
		"FECompConsultar":        `<ResultGet><CbteDesde>5</CbteDesde><CbteFch>20241126</CbteFch></ResultGet>`,
	})

	seq, err := service.LastAuthorized(context.Background(), testAuth, 1, model.FacturaB)
	require.NoError(t, err)

	assert.Equal(t, int64(5), seq.LastNumber)
	assert.Equal(t, "20241126", seq.LastDate)
	assert.Equal(t, int64(6), seq.NextNumber())
	assert.Equal(t, []string{"FECompUltimoAutorizado", "FECompConsultar"}, *calls)
}

func TestLastAuthorizedFirstVoucherViaFault(t *testing.T) {

	service, calls := stubService(t, map[string]string{
		"FECompUltimoAutorizado": `<Errors><Err><Code>10015</Code><Msg>No existen comprobantes autorizados</Msg></Err></Errors>`,
	})

	seq, err := service.LastAuthorized(context.Background(), testAuth, 1, model.FacturaB)
	require.NoError(t, err, "the no-prior-voucher condition must be absorbed, never surfaced")

	assert.True(t, seq.FirstVoucher())
	assert.Equal(t, int64(0), seq.LastNumber)
	assert.Equal(t, testToday, seq.LastDate)
	assert.Equal(t, int64(1), seq.NextNumber())
	assert.Equal(t, []string{"FECompUltimoAutorizado"}, *calls, "no consultar call when there is nothing to consult")
}

func TestLastAuthorizedFirstVoucherViaZeroNumber(t *testing.T) {

	service, calls := stubService(t, map[string]string{
		"FECompUltimoAutorizado": `<PtoVta>1</PtoVta><CbteTipo>6</CbteTipo><CbteNro>0</CbteNro>`,
	})

	seq, err := service.LastAuthorized(context.Background(), testAuth, 1, model.FacturaB)
	require.NoError(t, err)

	assert.True(t, seq.FirstVoucher())
	assert.Equal(t, testToday, seq.LastDate)
	assert.Equal(t, []string{"FECompUltimoAutorizado"}, *calls)
}

func TestLastAuthorizedFirstVoucherViaMessageText(t *testing.T) {

	service, _ := stubService(t, map[string]string{
		"FECompUltimoAutorizado": `<Errors><Err><Code>1</Code><Msg>Sin Resultados</Msg></Err></Errors>`,
	})

	seq, err := service.LastAuthorized(context.Background(), testAuth, 3, model.FacturaC)
	require.NoError(t, err)
	assert.True(t, seq.FirstVoucher())
}

func TestLastAuthorizedGenuineFault(t *testing.T) {

	service, _ := stubService(t, map[string]string{
		"FECompUltimoAutorizado": `<Errors><Err><Code>600</Code><Msg>ValidacionDeToken: Error al verificar hash</Msg></Err></Errors>`,
	})

	_, err := service.LastAuthorized(context.Background(), testAuth, 1, model.FacturaB)

	var serr *model.SequenceLookupError
	require.ErrorAs(t, err, &serr)
	require.Len(t, serr.Details, 1)
	assert.Equal(t, 600, serr.Details[0].Code)
	assert.Contains(t, serr.Details[0].Message, "ValidacionDeToken")
}

func TestLastAuthorizedConsultarNotFoundFallsBackToToday(t *testing.T) {

	service, _ := stubService(t, map[string]string{
		"FECompUltimoAutorizado": `<CbteNro>5</CbteNro>`,
		"FECompConsultar":        `<Errors><Err><Code>602</Code><Msg>No existen datos en nuestros registros</Msg></Err></Errors>`,
	})

	seq, err := service.LastAuthorized(context.Background(), testAuth, 1, model.FacturaB)
	require.NoError(t, err)

	assert.Equal(t, int64(5), seq.LastNumber)
	assert.Equal(t, testToday, seq.LastDate, "missing date only loosens the floor")
}

func TestLastAuthorizedConsultarBlankDateFallsBackToToday(t *testing.T) {

	service, _ := stubService(t, map[string]string{
		"FECompUltimoAutorizado": `<CbteNro>5</CbteNro>`,
		"FECompConsultar":        `<ResultGet><CbteFch></CbteFch></ResultGet>`,
	})

	seq, err := service.LastAuthorized(context.Background(), testAuth, 1, model.FacturaB)
	require.NoError(t, err)
	assert.Equal(t, testToday, seq.LastDate)
}

func TestLastAuthorizedHTTP404IsFirstVoucher(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	service := NewWithClock(soap.New(), server.URL, testClock)
	seq, err := service.LastAuthorized(context.Background(), testAuth, 1, model.FacturaB)
	require.NoError(t, err)
	assert.True(t, seq.FirstVoucher())
}

func TestIsNotFoundTable(t *testing.T) {

	assert.True(t, isNotFound(model.Observation{Code: 602}))
	assert.True(t, isNotFound(model.Observation{Code: 10015}))
	assert.True(t, isNotFound(model.Observation{Code: 1, Message: "NO EXISTE el comprobante"}))
	assert.False(t, isNotFound(model.Observation{Code: 600, Message: "token invalido"}))

	assert.False(t, allNotFound(nil))
	assert.False(t, allNotFound([]model.Observation{{Code: 10015}, {Code: 600, Message: "otra cosa"}}),
		"a single genuine fault in the list must win over not-found entries")
}
