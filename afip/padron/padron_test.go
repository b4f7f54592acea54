package padron

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AssembleOrg/afip-hub/afip/model"
	"github.com/AssembleOrg/afip-hub/afip/soap"
)

const personaResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
<soap:Body>
<ns2:getPersona_v2Response xmlns:ns2="http://a5.soap.ws.server.puc.sr/">
<personaReturn>
<datosGenerales>
<apellido>PEREZ</apellido>
<estadoClave>ACTIVO</estadoClave>
<idPersona>20111111112</idPersona>
<nombre>JUAN</nombre>
<tipoPersona>FISICA</tipoPersona>
</datosGenerales>
</personaReturn>
</ns2:getPersona_v2Response>
</soap:Body>
</soap:Envelope>`

var testTicket = &model.AccessTicket{
	Service: ServiceName,
	Token:   "tok",
	Sign:    "sig",
}

func TestPerson(t *testing.T) {

	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(personaResponse))
	}))
	t.Cleanup(server.Close)

	service := New(soap.New(), server.URL)

	person, err := service.Person(context.Background(), testTicket, 20000000001, 20111111112)
	require.NoError(t, err)

	assert.Equal(t, int64(20111111112), person.TaxID)
	assert.Equal(t, "FISICA", person.Kind)
	assert.Equal(t, "JUAN", person.Name)
	assert.Equal(t, "PEREZ", person.Surname)
	assert.Equal(t, "ACTIVO", person.Status)
	assert.Empty(t, person.LegalName)

	request := string(body)
	assert.Contains(t, request, "<token>tok</token>")
	assert.Contains(t, request, "<sign>sig</sign>")
	assert.Contains(t, request, "<cuitRepresentada>20000000001</cuitRepresentada>")
	assert.Contains(t, request, "<idPersona>20111111112</idPersona>")
}

func TestPersonCompany(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
<soap:Body>
<ns2:getPersona_v2Response xmlns:ns2="http://a5.soap.ws.server.puc.sr/">
<personaReturn>
<datosGenerales>
<estadoClave>ACTIVO</estadoClave>
<razonSocial>ACME SA</razonSocial>
<tipoPersona>JURIDICA</tipoPersona>
</datosGenerales>
</personaReturn>
</ns2:getPersona_v2Response>
</soap:Body>
</soap:Envelope>`))
	}))
	t.Cleanup(server.Close)

	service := New(soap.New(), server.URL)

	person, err := service.Person(context.Background(), testTicket, 20000000001, 30111111118)
	require.NoError(t, err)

	assert.Equal(t, "JURIDICA", person.Kind)
	assert.Equal(t, "ACME SA", person.LegalName)
	assert.Empty(t, person.Name)
}

func TestPersonMissingGeneralData(t *testing.T) {

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
<soap:Body>
<ns2:getPersona_v2Response xmlns:ns2="http://a5.soap.ws.server.puc.sr/">
<personaReturn><errorConstancia><error>no existe persona</error></errorConstancia></personaReturn>
</ns2:getPersona_v2Response>
</soap:Body>
</soap:Envelope>`))
	}))
	t.Cleanup(server.Close)

	service := New(soap.New(), server.URL)

	_, err := service.Person(context.Background(), testTicket, 20000000001, 20999999999)
	require.Error(t, err)

	var protocolErr *model.ProtocolError
	assert.ErrorAs(t, err, &protocolErr)
}
