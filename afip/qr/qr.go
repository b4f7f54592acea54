// Package qr encodes the mandated fiscal QR payload for an authorized
// voucher. Pure data transformation: same inputs, byte-identical output.
package qr

import (
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/AssembleOrg/afip-hub/afip/model"
)

// VerificationURL is the fixed public verification prefix the base64
// payload is appended to.
const VerificationURL = "https://www.afip.gob.ar/fe/qr/?p="

// Payload mirrors the mandated field set. Field order here fixes the
// canonical JSON serialization, so do not reorder.
type Payload struct {
	Ver        int         `json:"ver"`
	Fecha      string      `json:"fecha"`
	Cuit       int64       `json:"cuit"`
	PtoVta     int         `json:"ptoVta"`
	TipoCmp    int         `json:"tipoCmp"`
	NroCmp     int64       `json:"nroCmp"`
	Importe    json.Number `json:"importe"`
	Moneda     string      `json:"moneda"`
	Ctz        json.Number `json:"ctz"`
	TipoDocRec int         `json:"tipoDocRec"`
	NroDocRec  int64       `json:"nroDocRec"`
	TipoCodAut string      `json:"tipoCodAut"`
	CodAut     int64       `json:"codAut"`
}

// Code is the encoded payload plus the derived verification URL.
type Code struct {
	Payload Payload
	JSON    []byte
	URL     string
}

// Build derives the QR code data for an authorized voucher.
func Build(issuerCuit int64, v *model.Voucher, res *model.VoucherResult) (*Code, error) {
	if !res.Approved() {
		return nil, &model.ValidationError{Message: "QR payload requires an authorized voucher"}
	}

	fecha, err := hyphenate(v.Date)
	if err != nil {
		return nil, err
	}

	codAut, err := strconv.ParseInt(res.CAE, 10, 64)
	if err != nil {
		return nil, &model.ValidationError{Message: "authorization code " + strconv.Quote(res.CAE) + " is not numeric"}
	}

	docNro, err := strconv.ParseInt(v.DocNumber, 10, 64)
	if err != nil {
		return nil, &model.ValidationError{Message: "receiver document " + strconv.Quote(v.DocNumber) + " is not numeric"}
	}

	p := Payload{
		Ver:        1,
		Fecha:      fecha,
		Cuit:       issuerCuit,
		PtoVta:     v.SalesPoint,
		TipoCmp:    v.VoucherType,
		NroCmp:     res.VoucherNumber,
		Importe:    json.Number(v.AmountTotal.StringFixed(2)),
		Moneda:     v.Currency,
		Ctz:        json.Number(v.CurrencyRate.String()),
		TipoDocRec: v.DocType,
		NroDocRec:  docNro,
		TipoCodAut: "E", // CAE; CAEA issuance is out of scope
		CodAut:     codAut,
	}
	if p.NroCmp == 0 {
		p.NroCmp = v.Number
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "marshal QR payload")
	}

	return &Code{
		Payload: p,
		JSON:    raw,
		URL:     VerificationURL + base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// hyphenate turns 20251205 into 2025-12-05.
func hyphenate(date string) (string, error) {
	if len(date) != 8 {
		return "", &model.ValidationError{Message: "date " + strconv.Quote(date) + " is not YYYYMMDD"}
	}
	for _, r := range date {
		if r < '0' || r > '9' {
			return "", &model.ValidationError{Message: "date " + strconv.Quote(date) + " is not YYYYMMDD"}
		}
	}
	return date[:4] + "-" + date[4:6] + "-" + date[6:], nil
}
