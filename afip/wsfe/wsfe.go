// Package wsfe drives the WSFEv1 electronic invoicing service: voucher
// sequence resolution, CAE request assembly and submission, and the
// read-only parameter lookups.
package wsfe

import (
	"context"
	"strconv"

	"github.com/beevik/etree"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/AssembleOrg/afip-hub/afip/model"
	"github.com/AssembleOrg/afip-hub/afip/soap"
)

var logger = logrus.WithField("component", "afip.wsfe")

const serviceNS = "http://ar.gov.afip.dif.FEV1/"

// Auth is the WSFE authentication header, derived from a live ticket.
type Auth struct {
	Token string
	Sign  string
	Cuit  int64
}

// AuthFromTicket pairs a WSAA ticket with the issuer CUIT.
func AuthFromTicket(t *model.AccessTicket, issuerCuit int64) Auth {
	return Auth{Token: t.Token, Sign: t.Sign, Cuit: issuerCuit}
}

// Service is the WSFEv1 operation surface used by the issuance workflow.
type Service interface {
	// LastAuthorized returns the raw last authorized voucher state,
	// with the "no prior voucher" condition already folded into the
	// canonical {0, today} form.
	LastAuthorized(ctx context.Context, auth Auth, salesPoint, voucherType int) (*model.Sequence, error)

	// BuildRequest reconciles caller data against the resolved sequence
	// and applies per-class defaults.
	BuildRequest(voucher *model.Voucher, seq *model.Sequence) (*model.Voucher, error)

	// Submit requests a CAE for a voucher already reconciled by
	// BuildRequest.
	Submit(ctx context.Context, auth Auth, voucher *model.Voucher) (*model.VoucherResult, error)

	VoucherTypes(ctx context.Context, auth Auth) ([]model.VoucherTypeInfo, error)
	SalesPoints(ctx context.Context, auth Auth) ([]model.SalesPointInfo, error)
	ReceiverVATConditions(ctx context.Context, auth Auth) ([]model.VATConditionInfo, error)
}

type service struct {
	client   soap.Client
	endpoint string
	clock    clockwork.Clock
}

// New builds the WSFE client for one environment endpoint.
func New(client soap.Client, endpoint string) Service {
	return &service{client: client, endpoint: endpoint, clock: clockwork.NewRealClock()}
}

// NewWithClock pins the calendar, for tests exercising date defaults.
func NewWithClock(client soap.Client, endpoint string, clock clockwork.Clock) Service {
	return &service{client: client, endpoint: endpoint, clock: clock}
}

func (s *service) today() string {
	return s.clock.Now().Format(model.DateLayout)
}

// operation builds the namespaced request element with the auth header.
func operation(name string, auth Auth) *etree.Element {
	op := etree.NewElement(name)
	op.CreateAttr("xmlns", serviceNS)
	a := op.CreateElement("Auth")
	a.CreateElement("Token").SetText(auth.Token)
	a.CreateElement("Sign").SetText(auth.Sign)
	a.CreateElement("Cuit").SetText(strconv.FormatInt(auth.Cuit, 10))
	return op
}

func (s *service) call(ctx context.Context, name string, body *etree.Element) (*etree.Element, error) {
	result, err := s.client.Call(ctx, s.endpoint, serviceNS+name, body)
	if err != nil {
		return nil, err
	}
	// <FExxResponse><FExxResult>...</FExxResult></FExxResponse>
	for _, ch := range result.ChildElements() {
		if ch.Tag == name+"Result" {
			return ch, nil
		}
	}
	snippet, _ := snapshot(result)
	return nil, model.NewProtocolError("response has no "+name+"Result", snippet)
}

// Submit performs FECAESolicitar for a single voucher and normalizes
// whatever shape comes back.
func (s *service) Submit(ctx context.Context, auth Auth, v *model.Voucher) (*model.VoucherResult, error) {

	op := operation("FECAESolicitar", auth)
	req := op.CreateElement("FeCAEReq")

	cab := req.CreateElement("FeCabReq")
	cab.CreateElement("CantReg").SetText("1")
	cab.CreateElement("PtoVta").SetText(strconv.Itoa(v.SalesPoint))
	cab.CreateElement("CbteTipo").SetText(strconv.Itoa(v.VoucherType))

	det := req.CreateElement("FeDetReq").CreateElement("FECAEDetRequest")
	if err := writeDetail(det, v); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"ptoVta": v.SalesPoint, "cbteTipo": v.VoucherType, "nro": v.Number,
	}).Info("requesting CAE")

	result, err := s.call(ctx, "FECAESolicitar", op)
	if err != nil {
		return nil, err
	}
	return Normalize(result)
}

func writeDetail(det *etree.Element, v *model.Voucher) error {
	docNro, err := strconv.ParseInt(v.DocNumber, 10, 64)
	if err != nil {
		return &model.ValidationError{
			Message: "receiver document number " + strconv.Quote(v.DocNumber) + " is not numeric, reconcile the voucher with BuildRequest first",
		}
	}

	det.CreateElement("Concepto").SetText(strconv.Itoa(int(v.Concept)))
	det.CreateElement("DocTipo").SetText(strconv.Itoa(v.DocType))
	det.CreateElement("DocNro").SetText(strconv.FormatInt(docNro, 10))
	det.CreateElement("CbteDesde").SetText(strconv.FormatInt(v.Number, 10))
	det.CreateElement("CbteHasta").SetText(strconv.FormatInt(v.Number, 10))
	det.CreateElement("CbteFch").SetText(v.Date)

	det.CreateElement("ImpTotal").SetText(money(v.AmountTotal))
	det.CreateElement("ImpTotConc").SetText(money(v.AmountUntaxed))
	det.CreateElement("ImpNeto").SetText(money(v.AmountNet))
	det.CreateElement("ImpOpEx").SetText(money(v.AmountExempt))
	det.CreateElement("ImpTrib").SetText(money(v.AmountTax))
	det.CreateElement("ImpIVA").SetText(money(v.AmountVAT))

	if v.Concept.IncludesServices() {
		det.CreateElement("FchServDesde").SetText(v.ServiceFrom)
		det.CreateElement("FchServHasta").SetText(v.ServiceTo)
		det.CreateElement("FchVtoPago").SetText(v.PaymentDue)
	}

	det.CreateElement("MonId").SetText(v.Currency)
	det.CreateElement("MonCotiz").SetText(v.CurrencyRate.String())

	if v.ReceiverVATCondition > 0 {
		det.CreateElement("CondicionIVAReceptorId").SetText(strconv.Itoa(v.ReceiverVATCondition))
	}

	if len(v.Associated) > 0 {
		assoc := det.CreateElement("CbtesAsoc")
		for _, a := range v.Associated {
			e := assoc.CreateElement("CbteAsoc")
			e.CreateElement("Tipo").SetText(strconv.Itoa(a.Type))
			e.CreateElement("PtoVta").SetText(strconv.Itoa(a.SalesPoint))
			e.CreateElement("Nro").SetText(strconv.FormatInt(a.Number, 10))
			if a.Cuit != 0 {
				e.CreateElement("Cuit").SetText(strconv.FormatInt(a.Cuit, 10))
			}
			if a.Date != "" {
				e.CreateElement("CbteFch").SetText(a.Date)
			}
		}
	}

	if model.IsFCE(v.VoucherType) && (v.CBU != "" || v.PaymentAlias != "") {
		opc := det.CreateElement("Opcionales")
		if v.CBU != "" {
			writeOptional(opc, "2101", v.CBU)
		}
		if v.PaymentAlias != "" {
			writeOptional(opc, "2102", v.PaymentAlias)
		}
	}

	if len(v.VAT) > 0 {
		iva := det.CreateElement("Iva")
		for _, entry := range v.VAT {
			e := iva.CreateElement("AlicIva")
			e.CreateElement("Id").SetText(strconv.Itoa(entry.ID))
			e.CreateElement("BaseImp").SetText(money(entry.Base))
			e.CreateElement("Importe").SetText(money(entry.Amount))
		}
	}
	return nil
}

func writeOptional(parent *etree.Element, id, value string) {
	e := parent.CreateElement("Opcional")
	e.CreateElement("Id").SetText(id)
	e.CreateElement("Valor").SetText(value)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func snapshot(e *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.SetRoot(e.Copy())
	return doc.WriteToBytes()
}
