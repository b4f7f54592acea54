package wsfe

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/AssembleOrg/afip-hub/afip/model"
	"github.com/AssembleOrg/afip-hub/afip/soap"
)

// WSFE signals "no prior voucher" inconsistently: a structured fault, an
// HTTP 404, a zero CbteNro, or a blank CbteFch, depending on the
// operation and frontend. Every known variant is listed here and checked
// before concluding a real fault. The breadth is deliberate; do not
// narrow it without confirming against the live service.
var notFoundCodes = map[int]bool{
	602:   true, // "No existen datos..." (FECompConsultar)
	10015: true, // no voucher for the (sales point, type) pair
}

var notFoundFragments = []string{
	"no existe",
	"no existen datos",
	"sin resultados",
	"not found",
}

// isNotFound classifies one structured fault against the table.
func isNotFound(o model.Observation) bool {
	if notFoundCodes[o.Code] {
		return true
	}
	msg := strings.ToLower(o.Message)
	for _, fragment := range notFoundFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// allNotFound folds a fault list: only when every entry matches a known
// not-found variant is the lookup treated as "no prior voucher".
func allNotFound(details []model.Observation) bool {
	if len(details) == 0 {
		return false
	}
	for _, d := range details {
		if !isNotFound(d) {
			return false
		}
	}
	return true
}

// errIsNotFound covers the transport-level variant (plain 404) and SOAP
// faults carrying the known text.
func errIsNotFound(err error) bool {
	var te *model.TransportError
	if errors.As(err, &te) && te.StatusCode == 404 {
		return true
	}
	var f *soap.Fault
	if errors.As(err, &f) {
		return isNotFound(model.Observation{Message: f.Message})
	}
	return false
}

// LastAuthorized queries FECompUltimoAutorizado for the last legal
// voucher number and recovers its date via FECompConsultar. All
// "no prior voucher" variants collapse into {LastNumber: 0, LastDate:
// today}; any genuine fault aborts with a SequenceLookupError.
func (s *service) LastAuthorized(ctx context.Context, auth Auth, salesPoint, voucherType int) (*model.Sequence, error) {

	seq := &model.Sequence{
		SalesPoint:  salesPoint,
		VoucherType: voucherType,
		LastDate:    s.today(),
	}

	op := operation("FECompUltimoAutorizado", auth)
	op.CreateElement("PtoVta").SetText(strconv.Itoa(salesPoint))
	op.CreateElement("CbteTipo").SetText(strconv.Itoa(voucherType))

	result, err := s.call(ctx, "FECompUltimoAutorizado", op)
	if err != nil {
		if errIsNotFound(err) {
			logger.Debugf("no prior voucher for ptoVta=%d tipo=%d (transport variant)", salesPoint, voucherType)
			return seq, nil
		}
		return nil, err
	}

	if details := collectPairs(findChild(result, "Errors"), "Err"); len(details) > 0 {
		if allNotFound(details) {
			logger.Debugf("no prior voucher for ptoVta=%d tipo=%d (fault variant)", salesPoint, voucherType)
			return seq, nil
		}
		return nil, &model.SequenceLookupError{Details: details}
	}

	lastRaw := childText(result, "CbteNro")
	last, err := strconv.ParseInt(strings.TrimSpace(lastRaw), 10, 64)
	if err != nil {
		snippet, _ := snapshot(result)
		return nil, model.NewProtocolError("FECompUltimoAutorizado returned no usable CbteNro", snippet)
	}
	if last <= 0 {
		// numeric-zero variant of "no prior voucher"
		return seq, nil
	}

	seq.LastNumber = last
	date, err := s.lastVoucherDate(ctx, auth, salesPoint, voucherType, last)
	if err != nil {
		return nil, err
	}
	seq.LastDate = date
	return seq, nil
}

// lastVoucherDate fetches CbteFch for the last authorized voucher. A
// not-found here (possible when another emitter races the sequence) or a
// blank date degrades to today, which only loosens the date floor.
// Genuine faults still abort.
func (s *service) lastVoucherDate(ctx context.Context, auth Auth, salesPoint, voucherType int, number int64) (string, error) {

	op := operation("FECompConsultar", auth)
	cmp := op.CreateElement("FeCompConsReq")
	cmp.CreateElement("CbteTipo").SetText(strconv.Itoa(voucherType))
	cmp.CreateElement("CbteNro").SetText(strconv.FormatInt(number, 10))
	cmp.CreateElement("PtoVta").SetText(strconv.Itoa(salesPoint))

	result, err := s.call(ctx, "FECompConsultar", op)
	if err != nil {
		if errIsNotFound(err) {
			return s.today(), nil
		}
		return "", err
	}

	if details := collectPairs(findChild(result, "Errors"), "Err"); len(details) > 0 {
		if allNotFound(details) {
			return s.today(), nil
		}
		return "", &model.SequenceLookupError{Details: details}
	}

	date := childText(findChild(result, "ResultGet"), "CbteFch")
	if len(date) != 8 {
		return s.today(), nil
	}
	return date, nil
}
