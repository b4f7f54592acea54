package wsfe

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/AssembleOrg/afip-hub/afip/model"
)

// Normalize folds the FECAESolicitarResult shapes into one VoucherResult.
//
// The service encodes problems in at least four ways: a header-level
// Errors/Err list, per-voucher Observaciones/Obs under the detail record
// (repeated or singleton), an Events/Evt list, and occasionally a flat
// string where a list was expected. Each container goes through
// collectPairs, which names every shape it understands.
//
// A Resultado of "R" returns the result together with a
// FiscalRejectionError carrying the complete observation list.
func Normalize(result *etree.Element) (*model.VoucherResult, error) {

	res := &model.VoucherResult{}

	res.Errors = collectPairs(findChild(result, "Errors"), "Err")
	res.Observations = collectPairs(findChild(result, "Events"), "Evt")

	cab := findChild(result, "FeCabResp")
	res.Result = model.ResultCode(childText(cab, "Resultado"))

	det := firstDetail(result)
	if det != nil {
		if res.Result == "" {
			res.Result = model.ResultCode(childText(det, "Resultado"))
		}
		res.CAE = strings.TrimSpace(childText(det, "CAE"))
		res.CAEExpiry = childText(det, "CAEFchVto")
		res.VoucherDate = childText(det, "CbteFch")
		if n, err := strconv.ParseInt(childText(det, "CbteDesde"), 10, 64); err == nil {
			res.VoucherNumber = n
		}
		res.Observations = append(res.Observations, collectPairs(findChild(det, "Observaciones"), "Obs")...)
	}

	switch res.Result {
	case model.Approved, model.PartiallyApproved:
		if res.Result == model.PartiallyApproved {
			logger.Warnf("voucher partially approved: %v", res.Observations)
		}
		return res, nil
	case model.Rejected:
		return res, &model.FiscalRejectionError{Result: res}
	default:
		snippet, _ := snapshot(result)
		return nil, model.NewProtocolError("response carries no Resultado", snippet)
	}
}

// firstDetail handles both nesting conventions for the detail record:
// FeDetResp as a list of FECAEDetResponse and FeDetResp being the
// detail record itself.
func firstDetail(result *etree.Element) *etree.Element {
	detResp := findChild(result, "FeDetResp")
	if detResp == nil {
		return nil
	}
	if det := findChild(detResp, "FECAEDetResponse"); det != nil {
		return det
	}
	if childText(detResp, "Resultado") != "" || childText(detResp, "CAE") != "" {
		return detResp
	}
	return nil
}

// collectPairs lifts {Code, Msg} pairs out of a container element. Shapes
// handled: repeated children with the given tag, one singleton child,
// the container itself carrying Code/Msg directly, and a flat string in
// place of any structure (code defaults to 0).
func collectPairs(container *etree.Element, childTag string) []model.Observation {
	if container == nil {
		return nil
	}

	var out []model.Observation
	for _, ch := range container.ChildElements() {
		if ch.Tag != childTag {
			continue
		}
		out = append(out, pairOf(ch))
	}
	if len(out) > 0 {
		return out
	}

	// container holding Code/Msg directly (singleton collapsed one level)
	if childText(container, "Msg") != "" || childText(container, "Code") != "" {
		return []model.Observation{pairOf(container)}
	}

	// flat string
	if text := strings.TrimSpace(container.Text()); text != "" {
		return []model.Observation{{Code: 0, Message: text}}
	}
	return nil
}

func pairOf(e *etree.Element) model.Observation {
	code, _ := strconv.Atoi(strings.TrimSpace(childText(e, "Code")))
	msg := strings.TrimSpace(childText(e, "Msg"))
	if msg == "" {
		msg = strings.TrimSpace(e.Text())
	}
	return model.Observation{Code: code, Message: msg}
}

func findChild(parent *etree.Element, local string) *etree.Element {
	if parent == nil {
		return nil
	}
	for _, ch := range parent.ChildElements() {
		if ch.Tag == local {
			return ch
		}
	}
	return nil
}

func childText(parent *etree.Element, local string) string {
	if e := findChild(parent, local); e != nil {
		return e.Text()
	}
	return ""
}
