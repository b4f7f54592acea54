package wsfe

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AssembleOrg/afip-hub/afip/model"
)

var one = decimal.NewFromInt(1)

// BuildRequest reconciles caller-supplied voucher data against the
// resolved sequence and applies the per-class defaults, returning a
// normalized copy ready for Submit. The input is never mutated.
//
// Number and date are advisory: a number that does not match the
// resolved next number is overwritten and logged, never rejected, and a
// date before the sequence floor is clamped up to it.
func (s *service) BuildRequest(v *model.Voucher, seq *model.Sequence) (*model.Voucher, error) {
	out := *v
	out.VAT = append([]model.VATEntry(nil), v.VAT...)
	out.Associated = append([]model.AssociatedVoucher(nil), v.Associated...)

	next := seq.NextNumber()
	if out.Number > 0 && out.Number != next {
		logger.Warnf("requested voucher number %d does not follow last authorized %d, using %d",
			out.Number, seq.LastNumber, next)
	}
	out.Number = next

	if out.Date == "" {
		out.Date = s.today()
	}
	if err := checkDate(out.Date); err != nil {
		return nil, err
	}
	if out.Date < seq.LastDate {
		// YYYYMMDD compares correctly as text
		logger.Warnf("voucher date %s precedes last authorized date %s, clamping", out.Date, seq.LastDate)
		out.Date = seq.LastDate
	}

	docNro, err := reconcileReceiverDoc(out.DocType, out.DocNumber)
	if err != nil {
		return nil, err
	}
	out.DocNumber = strconv.FormatInt(docNro, 10)

	if len(out.VAT) == 0 && model.DiscriminatesVAT(out.VoucherType) && out.AmountVAT.IsPositive() {
		out.VAT = []model.VATEntry{{
			ID:     model.DefaultVATRate,
			Base:   out.AmountNet,
			Amount: out.AmountVAT,
		}}
		logger.Debug("synthesized default 21% VAT line from declared amounts")
	}

	if (model.IsCreditNote(out.VoucherType) || model.IsDebitNote(out.VoucherType)) && len(out.Associated) == 0 {
		// AFIP may reject it; the reference is still the caller's call
		logger.Warnf("credit/debit note type %d without associated vouchers", out.VoucherType)
	}

	if out.Concept.IncludesServices() {
		if out.ServiceFrom == "" {
			out.ServiceFrom = out.Date
		}
		if out.ServiceTo == "" {
			out.ServiceTo = out.Date
		}
		if out.PaymentDue == "" {
			out.PaymentDue = out.Date
		}
	} else {
		out.ServiceFrom, out.ServiceTo, out.PaymentDue = "", "", ""
	}

	out.ReceiverVATCondition = reconcileVATCondition(out.VoucherType, out.ReceiverVATCondition)

	if out.Currency == "" {
		out.Currency = "PES"
	}
	if out.CurrencyRate.IsZero() {
		out.CurrencyRate = one
	}

	return &out, nil
}

// reconcileReceiverDoc applies the final-consumer rule: doc type 99
// forces the number to zero no matter what came in; every other type
// needs a positive parsed number.
func reconcileReceiverDoc(docType int, docNumber string) (int64, error) {
	if docType == model.DocTypeFinalConsumer {
		return 0, nil
	}

	clean := strings.Map(func(r rune) rune {
		if r == '-' || r == '.' || r == ' ' {
			return -1
		}
		return r
	}, docNumber)

	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil || n <= 0 {
		return 0, &model.ValidationError{
			Message: "receiver document number " + strconv.Quote(docNumber) + " is not a positive number",
		}
	}
	return n, nil
}

func reconcileVATCondition(voucherType, condition int) int {
	if condition == 0 {
		return model.DefaultVATCondition(voucherType)
	}
	allowed := model.AllowedVATConditions(voucherType)
	for _, c := range allowed {
		if c == condition {
			return condition
		}
	}
	if len(allowed) > 0 {
		// the remote service is the final arbiter, so warn and send it anyway
		logger.Warnf("receiver VAT condition %d unusual for class %s voucher type %d",
			condition, model.ClassOf(voucherType), voucherType)
	}
	return condition
}

func checkDate(date string) error {
	if len(date) != 8 {
		return &model.ValidationError{Message: "date " + strconv.Quote(date) + " is not YYYYMMDD"}
	}
	for _, r := range date {
		if r < '0' || r > '9' {
			return &model.ValidationError{Message: "date " + strconv.Quote(date) + " is not YYYYMMDD"}
		}
	}
	return nil
}
