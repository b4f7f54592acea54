package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used throughout the WSFE wire
// protocol (CbteFch, CAEFchVto, service period dates).
const DateLayout = "20060102"

// AccessTicket is the WSAA credential pair required by every invoicing
// operation. It is caller-owned and never persisted; AFIP issues tickets
// valid for about 12 hours and tolerates several live tickets per
// certificate, so holding more than one is harmless.
type AccessTicket struct {
	Service        string
	Token          string
	Sign           string
	GenerationTime time.Time
	ExpirationTime time.Time
}

// Valid reports whether the ticket can still be used at the given instant.
// A ticket is usable strictly before its expiration time.
func (t *AccessTicket) Valid(now time.Time) bool {
	if t == nil || t.Token == "" {
		return false
	}
	return now.Before(t.ExpirationTime)
}

// Sequence is the last authorized voucher state for one
// (sales point, voucher type) numbering sequence. LastNumber == 0 with
// LastDate == today means no voucher was ever authorized for the pair.
//
// Never cache a Sequence across submissions: other emitters may advance
// the sequence between calls.
type Sequence struct {
	SalesPoint  int
	VoucherType int
	LastNumber  int64
	LastDate    string // YYYYMMDD
}

// NextNumber returns the only number AFIP will accept for the next voucher.
func (s Sequence) NextNumber() int64 {
	return s.LastNumber + 1
}

// FirstVoucher reports whether the sequence has no prior authorized voucher.
func (s Sequence) FirstVoucher() bool {
	return s.LastNumber == 0
}

// ResultCode is the WSFE submission outcome (Resultado field).
type ResultCode string

const (
	Approved          ResultCode = "A"
	PartiallyApproved ResultCode = "P"
	Rejected          ResultCode = "R"
)

// Observation is a structured remote-side note: header faults (Err),
// per-voucher observations (Obs) and events all reduce to this pair.
// Code 0 marks unstructured flat text.
type Observation struct {
	Code    int
	Message string
}

// VoucherResult is the normalized outcome of one FECAESolicitar call.
// Immutable once produced.
type VoucherResult struct {
	Result        ResultCode
	CAE           string
	CAEExpiry     string // YYYYMMDD
	VoucherNumber int64
	VoucherDate   string // YYYYMMDD
	Errors        []Observation
	Observations  []Observation
}

// Approved reports whether the voucher obtained a usable authorization.
// Partially approved vouchers still carry a valid CAE.
func (r *VoucherResult) Approved() bool {
	return r.Result == Approved || r.Result == PartiallyApproved
}

// VATEntry is one line of the AlicIva breakdown.
type VATEntry struct {
	ID     int // rate id, see VATRate* constants
	Base   decimal.Decimal
	Amount decimal.Decimal
}

// AssociatedVoucher references a previously authorized voucher, required
// on credit and debit notes.
type AssociatedVoucher struct {
	Type       int
	SalesPoint int
	Number     int64
	Cuit       int64  // issuer of the referenced voucher, 0 to omit
	Date       string // YYYYMMDD, empty to omit
}

// Voucher is the caller-facing submission data. Number and Date are
// advisory: the resolved sequence always wins on number, and Date is
// clamped up to the sequence date floor.
type Voucher struct {
	SalesPoint  int
	VoucherType int
	Concept     Concept

	DocType   int
	DocNumber string // receiver document, separators tolerated

	Number int64  // 0 = assign automatically
	Date   string // YYYYMMDD, empty = today

	AmountTotal   decimal.Decimal
	AmountUntaxed decimal.Decimal // ImpTotConc: net not subject to VAT
	AmountNet     decimal.Decimal
	AmountExempt  decimal.Decimal
	AmountTax     decimal.Decimal // ImpTrib: other tributes
	AmountVAT     decimal.Decimal

	Currency     string
	CurrencyRate decimal.Decimal

	// VAT is the explicit AlicIva breakdown. When empty and the voucher
	// class discriminates VAT, a single default-rate line is synthesized
	// from AmountNet and AmountVAT.
	VAT []VATEntry

	// ReceiverVATCondition 0 picks the class default.
	ReceiverVATCondition int

	Associated []AssociatedVoucher

	// Service period, only meaningful when Concept includes services.
	ServiceFrom string
	ServiceTo   string
	PaymentDue  string

	// FCE MiPyme banking references, sent as Opcionales on FCE classes.
	CBU          string
	PaymentAlias string
}

// Person is the padrón identity block for a taxpayer.
type Person struct {
	TaxID     int64
	Kind      string // FISICA or JURIDICA
	LegalName string // razón social, juridical persons
	Name      string
	Surname   string
	Status    string // estadoClave
}

// VoucherTypeInfo is one FEParamGetTiposCbte entry.
type VoucherTypeInfo struct {
	ID          int
	Description string
	ValidFrom   string
	ValidTo     string
}

// SalesPointInfo is one FEParamGetPtosVenta entry.
type SalesPointInfo struct {
	Number       int
	EmissionType string
	Blocked      bool
	DroppedAt    string
}

// VATConditionInfo is one FEParamGetCondicionIvaReceptor entry.
type VATConditionInfo struct {
	ID           int
	Description  string
	VoucherClass string
}
