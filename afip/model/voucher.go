package model

// Concept declares what a voucher bills for; it decides whether the
// service period fields travel with the request.
type Concept int

const (
	ConceptProducts         Concept = 1
	ConceptServices         Concept = 2
	ConceptProductsServices Concept = 3
)

// IncludesServices reports whether the service period block applies.
func (c Concept) IncludesServices() bool {
	return c == ConceptServices || c == ConceptProductsServices
}

// Receiver document types.
const (
	DocTypeCUIT          = 80
	DocTypeCUIL          = 86
	DocTypeDNI           = 96
	DocTypeFinalConsumer = 99 // forces receiver document number to 0
)

// AlicIva rate ids.
const (
	VATRate0    = 3
	VATRate10_5 = 4
	VATRate21   = 5
	VATRate27   = 6
	VATRate5    = 8
	VATRate2_5  = 9
)

// DefaultVATRate is the rate id synthesized when a class that
// discriminates VAT declares a VAT amount without an explicit breakdown.
const DefaultVATRate = VATRate21

// Receiver VAT conditions (condición IVA del receptor).
const (
	CondResponsableInscripto = 1
	CondExento               = 4
	CondConsumidorFinal      = 5
	CondMonotributo          = 6
	CondNoCategorizado       = 7
	CondProveedorExterior    = 8
	CondClienteExterior      = 9
	CondLiberadoLey19640     = 10
	CondMonotributoSocial    = 13
	CondMonotributoPromovido = 16
)

// Comprobante types (tipos de comprobante).
const (
	FacturaA     = 1
	NotaDebitoA  = 2
	NotaCreditoA = 3
	FacturaB     = 6
	NotaDebitoB  = 7
	NotaCreditoB = 8
	FacturaC     = 11
	NotaDebitoC  = 12
	NotaCreditoC = 13
	FacturaM     = 51
	NotaDebitoM  = 52
	NotaCreditoM = 53
	FCEFacturaA  = 201
	FCENotaDebA  = 202
	FCENotaCredA = 203
	FCEFacturaB  = 206
	FCENotaDebB  = 207
	FCENotaCredB = 208
	FCEFacturaC  = 211
	FCENotaDebC  = 212
	FCENotaCredC = 213
)

// ClassOf maps a voucher type to its letter class. Unknown types map to
// the empty string and get no class-specific defaults.
func ClassOf(voucherType int) string {
	switch voucherType {
	case FacturaA, NotaDebitoA, NotaCreditoA, FCEFacturaA, FCENotaDebA, FCENotaCredA:
		return "A"
	case FacturaB, NotaDebitoB, NotaCreditoB, FCEFacturaB, FCENotaDebB, FCENotaCredB:
		return "B"
	case FacturaC, NotaDebitoC, NotaCreditoC, FCEFacturaC, FCENotaDebC, FCENotaCredC:
		return "C"
	case FacturaM, NotaDebitoM, NotaCreditoM:
		return "M"
	}
	return ""
}

// IsCreditNote reports whether the type is a nota de crédito.
func IsCreditNote(voucherType int) bool {
	switch voucherType {
	case NotaCreditoA, NotaCreditoB, NotaCreditoC, NotaCreditoM,
		FCENotaCredA, FCENotaCredB, FCENotaCredC:
		return true
	}
	return false
}

// IsDebitNote reports whether the type is a nota de débito.
func IsDebitNote(voucherType int) bool {
	switch voucherType {
	case NotaDebitoA, NotaDebitoB, NotaDebitoC, NotaDebitoM,
		FCENotaDebA, FCENotaDebB, FCENotaDebC:
		return true
	}
	return false
}

// IsFCE reports whether the type belongs to the electronic credit invoice
// (FCE MiPyme) regime, which accepts the banking reference Opcionales.
func IsFCE(voucherType int) bool {
	return voucherType >= FCEFacturaA && voucherType <= FCENotaCredC
}

// DiscriminatesVAT reports whether the class carries an AlicIva breakdown.
// Class C vouchers never discriminate VAT.
func DiscriminatesVAT(voucherType int) bool {
	switch ClassOf(voucherType) {
	case "A", "B", "M":
		return true
	}
	return false
}

// DefaultVATCondition returns the receiver condition assumed when the
// caller omits one: responsable inscripto for A/M, consumidor final
// for B/C.
func DefaultVATCondition(voucherType int) int {
	switch ClassOf(voucherType) {
	case "A", "M":
		return CondResponsableInscripto
	default:
		return CondConsumidorFinal
	}
}

// AllowedVATConditions lists the receiver conditions AFIP accepts per
// class, per the FEParamGetCondicionIvaReceptor reference table. The
// remote service is the final arbiter; this is used only to warn early.
func AllowedVATConditions(voucherType int) []int {
	switch ClassOf(voucherType) {
	case "A", "M":
		return []int{CondResponsableInscripto, CondMonotributo, CondMonotributoSocial, CondMonotributoPromovido}
	case "B", "C":
		return []int{
			CondExento, CondConsumidorFinal, CondNoCategorizado,
			CondProveedorExterior, CondClienteExterior, CondLiberadoLey19640,
		}
	}
	return nil
}
