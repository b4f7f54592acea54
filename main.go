package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/AssembleOrg/afip-hub/afip"
	"github.com/AssembleOrg/afip-hub/afip/credential"
	"github.com/AssembleOrg/afip-hub/afip/model"
	"github.com/AssembleOrg/afip-hub/afip/util"
	"github.com/AssembleOrg/afip-hub/png"
)

// Demo flow against the homologación environment: acquire a ticket,
// resolve the next voucher number, submit one factura B and render its
// QR code.
func main() {

	if util.DebugEnabled() {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cuitRaw, err := util.GetEnv("AFIP_CUIT")
	if err != nil {
		panic(err)
	}
	cuit, err := model.ParseCuit(cuitRaw)
	if err != nil {
		panic(err)
	}

	certPath, err := util.GetEnv("AFIP_CERT")
	if err != nil {
		panic(err)
	}
	keyPath, err := util.GetEnv("AFIP_KEY")
	if err != nil {
		panic(err)
	}
	cert, err := os.ReadFile(certPath)
	if err != nil {
		panic(err)
	}
	key, err := os.ReadFile(keyPath)
	if err != nil {
		panic(err)
	}

	material, err := credential.Load(cert, key)
	if err != nil {
		panic(err)
	}

	client := afip.New(afip.Testing, cuit, material)
	ctx := context.Background()

	seq, err := client.ResolveNext(ctx, 1, model.FacturaB)
	if err != nil {
		panic(err)
	}
	fmt.Printf("next voucher for ptoVta=1 tipo=%d: %d (date floor %s)\n",
		model.FacturaB, seq.NextNumber(), seq.LastDate)

	voucher := &model.Voucher{
		SalesPoint:   1,
		VoucherType:  model.FacturaB,
		Concept:      model.ConceptProducts,
		DocType:      model.DocTypeFinalConsumer,
		AmountTotal:  decimal.RequireFromString("1210.00"),
		AmountNet:    decimal.RequireFromString("1000.00"),
		AmountVAT:    decimal.RequireFromString("210.00"),
		Currency:     "PES",
		CurrencyRate: decimal.NewFromInt(1),
	}

	result, err := client.BuildAndSubmit(ctx, voucher)
	if err != nil {
		panic(err)
	}
	fmt.Printf("resultado=%s CAE=%s vence=%s\n", result.Result, result.CAE, result.CAEExpiry)

	voucher.Number = result.VoucherNumber
	voucher.Date = result.VoucherDate
	voucher.DocNumber = "0"

	code, err := client.BuildQr(voucher, result)
	if err != nil {
		panic(err)
	}
	fmt.Println(code.URL)

	image, err := png.Qr(code.URL)
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile("cae-qr.png", image, 0o644); err != nil {
		panic(err)
	}
}
