// Package afip ties the WSAA ticket protocol, the WSFE invoicing service
// and the QR encoder into one issuance workflow for a single issuer
// CUIT. Each workflow is a strictly ordered chain of remote calls:
// ticket (re-acquired only when expired), sequence lookup, submission.
package afip

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/AssembleOrg/afip-hub/afip/credential"
	"github.com/AssembleOrg/afip-hub/afip/model"
	"github.com/AssembleOrg/afip-hub/afip/padron"
	"github.com/AssembleOrg/afip-hub/afip/qr"
	"github.com/AssembleOrg/afip-hub/afip/soap"
	"github.com/AssembleOrg/afip-hub/afip/wsaa"
	"github.com/AssembleOrg/afip-hub/afip/wsfe"
)

var logger = logrus.WithField("component", "afip")

// WsfeService is the WSAA service name for electronic invoicing.
const WsfeService = "wsfe"

// Client is the issuer-scoped facade over the remote services.
type Client struct {
	env      Environment
	cuit     int64
	material *credential.Material

	wsaa    wsaa.Service
	wsfe    wsfe.Service
	padron  padron.Service
	tickets *TicketProvider
}

// Option tweaks client construction.
type Option func(*options)

type options struct {
	soapClient soap.Client
	signer     wsaa.DocumentSigner
}

// WithSOAPClient swaps the transport, mostly for tests.
func WithSOAPClient(c soap.Client) Option {
	return func(o *options) { o.soapClient = c }
}

// WithSigner replaces the in-process CMS signer, e.g. with OpenSSLSigner.
func WithSigner(s wsaa.DocumentSigner) Option {
	return func(o *options) { o.signer = s }
}

// New builds a client for one issuer CUIT and environment. The
// credential material is held only to sign access requests.
func New(env Environment, issuerCuit int64, material *credential.Material, opts ...Option) *Client {
	o := options{
		soapClient: soap.New(),
		signer:     wsaa.CMSSigner{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		env:      env,
		cuit:     issuerCuit,
		material: material,
		wsaa:     wsaa.NewWithSigner(o.soapClient, env.WsaaURL(), o.signer),
		wsfe:     wsfe.New(o.soapClient, env.WsfeURL()),
		padron:   padron.New(o.soapClient, env.PadronURL()),
	}
	c.tickets = NewTicketProvider(c.AcquireTicket)
	return c
}

// AcquireTicket always performs a fresh WSAA authentication for the
// named service, bypassing the cache.
func (c *Client) AcquireTicket(ctx context.Context, serviceName string) (*model.AccessTicket, error) {
	return c.wsaa.Login(ctx, serviceName, c.material)
}

// Ticket returns a live ticket for the named service, cached while
// valid.
func (c *Client) Ticket(ctx context.Context, serviceName string) (*model.AccessTicket, error) {
	return c.tickets.Ticket(ctx, serviceName)
}

func (c *Client) wsfeAuth(ctx context.Context) (wsfe.Auth, error) {
	t, err := c.Ticket(ctx, WsfeService)
	if err != nil {
		return wsfe.Auth{}, err
	}
	return wsfe.AuthFromTicket(t, c.cuit), nil
}

// ResolveNext returns the last authorized voucher state for the pair,
// with the first-voucher condition already canonicalized. Deliberately
// never cached: other emitters may advance the sequence between calls.
func (c *Client) ResolveNext(ctx context.Context, salesPoint, voucherType int) (*model.Sequence, error) {
	auth, err := c.wsfeAuth(ctx)
	if err != nil {
		return nil, err
	}
	return c.wsfe.LastAuthorized(ctx, auth, salesPoint, voucherType)
}

// BuildAndSubmit runs the full issuance chain for one voucher: resolve
// the sequence, reconcile the caller data, request the CAE. A rejected
// submission returns the normalized result together with a
// FiscalRejectionError.
func (c *Client) BuildAndSubmit(ctx context.Context, v *model.Voucher) (*model.VoucherResult, error) {
	auth, err := c.wsfeAuth(ctx)
	if err != nil {
		return nil, err
	}

	seq, err := c.wsfe.LastAuthorized(ctx, auth, v.SalesPoint, v.VoucherType)
	if err != nil {
		return nil, err
	}
	logger.Debugf("issuing voucher %d for ptoVta=%d tipo=%d", seq.NextNumber(), v.SalesPoint, v.VoucherType)

	prepared, err := c.wsfe.BuildRequest(v, seq)
	if err != nil {
		return nil, err
	}

	return c.wsfe.Submit(ctx, auth, prepared)
}

// BuildQr encodes the fiscal QR payload for an authorized result.
func (c *Client) BuildQr(v *model.Voucher, res *model.VoucherResult) (*qr.Code, error) {
	return qr.Build(c.cuit, v, res)
}

// VoucherTypes lists the comprobante types the environment accepts.
func (c *Client) VoucherTypes(ctx context.Context) ([]model.VoucherTypeInfo, error) {
	auth, err := c.wsfeAuth(ctx)
	if err != nil {
		return nil, err
	}
	return c.wsfe.VoucherTypes(ctx, auth)
}

// SalesPoints lists the issuer's registered puntos de venta.
func (c *Client) SalesPoints(ctx context.Context) ([]model.SalesPointInfo, error) {
	auth, err := c.wsfeAuth(ctx)
	if err != nil {
		return nil, err
	}
	return c.wsfe.SalesPoints(ctx, auth)
}

// ReceiverVATConditions lists the receiver IVA condition reference table.
func (c *Client) ReceiverVATConditions(ctx context.Context) ([]model.VATConditionInfo, error) {
	auth, err := c.wsfeAuth(ctx)
	if err != nil {
		return nil, err
	}
	return c.wsfe.ReceiverVATConditions(ctx, auth)
}

// Taxpayer looks a CUIT up in the padrón, acquiring a ticket for the
// registry service on demand.
func (c *Client) Taxpayer(ctx context.Context, taxID int64) (*model.Person, error) {
	t, err := c.Ticket(ctx, padron.ServiceName)
	if err != nil {
		return nil, err
	}
	return c.padron.Person(ctx, t, c.cuit, taxID)
}
