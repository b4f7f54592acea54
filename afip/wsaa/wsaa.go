// Package wsaa implements the WSAA signed-request authentication
// protocol: build the access request, wrap it in a CMS envelope and trade
// it for an access ticket at the LoginCms operation.
package wsaa

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/beevik/etree"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/AssembleOrg/afip-hub/afip/credential"
	"github.com/AssembleOrg/afip-hub/afip/model"
	"github.com/AssembleOrg/afip-hub/afip/soap"
)

var logger = logrus.WithField("component", "afip.wsaa")

const loginNS = "http://wsaa.view.sua.dvadac.desein.afip.gov"

// Service authenticates against WSAA on behalf of one named remote
// service (wsfe, ws_sr_constancia_inscripcion, ...).
type Service interface {
	Login(ctx context.Context, serviceName string, material *credential.Material) (*model.AccessTicket, error)
}

type service struct {
	client   soap.Client
	endpoint string
	signer   DocumentSigner
	clock    clockwork.Clock
}

// New builds the WSAA client with the in-process CMS signer.
func New(client soap.Client, endpoint string) Service {
	return NewWithSigner(client, endpoint, CMSSigner{})
}

// NewWithSigner swaps the signing capability, keeping everything else.
func NewWithSigner(client soap.Client, endpoint string, signer DocumentSigner) Service {
	return &service{
		client:   client,
		endpoint: endpoint,
		signer:   signer,
		clock:    clockwork.NewRealClock(),
	}
}

// Login performs one full authentication round: TRA, CMS envelope,
// loginCms call, ticket extraction.
func (s *service) Login(ctx context.Context, serviceName string, material *credential.Material) (*model.AccessTicket, error) {

	logger.Debugf("authenticating for service %s", serviceName)

	tra, err := BuildAccessRequest(serviceName, s.clock.Now())
	if err != nil {
		return nil, err
	}

	cms, err := s.signer.Sign(tra, material)
	if err != nil {
		return nil, err
	}

	payload := etree.NewElement("wsaa:loginCms")
	payload.CreateAttr("xmlns:wsaa", loginNS)
	payload.CreateElement("wsaa:in0").SetText(base64.StdEncoding.EncodeToString(cms))

	result, err := s.client.Call(ctx, s.endpoint, "", payload)
	if err != nil {
		return nil, err
	}

	ticket, err := parseLoginResponse(serviceName, result)
	if err != nil {
		return nil, err
	}

	logger.Infof("ticket for %s valid until %s", serviceName, ticket.ExpirationTime.Format(time.RFC3339))
	return ticket, nil
}

// parseLoginResponse digs the escaped loginTicketResponse document out of
// loginCmsReturn and lifts its credentials.
func parseLoginResponse(serviceName string, result *etree.Element) (*model.AccessTicket, error) {

	raw := elementText(result, "loginCmsReturn")
	if raw == "" {
		snippet, _ := snapshot(result)
		return nil, model.NewProtocolError("response has no loginCmsReturn", snippet)
	}

	inner := etree.NewDocument()
	if err := inner.ReadFromString(raw); err != nil {
		return nil, model.NewProtocolError("loginCmsReturn is not XML", []byte(raw))
	}

	root := inner.Root()
	token := elementText(root, "token")
	sign := elementText(root, "sign")
	genRaw := elementText(root, "generationTime")
	expRaw := elementText(root, "expirationTime")

	if token == "" || sign == "" || expRaw == "" {
		return nil, model.NewProtocolError("loginTicketResponse is missing credentials", []byte(raw))
	}

	gen, err := time.Parse(time.RFC3339, genRaw)
	if err != nil && genRaw != "" {
		return nil, model.NewProtocolError("bad generationTime "+genRaw, []byte(raw))
	}
	exp, err := time.Parse(time.RFC3339, expRaw)
	if err != nil {
		return nil, model.NewProtocolError("bad expirationTime "+expRaw, []byte(raw))
	}

	return &model.AccessTicket{
		Service:        serviceName,
		Token:          token,
		Sign:           sign,
		GenerationTime: gen,
		ExpirationTime: exp,
	}, nil
}

func elementText(parent *etree.Element, local string) string {
	if parent == nil {
		return ""
	}
	if parent.Tag == local {
		return parent.Text()
	}
	for _, ch := range parent.ChildElements() {
		if s := elementText(ch, local); s != "" {
			return s
		}
	}
	return ""
}

func snapshot(e *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.SetRoot(e.Copy())
	return doc.WriteToBytes()
}
