// Package padron looks up taxpayer identity in the registry service
// (constancia de inscripción). It needs a ticket obtained for its own
// service name, not the invoicing one.
package padron

import (
	"context"
	"strconv"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/AssembleOrg/afip-hub/afip/model"
	"github.com/AssembleOrg/afip-hub/afip/soap"
)

var logger = logrus.WithField("component", "afip.padron")

// ServiceName is the WSAA service name tickets must be issued for.
const ServiceName = "ws_sr_constancia_inscripcion"

const personNS = "http://a5.soap.ws.server.puc.sr/"

type Service interface {
	// Person fetches the identity block for taxID, authenticated as
	// representedCuit.
	Person(ctx context.Context, ticket *model.AccessTicket, representedCuit, taxID int64) (*model.Person, error)
}

type service struct {
	client   soap.Client
	endpoint string
}

func New(client soap.Client, endpoint string) Service {
	return &service{client: client, endpoint: endpoint}
}

func (s *service) Person(ctx context.Context, ticket *model.AccessTicket, representedCuit, taxID int64) (*model.Person, error) {

	logger.Debugf("padron lookup for %d", taxID)

	op := etree.NewElement("a5:getPersona_v2")
	op.CreateAttr("xmlns:a5", personNS)
	op.CreateElement("token").SetText(ticket.Token)
	op.CreateElement("sign").SetText(ticket.Sign)
	op.CreateElement("cuitRepresentada").SetText(strconv.FormatInt(representedCuit, 10))
	op.CreateElement("idPersona").SetText(strconv.FormatInt(taxID, 10))

	result, err := s.client.Call(ctx, s.endpoint, "", op)
	if err != nil {
		return nil, err
	}

	general := findDeep(result, "datosGenerales")
	if general == nil {
		doc := etree.NewDocument()
		doc.SetRoot(result.Copy())
		snippet, _ := doc.WriteToBytes()
		return nil, model.NewProtocolError("persona response has no datosGenerales", snippet)
	}

	return &model.Person{
		TaxID:     taxID,
		Kind:      text(general, "tipoPersona"),
		LegalName: text(general, "razonSocial"),
		Name:      text(general, "nombre"),
		Surname:   text(general, "apellido"),
		Status:    text(general, "estadoClave"),
	}, nil
}

func findDeep(parent *etree.Element, local string) *etree.Element {
	if parent == nil {
		return nil
	}
	for _, ch := range parent.ChildElements() {
		if ch.Tag == local {
			return ch
		}
		if found := findDeep(ch, local); found != nil {
			return found
		}
	}
	return nil
}

func text(parent *etree.Element, local string) string {
	for _, ch := range parent.ChildElements() {
		if ch.Tag == local {
			return ch.Text()
		}
	}
	return ""
}
