package soap

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/go-faster/errors"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AssembleOrg/afip-hub/afip/model"
)

var logger = logrus.WithField("component", "afip.soap")

const (
	connectTimeout   = 10 * time.Second
	roundTripTimeout = 30 * time.Second
)

// Client posts SOAP 1.1 envelopes and hands back the response body
// element. Faults come back as *Fault, connectivity problems as
// *model.TransportError.
type Client interface {
	Call(ctx context.Context, endpoint, soapAction string, payload *etree.Element) (*etree.Element, error)
}

type client struct {
	rest *resty.Client
}

// New builds a client with the bounded timeouts the remote services
// expect (connect ~10s, full round trip ~30s).
func New() Client {
	rest := resty.New().
		SetTimeout(roundTripTimeout).
		SetTransport(&http.Transport{
			DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
			TLSHandshakeTimeout: connectTimeout,
		})
	return &client{rest: rest}
}

// NewWithRestyClient keeps transport configuration in the caller's hands,
// mostly for tests.
func NewWithRestyClient(rest *resty.Client) Client {
	return &client{rest: rest}
}

// Fault is a SOAP fault with the remote code and message preserved.
type Fault struct {
	Code    string
	Message string
}

func (f *Fault) Error() string {
	return "soap fault " + f.Code + ": " + f.Message
}

func (c *client) Call(ctx context.Context, endpoint, soapAction string, payload *etree.Element) (*etree.Element, error) {

	body, err := envelope(payload)
	if err != nil {
		return nil, errors.Wrap(err, "serialize envelope")
	}

	requestID := uuid.NewString()
	log := logger.WithFields(logrus.Fields{"endpoint": endpoint, "requestId": requestID})
	log.Debugf("SOAP call %s (%d bytes)", soapAction, len(body))

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", `text/xml; charset="utf-8"`).
		SetHeader("SOAPAction", `"`+soapAction+`"`).
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return nil, &model.TransportError{Endpoint: endpoint, Err: err}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(resp.Body()); err != nil {
		if resp.IsError() {
			return nil, &model.TransportError{
				Endpoint:   endpoint,
				StatusCode: resp.StatusCode(),
				Err:        errors.Errorf("non-XML error body: %.200s", resp.String()),
			}
		}
		return nil, model.NewProtocolError("response is not XML", resp.Body())
	}

	// Faults arrive both with 500 and, on some AFIP frontends, with 200.
	if f := findFault(doc); f != nil {
		log.Debugf("SOAP fault %s: %s", f.Code, f.Message)
		return nil, f
	}

	if resp.IsError() {
		return nil, &model.TransportError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode(),
			Err:        errors.Errorf("http error: %.200s", resp.String()),
		}
	}

	soapBody := findLocal(doc.Root(), "Body")
	if soapBody == nil || len(soapBody.ChildElements()) == 0 {
		return nil, model.NewProtocolError("envelope has no body", resp.Body())
	}

	return soapBody.ChildElements()[0], nil
}

func envelope(payload *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	env := doc.CreateElement("soapenv:Envelope")
	env.CreateAttr("xmlns:soapenv", "http://schemas.xmlsoap.org/soap/envelope/")
	body := env.CreateElement("soapenv:Body")
	body.AddChild(payload)
	return doc.WriteToBytes()
}

func findFault(doc *etree.Document) *Fault {
	root := doc.Root()
	if root == nil {
		return nil
	}
	fault := findDeep(root, "Fault")
	if fault == nil {
		return nil
	}
	f := &Fault{}
	if e := findDeep(fault, "faultcode"); e != nil {
		f.Code = e.Text()
	}
	if e := findDeep(fault, "faultstring"); e != nil {
		f.Message = e.Text()
	}
	// SOAP 1.2 naming
	if f.Message == "" {
		if e := findDeep(fault, "Reason"); e != nil {
			f.Message = strTrim(e)
		}
	}
	return f
}

// findLocal matches a direct child by local name, ignoring prefixes.
func findLocal(parent *etree.Element, local string) *etree.Element {
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

// findDeep walks the subtree for the first element with the local name.
func findDeep(parent *etree.Element, local string) *etree.Element {
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

func strTrim(e *etree.Element) string {
	s := e.Text()
	for _, ch := range e.ChildElements() {
		if s == "" {
			s = ch.Text()
		}
	}
	return s
}
