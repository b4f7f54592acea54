package wsaa

import (
	"strconv"
	"time"

	"github.com/beevik/etree"
)

// RequestWindow is the clock-skew tolerance WSAA grants an access
// request: generation sits 10 minutes in the past, expiration 10 minutes
// in the future. Requests outside this window are rejected outright.
const RequestWindow = 10 * time.Minute

// BuildAccessRequest renders the loginTicketRequest (TRA) document for
// the named service. The WSAA parser is strict about document shape, so
// the output carries no XML prolog and no leading whitespace.
func BuildAccessRequest(service string, now time.Time) ([]byte, error) {
	doc := etree.NewDocument()

	tra := doc.CreateElement("loginTicketRequest")
	tra.CreateAttr("version", "1.0")

	header := tra.CreateElement("header")
	header.CreateElement("uniqueId").SetText(strconv.FormatInt(now.Unix(), 10))
	header.CreateElement("generationTime").SetText(now.Add(-RequestWindow).Format(time.RFC3339))
	header.CreateElement("expirationTime").SetText(now.Add(RequestWindow).Format(time.RFC3339))

	tra.CreateElement("service").SetText(service)

	return doc.WriteToBytes()
}
