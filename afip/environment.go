package afip

import (
	"fmt"
	"strings"
)

// Environment selects the remote endpoint set. Production and the
// homologación sandbox expose the same contracts on distinct hosts.
// Components never read it from ambient process state; it travels
// explicitly into every client.
type Environment int

const (
	Testing Environment = iota
	Production
)

func (e Environment) WsaaURL() string {
	switch e {
	case Production:
		return "https://wsaa.afip.gov.ar/ws/services/LoginCms"
	case Testing:
		return "https://wsaahomo.afip.gov.ar/ws/services/LoginCms"
	}
	panic("invalid environment")
}

func (e Environment) WsfeURL() string {
	switch e {
	case Production:
		return "https://servicios1.afip.gov.ar/wsfev1/service.asmx"
	case Testing:
		return "https://wswhomo.afip.gov.ar/wsfev1/service.asmx"
	}
	panic("invalid environment")
}

func (e Environment) PadronURL() string {
	switch e {
	case Production:
		return "https://aws.afip.gov.ar/sr-padron/webservices/personaServiceA5"
	case Testing:
		return "https://awshomo.afip.gov.ar/sr-padron/webservices/personaServiceA5"
	}
	panic("invalid environment")
}

func (e Environment) Name() string {
	switch e {
	case Production:
		return "production"
	case Testing:
		return "testing"
	}
	panic("invalid environment")
}

func (e *Environment) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "prod", "production":
		*e = Production
	case "testing", "homo", "sandbox":
		*e = Testing
	default:
		return fmt.Errorf("invalid AFIP environment: %q (allowed: production, testing)", text)
	}
	return nil
}
