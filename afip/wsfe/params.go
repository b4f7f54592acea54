package wsfe

import (
	"context"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/AssembleOrg/afip-hub/afip/model"
)

// Parameter lookups: read-only reference data served by WSFE under the
// same auth header as the invoicing operations.

func (s *service) VoucherTypes(ctx context.Context, auth Auth) ([]model.VoucherTypeInfo, error) {
	items, err := s.paramLookup(ctx, auth, "FEParamGetTiposCbte", "CbteTipo")
	if err != nil {
		return nil, err
	}
	out := make([]model.VoucherTypeInfo, 0, len(items))
	for _, e := range items {
		id, _ := strconv.Atoi(childText(e, "Id"))
		out = append(out, model.VoucherTypeInfo{
			ID:          id,
			Description: childText(e, "Desc"),
			ValidFrom:   childText(e, "FchDesde"),
			ValidTo:     childText(e, "FchHasta"),
		})
	}
	return out, nil
}

func (s *service) SalesPoints(ctx context.Context, auth Auth) ([]model.SalesPointInfo, error) {
	items, err := s.paramLookup(ctx, auth, "FEParamGetPtosVenta", "PtoVenta")
	if err != nil {
		return nil, err
	}
	out := make([]model.SalesPointInfo, 0, len(items))
	for _, e := range items {
		nro, _ := strconv.Atoi(childText(e, "Nro"))
		out = append(out, model.SalesPointInfo{
			Number:       nro,
			EmissionType: childText(e, "EmisionTipo"),
			Blocked:      strings.EqualFold(childText(e, "Bloqueado"), "S"),
			DroppedAt:    childText(e, "FchBaja"),
		})
	}
	return out, nil
}

func (s *service) ReceiverVATConditions(ctx context.Context, auth Auth) ([]model.VATConditionInfo, error) {
	items, err := s.paramLookup(ctx, auth, "FEParamGetCondicionIvaReceptor", "CondicionIvaReceptor")
	if err != nil {
		return nil, err
	}
	out := make([]model.VATConditionInfo, 0, len(items))
	for _, e := range items {
		id, _ := strconv.Atoi(childText(e, "Id"))
		out = append(out, model.VATConditionInfo{
			ID:           id,
			Description:  childText(e, "Desc"),
			VoucherClass: childText(e, "Cmp_Clase"),
		})
	}
	return out, nil
}

func (s *service) paramLookup(ctx context.Context, auth Auth, opName, itemTag string) ([]*etree.Element, error) {
	result, err := s.call(ctx, opName, operation(opName, auth))
	if err != nil {
		return nil, err
	}
	if details := collectPairs(findChild(result, "Errors"), "Err"); len(details) > 0 {
		return nil, &model.RemoteError{Operation: opName, Details: details}
	}
	resultGet := findChild(result, "ResultGet")
	if resultGet == nil {
		return nil, nil
	}
	var items []*etree.Element
	for _, ch := range resultGet.ChildElements() {
		if ch.Tag == itemTag {
			items = append(items, ch)
		}
	}
	return items, nil
}
