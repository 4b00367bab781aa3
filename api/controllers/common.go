package controllers

import (
	"github.com/google/uuid"

	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
)

func parseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "must be a UUID").
			WithDetails(map[string]any{"field": field})
	}
	return id, nil
}
