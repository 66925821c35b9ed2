package entitlement

import "errors"

var (
	ErrInvalidCatalog = errors.New("invalid feature catalog configuration")
	ErrUnknownFeature = errors.New("unknown feature")
	ErrUnknownMetric  = errors.New("unknown usage metric")
)
