package planbuilder

import "github.com/clickgraph/cyphersql/internal/compileerr"

func errf(msg string) error {
	return compileerr.ErrParse.New(0, msg)
}

func errUnknownRelationshipType(edgeType, fromLabel, toLabel string) error {
	return compileerr.ErrUnknownRelationshipType.New(edgeType, fromLabel, toLabel)
}
