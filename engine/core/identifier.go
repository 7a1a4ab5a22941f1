package core

import "github.com/google/uuid"

// ID identifies a directive for selection bookkeeping. IDs are never
// written to LDraw files.
type ID = uuid.UUID

// NilID is the zero ID, held by nothing.
var NilID = uuid.Nil

func IdentifierAquireNewID() ID {
	return uuid.New()
}
