package core

import "github.com/google/uuid"

// Token is the payload carried by a draggable color node.
// Manipulated is set once the user has pulled it out of its slot.
type Token struct {
	Color       Color
	Manipulated bool
}

// MarkerRef is the payload carried by a marker node. It holds the record key,
// never a copy of the record.
type MarkerRef struct {
	AnchorID uuid.UUID
}

// CollisionEvent reports that two scene nodes started touching.
type CollisionEvent struct {
	A uint64
	B uint64
}
