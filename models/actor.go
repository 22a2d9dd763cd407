package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Actor je već verifikovan identitet iz auth sloja; ovaj servis ne
// proverava lozinke niti potpise - samo čita tvrdnje iz tokena.
type Actor struct {
	ID    primitive.ObjectID `json:"id"`
	Email string             `json:"email"`
	// IsAdmin je globalni admin flag koji upstream auth sloj postavlja.
	IsAdmin bool `json:"isAdmin"`
}
