package models

import "github.com/google/uuid"

// assignID fills an unset primary key so inserts do not depend on gen_random_uuid().
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
