package apikeys

import "github.com/google/uuid"

func newRandomID() string {
	return uuid.New().String()
}
