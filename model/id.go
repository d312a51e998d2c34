package model

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateID returns a new random identifier in canonical UUID string form.
//
// Users, posts, comments, likes, reports, notifications and blobs all share
// this format.
func GenerateID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func MustGenerateID() string {
	id, err := GenerateID()
	if err != nil {
		panic(fmt.Sprintf("failed to generate id: %v", err))
	}

	return id
}

// IsValidID reports whether id parses as a UUID.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
