package config

import (
	"testing"

	"github.com/gofrs/uuid"
)

func TestCreateUniqueInstance(t *testing.T) {
	id := CreateUniqueInstance("game")

	parsed, err := uuid.FromString(id)
	if err != nil {
		t.Fatalf("instance id %q is not a uuid: %v", id, err)
	}
	if parsed.Version() != 4 {
		t.Fatalf("expected a v4 uuid, got version %d", parsed.Version())
	}
	if GetInstanceId() != id {
		t.Fatalf("GetInstanceId() = %q, want %q", GetInstanceId(), id)
	}
}
