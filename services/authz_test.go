package services

import (
	"testing"

	"github.com/anjiri1684/gym_studio/models"
	"github.com/google/uuid"
)

func TestCanActOnMember(t *testing.T) {
	owner := uuid.New()
	member := models.Member{ID: uuid.New(), UserID: owner}

	tests := []struct {
		name string
		p    Principal
		want bool
	}{
		{"owner", Principal{UserID: owner, Role: models.RoleMember}, true},
		{"other member", Principal{UserID: uuid.New(), Role: models.RoleMember}, false},
		{"admin", Principal{UserID: uuid.New(), Role: models.RoleAdmin}, true},
		{"staff", Principal{UserID: uuid.New(), Role: models.RoleStaff}, true},
		{"trainer", Principal{UserID: uuid.New(), Role: models.RoleTrainer}, true},
		{"unknown role", Principal{UserID: owner, Role: "guest"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanActOnMember(tt.p, member); got != tt.want {
				t.Errorf("CanActOnMember() = %t; want %t", got, tt.want)
			}
		})
	}
}
