package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUserResponseEmbedsCardSummaries(t *testing.T) {
	apiID := "abc-123"
	u := User{
		ID:       1,
		Username: "ash",
		Email:    "ash@x.com",
		Password: "$2a$hash",
		Cards: []Card{{
			ID:        9,
			Name:      "Black Lotus",
			APICardID: &apiID,
			Users:     []User{{ID: 1, Username: "ash"}},
		}},
	}

	data, err := json.Marshal(NewUserResponse(u))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	got := string(data)
	want := `{"id":1,"username":"ash","email":"ash@x.com","password":"$2a$hash","cards":[{"id":9,"name":"Black Lotus","api_card_id":"abc-123"}]}`
	if got != want {
		t.Errorf("unexpected user json:\n got %s\nwant %s", got, want)
	}
}

func TestCardResponseEmbedsOnlyUsernameAndID(t *testing.T) {
	c := Card{
		ID:   2,
		Name: "Island",
		Users: []User{
			{ID: 1, Username: "ash", Email: "ash@x.com", Password: "secret-hash"},
		},
	}

	data, _ := json.Marshal(NewCardResponse(c))
	got := string(data)
	if strings.Contains(got, "secret-hash") || strings.Contains(got, "email") {
		t.Errorf("card projection leaked user fields: %s", got)
	}
	want := `{"id":2,"name":"Island","api_card_id":null,"users":[{"id":1,"username":"ash"}]}`
	if got != want {
		t.Errorf("unexpected card json:\n got %s\nwant %s", got, want)
	}
}

func TestEmptyRelationsEncodeAsArrays(t *testing.T) {
	data, _ := json.Marshal(NewUserResponses([]User{{ID: 3, Username: "misty"}}))
	if !strings.Contains(string(data), `"cards":[]`) {
		t.Errorf("expected empty cards array, got %s", data)
	}
	data, _ = json.Marshal(NewCardResponses(nil))
	if string(data) != "[]" {
		t.Errorf("expected empty list, got %s", data)
	}
}
