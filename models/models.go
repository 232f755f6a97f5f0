package models

// User owns cards through the "cards" join table.
type User struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	Username string `gorm:"size:80;uniqueIndex;not null"`
	Email    string `gorm:"size:120;uniqueIndex;not null"`
	Password string `gorm:"size:200;not null"` // bcrypt hash
	Cards    []Card `gorm:"many2many:cards;joinForeignKey:UserID;joinReferences:CardID"`
}

func (User) TableName() string {
	return "user"
}

type Card struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:141;uniqueIndex;not null"`
	// APICardID identifies the card in the external catalog.
	APICardID *string `gorm:"column:api_card_id;size:200;uniqueIndex"`
	Users     []User  `gorm:"many2many:cards;joinForeignKey:CardID;joinReferences:UserID"`
}

func (Card) TableName() string {
	return "card"
}

// UserSummary is how a user appears inside a card.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// CardSummary is how a card appears inside a user.
type CardSummary struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	APICardID *string `json:"api_card_id"`
}

type UserResponse struct {
	ID       uint          `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Cards    []CardSummary `json:"cards"`
}

type CardResponse struct {
	ID        uint          `json:"id"`
	Name      string        `json:"name"`
	APICardID *string       `json:"api_card_id"`
	Users     []UserSummary `json:"users"`
}

func NewUserResponse(u User) UserResponse {
	cards := make([]CardSummary, 0, len(u.Cards))
	for _, c := range u.Cards {
		cards = append(cards, CardSummary{ID: c.ID, Name: c.Name, APICardID: c.APICardID})
	}
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Password: u.Password,
		Cards:    cards,
	}
}

func NewCardResponse(c Card) CardResponse {
	users := make([]UserSummary, 0, len(c.Users))
	for _, u := range c.Users {
		users = append(users, UserSummary{ID: u.ID, Username: u.Username})
	}
	return CardResponse{
		ID:        c.ID,
		Name:      c.Name,
		APICardID: c.APICardID,
		Users:     users,
	}
}

func NewUserResponses(users []User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}

func NewCardResponses(cards []Card) []CardResponse {
	out := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, NewCardResponse(c))
	}
	return out
}
