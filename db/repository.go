package db

import (
	"context"
	"errors"
	"strings"

	"mtgstone/models"

	"gorm.io/gorm"
)

const joinTable = "cards"

func orderByID(tx *gorm.DB) *gorm.DB {
	return tx.Order("id")
}

// CreateUser inserts a user whose password is already hashed. Username is
// checked before email.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user := &models.User{Username: username, Email: email, Password: passwordHash}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := exists(tx.Model(&models.User{}).Where("username = ?", username))
		if err != nil {
			return err
		}
		if taken {
			return ErrUsernameTaken
		}
		taken, err = exists(tx.Model(&models.User{}).Where("email = ?", email))
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUsernameTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap(ctx, "create user", err)
	}
	user.Cards = []models.Card{}
	return user, nil
}

// UserByID loads a user with its cards.
func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.DB.WithContext(ctx).Preload("Cards", orderByID).First(&user, id).Error
	if err != nil {
		return nil, s.wrap(ctx, "user by id", notFound(err, ErrUserNotFound))
	}
	return &user, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, s.wrap(ctx, "user by email", notFound(err, ErrUserNotFound))
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var users []models.User
	err := s.DB.WithContext(ctx).Preload("Cards", orderByID).Order("id").Find(&users).Error
	if err != nil {
		return nil, s.wrap(ctx, "list users", err)
	}
	return users, nil
}

func (s *Store) ListCards(ctx context.Context) ([]models.Card, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var cards []models.Card
	err := s.DB.WithContext(ctx).Preload("Users", orderByID).Order("id").Find(&cards).Error
	if err != nil {
		return nil, s.wrap(ctx, "list cards", err)
	}
	return cards, nil
}

// DeleteUser removes the user and its ownership rows. Cards are kept even
// when they end up with no owner.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if err := tx.Model(&user).Association("Cards").Clear(); err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return s.wrap(ctx, "delete user", err)
	}
	return nil
}

// AddCardToUser attaches the card identified by apiCardID to the user,
// creating the card from cardName first if it is not stored yet. The
// returned bool reports whether the card was created.
func (s *Store) AddCardToUser(ctx context.Context, userID uint, apiCardID, cardName string) (*models.Card, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		card    models.Card
		created bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}

		err := tx.Where("api_card_id = ?", apiCardID).First(&card).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			name := strings.TrimSpace(cardName)
			if name == "" {
				return ErrCardNameRequired
			}
			taken, err := exists(tx.Model(&models.Card{}).Where("name = ?", name))
			if err != nil {
				return err
			}
			if taken {
				return ErrCardNameTaken
			}
			card = models.Card{Name: name, APICardID: &apiCardID}
			if err := tx.Create(&card).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrCardNameTaken
				}
				return err
			}
			created = true
		case err != nil:
			return err
		}

		owned, err := owns(tx, user.ID, card.ID)
		if err != nil {
			return err
		}
		if owned {
			return ErrAlreadyOwned
		}
		if err := tx.Model(&user).Association("Cards").Append(&card); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyOwned
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, false, s.wrap(ctx, "add card to user", err)
	}
	return &card, created, nil
}

// RemoveCardFromUser detaches the card from the user. The card row stays.
func (s *Store) RemoveCardFromUser(ctx context.Context, userID uint, apiCardID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var card models.Card
		if err := tx.Where("api_card_id = ?", apiCardID).First(&card).Error; err != nil {
			return notFound(err, ErrCardNotFound)
		}
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}

		owned, err := owns(tx, user.ID, card.ID)
		if err != nil {
			return err
		}
		if !owned {
			return ErrNotOwned
		}
		return tx.Model(&user).Association("Cards").Delete(&card)
	})
	if err != nil {
		return s.wrap(ctx, "remove card from user", err)
	}
	return nil
}

func owns(tx *gorm.DB, userID, cardID uint) (bool, error) {
	return exists(tx.Table(joinTable).Where("user_id = ? AND card_id = ?", userID, cardID))
}

func exists(query *gorm.DB) (bool, error) {
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
