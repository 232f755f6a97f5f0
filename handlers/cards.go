package handlers

import (
	"net/http"

	"mtgstone/logger"
	"mtgstone/models"
)

type addCardRequest struct {
	APICardID string `json:"api_card_id" validate:"required,max=200"`
	UserID    uint   `json:"user_id" validate:"required"`
	// CardName is only needed when the card is not stored yet.
	CardName string `json:"card_name" validate:"max=141"`
}

type removeCardRequest struct {
	APICardID string `json:"api_card_id" validate:"required,max=200"`
	UserID    uint   `json:"user_id" validate:"required"`
}

func (h *Handler) AddCardToUser(w http.ResponseWriter, r *http.Request) {
	var req addCardRequest
	if !h.decode(w, r, &req) {
		return
	}

	card, created, err := h.store.AddCardToUser(r.Context(), req.UserID, req.APICardID, req.CardName)
	if err != nil {
		fail(w, r, err)
		return
	}
	logger.Debug("card added",
		"request_id", RequestID(r.Context()),
		"user_id", req.UserID,
		"card_id", card.ID,
		"created", created,
	)
	message(w, r, http.StatusOK, "AddedToLibrary")
}

func (h *Handler) RemoveCardFromUser(w http.ResponseWriter, r *http.Request) {
	var req removeCardRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.store.RemoveCardFromUser(r.Context(), req.UserID, req.APICardID); err != nil {
		fail(w, r, err)
		return
	}
	message(w, r, http.StatusOK, "CardDeleted")
}

func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.store.ListCards(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewCardResponses(cards))
}
