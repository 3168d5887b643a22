package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/fridgly/internal/auth"
	"github.com/dukerupert/fridgly/internal/model"
	ws "github.com/dukerupert/fridgly/internal/websocket"
)

const maxBatchSize = 100

type ItemService interface {
	AddItems(ctx context.Context, groupID string, drafts []model.ItemDraft) ([]model.Item, error)
	ListActiveItems(ctx context.Context, groupID string) ([]model.Item, error)
	GetItem(ctx context.Context, groupID, itemID string) (*model.Item, error)
	UpdateItem(ctx context.Context, groupID, itemID string, patch model.ItemPatch) (*model.Item, error)
	SoftDeleteItem(ctx context.Context, groupID, itemID string) error
}

type Broadcaster interface {
	Broadcast(groupID string, msg ws.Message)
}

type ItemHandler struct {
	items  ItemService
	hub    Broadcaster
	logger *slog.Logger
}

func NewItemHandler(items ItemService, hub Broadcaster, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{items: items, hub: hub, logger: logger}
}

type addItemsRequest struct {
	Items []model.ItemDraft `json:"items"`
}

type itemsResponse struct {
	Items []model.Item `json:"items"`
	Error string       `json:"error,omitempty"`
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.ListActiveItems(r.Context(), auth.GroupID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, "list items", err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items is required")
		return
	}
	if len(req.Items) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d items per request", maxBatchSize))
		return
	}
	for i := range req.Items {
		if err := validateDraft(&req.Items[i]); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("items[%d]: %v", i, err))
			return
		}
	}

	groupID := auth.GroupID(r.Context())
	created, err := h.items.AddItems(r.Context(), groupID, req.Items)
	for i := range created {
		h.hub.Broadcast(groupID, ws.ItemMessage(ws.ActionCreated, created[i].ID, &created[i]))
	}
	if err != nil {
		status, text := statusFor(err)
		if status >= 500 {
			h.logger.Error("add items", "committed", len(created), "error", err)
		}
		if created == nil {
			created = []model.Item{}
		}
		writeJSON(w, status, itemsResponse{Items: created, Error: text})
		return
	}
	writeJSON(w, http.StatusCreated, itemsResponse{Items: created})
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.items.GetItem(r.Context(), auth.GroupID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, "get item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if patch.IsEmpty() {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	if err := validatePatch(patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	groupID := auth.GroupID(r.Context())
	item, err := h.items.UpdateItem(r.Context(), groupID, r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, h.logger, "update item", err)
		return
	}
	h.hub.Broadcast(groupID, ws.ItemMessage(ws.ActionUpdated, item.ID, item))
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	groupID := auth.GroupID(r.Context())
	id := r.PathValue("id")
	if err := h.items.SoftDeleteItem(r.Context(), groupID, id); err != nil {
		writeServiceError(w, h.logger, "delete item", err)
		return
	}
	h.hub.Broadcast(groupID, ws.ItemMessage(ws.ActionDeleted, id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func validYesNo(v model.YesNo) bool {
	return v == model.Yes || v == model.No
}

// validateDraft normalizes d in place and rejects drafts the repository
// cannot derive an expiry for.
func validateDraft(d *model.ItemDraft) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return errors.New("name is required")
	}
	if d.Price < 0 {
		return errors.New("price must not be negative")
	}
	if d.IsFood == "" {
		d.IsFood = model.Yes
	}
	if d.CanBeLeftOut == "" {
		d.CanBeLeftOut = model.No
	}
	for field, v := range map[string]model.YesNo{
		"isFood":       d.IsFood,
		"goesInFridge": d.GoesInFridge,
		"canBeLeftOut": d.CanBeLeftOut,
	} {
		if !validYesNo(v) {
			return fmt.Errorf("%s must be %q or %q", field, model.Yes, model.No)
		}
	}
	if d.GoesInFridge.Bool() && d.ExpirationRefrigerated.IsZero() {
		return errors.New("expirationRefrigerated is required for fridge items")
	}
	if !d.GoesInFridge.Bool() && d.ExpirationRoomTemp.IsZero() {
		return errors.New("expirationRoomTemp is required for pantry items")
	}
	return nil
}

func validatePatch(p model.ItemPatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return errors.New("name must not be empty")
	}
	if p.Price != nil && *p.Price < 0 {
		return errors.New("price must not be negative")
	}
	pp := p.Properties
	if pp == nil {
		return nil
	}
	for field, v := range map[string]*model.YesNo{
		"isFood":         pp.IsFood,
		"goesInFridge":   pp.GoesInFridge,
		"canBeLeftOut":   pp.CanBeLeftOut,
		"isCustomExpiry": pp.IsCustomExpiry,
	} {
		if v != nil && !validYesNo(*v) {
			return fmt.Errorf("properties.%s must be %q or %q", field, model.Yes, model.No)
		}
	}
	if pp.AlertStatus != nil && *pp.AlertStatus != model.AlertActive && *pp.AlertStatus != model.AlertNotified {
		return fmt.Errorf("properties.alertStatus must be %q or %q", model.AlertActive, model.AlertNotified)
	}
	if pp.ExpiryNotificationOffset != nil && *pp.ExpiryNotificationOffset < 0 {
		return errors.New("properties.expiryNotificationOffset must not be negative")
	}
	return nil
}
