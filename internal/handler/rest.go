package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/inventory-catalog/internal/model"
	"github.com/vyrodovalexey/inventory-catalog/internal/query"
	"github.com/vyrodovalexey/inventory-catalog/internal/store"
)

// Version is the application version.
const Version = "1.0.0"

// ItemIDVar is the route variable holding the item ID.
const ItemIDVar = "item_id"

// Store operation names used in logs.
const (
	opList   = "list items"
	opQuery  = "query items"
	opGet    = "get item"
	opCreate = "create item"
	opUpdate = "update item"
	opDelete = "delete item"
)

// RESTHandler handles REST API requests for items.
type RESTHandler struct {
	store  store.Store
	logger *zap.Logger
	events EventPublisher
}

// NewRESTHandler creates a new RESTHandler instance.
// events may be nil, in which case mutations are not published.
func NewRESTHandler(s store.Store, logger *zap.Logger, events EventPublisher) *RESTHandler {
	return &RESTHandler{
		store:  s,
		logger: logger,
		events: events,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)
	router.HandleFunc("/", h.ListItems).Methods(http.MethodGet)
	router.HandleFunc("/items/", h.QueryItems).Methods(http.MethodGet)
	router.HandleFunc("/items", h.QueryItems).Methods(http.MethodGet)
	router.HandleFunc("/items", h.CreateItem).Methods(http.MethodPost)
	router.HandleFunc("/items/{item_id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/items/{item_id}", h.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/items/{item_id}", h.DeleteItem).Methods(http.MethodDelete)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: Version,
	})
}

// ReadyCheck handles GET /ready requests. The service is ready once the store answers.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.List(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{Status: "not ready"})
		return
	}

	h.writeJSON(w, http.StatusOK, ReadyResponse{Status: "ready"})
}

// ListItems handles GET / requests.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		h.handleStoreError(w, err, opList, 0)
		return
	}

	byID := make(map[int]model.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	h.writeJSON(w, http.StatusOK, model.ListResponse{Items: byID})
}

// QueryItems handles GET /items/ requests.
func (h *RESTHandler) QueryItems(w http.ResponseWriter, r *http.Request) {
	criteria, err := query.Parse(r.URL.Query())
	if err != nil {
		h.logger.Warn("invalid query parameters", zap.Error(err))
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	items, err := h.store.List(r.Context())
	if err != nil {
		h.handleStoreError(w, err, opQuery, 0)
		return
	}

	h.writeJSON(w, http.StatusOK, model.QueryResponse{
		Query:     criteria.Echo(),
		Selection: query.Select(items, criteria),
	})
}

// GetItem handles GET /items/{item_id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	item, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.handleStoreError(w, err, opGet, id)
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

// CreateItem handles POST /items requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeItem(w, r)
	if !ok {
		return
	}

	item, err := h.store.Insert(r.Context(), input)
	if err != nil {
		h.handleStoreError(w, err, opCreate, input.ID)
		return
	}

	h.publish(model.NewItemEvent(model.EventItemCreated, *item, nil))
	h.writeJSON(w, http.StatusOK, model.AddedResponse{Item: *item})
}

// UpdateItem handles PUT /items/{item_id} requests.
// The target is the id carried in the body; the path segment is only checked for consistency.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeItem(w, r)
	if !ok {
		return
	}

	if raw := mux.Vars(r)[ItemIDVar]; raw != strconv.Itoa(input.ID) {
		h.logger.Warn("path item id differs from body id, using body id",
			zap.String("path_id", raw),
			zap.Int("body_id", input.ID),
		)
	}

	old, updated, err := h.store.Replace(r.Context(), input)
	if err != nil {
		h.handleStoreError(w, err, opUpdate, input.ID)
		return
	}

	h.publish(model.NewItemEvent(model.EventItemUpdated, *updated, old))
	h.writeJSON(w, http.StatusOK, model.UpdatedResponse{Old: *old, New: *updated})
}

// DeleteItem handles DELETE /items/{item_id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	item, err := h.store.Remove(r.Context(), id)
	if err != nil {
		h.handleStoreError(w, err, opDelete, id)
		return
	}

	h.publish(model.NewItemEvent(model.EventItemDeleted, *item, nil))
	h.writeJSON(w, http.StatusOK, model.DeletedResponse{Item: *item})
}

// pathID parses the item_id route variable, writing a 422 response on failure.
func (h *RESTHandler) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := mux.Vars(r)[ItemIDVar]

	id, err := strconv.Atoi(raw)
	if err != nil {
		h.logger.Warn("invalid item id", zap.String("item_id", raw), zap.Error(err))
		h.writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("item_id must be an integer, got %q", raw))
		return 0, false
	}

	return id, true
}

// decodeItem reads a complete item from the request body, writing a 422 response on failure.
func (h *RESTHandler) decodeItem(w http.ResponseWriter, r *http.Request) (model.Item, bool) {
	var input model.ItemInput
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		return model.Item{}, false
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		h.logger.Warn("trailing data after request body", zap.Error(err))
		h.writeError(w, http.StatusUnprocessableEntity, "invalid request body: unexpected data after JSON object")
		return model.Item{}, false
	}

	if err := input.Validate(); err != nil {
		h.logger.Warn("validation failed", zap.Error(err))
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return model.Item{}, false
	}

	return input.ToItem(), true
}

// publish forwards an event to the configured publisher, if any.
func (h *RESTHandler) publish(event model.ItemEvent) {
	if h.events == nil {
		return
	}
	h.events.Publish(event)
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, err error, operation string, id int) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		if operation == opGet {
			h.writeError(w, http.StatusNotFound, "Item not Found")
			return
		}
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("Item %d not found in database.", id))
	case errors.Is(err, store.ErrAlreadyExists):
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Item %d already exists", id))
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and detail.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, model.ErrorResponse{Detail: detail})
}
