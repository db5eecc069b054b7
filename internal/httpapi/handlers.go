package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/card-table-backend/internal/table"
	"github.com/DoyleJ11/card-table-backend/internal/ws"
	"github.com/DoyleJ11/card-table-backend/pkg/types"
)

// Tables is the hub surface the REST routes need.
type Tables interface {
	CreateTable(ctx context.Context, variantID table.VariantID, capacity int) (types.TableState, error)
	TableState(ctx context.Context, tableID string) (types.TableState, error)
	Variants() []table.Descriptor
}

type Lister interface {
	List() []types.RoomSummary
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(ae *table.ActionError) int {
	switch ae {
	case table.ErrTableNotFound:
		return http.StatusNotFound
	case table.ErrUnknownVariant:
		return http.StatusBadRequest
	case table.ErrInternal:
		return http.StatusInternalServerError
	}
	return http.StatusConflict
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var ae *table.ActionError
	if !errors.As(err, &ae) {
		log.Error("request failed", zap.Error(err))
		ae = table.ErrInternal
	}
	writeJSON(w, statusFor(ae), errorBody{Code: ae.Code, Message: ae.Message})
}

type createTableRequest struct {
	Variant  string `json:"variant"`
	Capacity int    `json:"capacity"`
}

func CreateTable(h Tables, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTableRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: "invalid body"})
			return
		}
		if req.Variant == "" {
			req.Variant = string(table.VariantDouDizhu)
		}
		state, err := h.CreateTable(r.Context(), table.VariantID(req.Variant), req.Capacity)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, state)
	}
}

func ListTables(l Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, l.List())
	}
}

func GetTable(h Tables, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := h.TableState(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

type variantView struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DefaultCapacity int    `json:"defaultCapacity"`
	MinCapacity     int    `json:"minCapacity"`
	MaxCapacity     int    `json:"maxCapacity"`
	CapacityLocked  bool   `json:"capacityLocked"`
}

func ListVariants(h Tables) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := h.Variants()
		out := make([]variantView, 0, len(ds))
		for _, d := range ds {
			out = append(out, variantView{
				ID:              string(d.ID),
				Name:            d.Name,
				DefaultCapacity: d.DefaultCapacity,
				MinCapacity:     d.MinCapacity,
				MaxCapacity:     d.MaxCapacity,
				CapacityLocked:  d.CapacityLocked,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type guestRequest struct {
	Name string `json:"name"`
}

type guestResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Name      string    `json:"displayName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// GuestToken issues a signed guest identity for the websocket handshake.
func GuestToken(auth *ws.Authenticator, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.Enabled() {
			writeJSON(w, http.StatusNotImplemented, errorBody{Code: "AUTH_DISABLED", Message: "guest tokens are not enabled"})
			return
		}
		var req guestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || len(req.Name) > 32 {
			writeJSON(w, http.StatusBadRequest, errorBody{Code: "BAD_REQUEST", Message: "name is required (max 32 characters)"})
			return
		}
		token, id, exp, err := auth.Issue(req.Name)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, guestResponse{Token: token, UserID: id.UserID, Name: id.Name, ExpiresAt: exp})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
